package repositories

import "github.com/biyonik/rail-booking-api/pkg/database/migration"

// Migrations returns the schema of the MySQL drivers in apply order.
func Migrations() []migration.Migration {
	return []migration.Migration{
		{
			Name: "2024_01_01_000001_create_trains_table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS trains (
					id CHAR(36) NOT NULL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					train_number VARCHAR(32) NOT NULL,
					route JSON NOT NULL,
					total_seats INT UNSIGNED NOT NULL,
					departure_time DATETIME NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					UNIQUE KEY trains_train_number_unique (train_number),
					KEY trains_departure_time_index (departure_time)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
		},
		{
			Name: "2024_01_01_000002_create_train_seats_table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS train_seats (
					train_id CHAR(36) NOT NULL,
					seat_code VARCHAR(8) NOT NULL,
					ticket_id CHAR(36) NOT NULL,
					booked_at DATETIME NOT NULL,
					PRIMARY KEY (train_id, seat_code),
					KEY train_seats_ticket_index (train_id, ticket_id)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
		},
		{
			Name: "2024_01_01_000003_create_tickets_table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS tickets (
					id CHAR(36) NOT NULL PRIMARY KEY,
					user_id VARCHAR(64) NOT NULL,
					train_id CHAR(36) NOT NULL,
					from_station VARCHAR(255) NOT NULL,
					to_station VARCHAR(255) NOT NULL,
					seat_codes JSON NOT NULL,
					travel_class VARCHAR(32) NOT NULL,
					fare BIGINT NOT NULL,
					status VARCHAR(16) NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					KEY tickets_user_created_index (user_id, created_at),
					KEY tickets_status_created_index (status, created_at)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
		},
		{
			Name: "2024_01_01_000004_create_warrants_table",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS warrants (
					id CHAR(36) NOT NULL PRIMARY KEY,
					passenger_name VARCHAR(255) NOT NULL,
					nic VARCHAR(32) NOT NULL,
					train VARCHAR(255) NOT NULL,
					travel_date VARCHAR(32) NOT NULL,
					reason TEXT NOT NULL,
					status VARCHAR(16) NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					KEY warrants_status_index (status)
				) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			},
		},
	}
}
