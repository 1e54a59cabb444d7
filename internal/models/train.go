// -----------------------------------------------------------------------------
// Train Model
// -----------------------------------------------------------------------------
// A scheduled train: an ordered route of stations and a fixed seat count.
// BookedSeats is filled from the seat store on every read; the trains table
// itself never stores occupancy.
// -----------------------------------------------------------------------------

package models

import (
	"strings"
	"time"
)

const (
	MaxTrainSeats = 400
	MinRouteStops = 2
)

// Train is the persisted train record.
type Train struct {
	BaseModel
	Name          string    `json:"name" db:"name"`
	TrainNumber   string    `json:"trainNumber" db:"train_number"`
	Route         []string  `json:"route" db:"route"`
	TotalSeats    int       `json:"totalSeats" db:"total_seats"`
	BookedSeats   []string  `json:"bookedSeats" db:"-"`
	DepartureTime time.Time `json:"departureTime" db:"departure_time"`
}

// StationIndex returns the position of station on the route, or -1.
func (t *Train) StationIndex(station string) int {
	for i, s := range t.Route {
		if s == station {
			return i
		}
	}
	return -1
}

// CoversSegment reports whether from and to are both on the route with from
// strictly before to.
func (t *Train) CoversSegment(from, to string) bool {
	start, end := t.StationIndex(from), t.StationIndex(to)
	return start != -1 && end != -1 && start < end
}

// SeatMap returns the occupancy snapshot for this train.
func (t *Train) SeatMap() SeatMap {
	return NewSeatMap(t.TotalSeats, t.BookedSeats)
}

// Validate checks the fields an admin supplies when creating or editing a train.
func (t *Train) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ValidationError{Field: "name", Msg: "is required"}
	}
	if strings.TrimSpace(t.TrainNumber) == "" {
		return ValidationError{Field: "trainNumber", Msg: "is required"}
	}
	if len(t.Route) < MinRouteStops {
		return ValidationError{Field: "route", Msg: "needs at least two stations"}
	}
	seen := make(map[string]struct{}, len(t.Route))
	for _, station := range t.Route {
		if strings.TrimSpace(station) == "" {
			return ValidationError{Field: "route", Msg: "station names cannot be empty"}
		}
		if _, dup := seen[station]; dup {
			return ValidationError{Field: "route", Msg: "station " + station + " appears twice"}
		}
		seen[station] = struct{}{}
	}
	if t.TotalSeats < 1 || t.TotalSeats > MaxTrainSeats {
		return ValidationError{Field: "totalSeats", Msg: "must be between 1 and 400"}
	}
	if t.DepartureTime.IsZero() {
		return ValidationError{Field: "departureTime", Msg: "is required"}
	}
	return nil
}

// TrainAvailability is the read model returned by search and detail endpoints.
type TrainAvailability struct {
	Train
	AvailableCount int      `json:"availableCount"`
	PrioritySeats  []string `json:"prioritySeats"`
}

// NewTrainAvailability derives the counters from the train's booked seats.
func NewTrainAvailability(t Train) TrainAvailability {
	seats := t.SeatMap()
	t.BookedSeats = seats.Booked()
	return TrainAvailability{
		Train:          t,
		AvailableCount: seats.AvailableCount(),
		PrioritySeats:  seats.PrioritySeats(),
	}
}
