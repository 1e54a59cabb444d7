package models

import "strings"

// WarrantStatusPending is the only status a submitted warrant starts with.
const WarrantStatusPending = "pending"

// Warrant is a railway warrant request (free travel for an eligible
// passenger) submitted by a passenger and reviewed by staff.
type Warrant struct {
	BaseModel
	PassengerName string `json:"passengerName" db:"passenger_name"`
	NIC           string `json:"nic" db:"nic"`
	Train         string `json:"train" db:"train"`
	Date          string `json:"date" db:"travel_date"`
	Reason        string `json:"reason" db:"reason"`
	Status        string `json:"status" db:"status"`
}

// Validate requires every field.
func (w *Warrant) Validate() error {
	fields := []struct{ name, value string }{
		{"passengerName", w.PassengerName},
		{"nic", w.NIC},
		{"train", w.Train},
		{"date", w.Date},
		{"reason", w.Reason},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return ValidationError{Field: f.name, Msg: "is required"}
		}
	}
	return nil
}

// Overview holds the admin dashboard counters.
type Overview struct {
	Date            string `json:"date"`
	TotalTrains     int    `json:"totalTrains"`
	ActiveBookings  int    `json:"activeBookings"`
	TotalWarrants   int    `json:"totalWarrants"`
	PendingWarrants int    `json:"pendingWarrants"`
}
