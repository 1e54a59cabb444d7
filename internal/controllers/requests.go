// -----------------------------------------------------------------------------
// Request payloads
// -----------------------------------------------------------------------------
// Every JSON body is decoded into one of these structs (unknown fields are
// rejected) and checked with Validate before a service is called. Services
// re-check the domain rules; these checks only cover the payload shape.
// -----------------------------------------------------------------------------

package controllers

import (
	"strings"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/services"
)

type validatable interface {
	Validate() error
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return models.ValidationError{Field: field, Msg: "is required"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReserveTicketRequest is the body of POST /trains/{trainId}/tickets.
type ReserveTicketRequest struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	SeatCodes      []string `json:"seatCodes"`
	TravelClass    string   `json:"travelClass"`
	PassengerCount int      `json:"passengerCount"`
}

func (r *ReserveTicketRequest) Validate() error {
	if err := firstError(
		required("from", r.From),
		required("to", r.To),
		required("travelClass", r.TravelClass),
	); err != nil {
		return err
	}
	if len(r.SeatCodes) == 0 {
		return models.ValidationError{Field: "seatCodes", Msg: "select at least one seat"}
	}
	if len(r.SeatCodes) > models.MaxPassengers {
		return models.ValidationError{Field: "seatCodes", Msg: "at most 10 seats per booking"}
	}
	return nil
}

func (r *ReserveTicketRequest) toService(trainID, userID string) services.ReserveRequest {
	return services.ReserveRequest{
		TrainID:        trainID,
		From:           strings.TrimSpace(r.From),
		To:             strings.TrimSpace(r.To),
		SeatCodes:      r.SeatCodes,
		TravelClass:    strings.TrimSpace(r.TravelClass),
		PassengerCount: r.PassengerCount,
		UserID:         userID,
	}
}

// QuoteRequest is the body of POST /trains/{trainId}/quote.
type QuoteRequest struct {
	From           string `json:"from"`
	To             string `json:"to"`
	TravelClass    string `json:"travelClass"`
	PassengerCount int    `json:"passengerCount"`
}

func (r *QuoteRequest) Validate() error {
	return firstError(
		required("from", r.From),
		required("to", r.To),
		required("travelClass", r.TravelClass),
	)
}

// TrainRequest is the admin create/update body.
type TrainRequest struct {
	Name          string    `json:"name"`
	TrainNumber   string    `json:"trainNumber"`
	Route         []string  `json:"route"`
	TotalSeats    int       `json:"totalSeats"`
	DepartureTime time.Time `json:"departureTime"`
}

// Validate leaves the full rule set to models.Train.Validate.
func (r *TrainRequest) Validate() error {
	return firstError(
		required("name", r.Name),
		required("trainNumber", r.TrainNumber),
	)
}

func (r *TrainRequest) toService() services.TrainInput {
	return services.TrainInput{
		Name:          r.Name,
		TrainNumber:   r.TrainNumber,
		Route:         r.Route,
		TotalSeats:    r.TotalSeats,
		DepartureTime: r.DepartureTime,
	}
}

// WarrantRequest is the body of POST /warrants.
type WarrantRequest struct {
	PassengerName string `json:"passengerName"`
	NIC           string `json:"nic"`
	Train         string `json:"train"`
	Date          string `json:"date"`
	Reason        string `json:"reason"`
}

func (r *WarrantRequest) Validate() error {
	if err := firstError(
		required("passengerName", r.PassengerName),
		required("nic", r.NIC),
		required("train", r.Train),
		required("date", r.Date),
		required("reason", r.Reason),
	); err != nil {
		return err
	}
	if _, err := time.Parse(services.DateLayout, strings.TrimSpace(r.Date)); err != nil {
		return models.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	return nil
}

// VerifyPassRequest is the body of POST /passes/verify.
type VerifyPassRequest struct {
	Payload string `json:"payload"`
}

func (r *VerifyPassRequest) Validate() error {
	return required("payload", r.Payload)
}
