package controllers

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/internal/services"
)

type TrainController struct {
	trains  *services.TrainService
	booking *services.BookingService
	logger  Logger
}

func NewTrainController(trains *services.TrainService, booking *services.BookingService, logger Logger) *TrainController {
	return &TrainController{trains: trains, booking: booking, logger: logger}
}

// Search handles GET /trains?from=&to=
func (c *TrainController) Search(w http.ResponseWriter, r *request.Request) {
	from, to := r.Query("from", ""), r.Query("to", "")

	results, err := c.trains.Search(r.Context(), from, to)
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, results, map[string]any{
		"count": len(results),
		"from":  from,
		"to":    to,
	})
}

// Show handles GET /trains/{trainId}
func (c *TrainController) Show(w http.ResponseWriter, r *request.Request) {
	train, err := c.trains.Detail(r.Context(), r.RouteParam("trainId"))
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, train, nil)
}

// Quote handles POST /trains/{trainId}/quote
func (c *TrainController) Quote(w http.ResponseWriter, r *request.Request) {
	var body QuoteRequest
	if !decode(w, r, &body) {
		return
	}

	quote, err := c.booking.Quote(r.Context(), services.QuoteRequest{
		TrainID:        r.RouteParam("trainId"),
		From:           body.From,
		To:             body.To,
		TravelClass:    body.TravelClass,
		PassengerCount: body.PassengerCount,
	})
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, quote, nil)
}

// Create handles POST /admin/trains
func (c *TrainController) Create(w http.ResponseWriter, r *request.Request) {
	var body TrainRequest
	if !decode(w, r, &body) {
		return
	}

	train, err := c.trains.Create(r.Context(), body.toService())
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}

	w.Header().Set("Location", "/trains/"+train.ID)
	response.Success(w, http.StatusCreated, train, nil)
}

// Update handles PUT /admin/trains/{trainId}
func (c *TrainController) Update(w http.ResponseWriter, r *request.Request) {
	var body TrainRequest
	if !decode(w, r, &body) {
		return
	}

	train, err := c.trains.Update(r.Context(), r.RouteParam("trainId"), body.toService())
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, train, nil)
}

// Delete handles DELETE /admin/trains/{trainId}
func (c *TrainController) Delete(w http.ResponseWriter, r *request.Request) {
	if err := c.trains.Delete(r.Context(), r.RouteParam("trainId")); err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.NoContent(w)
}

// NextNumber handles GET /admin/trains/next-number
func (c *TrainController) NextNumber(w http.ResponseWriter, r *request.Request) {
	number, err := c.trains.NextTrainNumber(r.Context())
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, map[string]string{"trainNumber": number}, nil)
}
