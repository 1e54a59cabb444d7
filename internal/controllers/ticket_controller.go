package controllers

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/services"
)

// TicketController serves bookings. The caller identity always comes from
// the bearer token.
type TicketController struct {
	booking *services.BookingService
	logger  Logger
}

func NewTicketController(booking *services.BookingService, logger Logger) *TicketController {
	return &TicketController{booking: booking, logger: logger}
}

type reserveResponse struct {
	TicketID  string   `json:"ticketId"`
	Fare      int64    `json:"fare"`
	SeatCodes []string `json:"seatCodes"`
	Status    string   `json:"status"`
}

// Reserve handles POST /trains/{trainId}/tickets
func (c *TicketController) Reserve(w http.ResponseWriter, r *request.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var body ReserveTicketRequest
	if !decode(w, r, &body) {
		return
	}

	ticket, err := c.booking.Reserve(r.Context(), body.toService(r.RouteParam("trainId"), identity.UserID))
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}

	w.Header().Set("Location", "/tickets/"+ticket.ID)
	response.Success(w, http.StatusCreated, reserveResponse{
		TicketID:  ticket.ID,
		Fare:      ticket.Fare,
		SeatCodes: ticket.SeatCodes,
		Status:    string(ticket.Status),
	}, nil)
}

// Cancel handles DELETE /tickets/{ticketId}
func (c *TicketController) Cancel(w http.ResponseWriter, r *request.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	if _, err := c.booking.Cancel(r.Context(), r.RouteParam("ticketId"), identity); err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.NoContent(w)
}

// Index handles GET /tickets
func (c *TicketController) Index(w http.ResponseWriter, r *request.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	tickets, err := c.booking.UserTickets(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	response.Success(w, http.StatusOK, tickets, map[string]int{"count": len(tickets)})
}

// Show handles GET /tickets/{ticketId}
func (c *TicketController) Show(w http.ResponseWriter, r *request.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	ticket, err := c.booking.Ticket(r.Context(), r.RouteParam("ticketId"), identity)
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, ticket, nil)
}

// Pass handles GET /tickets/{ticketId}/pass
func (c *TicketController) Pass(w http.ResponseWriter, r *request.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	png, err := c.booking.TicketPass(r.Context(), r.RouteParam("ticketId"), identity)
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Binary(w, "image/png", png)
}

// VerifyPass handles POST /passes/verify
func (c *TicketController) VerifyPass(w http.ResponseWriter, r *request.Request) {
	var body VerifyPassRequest
	if !decode(w, r, &body) {
		return
	}

	result, err := c.booking.VerifyPass(r.Context(), body.Payload)
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, result, nil)
}
