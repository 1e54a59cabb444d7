package controllers

import (
	"net/http"

	"github.com/biyonik/rail-booking-api/internal/http/request"
	"github.com/biyonik/rail-booking-api/internal/http/response"
	"github.com/biyonik/rail-booking-api/internal/models"
	"github.com/biyonik/rail-booking-api/internal/services"
)

// AdminController serves the dashboard and warrant review. Routes are
// guarded by middleware.Admin.
type AdminController struct {
	overview *services.OverviewService
	warrants *services.WarrantService
	logger   Logger
}

func NewAdminController(overview *services.OverviewService, warrants *services.WarrantService, logger Logger) *AdminController {
	return &AdminController{overview: overview, warrants: warrants, logger: logger}
}

// Overview handles GET /admin/overview?date=YYYY-MM-DD
func (c *AdminController) Overview(w http.ResponseWriter, r *request.Request) {
	overview, err := c.overview.Overview(r.Context(), r.Query("date", ""))
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusOK, overview, nil)
}

// Warrants handles GET /warrants
func (c *AdminController) Warrants(w http.ResponseWriter, r *request.Request) {
	warrants, err := c.warrants.List(r.Context())
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	if warrants == nil {
		warrants = []*models.Warrant{}
	}
	response.Success(w, http.StatusOK, warrants, map[string]int{"count": len(warrants)})
}

// SubmitWarrant handles POST /warrants
func (c *AdminController) SubmitWarrant(w http.ResponseWriter, r *request.Request) {
	var body WarrantRequest
	if !decode(w, r, &body) {
		return
	}

	warrant, err := c.warrants.Submit(r.Context(), services.WarrantInput{
		PassengerName: body.PassengerName,
		NIC:           body.NIC,
		Train:         body.Train,
		Date:          body.Date,
		Reason:        body.Reason,
	})
	if err != nil {
		respondError(w, r, c.logger, err)
		return
	}
	response.Success(w, http.StatusCreated, map[string]string{"id": warrant.ID, "status": warrant.Status}, nil)
}
