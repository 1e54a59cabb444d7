package router

import (
	"github.com/biyonik/rail-booking-api/internal/controllers"
	"github.com/biyonik/rail-booking-api/internal/middleware"
	"github.com/biyonik/rail-booking-api/pkg/auth"
)

// Handlers are the controllers behind the API.
type Handlers struct {
	Trains  *controllers.TrainController
	Tickets *controllers.TicketController
	Admin   *controllers.AdminController
	Health  *controllers.HealthController
}

type Options struct {
	JWT auth.JWTConfig

	// BookingLimiter throttles reservations per user. Optional.
	BookingLimiter *middleware.RateLimiter
}

// RegisterRoutes mounts the whole API on r.
func RegisterRoutes(r *Router, h Handlers, opts Options) {
	authenticated := middleware.Auth(opts.JWT)

	r.GET("/health", h.Health.Health)

	// Public catalogue
	r.GET("/trains", h.Trains.Search)
	r.GET("/trains/{trainId}", h.Trains.Show)
	r.POST("/trains/{trainId}/quote", h.Trains.Quote)

	// Bookings
	reserve := r.POST("/trains/{trainId}/tickets", h.Tickets.Reserve).Middleware(authenticated)
	if opts.BookingLimiter != nil {
		reserve.Middleware(opts.BookingLimiter.Middleware(middleware.ClientKey))
	}

	tickets := r.Group("/tickets")
	tickets.Use(authenticated)
	tickets.GET("", h.Tickets.Index)
	tickets.GET("/{ticketId}", h.Tickets.Show)
	tickets.GET("/{ticketId}/pass", h.Tickets.Pass)
	tickets.DELETE("/{ticketId}", h.Tickets.Cancel)

	r.POST("/passes/verify", h.Tickets.VerifyPass).Middleware(authenticated)

	// Warrants
	r.POST("/warrants", h.Admin.SubmitWarrant).Middleware(authenticated)
	r.GET("/warrants", h.Admin.Warrants).
		Middleware(authenticated).
		Middleware(middleware.Admin())

	// Admin
	admin := r.Group("/admin")
	admin.Use(authenticated)
	admin.Use(middleware.Admin())
	admin.GET("/overview", h.Admin.Overview)
	admin.GET("/trains/next-number", h.Trains.NextNumber)
	admin.POST("/trains", h.Trains.Create)
	admin.PUT("/trains/{trainId}", h.Trains.Update)
	admin.DELETE("/trains/{trainId}", h.Trains.Delete)
}
