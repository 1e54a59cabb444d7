// -----------------------------------------------------------------------------
// Render Ticket Pass Job
// -----------------------------------------------------------------------------
// Queued after ticket.booked. Renders the signed QR pass of the ticket and
// stores it at passes/<ticketId>.png so GET /tickets/{id}/pass can serve the
// file without re-encoding.
//
// Only TicketID travels through the queue. The collaborators are injected by
// the registry factory on the worker side (see Register).
// -----------------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"

	"github.com/biyonik/rail-booking-api/internal/patterns/factory"
	"github.com/biyonik/rail-booking-api/internal/repositories"
	"github.com/biyonik/rail-booking-api/pkg/queue"
	"github.com/biyonik/rail-booking-api/pkg/storage"
)

// RenderTicketPassType is the registry key of RenderTicketPassJob.
const RenderTicketPassType = "ticket.render_pass"

// PassQueue is the queue pass rendering runs on.
const PassQueue = "passes"

// Logger is the subset of *log.Logger the jobs use.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// PassDeps are the collaborators of the render job.
type PassDeps struct {
	Tickets repositories.TicketRepository
	Passes  *factory.TicketPassFactory
	Storage storage.Storage
	Logger  Logger
}

type RenderTicketPassJob struct {
	TicketID string `json:"ticket_id"`

	deps *PassDeps
}

func NewRenderTicketPassJob(ticketID string, deps *PassDeps) *RenderTicketPassJob {
	return &RenderTicketPassJob{TicketID: ticketID, deps: deps}
}

// Register makes the worker able to rebuild render jobs with deps attached.
func Register(registry *queue.Registry, deps *PassDeps) {
	registry.Register(RenderTicketPassType, func() queue.Job {
		return &RenderTicketPassJob{deps: deps}
	})
}

func (j *RenderTicketPassJob) Type() string {
	return RenderTicketPassType
}

func (j *RenderTicketPassJob) MaxAttempts() int {
	return 5
}

func (j *RenderTicketPassJob) Handle(ctx context.Context) error {
	if j.deps == nil {
		return fmt.Errorf("render pass job %s has no dependencies", j.TicketID)
	}

	ticket, err := j.deps.Tickets.FindByID(ctx, j.TicketID)
	if err != nil {
		return err
	}

	// Cancelled before the worker got to it: nothing to render.
	if !ticket.IsConfirmed() {
		j.deps.Logger.Printf("🧹 Skipping pass for %s ticket %s", ticket.Status, ticket.ID)
		return nil
	}

	png, err := j.deps.Passes.Render(ticket)
	if err != nil {
		return err
	}
	if err := j.deps.Storage.Put(ctx, factory.PassPath(ticket.ID), png); err != nil {
		return fmt.Errorf("failed to store pass: %w", err)
	}

	j.deps.Logger.Printf("✅ Pass rendered for ticket %s (%d bytes)", ticket.ID, len(png))
	return nil
}

func (j *RenderTicketPassJob) Failed(ctx context.Context, err error) {
	if j.deps != nil {
		j.deps.Logger.Printf("❌ Giving up on pass for ticket %s: %v (served on demand instead)", j.TicketID, err)
	}
}
