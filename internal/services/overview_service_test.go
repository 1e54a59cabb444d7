package services

import (
	"context"
	"testing"
	"time"

	"github.com/biyonik/rail-booking-api/internal/models"
)

func TestOverviewCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	train := env.seedTrain(t, "1001", 8)
	env.seedTrain(t, "1002", 8)

	if _, err := env.booking.Reserve(ctx, reserveReq(train.ID, alice, "1A")); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	dropped, err := env.booking.Reserve(ctx, reserveReq(train.ID, bob, "1B"))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := env.booking.Cancel(ctx, dropped.ID, bob); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := env.warrant.Submit(ctx, WarrantInput{
		PassengerName: "N. Perera", NIC: "901234567v", Train: "1001", Date: "2024-05-02", Reason: "Medical",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	overview, err := env.overview.Overview(ctx, "")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	want := models.Overview{Date: "2024-05-01", TotalTrains: 2, ActiveBookings: 1, TotalWarrants: 1, PendingWarrants: 1}
	if overview != want {
		t.Errorf("overview = %+v, want %+v", overview, want)
	}

	other, err := env.overview.Overview(ctx, "2024-04-30")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if other.ActiveBookings != 0 || other.Date != "2024-04-30" {
		t.Errorf("previous day = %+v", other)
	}
}

func TestOverviewIsCachedUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	train := env.seedTrain(t, "1001", 8)

	first, err := env.overview.Overview(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if first.ActiveBookings != 0 {
		t.Fatalf("activeBookings = %d", first.ActiveBookings)
	}

	if _, err := env.booking.Reserve(ctx, reserveReq(train.ID, alice, "2C")); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	cached, _ := env.overview.Overview(ctx, "2024-05-01")
	if cached.ActiveBookings != 0 {
		t.Errorf("cached activeBookings = %d, want 0", cached.ActiveBookings)
	}

	env.overview.Invalidate(ctx, fixedNow)
	fresh, _ := env.overview.Overview(ctx, "2024-05-01")
	if fresh.ActiveBookings != 1 {
		t.Errorf("activeBookings after invalidation = %d, want 1", fresh.ActiveBookings)
	}
}

func TestOverviewRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)

	for _, date := range []string{"01/05/2024", "2024-13-01", "yesterday"} {
		if _, err := env.overview.Overview(context.Background(), date); !models.IsValidation(err) {
			t.Errorf("date %q: err = %v, want ValidationError", date, err)
		}
	}
}

func TestWarrantSubmitAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.warrant.Submit(ctx, WarrantInput{PassengerName: "A", NIC: "1", Train: "1001", Date: "2024-05-02"}); !models.IsValidation(err) {
		t.Errorf("missing reason err = %v, want ValidationError", err)
	}

	first, err := env.warrant.Submit(ctx, WarrantInput{
		PassengerName: "K. Silva", NIC: "851234567v", Train: "1001", Date: "2024-05-02", Reason: "Duty travel",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first.Status != models.WarrantStatusPending || first.NIC != "851234567V" {
		t.Errorf("warrant = %+v", first)
	}

	env.warrant.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second, err := env.warrant.Submit(ctx, WarrantInput{
		PassengerName: "R. Fernando", NIC: "881234567v", Train: "1002", Date: "2024-05-03", Reason: "Pensioner",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	list, err := env.warrant.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("list order = %v", list)
	}
}
