package models

import (
	"reflect"
	"testing"
)

func TestSeatIndex(t *testing.T) {
	tests := []struct {
		code  string
		index int
		ok    bool
	}{
		{"1A", 1, true},
		{"1D", 4, true},
		{"2A", 5, true},
		{"3C", 11, true},
		{"10B", 38, true},
		{"1E", 0, false},
		{"0A", 0, false},
		{"A", 0, false},
		{"", 0, false},
		{"+1A", 0, false},
		{"-1A", 0, false},
		{"1a", 0, false},
	}

	for _, tt := range tests {
		index, ok := SeatIndex(tt.code)
		if index != tt.index || ok != tt.ok {
			t.Errorf("SeatIndex(%q) = (%d, %v), want (%d, %v)", tt.code, index, ok, tt.index, tt.ok)
		}
		if ok && SeatCodeAt(index) != tt.code {
			t.Errorf("SeatCodeAt(%d) = %q, want %q", index, SeatCodeAt(index), tt.code)
		}
	}
}

func TestSeatCodesPartialLastRow(t *testing.T) {
	got := SeatCodes(6)
	want := []string{"1A", "1B", "1C", "1D", "2A", "2B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SeatCodes(6) = %v, want %v", got, want)
	}
	if IsValidSeatCode(6, "2C") {
		t.Error("2C should not exist on a 6 seat train")
	}
	if RowCount(6) != 2 {
		t.Errorf("RowCount(6) = %d, want 2", RowCount(6))
	}
}

func TestPrioritySeats(t *testing.T) {
	tests := []struct {
		total int
		want  []string
	}{
		{0, []string{}},
		{3, []string{"1A", "1B", "1C"}},
		{4, []string{"1A", "1B", "1C", "1D"}},
		{6, []string{"1A", "1B", "1C", "1D", "2A"}},
		{8, []string{"1A", "1B", "1C", "1D", "2A", "2D"}},
		{10, []string{"1A", "1B", "1C", "1D", "2A", "2D", "3A"}},
	}

	for _, tt := range tests {
		got := PrioritySeats(tt.total)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PrioritySeats(%d) = %v, want %v", tt.total, got, tt.want)
		}
		for _, code := range got {
			if !IsValidSeatCode(tt.total, code) {
				t.Errorf("PrioritySeats(%d) returned invalid seat %s", tt.total, code)
			}
		}
	}
}

func TestSeatMapAvailability(t *testing.T) {
	m := NewSeatMap(4, []string{"1A", "9Z", "5A"})

	if m.AvailableCount() != 3 {
		t.Errorf("AvailableCount = %d, want 3", m.AvailableCount())
	}
	if m.IsAvailable("1A") {
		t.Error("1A is booked")
	}
	if !m.IsAvailable("1B") {
		t.Error("1B should be available")
	}
	if m.IsAvailable("2A") {
		t.Error("2A is outside the seat space")
	}
}

func TestSeatMapReserveIsAllOrNothing(t *testing.T) {
	m := NewSeatMap(4, []string{"1A"})

	_, err := m.Reserve([]string{"1B", "1A"})
	if !IsSeatConflict(err) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if !reflect.DeepEqual(m.Booked(), []string{"1A"}) {
		t.Errorf("booked changed after conflict: %v", m.Booked())
	}

	_, err = m.Reserve([]string{"1B", "1B"})
	if !IsSeatConflict(err) {
		t.Errorf("duplicate seats in one request should conflict, got %v", err)
	}

	next, err := m.Reserve([]string{"1C", "1B"})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !reflect.DeepEqual(next.Booked(), []string{"1A", "1B", "1C"}) {
		t.Errorf("Booked = %v", next.Booked())
	}
}

func TestSeatMapReserveReleaseRoundTrip(t *testing.T) {
	before := NewSeatMap(10, []string{"2B", "1A"})

	reserved, err := before.Reserve([]string{"3A", "1D"})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	after := reserved.Release([]string{"3A", "1D"})

	if !reflect.DeepEqual(after.Booked(), before.Booked()) {
		t.Errorf("round trip: got %v, want %v", after.Booked(), before.Booked())
	}

	// Releasing seats nobody booked is a no-op.
	again := after.Release([]string{"3B", "1C"})
	if !reflect.DeepEqual(again.Booked(), before.Booked()) {
		t.Errorf("no-op release changed booked set: %v", again.Booked())
	}
}

func TestSeatMapNeverExceedsCapacity(t *testing.T) {
	m := NewSeatMap(5, nil)
	ops := [][]string{{"1A", "1B"}, {"1C"}, {"1D", "2A"}, {"2B"}, {"1A"}}

	for i, codes := range ops {
		next, err := m.Reserve(codes)
		if err == nil {
			m = next
		}
		if len(m.Booked()) > m.TotalSeats() {
			t.Fatalf("step %d: booked %d > total %d", i, len(m.Booked()), m.TotalSeats())
		}
	}
	if m.AvailableCount() != 0 {
		t.Errorf("AvailableCount = %d, want 0", m.AvailableCount())
	}

	m = m.Release([]string{"2A"})
	if m.AvailableCount() != 1 {
		t.Errorf("AvailableCount after release = %d, want 1", m.AvailableCount())
	}
}
