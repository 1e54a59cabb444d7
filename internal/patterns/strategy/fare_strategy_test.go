package strategy

import (
	"testing"

	"github.com/biyonik/rail-booking-api/internal/models"
)

var southernRoute = []string{"Colombo Fort", "Kandy", "Galle"}

func TestComputeFare(t *testing.T) {
	calc := DefaultFareCalculator()

	tests := []struct {
		name       string
		from, to   string
		class      string
		passengers int
		want       int64
	}{
		{"2nd class full route", "Colombo Fort", "Galle", models.ClassSecond, 1, 945},
		{"3rd class one segment", "Colombo Fort", "Kandy", models.ClassThird, 1, 350},
		{"1st class two passengers", "Kandy", "Galle", models.ClassFirst, 2, 1225},
		{"unknown class uses base fare", "Colombo Fort", "Galle", "Observation Saloon", 1, 700},
		{"2nd class group", "Colombo Fort", "Galle", models.ClassSecond, 2, 1890},
		{"1st class rounds to whole rupees", "Colombo Fort", "Kandy", models.ClassFirst, 1, 613},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.ComputeFare(southernRoute, tt.from, tt.to, tt.class, tt.passengers)
			if err != nil {
				t.Fatalf("ComputeFare: %v", err)
			}
			if got != tt.want {
				t.Errorf("fare = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeFareInvalidRoute(t *testing.T) {
	calc := DefaultFareCalculator()

	tests := []struct {
		name     string
		from, to string
	}{
		{"reversed", "Kandy", "Colombo Fort"},
		{"same station", "Kandy", "Kandy"},
		{"unknown from", "Jaffna", "Galle"},
		{"unknown to", "Colombo Fort", "Matara"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.ComputeFare(southernRoute, tt.from, tt.to, models.ClassThird, 1)
			if !models.IsInvalidRoute(err) {
				t.Errorf("expected InvalidRouteError, got %v", err)
			}
		})
	}
}

func TestComputeFareRejectsZeroPassengers(t *testing.T) {
	_, err := DefaultFareCalculator().ComputeFare(southernRoute, "Colombo Fort", "Galle", models.ClassThird, 0)
	if !models.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestNewFareCalculatorOverrides(t *testing.T) {
	calc := NewFareCalculator(100, map[string]float64{"Sleeper": 2})

	got, err := calc.ComputeFare(southernRoute, "Colombo Fort", "Galle", "Sleeper", 1)
	if err != nil {
		t.Fatalf("ComputeFare: %v", err)
	}
	if got != 400 {
		t.Errorf("fare = %d, want 400", got)
	}
	if calc.Pricing.GetName() == "" {
		t.Error("pricing strategy should be named")
	}
}
