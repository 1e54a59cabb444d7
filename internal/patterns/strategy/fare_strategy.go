package strategy

import (
	"math"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// DefaultBaseFarePerSegment is the LKR price of one route segment in 3rd Class.
const DefaultBaseFarePerSegment = 350.0

// DefaultClassMultipliers is the fixed class rate table.
func DefaultClassMultipliers() map[string]float64 {
	return map[string]float64{
		models.ClassThird:  1,
		models.ClassSecond: 1.35,
		models.ClassFirst:  1.75,
	}
}

// ClassPricingStrategy resolves the fare multiplier for a travel class.
type ClassPricingStrategy interface {
	Multiplier(travelClass string) float64
	GetName() string
}

// TableClassPricing looks classes up in a fixed table. Unknown classes cost
// the same as the base fare.
type TableClassPricing struct {
	Multipliers map[string]float64
}

func (s *TableClassPricing) Multiplier(travelClass string) float64 {
	if m, ok := s.Multipliers[travelClass]; ok && m > 0 {
		return m
	}
	return 1
}

func (s *TableClassPricing) GetName() string {
	return "Class Table Pricing"
}

// FareCalculator prices a journey from the number of route segments, the
// class multiplier and the passenger count. It has no side effects.
type FareCalculator struct {
	BaseFarePerSegment float64
	Pricing            ClassPricingStrategy
}

// NewFareCalculator builds a calculator over a class table. A nil or empty
// table falls back to DefaultClassMultipliers, a non-positive base fare to
// DefaultBaseFarePerSegment.
func NewFareCalculator(baseFarePerSegment float64, multipliers map[string]float64) *FareCalculator {
	if baseFarePerSegment <= 0 {
		baseFarePerSegment = DefaultBaseFarePerSegment
	}
	if len(multipliers) == 0 {
		multipliers = DefaultClassMultipliers()
	}
	return &FareCalculator{
		BaseFarePerSegment: baseFarePerSegment,
		Pricing:            &TableClassPricing{Multipliers: multipliers},
	}
}

// DefaultFareCalculator uses the canonical constants.
func DefaultFareCalculator() *FareCalculator {
	return NewFareCalculator(DefaultBaseFarePerSegment, nil)
}

// Segments returns index(to) - index(from) on route.
func Segments(route []string, from, to string) (int, error) {
	start, end := -1, -1
	for i, station := range route {
		if station == from && start == -1 {
			start = i
		}
		if station == to && end == -1 {
			end = i
		}
	}
	if start == -1 || end == -1 || start >= end {
		return 0, models.InvalidRouteError{From: from, To: to}
	}
	return end - start, nil
}

// ComputeFare returns the fare rounded to the nearest whole currency unit.
func (c *FareCalculator) ComputeFare(route []string, from, to, travelClass string, passengerCount int) (int64, error) {
	segments, err := Segments(route, from, to)
	if err != nil {
		return 0, err
	}
	if passengerCount < 1 {
		return 0, models.ValidationError{Field: "passengerCount", Msg: "must be at least 1"}
	}

	fare := c.BaseFarePerSegment *
		float64(segments) *
		c.Pricing.Multiplier(travelClass) *
		float64(passengerCount)

	return int64(math.Round(fare)), nil
}
