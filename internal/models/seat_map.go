// -----------------------------------------------------------------------------
// Seat Map
// -----------------------------------------------------------------------------
// A train carriage is laid out in rows of four seats, columns A to D. Columns
// A and D are windows. The last row may be partial: a train with 10 seats has
// rows 1 and 2 complete and row 3 holding only 3A and 3B.
//
// SeatMap is a pure, in-memory view of one train's occupancy. It never talks
// to storage; persisted mutations go through repositories.SeatStore, whose
// Reserve/Release are single atomic operations.
// -----------------------------------------------------------------------------

package models

import (
	"sort"
	"strconv"
	"strings"
)

// SeatsPerRow is fixed for every carriage.
const SeatsPerRow = 4

const seatColumns = "ABCD"

// SeatIndex returns the 1-based position of a seat code ("1A" -> 1, "2C" -> 7)
// and false when the code is malformed.
func SeatIndex(code string) (int, bool) {
	if len(code) < 2 {
		return 0, false
	}
	col := strings.IndexByte(seatColumns, code[len(code)-1])
	if col < 0 {
		return 0, false
	}
	digits := code[:len(code)-1]
	if digits[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return 0, false
	}
	return (row-1)*SeatsPerRow + col + 1, true
}

// SeatCodeAt is the inverse of SeatIndex.
func SeatCodeAt(index int) string {
	row := (index-1)/SeatsPerRow + 1
	col := (index - 1) % SeatsPerRow
	return strconv.Itoa(row) + string(seatColumns[col])
}

// IsValidSeatCode reports whether code exists on a train with totalSeats seats.
func IsValidSeatCode(totalSeats int, code string) bool {
	idx, ok := SeatIndex(code)
	return ok && idx <= totalSeats
}

// NormalizeSeatCode trims and upper-cases user input ("  2a" -> "2A").
func NormalizeSeatCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RowCount is ceil(totalSeats / 4).
func RowCount(totalSeats int) int {
	if totalSeats <= 0 {
		return 0
	}
	return (totalSeats + SeatsPerRow - 1) / SeatsPerRow
}

// SeatCodes lists every valid seat code in seat order.
func SeatCodes(totalSeats int) []string {
	codes := make([]string, 0, totalSeats)
	for i := 1; i <= totalSeats; i++ {
		codes = append(codes, SeatCodeAt(i))
	}
	return codes
}

// PrioritySeats derives the priority seats from the seat count alone: all of
// row 1, then column A of every later row and column D of every later row
// that is complete.
func PrioritySeats(totalSeats int) []string {
	if totalSeats <= 0 {
		return []string{}
	}

	first := totalSeats
	if first > SeatsPerRow {
		first = SeatsPerRow
	}
	priority := make([]string, 0, first+2*RowCount(totalSeats))
	for i := 1; i <= first; i++ {
		priority = append(priority, SeatCodeAt(i))
	}

	for row := 2; row <= RowCount(totalSeats); row++ {
		priority = append(priority, strconv.Itoa(row)+"A")
		if row*SeatsPerRow <= totalSeats {
			priority = append(priority, strconv.Itoa(row)+"D")
		}
	}
	return priority
}

// SortSeatCodes orders codes by seat index; malformed codes go last in
// lexical order.
func SortSeatCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		a, okA := SeatIndex(codes[i])
		b, okB := SeatIndex(codes[j])
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		default:
			return codes[i] < codes[j]
		}
	})
}

// SeatMap is a snapshot of one train's occupancy.
type SeatMap struct {
	totalSeats int
	booked     map[string]struct{}
	outOfRange []string
}

// NewSeatMap builds a snapshot. Codes outside the seat space are kept apart
// so the |booked| <= totalSeats invariant holds for any input; OutOfRange
// reports them.
func NewSeatMap(totalSeats int, booked []string) SeatMap {
	m := SeatMap{totalSeats: totalSeats, booked: make(map[string]struct{}, len(booked))}
	for _, code := range booked {
		if IsValidSeatCode(totalSeats, code) {
			m.booked[code] = struct{}{}
		} else {
			m.outOfRange = append(m.outOfRange, code)
		}
	}
	SortSeatCodes(m.outOfRange)
	return m
}

// OutOfRange returns the booked codes that do not exist on the train.
func (m SeatMap) OutOfRange() []string {
	return append([]string(nil), m.outOfRange...)
}

func (m SeatMap) TotalSeats() int { return m.totalSeats }

func (m SeatMap) AvailableCount() int {
	return m.totalSeats - len(m.booked)
}

func (m SeatMap) IsAvailable(code string) bool {
	if !IsValidSeatCode(m.totalSeats, code) {
		return false
	}
	_, taken := m.booked[code]
	return !taken
}

func (m SeatMap) PrioritySeats() []string {
	return PrioritySeats(m.totalSeats)
}

// Booked returns the booked codes in seat order.
func (m SeatMap) Booked() []string {
	codes := make([]string, 0, len(m.booked))
	for code := range m.booked {
		codes = append(codes, code)
	}
	SortSeatCodes(codes)
	return codes
}

// Unavailable returns the requested codes that cannot be reserved: booked,
// outside the seat space, or listed twice.
func (m SeatMap) Unavailable(codes []string) []string {
	var bad []string
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, dup := seen[code]; dup || !m.IsAvailable(code) {
			bad = append(bad, code)
		}
		seen[code] = struct{}{}
	}
	return bad
}

// Reserve returns a new SeatMap with codes added. It fails without changes if
// any code is unavailable.
func (m SeatMap) Reserve(codes []string) (SeatMap, error) {
	if bad := m.Unavailable(codes); len(bad) > 0 {
		return m, SeatConflictError{Seats: bad}
	}
	next := m.clone()
	for _, code := range codes {
		next.booked[code] = struct{}{}
	}
	return next, nil
}

// Release returns a new SeatMap with codes removed. Unbooked codes are ignored.
func (m SeatMap) Release(codes []string) SeatMap {
	next := m.clone()
	for _, code := range codes {
		delete(next.booked, code)
	}
	return next
}

func (m SeatMap) clone() SeatMap {
	booked := make(map[string]struct{}, len(m.booked))
	for code := range m.booked {
		booked[code] = struct{}{}
	}
	return SeatMap{totalSeats: m.totalSeats, booked: booked, outOfRange: m.outOfRange}
}
