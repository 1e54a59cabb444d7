package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// seatIndexLua mirrors models.SeatIndex: "1A" -> 1, "2C" -> 7, malformed -> 0.
const seatIndexLua = `
local columns = {A = 1, B = 2, C = 3, D = 4}
local function seat_index(code)
	local row, col = string.match(code, '^([1-9]%d*)([ABCD])$')
	if not row then
		return 0
	end
	return (tonumber(row) - 1) * 4 + columns[col]
end
`

// reserveSeatsScript checks every requested seat against the hash and the
// seat count, and writes them only when none fails. Redis runs scripts
// atomically, so no other command interleaves between the checks and the
// HSET. Returns the failing seats, or an empty array on success.
//
// KEYS: seats hash, capacity. ARGV: fallback capacity, ticket id, codes...
var reserveSeatsScript = redis.NewScript(seatIndexLua + `
local seats, capacity_key = KEYS[1], KEYS[2]
local capacity = tonumber(redis.call('GET', capacity_key) or ARGV[1])
local ticket = ARGV[2]
local taken = {}
local seen = {}
for i = 3, #ARGV do
	local code = ARGV[i]
	local index = seat_index(code)
	if seen[code] or index < 1 or index > capacity or redis.call('HEXISTS', seats, code) == 1 then
		table.insert(taken, code)
	end
	seen[code] = true
end
if #taken > 0 then
	return taken
end
for i = 3, #ARGV do
	redis.call('HSET', seats, ARGV[i], ticket)
end
return {}
`)

// releaseSeatsScript deletes the seats still held by one ticket.
//
// KEYS: seats hash. ARGV: ticket id, codes...
var releaseSeatsScript = redis.NewScript(`
local released = 0
for i = 2, #ARGV do
	if redis.call('HGET', KEYS[1], ARGV[i]) == ARGV[1] then
		redis.call('HDEL', KEYS[1], ARGV[i])
		released = released + 1
	end
end
return released
`)

// resizeSeatsScript stores a new seat count unless a booked seat lies beyond
// it. Returns the blocking seats, or an empty array on success.
//
// KEYS: seats hash, capacity. ARGV: seat count.
var resizeSeatsScript = redis.NewScript(seatIndexLua + `
local total = tonumber(ARGV[1])
local blocked = {}
for _, code in ipairs(redis.call('HKEYS', KEYS[1])) do
	local index = seat_index(code)
	if index < 1 or index > total then
		table.insert(blocked, code)
	end
end
if #blocked > 0 then
	return blocked
end
redis.call('SET', KEYS[2], ARGV[1])
return {}
`)

// RedisSeatStore keeps one hash of seat code -> ticket id per train and the
// train's seat count next to it. Both keys share a hash tag so the scripts
// stay on one cluster slot.
type RedisSeatStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSeatStore(client redis.UniversalClient, prefix string) *RedisSeatStore {
	return &RedisSeatStore{client: client, prefix: prefix}
}

func (s *RedisSeatStore) key(trainID string) string {
	return s.prefix + "seats:{" + trainID + "}"
}

func (s *RedisSeatStore) capacityKey(trainID string) string {
	return s.prefix + "seats:{" + trainID + "}:capacity"
}

func (s *RedisSeatStore) Reserve(ctx context.Context, hold SeatHold) error {
	if len(hold.Codes) == 0 {
		return nil
	}

	args := make([]any, 0, len(hold.Codes)+2)
	args = append(args, hold.TotalSeats, hold.TicketID)
	for _, code := range hold.Codes {
		args = append(args, code)
	}

	keys := []string{s.key(hold.TrainID), s.capacityKey(hold.TrainID)}
	taken, err := reserveSeatsScript.Run(ctx, s.client, keys, args...).StringSlice()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if len(taken) > 0 {
		return models.SeatConflictError{TrainID: hold.TrainID, Seats: taken}
	}
	return nil
}

func (s *RedisSeatStore) Release(ctx context.Context, hold SeatHold) error {
	if len(hold.Codes) == 0 {
		return nil
	}

	args := make([]any, 0, len(hold.Codes)+1)
	args = append(args, hold.TicketID)
	for _, code := range hold.Codes {
		args = append(args, code)
	}
	if err := releaseSeatsScript.Run(ctx, s.client, []string{s.key(hold.TrainID)}, args...).Err(); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

func (s *RedisSeatStore) Booked(ctx context.Context, trainID string) ([]string, error) {
	codes, err := s.client.HKeys(ctx, s.key(trainID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load booked seats: %w", err)
	}
	models.SortSeatCodes(codes)
	return codes, nil
}

func (s *RedisSeatStore) Resize(ctx context.Context, trainID string, totalSeats int) error {
	keys := []string{s.key(trainID), s.capacityKey(trainID)}
	blocked, err := resizeSeatsScript.Run(ctx, s.client, keys, totalSeats).StringSlice()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to resize train: %w", err)
	}
	if len(blocked) > 0 {
		models.SortSeatCodes(blocked)
		return resizeConflict(totalSeats, blocked)
	}
	return nil
}

func (s *RedisSeatStore) Clear(ctx context.Context, trainID string) error {
	if err := s.client.Del(ctx, s.key(trainID), s.capacityKey(trainID)).Err(); err != nil {
		return fmt.Errorf("failed to clear seats: %w", err)
	}
	return nil
}
