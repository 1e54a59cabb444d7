package factory

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/blake2b"

	"github.com/biyonik/rail-booking-api/internal/models"
)

// PassVersion prefixes every pass payload.
const PassVersion = "RB1"

// ErrInvalidPass is returned for malformed, tampered or foreign passes.
var ErrInvalidPass = errors.New("invalid ticket pass")

// QRCodeGenerator encodes pass payloads as PNG images.
type QRCodeGenerator interface {
	Generate(data string) ([]byte, error)
}

// DefaultQRCodeGenerator renders 256px PNGs with medium error recovery.
type DefaultQRCodeGenerator struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func (g DefaultQRCodeGenerator) Generate(data string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	level := g.Level
	if level == 0 {
		level = qrcode.Medium
	}
	return qrcode.Encode(data, level, size)
}

// PassClaims is the signed body of a pass.
type PassClaims struct {
	TicketID string   `json:"tid"`
	TrainID  string   `json:"trn"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Seats    []string `json:"seats"`
	Class    string   `json:"cls"`
	Fare     int64    `json:"fare"`
	IssuedAt int64    `json:"iat"`
}

// TicketPassFactory signs, verifies and renders ticket passes.
type TicketPassFactory struct {
	key         []byte
	qrGenerator QRCodeGenerator
	now         func() time.Time
}

// NewTicketPassFactory derives a 64-byte BLAKE2b key from secret.
func NewTicketPassFactory(secret string) *TicketPassFactory {
	return NewTicketPassFactoryWithQRGenerator(secret, DefaultQRCodeGenerator{})
}

func NewTicketPassFactoryWithQRGenerator(secret string, qrGenerator QRCodeGenerator) *TicketPassFactory {
	key := blake2b.Sum512([]byte(secret))
	return &TicketPassFactory{
		key:         key[:],
		qrGenerator: qrGenerator,
		now:         time.Now,
	}
}

// Payload builds the signed pass string of a confirmed ticket:
// RB1.<base64url json>.<base64url mac>
func (f *TicketPassFactory) Payload(ticket *models.Ticket) (string, error) {
	if !ticket.IsConfirmed() {
		return "", models.ConflictError{Resource: "ticket", Msg: "only confirmed tickets have a pass"}
	}

	body, err := json.Marshal(PassClaims{
		TicketID: ticket.ID,
		TrainID:  ticket.TrainID,
		From:     ticket.From,
		To:       ticket.To,
		Seats:    ticket.SeatCodes,
		Class:    ticket.Class,
		Fare:     ticket.Fare,
		IssuedAt: f.now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode pass: %w", err)
	}

	signed := PassVersion + "." + base64.RawURLEncoding.EncodeToString(body)
	return signed + "." + base64.RawURLEncoding.EncodeToString(f.mac(signed)), nil
}

// Render returns the pass of ticket as a QR PNG.
func (f *TicketPassFactory) Render(ticket *models.Ticket) ([]byte, error) {
	payload, err := f.Payload(ticket)
	if err != nil {
		return nil, err
	}

	png, err := f.qrGenerator.Generate(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// Verify checks the MAC and returns the claims. It does not look at the
// ticket's current status.
func (f *TicketPassFactory) Verify(payload string) (*PassClaims, error) {
	parts := strings.Split(strings.TrimSpace(payload), ".")
	if len(parts) != 3 || parts[0] != PassVersion {
		return nil, ErrInvalidPass
	}

	mac, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidPass
	}
	if !hmac.Equal(mac, f.mac(parts[0]+"."+parts[1])) {
		return nil, ErrInvalidPass
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidPass
	}
	var claims PassClaims
	if err := json.Unmarshal(body, &claims); err != nil || claims.TicketID == "" {
		return nil, ErrInvalidPass
	}
	return &claims, nil
}

func (f *TicketPassFactory) mac(data string) []byte {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(f.key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

// PassPath is the storage location of a rendered pass.
func PassPath(ticketID string) string {
	return "passes/" + ticketID + ".png"
}
