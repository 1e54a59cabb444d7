// internal/models/base_model.go
//
// Fields and behaviour shared by every persisted record: a string identifier
// and the created/updated timestamps.
//
// Usage:
//
//	type Warrant struct {
//	    models.BaseModel
//	    PassengerName string
//	}
//
// Identifiers are UUIDv4 strings generated by the application, so records
// can be created by any storage driver (MySQL, Redis, memory) without
// relying on auto-increment columns.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel
//
// Fields:
//   - ID:        string → primary key (UUID)
//   - CreatedAt: time   → creation time
//   - UpdatedAt: time   → last modification time
type BaseModel struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Initialize assigns a fresh identifier when none is set and stamps both
// timestamps with now.
func (m *BaseModel) Initialize(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Touch updates UpdatedAt.
func (m *BaseModel) Touch(now time.Time) {
	m.UpdatedAt = now
}
