package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectEvent is an append-only audit row for connect/sync attempts.
// Detail carries an error-kind tag only, never vendor error text or secrets.
type ConnectEvent struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	EventKindConnect = "connect"
	EventKindSync    = "sync"

	EventOutcomeSuccess = "success"
	EventOutcomeFailure = "failure"
)
