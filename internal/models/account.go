package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusConnected is the only account status in scope; accounts are created
// on first successful connect and reaffirmed on reconnect.
const StatusConnected = "connected"

type Account struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	Status              string     `json:"status"`
	CredentialEncrypted string     `json:"-"`
	Devices             []Device   `json:"devices"`
	CreatedAt           time.Time  `json:"created_at"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}
