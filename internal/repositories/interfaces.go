package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/homesync/internal/models"
)

// AccountDevices is the stored device view of one account.
type AccountDevices struct {
	Devices      []models.Device
	LastSyncedAt *time.Time
}

// AccountRepository owns durable account state. Credential snapshots cross
// this boundary as plaintext JSON; the implementation seals them before
// persistence and unseals on read.
type AccountRepository interface {
	UpsertCredential(ctx context.Context, email, snapshotPlain string) (uuid.UUID, error)
	SetDevices(ctx context.Context, accountID uuid.UUID, devices []models.Device) error
	GetCredential(ctx context.Context, accountID uuid.UUID) (string, error)
	GetDevices(ctx context.Context, accountID uuid.UUID) (*AccountDevices, error)
}

// ConnectEventRepository appends audit rows for connect/sync attempts.
type ConnectEventRepository interface {
	Append(ctx context.Context, event *models.ConnectEvent) error
}

// ConnectLockRepository serializes connect attempts per email across
// replicas. Acquire returns false when another attempt holds the lock.
type ConnectLockRepository interface {
	Acquire(ctx context.Context, email string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, email string) error
}
