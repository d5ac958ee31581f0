package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/homesync/internal/crypto"
	"github.com/prudhvinik1/homesync/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresAccountRepository struct {
	pool  *pgxpool.Pool
	codec *crypto.Codec
}

// NewPostgresAccountRepository wires the account store to its encryption
// codec. The codec is mandatory: a store that cannot seal credentials must
// not exist.
func NewPostgresAccountRepository(pool *pgxpool.Pool, codec *crypto.Codec) (*PostgresAccountRepository, error) {
	if codec == nil {
		return nil, crypto.ErrMisconfiguredEncryption
	}
	return &PostgresAccountRepository{pool: pool, codec: codec}, nil
}

// UpsertCredential creates or refreshes the account for email, one account
// per email. The snapshot is encrypted before it touches the database and
// createdAt survives reconnects.
func (r *PostgresAccountRepository) UpsertCredential(ctx context.Context, email, snapshotPlain string) (uuid.UUID, error) {
	sealed, err := r.codec.EncryptString(snapshotPlain)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encrypt credential: %w", err)
	}

	query := `INSERT INTO accounts (email, status, credential_encrypted)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (email) DO UPDATE
	          SET credential_encrypted = EXCLUDED.credential_encrypted,
	              status = EXCLUDED.status,
	              updated_at = NOW()
	          RETURNING id`

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, query, email, models.StatusConnected, sealed).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return id, nil
}

// SetDevices replaces the account's device list and stamps lastSyncedAt.
func (r *PostgresAccountRepository) SetDevices(ctx context.Context, accountID uuid.UUID, devices []models.Device) error {
	if devices == nil {
		devices = []models.Device{}
	}
	payload, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("failed to marshal devices: %w", err)
	}

	query := `UPDATE accounts
	          SET devices = $1, last_synced_at = NOW(), status = $2, updated_at = NOW()
	          WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, payload, models.StatusConnected, accountID)
	if err != nil {
		return fmt.Errorf("failed to set devices: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCredential returns the decrypted credential snapshot for the account.
func (r *PostgresAccountRepository) GetCredential(ctx context.Context, accountID uuid.UUID) (string, error) {
	query := `SELECT credential_encrypted FROM accounts WHERE id = $1`

	var sealed string
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential: %w", err)
	}
	if sealed == "" {
		return "", ErrNotFound
	}

	plain, err := r.codec.DecryptString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return plain, nil
}

// GetDevices returns the stored device list and lastSyncedAt.
func (r *PostgresAccountRepository) GetDevices(ctx context.Context, accountID uuid.UUID) (*AccountDevices, error) {
	query := `SELECT devices, last_synced_at FROM accounts WHERE id = $1`

	var payload []byte
	var out AccountDevices
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&payload, &out.LastSyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	out.Devices = []models.Device{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &out.Devices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal devices: %w", err)
		}
	}
	return &out, nil
}
