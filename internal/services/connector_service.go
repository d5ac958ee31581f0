package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/homesync/internal/meross"
	"github.com/prudhvinik1/homesync/internal/models"
	"github.com/prudhvinik1/homesync/internal/repositories"
)

var (
	ErrAccountNotFound = errors.New("account not found")

	// ErrSyncUnsupported is a client-correctable condition, not a bug: stored
	// snapshots cannot rebuild a live vendor session across vendor library
	// versions, so re-sync requires a fresh connect.
	ErrSyncUnsupported = errors.New("stored credentials cannot resume a vendor session; reconnect the account with email and password")

	ErrConnectInProgress = errors.New("a connect attempt for this account is already in progress")
)

// ConnectorService orchestrates the account connect lifecycle: vendor login,
// credential snapshot, device normalization, persistence. Each call is an
// independent unit of work; invocations share no mutable state.
type ConnectorService struct {
	engine   *meross.LoginEngine
	accounts repositories.AccountRepository
	events   repositories.ConnectEventRepository
	locks    repositories.ConnectLockRepository
	lockTTL  time.Duration
}

type ConnectResult struct {
	AccountID uuid.UUID       `json:"accountId"`
	Status    string          `json:"status"`
	Devices   []models.Device `json:"devices"`
}

type SyncResult struct {
	SyncedAt time.Time       `json:"syncedAt"`
	Devices  []models.Device `json:"devices"`
}

type DevicesResult struct {
	AccountID    uuid.UUID       `json:"accountId"`
	LastSyncedAt *time.Time      `json:"lastSyncedAt,omitempty"`
	Devices      []models.Device `json:"devices"`
}

func NewConnectorService(
	engine *meross.LoginEngine,
	accounts repositories.AccountRepository,
	events repositories.ConnectEventRepository,
	locks repositories.ConnectLockRepository,
	lockTTL time.Duration,
) *ConnectorService {
	return &ConnectorService{
		engine:   engine,
		accounts: accounts,
		events:   events,
		locks:    locks,
		lockTTL:  lockTTL,
	}
}

// ConnectAccount exchanges email/password for a vendor session, snapshots the
// credential, normalizes the device list, and persists both. The vendor
// session is torn down on every path, including failures after login.
func (s *ConnectorService) ConnectAccount(ctx context.Context, email, password string) (*ConnectResult, error) {
	acquired, err := s.locks.Acquire(ctx, email, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connect lock: %w", err)
	}
	if !acquired {
		return nil, ErrConnectInProgress
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), email); err != nil {
			log.Printf("failed to release connect lock for %s: %v", email, err)
		}
	}()

	session, err := s.engine.Login(ctx, email, password)
	if err != nil {
		s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeFailure, "login_failed")
		return nil, err
	}
	// Teardown is unconditional and best-effort: a logout failure must never
	// mask the outcome of the connect itself.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := session.Logout(cleanupCtx); err != nil {
			log.Printf("vendor logout failed (ignored): %v", err)
		}
		if err := session.Close(cleanupCtx); err != nil {
			log.Printf("vendor session close failed (ignored): %v", err)
		}
	}()

	snapshot := meross.ExtractSnapshot(session)
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		// Unreachable by the extractor's contract, but never persist a
		// half-formed credential.
		s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeFailure, "snapshot_encode_failed")
		return nil, fmt.Errorf("failed to encode credential snapshot: %w", err)
	}

	raw, err := session.ListDevices(ctx)
	if err != nil {
		s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeFailure, "device_list_failed")
		return nil, fmt.Errorf("failed to list vendor devices: %w", err)
	}
	devices := meross.NormalizeDevices(raw)

	accountID, err := s.accounts.UpsertCredential(ctx, email, string(snapshotJSON))
	if err != nil {
		s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeFailure, "store_failed")
		return nil, fmt.Errorf("failed to store account credential: %w", err)
	}
	if err := s.accounts.SetDevices(ctx, accountID, devices); err != nil {
		s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeFailure, "store_failed")
		return nil, fmt.Errorf("failed to store account devices: %w", err)
	}

	s.recordEvent(ctx, email, models.EventKindConnect, models.EventOutcomeSuccess, "")

	return &ConnectResult{
		AccountID: accountID,
		Status:    models.StatusConnected,
		Devices:   devices,
	}, nil
}

// SyncDevices refuses to re-sync from a stored credential: there is no
// vendor-version-stable way to rehydrate a session from a snapshot. Unknown
// accounts fail with ErrAccountNotFound, known ones with ErrSyncUnsupported.
func (s *ConnectorService) SyncDevices(ctx context.Context, accountID uuid.UUID) (*SyncResult, error) {
	_, err := s.accounts.GetCredential(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account credential: %w", err)
	}

	s.recordEvent(ctx, accountID.String(), models.EventKindSync, models.EventOutcomeFailure, "sync_unsupported")
	return nil, ErrSyncUnsupported
}

// GetDevices returns the stored device view for an account.
func (s *ConnectorService) GetDevices(ctx context.Context, accountID uuid.UUID) (*DevicesResult, error) {
	stored, err := s.accounts.GetDevices(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account devices: %w", err)
	}

	return &DevicesResult{
		AccountID:    accountID,
		LastSyncedAt: stored.LastSyncedAt,
		Devices:      stored.Devices,
	}, nil
}

// recordEvent appends an audit row; audit failures are logged, never fatal.
// Detail carries an error-kind tag only, never vendor error text.
func (s *ConnectorService) recordEvent(ctx context.Context, email, kind, outcome, detail string) {
	event := &models.ConnectEvent{
		Email:   email,
		Kind:    kind,
		Outcome: outcome,
		Detail:  detail,
	}
	if err := s.events.Append(context.WithoutCancel(ctx), event); err != nil {
		log.Printf("failed to record %s event: %v", kind, err)
	}
}
