package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/homesync/internal/meross"
	"github.com/prudhvinik1/homesync/internal/models"
	"github.com/prudhvinik1/homesync/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes -----------------------------------------------------------------

type fakeVendorSession struct {
	fields      map[string]any
	devices     []any
	listErr     error
	logoutErr   error
	logoutCalls int
	closeCalls  int
}

func (s *fakeVendorSession) ListDevices(ctx context.Context) ([]any, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.devices, nil
}

func (s *fakeVendorSession) Logout(ctx context.Context) error {
	s.logoutCalls++
	return s.logoutErr
}

func (s *fakeVendorSession) Close(ctx context.Context) error {
	s.closeCalls++
	return nil
}

func (s *fakeVendorSession) CredentialFields() map[string]any { return s.fields }

// fakeVendorClient rejects both options shapes everywhere and accepts the
// positional-with-endpoint shape only at goodEndpoint.
type fakeVendorClient struct {
	goodEndpoint string
	session      *fakeVendorSession
	loginCalls   int
}

func (c *fakeVendorClient) Login(ctx context.Context, opts meross.LoginOptions) (meross.Session, error) {
	c.loginCalls++
	return nil, meross.ErrSignatureMismatch
}

func (c *fakeVendorClient) LoginAt(ctx context.Context, endpoint, email, password string) (meross.Session, error) {
	c.loginCalls++
	if endpoint == c.goodEndpoint {
		return c.session, nil
	}
	return nil, errors.New("dial tcp: connection refused")
}

func (c *fakeVendorClient) LoginBasic(ctx context.Context, email, password string) (meross.Session, error) {
	c.loginCalls++
	return nil, errors.New("dial tcp: connection refused")
}

type fakeAccountRepo struct {
	accountID    uuid.UUID
	upsertCalls  int
	setCalls     int
	lastEmail    string
	lastSnapshot string
	lastDevices  []models.Device
	stored       map[uuid.UUID]string
	storedView   map[uuid.UUID]*repositories.AccountDevices
	upsertErr    error
	setErr       error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accountID:  uuid.New(),
		stored:     make(map[uuid.UUID]string),
		storedView: make(map[uuid.UUID]*repositories.AccountDevices),
	}
}

func (r *fakeAccountRepo) UpsertCredential(ctx context.Context, email, snapshotPlain string) (uuid.UUID, error) {
	r.upsertCalls++
	if r.upsertErr != nil {
		return uuid.Nil, r.upsertErr
	}
	r.lastEmail = email
	r.lastSnapshot = snapshotPlain
	r.stored[r.accountID] = snapshotPlain
	return r.accountID, nil
}

func (r *fakeAccountRepo) SetDevices(ctx context.Context, accountID uuid.UUID, devices []models.Device) error {
	r.setCalls++
	if r.setErr != nil {
		return r.setErr
	}
	r.lastDevices = devices
	return nil
}

func (r *fakeAccountRepo) GetCredential(ctx context.Context, accountID uuid.UUID) (string, error) {
	snapshot, ok := r.stored[accountID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return snapshot, nil
}

func (r *fakeAccountRepo) GetDevices(ctx context.Context, accountID uuid.UUID) (*repositories.AccountDevices, error) {
	view, ok := r.storedView[accountID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return view, nil
}

type fakeEventRepo struct {
	events []models.ConnectEvent
}

func (r *fakeEventRepo) Append(ctx context.Context, event *models.ConnectEvent) error {
	r.events = append(r.events, *event)
	return nil
}

type fakeLockRepo struct {
	busy         bool
	acquireCalls int
	releaseCalls int
}

func (r *fakeLockRepo) Acquire(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	r.acquireCalls++
	return !r.busy, nil
}

func (r *fakeLockRepo) Release(ctx context.Context, email string) error {
	r.releaseCalls++
	return nil
}

type fixture struct {
	service  *ConnectorService
	client   *fakeVendorClient
	session  *fakeVendorSession
	accounts *fakeAccountRepo
	events   *fakeEventRepo
	locks    *fakeLockRepo
}

func newFixture() *fixture {
	session := &fakeVendorSession{
		fields: map[string]any{
			"token":    "tok-1",
			"key":      "k-1",
			"userid":   "42",
			"password": "must-never-persist",
		},
		devices: []any{
			map[string]any{"uuid": "u-1", "devName": "Kitchen Plug", "deviceType": "mss310", "onlineStatus": true},
			map[string]any{"uuid": "u-2", "devName": "Lamp", "onlineStatus": "online"},
		},
	}
	client := &fakeVendorClient{goodEndpoint: "https://b.example", session: session}
	engine := meross.NewLoginEngine(client, "https://a.example", "https://b.example")

	accounts := newFakeAccountRepo()
	events := &fakeEventRepo{}
	locks := &fakeLockRepo{}

	return &fixture{
		service:  NewConnectorService(engine, accounts, events, locks, time.Minute),
		client:   client,
		session:  session,
		accounts: accounts,
		events:   events,
		locks:    locks,
	}
}

// --- tests -----------------------------------------------------------------

func TestConnectAccount_EndToEnd(t *testing.T) {
	f := newFixture()

	result, err := f.service.ConnectAccount(context.Background(), "a@x.com", "p")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.AccountID)
	assert.Equal(t, models.StatusConnected, result.Status)
	require.Len(t, result.Devices, 2)
	assert.Equal(t, "u-1", result.Devices[0].DeviceID)
	assert.Equal(t, "Kitchen Plug", result.Devices[0].Name)
	require.NotNil(t, result.Devices[0].OnlineStatus)
	assert.True(t, *result.Devices[0].OnlineStatus)
	// String "online" must not be coerced into a boolean.
	assert.Nil(t, result.Devices[1].OnlineStatus)

	// Exactly one credential upsert and one device write.
	assert.Equal(t, 1, f.accounts.upsertCalls)
	assert.Equal(t, 1, f.accounts.setCalls)
	assert.Equal(t, "a@x.com", f.accounts.lastEmail)

	// The persisted snapshot is whitelisted JSON, never the raw session.
	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.accounts.lastSnapshot), &snapshot))
	assert.Equal(t, "tok-1", snapshot["token"])
	assert.NotContains(t, snapshot, "password")

	// Session torn down exactly once.
	assert.Equal(t, 1, f.session.logoutCalls)
	assert.Equal(t, 1, f.session.closeCalls)

	// Lock held for the duration and released.
	assert.Equal(t, 1, f.locks.acquireCalls)
	assert.Equal(t, 1, f.locks.releaseCalls)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventOutcomeSuccess, f.events.events[0].Outcome)
}

func TestConnectAccount_LoginFailed(t *testing.T) {
	f := newFixture()
	f.client.goodEndpoint = "https://nowhere.example"

	result, err := f.service.ConnectAccount(context.Background(), "a@x.com", "wrong")
	assert.Nil(t, result)
	require.ErrorIs(t, err, meross.ErrLoginFailed)

	// Nothing persisted, lock released, failure audited.
	assert.Zero(t, f.accounts.upsertCalls)
	assert.Zero(t, f.accounts.setCalls)
	assert.Equal(t, 1, f.locks.releaseCalls)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventOutcomeFailure, f.events.events[0].Outcome)
	assert.Equal(t, "login_failed", f.events.events[0].Detail)
}

func TestConnectAccount_DeviceListFailureStillTearsDown(t *testing.T) {
	f := newFixture()
	f.session.listErr = errors.New("device list timed out")

	result, err := f.service.ConnectAccount(context.Background(), "a@x.com", "p")
	assert.Nil(t, result)
	require.Error(t, err)

	// Login succeeded, so cleanup must run even though a later step failed.
	assert.Equal(t, 1, f.session.logoutCalls)
	assert.Equal(t, 1, f.session.closeCalls)
	assert.Zero(t, f.accounts.upsertCalls)
	assert.Equal(t, 1, f.locks.releaseCalls)
}

func TestConnectAccount_LogoutFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.session.logoutErr = errors.New("logout endpoint gone")

	result, err := f.service.ConnectAccount(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConnected, result.Status)

	// Close still runs after the failed logout.
	assert.Equal(t, 1, f.session.closeCalls)
}

func TestConnectAccount_StoreFailureStillTearsDown(t *testing.T) {
	f := newFixture()
	f.accounts.upsertErr = errors.New("db down")

	_, err := f.service.ConnectAccount(context.Background(), "a@x.com", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, meross.ErrLoginFailed)

	assert.Equal(t, 1, f.session.logoutCalls)
	assert.Equal(t, 1, f.session.closeCalls)
	assert.Zero(t, f.accounts.setCalls)
}

func TestConnectAccount_ConcurrentAttemptRejected(t *testing.T) {
	f := newFixture()
	f.locks.busy = true

	result, err := f.service.ConnectAccount(context.Background(), "a@x.com", "p")
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrConnectInProgress)

	// The vendor was never contacted.
	assert.Zero(t, f.client.loginCalls)
}

func TestSyncDevices_UnknownAccount(t *testing.T) {
	f := newFixture()

	_, err := f.service.SyncDevices(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncDevices_AlwaysUnsupportedForStoredAccounts(t *testing.T) {
	f := newFixture()

	snapshots := []string{
		`{"token":"tok-1","key":"k-1","userid":"42"}`,
		`{"token":"legacy"}`,
		`{"session":"unknown"}`,
	}

	for _, snapshot := range snapshots {
		f.accounts.stored[f.accounts.accountID] = snapshot

		_, err := f.service.SyncDevices(context.Background(), f.accounts.accountID)
		require.ErrorIs(t, err, ErrSyncUnsupported)
	}
}

func TestGetDevices(t *testing.T) {
	f := newFixture()
	syncedAt := time.Now().UTC()
	f.accounts.storedView[f.accounts.accountID] = &repositories.AccountDevices{
		Devices:      []models.Device{{DeviceID: "u-1", Name: "Kitchen Plug"}},
		LastSyncedAt: &syncedAt,
	}

	result, err := f.service.GetDevices(context.Background(), f.accounts.accountID)
	require.NoError(t, err)
	assert.Equal(t, f.accounts.accountID, result.AccountID)
	require.Len(t, result.Devices, 1)
	assert.Equal(t, "u-1", result.Devices[0].DeviceID)

	_, err = f.service.GetDevices(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
