// FilePath: internal/portal/portal.go
package portal

import (
	"context"
	"sync"

	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// State is the lifecycle of a portal store, tied to one sign-in session.
type State string

const (
	StateSignedOut    State = "signed-out"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
)

// AccountClient is the slice of the Account API the store depends on.
type AccountClient interface {
	GetUser(ctx context.Context, token string) (*models.User, error)
	GetDevices(ctx context.Context, token string) ([]models.Device, error)
}

// TokenSource supplies a fresh bearer token for each remote call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Store is the single source of truth for "who is signed in" and "what
// devices do they have" within one session. All remote failures are caught
// here and recorded as a message; nothing propagates past this layer, so
// one bad request can never take the portal down. Previously committed data
// survives any failed refresh (stale beats blank).
type Store struct {
	account AccountClient
	tokens  TokenSource

	mu               sync.RWMutex
	state            State
	user             *models.User
	devices          []models.Device
	lastErr          error
	isLoading        bool
	isInitialLoading bool
	initialized      bool
	events           *nuts.EventEmitter
}

func NewStore(account AccountClient, tokens TokenSource) *Store {
	return &Store{
		account:          account,
		tokens:           tokens,
		state:            StateSignedOut,
		isInitialLoading: true,
		events:           nuts.NewEventEmitter(),
	}
}

// Init bootstraps the store once per session. Calling it again while the
// session is live is a no-op: the latch only clears on Dispose, so a double
// bootstrap performs no extra network round-trips.
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.state = StateInitializing
	s.mu.Unlock()

	s.RefreshAll(ctx)

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()
}

// Dispose resets the store synchronously on sign-out: user, devices, error
// and the init latch all clear together.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSignedOut
	s.user = nil
	s.devices = nil
	s.lastErr = nil
	s.isLoading = false
	s.isInitialLoading = true
	s.initialized = false
}

// RefreshUser replaces the stored profile from the Account API. On failure
// the previous profile stays and the error is recorded.
func (s *Store) RefreshUser(ctx context.Context) {
	s.call(ctx, false, func(ctx context.Context, token string) error {
		user, err := s.account.GetUser(ctx, token)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.user = user
		s.mu.Unlock()
		return nil
	})
}

// RefreshDevices replaces the device list. It runs as a background call:
// the loading flag is never toggled, so a periodic device refresh cannot
// flash a full-page spinner.
func (s *Store) RefreshDevices(ctx context.Context) {
	s.call(ctx, true, func(ctx context.Context, token string) error {
		devices, err := s.account.GetDevices(ctx, token)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.devices = devices
		s.mu.Unlock()
		return nil
	})
}

// RefreshAll fetches profile and device list in parallel. Partial failure
// is tolerated by design: each half commits independently, and an error in
// one never suppresses the other's fresh data.
func (s *Store) RefreshAll(ctx context.Context) {
	s.mu.Lock()
	s.isLoading = true
	s.lastErr = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isLoading = false
		s.isInitialLoading = false
		s.mu.Unlock()
	}()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.recordErr(err)
		return
	}

	var wg sync.WaitGroup
	var user *models.User
	var userErr error
	var devices []models.Device
	var devicesErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = s.account.GetUser(ctx, token)
	}()
	go func() {
		defer wg.Done()
		devices, devicesErr = s.account.GetDevices(ctx, token)
	}()
	wg.Wait()

	if userErr == nil {
		s.mu.Lock()
		s.user = user
		s.mu.Unlock()
	} else {
		nuts.L.Warnf("[Portal] Failed to fetch user profile: %v", userErr)
		s.recordErr(userErr)
	}

	if devicesErr == nil {
		s.mu.Lock()
		s.devices = devices
		s.mu.Unlock()
	} else {
		nuts.L.Warnf("[Portal] Failed to fetch devices: %v", devicesErr)
		s.recordErr(devicesErr)
	}
}

// AddDeviceToState appends a device locally, typically right after a
// successful claim, so the portal reflects it without waiting for a full
// refresh. Best effort until the next RefreshDevices reconciles with the
// server (server wins).
func (s *Store) AddDeviceToState(device models.Device) {
	s.mu.Lock()
	s.devices = append(s.devices, device)
	s.mu.Unlock()
	s.events.Emit("device.added", device.ID)
}

// UpdateDeviceInState replaces the matching device locally.
func (s *Store) UpdateDeviceInState(device models.Device) {
	s.mu.Lock()
	for i := range s.devices {
		if s.devices[i].ID == device.ID {
			s.devices[i] = device
			break
		}
	}
	s.mu.Unlock()
	s.events.Emit("device.updated", device.ID)
}

// RemoveDeviceFromState drops the matching device locally.
func (s *Store) RemoveDeviceFromState(deviceID string) {
	s.mu.Lock()
	kept := s.devices[:0]
	for _, device := range s.devices {
		if device.ID != deviceID {
			kept = append(kept, device)
		}
	}
	s.devices = kept
	s.mu.Unlock()
	s.events.Emit("device.removed", deviceID)
}

// OnDeviceEvent registers a callback for the optimistic mutation events
// (device.added, device.updated, device.removed).
func (s *Store) OnDeviceEvent(event string, handler func(id string)) {
	s.events.On(event, "portal_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}

// User returns the stored profile, nil before the first successful fetch.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Devices returns a copy of the stored device list.
func (s *Store) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the last recorded error message, empty when the last calls
// succeeded.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == nil {
		return ""
	}
	return s.lastErr.Error()
}

// UserMissing reports whether the last error was the account's distinct
// "no such user" answer, so callers can start the create-profile flow
// instead of showing a generic failure.
func (s *Store) UserMissing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return errors.IsUserNotFound(s.lastErr)
}

// IsLoading reports whether a foreground call is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// IsInitialLoading is true until the first bootstrap completes, failed or
// not. Full-page spinners key off this, never off per-call loading.
func (s *Store) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isInitialLoading
}

// call wraps one remote call with the store's uniform failure handling:
// loading toggles (suppressed for background calls), error capture, and a
// guarantee that nothing is ever re-thrown past this layer.
func (s *Store) call(ctx context.Context, background bool, fn func(ctx context.Context, token string) error) {
	s.mu.Lock()
	if !background {
		s.isLoading = true
	}
	s.lastErr = nil
	s.mu.Unlock()

	if !background {
		defer func() {
			s.mu.Lock()
			s.isLoading = false
			s.mu.Unlock()
		}()
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.recordErr(err)
		return
	}

	if err := fn(ctx, token); err != nil {
		nuts.L.Warnf("[Portal] API call failed: %v", err)
		s.recordErr(err)
	}
}

func (s *Store) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
