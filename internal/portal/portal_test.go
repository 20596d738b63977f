// FilePath: internal/portal/portal_test.go
package portal

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
)

type fakeAccount struct {
	user       *models.User
	userErr    error
	devices    []models.Device
	devicesErr error

	userCalls    atomic.Int64
	devicesCalls atomic.Int64
}

func (f *fakeAccount) GetUser(ctx context.Context, token string) (*models.User, error) {
	f.userCalls.Add(1)
	return f.user, f.userErr
}

func (f *fakeAccount) GetDevices(ctx context.Context, token string) ([]models.Device, error) {
	f.devicesCalls.Add(1)
	return f.devices, f.devicesErr
}

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context) (string, error) {
	return "test-token", nil
}

func testUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com"}
}

func TestInitBootstrapsOnce(t *testing.T) {
	account := &fakeAccount{
		user:    testUser("u1"),
		devices: []models.Device{{ID: "d1"}},
	}
	store := NewStore(account, staticTokens{})

	if store.State() != StateSignedOut {
		t.Fatalf("expected signed-out before init, got %s", store.State())
	}

	store.Init(context.Background())
	store.Init(context.Background())

	if store.State() != StateReady {
		t.Fatalf("expected ready after init, got %s", store.State())
	}
	if got := account.userCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one profile fetch, got %d", got)
	}
	if got := account.devicesCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one device fetch, got %d", got)
	}
	if store.IsInitialLoading() {
		t.Fatalf("initial loading must clear after bootstrap")
	}
	if store.User() == nil || store.User().ID != "u1" {
		t.Fatalf("expected profile to be committed")
	}
	if len(store.Devices()) != 1 {
		t.Fatalf("expected device list to be committed")
	}
}

func TestRefreshAllCommitsDevicesWhenUserFails(t *testing.T) {
	account := &fakeAccount{
		userErr: fmt.Errorf("profile backend down"),
		devices: []models.Device{{ID: "d1"}, {ID: "d2"}},
	}
	store := NewStore(account, staticTokens{})

	store.RefreshAll(context.Background())

	if len(store.Devices()) != 2 {
		t.Fatalf("device half must commit despite the profile failure")
	}
	if store.User() != nil {
		t.Fatalf("expected no profile after failed fetch")
	}
	if store.Err() == "" {
		t.Fatalf("expected the profile failure to be recorded")
	}
}

func TestRefreshAllCommitsUserWhenDevicesFail(t *testing.T) {
	account := &fakeAccount{
		user:       testUser("u1"),
		devicesErr: fmt.Errorf("device backend down"),
	}
	store := NewStore(account, staticTokens{})

	store.RefreshAll(context.Background())

	if store.User() == nil || store.User().ID != "u1" {
		t.Fatalf("profile half must commit despite the device failure")
	}
	if len(store.Devices()) != 0 {
		t.Fatalf("expected no devices after failed fetch")
	}
	if store.Err() == "" {
		t.Fatalf("expected the device failure to be recorded")
	}
}

func TestFailedRefreshKeepsPreviousData(t *testing.T) {
	account := &fakeAccount{
		user:    testUser("u1"),
		devices: []models.Device{{ID: "d1"}},
	}
	store := NewStore(account, staticTokens{})
	store.RefreshAll(context.Background())

	account.userErr = fmt.Errorf("transient outage")
	account.devicesErr = fmt.Errorf("transient outage")
	store.RefreshAll(context.Background())

	if store.User() == nil || store.User().ID != "u1" {
		t.Fatalf("stale profile must survive a failed refresh")
	}
	if len(store.Devices()) != 1 {
		t.Fatalf("stale device list must survive a failed refresh")
	}
	if store.Err() == "" {
		t.Fatalf("expected the failure to be visible")
	}
}

func TestSuccessfulCallClearsPreviousError(t *testing.T) {
	account := &fakeAccount{
		userErr: fmt.Errorf("first attempt fails"),
	}
	store := NewStore(account, staticTokens{})

	store.RefreshUser(context.Background())
	if store.Err() == "" {
		t.Fatalf("expected recorded error after failed refresh")
	}

	account.userErr = nil
	account.user = testUser("u1")
	store.RefreshUser(context.Background())
	if store.Err() != "" {
		t.Fatalf("expected error to clear on the next successful call, got %q", store.Err())
	}
}

func TestUserMissingBranch(t *testing.T) {
	account := &fakeAccount{userErr: errors.ErrUserNotFound}
	store := NewStore(account, staticTokens{})

	store.RefreshUser(context.Background())

	if !store.UserMissing() {
		t.Fatalf("expected the user-not-found answer to be distinguishable")
	}

	account.userErr = fmt.Errorf("some other failure")
	store.RefreshUser(context.Background())
	if store.UserMissing() {
		t.Fatalf("generic failures must not look like a missing profile")
	}
}

func TestOptimisticMutationsTouchNoNetwork(t *testing.T) {
	account := &fakeAccount{
		user:    testUser("u1"),
		devices: []models.Device{{ID: "d1", FriendlyName: "Living Room"}},
	}
	store := NewStore(account, staticTokens{})
	store.RefreshAll(context.Background())

	userCalls := account.userCalls.Load()
	devicesCalls := account.devicesCalls.Load()

	store.AddDeviceToState(models.Device{ID: "d2", FriendlyName: "Office"})
	store.UpdateDeviceInState(models.Device{ID: "d1", FriendlyName: "Bedroom"})
	store.RemoveDeviceFromState("d2")

	if account.userCalls.Load() != userCalls || account.devicesCalls.Load() != devicesCalls {
		t.Fatalf("local mutations must not trigger network calls")
	}

	list := store.Devices()
	if len(list) != 1 {
		t.Fatalf("expected one device after add and remove, got %d", len(list))
	}
	if list[0].FriendlyName != "Bedroom" {
		t.Fatalf("expected update to apply, got %q", list[0].FriendlyName)
	}
}

func TestUpdateUnknownDeviceIsNoOp(t *testing.T) {
	account := &fakeAccount{devices: []models.Device{{ID: "d1"}}}
	store := NewStore(account, staticTokens{})
	store.RefreshDevices(context.Background())

	store.UpdateDeviceInState(models.Device{ID: "missing", FriendlyName: "ghost"})
	store.RemoveDeviceFromState("also-missing")

	list := store.Devices()
	if len(list) != 1 || list[0].ID != "d1" {
		t.Fatalf("mutations on unknown ids must leave the list untouched: %+v", list)
	}
}

func TestDisposeResetsEverythingAndRearmsInit(t *testing.T) {
	account := &fakeAccount{
		user:    testUser("u1"),
		devices: []models.Device{{ID: "d1"}},
	}
	store := NewStore(account, staticTokens{})
	store.Init(context.Background())

	store.Dispose()

	if store.State() != StateSignedOut {
		t.Fatalf("expected signed-out after dispose, got %s", store.State())
	}
	if store.User() != nil || len(store.Devices()) != 0 {
		t.Fatalf("expected all session data to clear on dispose")
	}
	if !store.IsInitialLoading() {
		t.Fatalf("expected initial-loading to re-arm on dispose")
	}

	// A fresh sign-in bootstraps again.
	store.Init(context.Background())
	if store.State() != StateReady {
		t.Fatalf("expected a second session to bootstrap")
	}
	if got := account.userCalls.Load(); got != 2 {
		t.Fatalf("expected a second profile fetch after dispose, got %d", got)
	}
}

func TestBackgroundRefreshLeavesLoadingFlagAlone(t *testing.T) {
	account := &fakeAccount{devices: []models.Device{{ID: "d1"}}}
	store := NewStore(account, staticTokens{})

	store.RefreshDevices(context.Background())

	if store.IsLoading() {
		t.Fatalf("background device refresh must not leave the loading flag set")
	}
	if len(store.Devices()) != 1 {
		t.Fatalf("expected background refresh to commit devices")
	}
}
