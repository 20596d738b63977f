// FilePath: internal/accountapi/client_test.go
package accountapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
)

func TestGetUserMapsNotFoundToSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	_, err := client.GetUser(context.Background(), "token")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if !errors.IsUserNotFound(err) {
		t.Fatalf("expected the user-not-found sentinel, got %v", err)
	}
}

func TestGetUserCarriesBearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`{"id":"u1","email":"u1@example.com"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	user, err := client.GetUser(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetDevicesNilBecomesEmptySlice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/device" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`null`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	devices, err := client.GetDevices(context.Background(), "token")
	if err != nil {
		t.Fatalf("GetDevices failed: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", devices)
	}
}

func TestClaimDeviceConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/device/claim" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	_, err := client.ClaimDevice(context.Background(), "token", &models.ClaimRequest{
		SerialNumber: "SN-1",
		ClaimToken:   "CT-1",
	})
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !errors.IsConflict(err) {
		t.Fatalf("expected a typed conflict, got %v", err)
	}
}

func TestClaimDeviceReturnsCreatedRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"d1","friendly_name":"Living Room"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 2*time.Second)
	device, err := client.ClaimDevice(context.Background(), "token", &models.ClaimRequest{
		SerialNumber: "SN-1",
		ClaimToken:   "CT-1",
		FriendlyName: "Living Room",
	})
	if err != nil {
		t.Fatalf("ClaimDevice failed: %v", err)
	}
	if device.ID != "d1" || device.FriendlyName != "Living Room" {
		t.Fatalf("unexpected device: %+v", device)
	}
}
