// FilePath: internal/portalservice/portalservice_test.go
package portalservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strct-org/beeportal/internal/config"
	"github.com/strct-org/beeportal/internal/monitoring"
	"github.com/strct-org/beeportal/internal/portal"
)

func testService(t *testing.T, accountURL string) *PortalService {
	t.Helper()
	cfg := &config.Config{
		AccountAPI: config.AccountAPIConfig{BaseURL: accountURL, Timeout: 2 * time.Second},
		Devices: config.DeviceConfig{
			Domain:         "strct.org",
			StatusTimeout:  100 * time.Millisecond,
			RequestTimeout: 2 * time.Second,
			PollInterval:   time.Hour,
		},
		NetMonitor: config.NetMonitorConfig{
			PollInterval:      time.Hour,
			WindowSize:        50,
			SpeedtestCooldown: 10 * time.Second,
		},
	}
	svc := New(cfg, monitoring.NewService(monitoring.Config{}))
	t.Cleanup(svc.Shutdown)
	return svc
}

func accountServer(t *testing.T, userCalls, deviceCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/user":
			userCalls.Add(1)
			w.Write([]byte(`{"id":"u1","email":"u1@example.com"}`))
		case "/api/v1/device":
			deviceCalls.Add(1)
			w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestObtainBootstrapsOncePerUser(t *testing.T) {
	var userCalls, deviceCalls atomic.Int64
	ts := accountServer(t, &userCalls, &deviceCalls)
	svc := testService(t, ts.URL)

	first := svc.Sessions().Obtain(context.Background(), "u1", "token-a")
	second := svc.Sessions().Obtain(context.Background(), "u1", "token-b")

	if first != second {
		t.Fatalf("expected the same session for repeated requests")
	}
	if first.Store.State() != portal.StateReady {
		t.Fatalf("expected a bootstrapped session, got %s", first.Store.State())
	}
	if got := userCalls.Load(); got != 1 {
		t.Fatalf("expected one profile fetch across requests, got %d", got)
	}

	// The freshest bearer token wins.
	token, err := first.Tokens.Token(context.Background())
	if err != nil || token != "token-b" {
		t.Fatalf("expected the latest token, got %q (%v)", token, err)
	}
}

func TestDisposeEndsSessionAndRearmsBootstrap(t *testing.T) {
	var userCalls, deviceCalls atomic.Int64
	ts := accountServer(t, &userCalls, &deviceCalls)
	svc := testService(t, ts.URL)

	session := svc.Sessions().Obtain(context.Background(), "u1", "token")
	svc.Sessions().Dispose("u1")

	if _, ok := svc.Sessions().Peek("u1"); ok {
		t.Fatalf("expected session to be gone after dispose")
	}
	if session.Store.State() != portal.StateSignedOut {
		t.Fatalf("expected disposed store to be signed out")
	}

	fresh := svc.Sessions().Obtain(context.Background(), "u1", "token")
	if fresh == session {
		t.Fatalf("expected a new session after dispose")
	}
	if got := userCalls.Load(); got != 2 {
		t.Fatalf("expected a second bootstrap, got %d fetches", got)
	}
}

func TestBrowserIsMemoizedPerDevice(t *testing.T) {
	var userCalls, deviceCalls atomic.Int64
	ts := accountServer(t, &userCalls, &deviceCalls)
	svc := testService(t, ts.URL)

	session := svc.Sessions().Obtain(context.Background(), "u1", "token")

	first := session.Browser("d1")
	if second := session.Browser("d1"); second != first {
		t.Fatalf("expected one browser per device")
	}
	if other := session.Browser("d2"); other == first {
		t.Fatalf("expected distinct browsers for distinct devices")
	}

	session.ReleaseDevice("d1")
	if rebuilt := session.Browser("d1"); rebuilt == first {
		t.Fatalf("expected a fresh browser after release")
	}
}
