// FilePath: internal/deviceapi/resolver_test.go
package deviceapi

import (
	"testing"

	"github.com/strct-org/beeportal/internal/models"
)

func TestResolveBuildsDeviceOrigin(t *testing.T) {
	r := NewResolver("strct.org")

	if got := r.Resolve("abc123"); got != "https://abc123.strct.org" {
		t.Fatalf("unexpected base URL: %s", got)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver("strct.org")

	first := r.Resolve("device-1")
	second := r.Resolve("device-1")
	if first != second {
		t.Fatalf("same id must always resolve to the same URL: %s vs %s", first, second)
	}
	if first == r.Resolve("device-2") {
		t.Fatalf("distinct ids must resolve to distinct URLs")
	}
}

func TestURLMapCoversAllDevices(t *testing.T) {
	r := NewResolver("strct.org")
	devices := []models.Device{{ID: "a"}, {ID: "b"}}

	urls := r.URLMap(devices)
	if len(urls) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(urls))
	}
	if urls["a"] != "https://a.strct.org" || urls["b"] != "https://b.strct.org" {
		t.Fatalf("unexpected url map: %v", urls)
	}
}
