// FilePath: internal/deviceapi/resolver.go
package deviceapi

import (
	"fmt"

	"github.com/strct-org/beeportal/internal/models"
)

// Resolver derives the HTTPS base URL of a device from its id. The id is a
// DNS label under a fixed domain; malformed ids are the caller's problem.
type Resolver struct {
	domain string
}

func NewResolver(domain string) *Resolver {
	return &Resolver{domain: domain}
}

// Resolve maps a device id to its base URL. Pure, no I/O.
func (r *Resolver) Resolve(deviceID string) string {
	return fmt.Sprintf("https://%s.%s", deviceID, r.domain)
}

// URLMap builds the id -> base URL map for a device list.
func (r *Resolver) URLMap(devices []models.Device) map[string]string {
	urls := make(map[string]string, len(devices))
	for _, device := range devices {
		urls[device.ID] = r.Resolve(device.ID)
	}
	return urls
}
