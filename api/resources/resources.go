// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/strct-org/beeportal/internal/portalservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Users       *UserHandlers
	Devices     *DeviceHandlers
	Files       *FileHandlers
	Network     *NetworkHandlers
	Reports     *ReportHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *portalservice.PortalService) *Resources {
	return &Resources{
		Users:   &UserHandlers{portal: svc},
		Devices: &DeviceHandlers{portal: svc},
		Files:   &FileHandlers{portal: svc},
		Network: &NetworkHandlers{portal: svc},
		Reports: &ReportHandlers{portal: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}
