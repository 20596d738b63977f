// FilePath: internal/portalservice/portalservice.go
package portalservice

import (
	"github.com/strct-org/beeportal/internal/accountapi"
	"github.com/strct-org/beeportal/internal/cache"
	"github.com/strct-org/beeportal/internal/config"
	"github.com/strct-org/beeportal/internal/deviceapi"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/livestats"
	"github.com/strct-org/beeportal/internal/monitoring"
	"github.com/strct-org/beeportal/internal/scheduler"
	nuts "github.com/vaudience/go-nuts"
)

// PortalService contains all clients and service-wide dependencies.
type PortalService struct {
	Account    *accountapi.Client
	Devices    *deviceapi.Client
	Resolver   *deviceapi.Resolver
	Aggregator *livestats.Aggregator
	Snapshots  *cache.SnapshotStore
	Scheduler  *scheduler.Scheduler
	Monitoring *monitoring.Service
	Config     *config.Config

	sessions *SessionRegistry
}

// New creates a new PortalService instance.
func New(cfg *config.Config, mon *monitoring.Service) *PortalService {
	resolver := deviceapi.NewResolver(cfg.Devices.Domain)
	devices := deviceapi.NewClient(resolver, cfg.Devices.RequestTimeout)

	svc := &PortalService{
		Account:    accountapi.NewClient(cfg.AccountAPI.BaseURL, cfg.AccountAPI.Timeout),
		Devices:    devices,
		Resolver:   resolver,
		Aggregator: livestats.NewAggregator(devices, cfg.Devices.StatusTimeout),
		Snapshots:  cache.NewSnapshotStore(cfg.Redis),
		Scheduler:  scheduler.New(),
		Monitoring: mon,
		Config:     cfg,
	}
	svc.sessions = NewSessionRegistry(svc)
	return svc
}

// Sessions exposes the per-user session registry.
func (s *PortalService) Sessions() *SessionRegistry {
	return s.sessions
}

// Validate checks if all required dependencies are initialized.
func (s *PortalService) Validate() error {
	if s.Account == nil {
		return ErrMissingDependency("account client")
	}
	if s.Devices == nil {
		return ErrMissingDependency("device client")
	}
	if s.Aggregator == nil {
		return ErrMissingDependency("live stats aggregator")
	}
	if s.Scheduler == nil {
		return ErrMissingDependency("scheduler")
	}
	return nil
}

// Shutdown stops all polling loops and closes the snapshot cache.
func (s *PortalService) Shutdown() {
	s.sessions.DisposeAll()
	s.Scheduler.Shutdown()
	if err := s.Snapshots.Close(); err != nil {
		nuts.L.Warnf("[Portal] Snapshot cache close failed: %v", err)
	}
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}
