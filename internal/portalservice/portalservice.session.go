// FilePath: internal/portalservice/portalservice.session.go
package portalservice

import (
	"context"
	"sync"

	"github.com/strct-org/beeportal/internal/filebrowser"
	"github.com/strct-org/beeportal/internal/identity"
	"github.com/strct-org/beeportal/internal/livestats"
	"github.com/strct-org/beeportal/internal/netmon"
	"github.com/strct-org/beeportal/internal/portal"
	nuts "github.com/vaudience/go-nuts"
)

// Session bundles the per-user state: the portal store, the live stats
// collector for the user's devices, and the per-device feature workers.
// Sessions are created lazily on the first authenticated request and torn
// down on sign-out.
type Session struct {
	UserID string
	Tokens *identity.SessionTokens
	Store  *portal.Store

	svc       *PortalService
	collector *livestats.Collector
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	monitors map[string]*netmon.Monitor
	browsers map[string]*filebrowser.Browser
}

// Collector returns the session's live stats collector.
func (s *Session) Collector() *livestats.Collector {
	return s.collector
}

// Monitor returns the network monitor for deviceID, starting its polling
// loop on first use. The loop lives on the session context, not on the
// request that happened to create it.
func (s *Session) Monitor(deviceID string) *netmon.Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if monitor, ok := s.monitors[deviceID]; ok {
		return monitor
	}

	monitor := netmon.NewMonitor(s.svc.Devices, s.UserID, deviceID, s.svc.Config.NetMonitor)
	monitor.Start(s.ctx, s.svc.Scheduler, s.svc.Config.NetMonitor.PollInterval)
	s.monitors[deviceID] = monitor
	return monitor
}

// Browser returns the file browser for deviceID, creating it at the root
// directory on first use.
func (s *Session) Browser(deviceID string) *filebrowser.Browser {
	s.mu.Lock()
	defer s.mu.Unlock()

	if browser, ok := s.browsers[deviceID]; ok {
		return browser
	}

	browser := filebrowser.NewBrowser(s.svc.Devices, deviceID)
	s.browsers[deviceID] = browser
	return browser
}

// ReleaseDevice drops the feature workers for a device, typically after it
// was unlinked.
func (s *Session) ReleaseDevice(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if monitor, ok := s.monitors[deviceID]; ok {
		monitor.Stop(s.svc.Scheduler)
		delete(s.monitors, deviceID)
	}
	delete(s.browsers, deviceID)
}

// dispose stops every loop owned by the session and resets the store.
func (s *Session) dispose() {
	s.mu.Lock()
	for deviceID, monitor := range s.monitors {
		monitor.Stop(s.svc.Scheduler)
		delete(s.monitors, deviceID)
	}
	s.browsers = make(map[string]*filebrowser.Browser)
	s.mu.Unlock()

	s.cancel()
	s.Store.Dispose()
}

// SessionRegistry tracks live sessions by user ID.
type SessionRegistry struct {
	svc *PortalService

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionRegistry(svc *PortalService) *SessionRegistry {
	return &SessionRegistry{
		svc:      svc,
		sessions: make(map[string]*Session),
	}
}

// Obtain returns the session for userID, creating and bootstrapping it on
// first use. The bearer token is refreshed on every call so outbound
// account calls always act with the user's current credentials.
func (r *SessionRegistry) Obtain(ctx context.Context, userID, bearerToken string) *Session {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	if ok {
		r.mu.Unlock()
		session.Tokens.Update(bearerToken)
		return session
	}

	session = r.newSession(userID)
	r.sessions[userID] = session
	r.mu.Unlock()

	session.Tokens.Update(bearerToken)
	session.Store.Init(ctx)
	session.collector.Start(session.ctx)

	nuts.L.Infof("[Portal] Session started for user %s", userID)
	return session
}

// Peek returns the session for userID without creating one.
func (r *SessionRegistry) Peek(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[userID]
	return session, ok
}

// Dispose tears down the session for userID, if any.
func (r *SessionRegistry) Dispose(userID string) {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if ok {
		session.dispose()
		nuts.L.Infof("[Portal] Session disposed for user %s", userID)
	}
}

// DisposeAll tears down every live session, used at shutdown.
func (r *SessionRegistry) DisposeAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for userID, session := range r.sessions {
		sessions = append(sessions, session)
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	for _, session := range sessions {
		session.dispose()
	}
}

func (r *SessionRegistry) newSession(userID string) *Session {
	tokens := identity.NewSessionTokens()
	store := portal.NewStore(r.svc.Account, tokens)
	ctx, cancel := context.WithCancel(context.Background())

	session := &Session{
		UserID:   userID,
		Tokens:   tokens,
		Store:    store,
		svc:      r.svc,
		ctx:      ctx,
		cancel:   cancel,
		monitors: make(map[string]*netmon.Monitor),
		browsers: make(map[string]*filebrowser.Browser),
	}
	session.collector = livestats.NewCollector(
		r.svc.Aggregator,
		store.Devices,
		r.svc.Config.Devices.PollInterval,
		r.svc.Snapshots,
		userID,
	)
	r.wireDeviceEvents(session)
	return session
}

// wireDeviceEvents reacts to the store's optimistic mutations: the live
// snapshot refreshes right away so a just-claimed device shows up without
// waiting a full poll interval, and each mutation lands in monitoring.
func (r *SessionRegistry) wireDeviceEvents(session *Session) {
	refresh := func(event string) func(id string) {
		return func(id string) {
			r.svc.Monitoring.RecordEvent("portal_"+event, map[string]string{
				"user_id":   session.UserID,
				"device_id": id,
			})
			go session.collector.Refresh(session.ctx)
		}
	}
	session.Store.OnDeviceEvent("device.added", refresh("device_added"))
	session.Store.OnDeviceEvent("device.removed", refresh("device_removed"))
	session.Store.OnDeviceEvent("device.updated", func(id string) {
		r.svc.Monitoring.RecordEvent("portal_device_updated", map[string]string{
			"user_id":   session.UserID,
			"device_id": id,
		})
	})
}
