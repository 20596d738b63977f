// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	PrometheusEndpoint string
	LokiEndpoint       string
}

// Service records portal events (session starts, device claims, optimistic
// mutations) and keeps in-process counters. Export to Prometheus/Loki hangs
// off the configured endpoints.
type Service struct {
	config Config

	mu       sync.Mutex
	counters map[string]int64
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config:   config,
		counters: make(map[string]int64),
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()

	s.mu.Lock()
	s.counters[eventName]++
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
}

// EventCount returns how many times an event was recorded since startup.
func (s *Service) EventCount(eventName string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[eventName]
}

// Counters returns a copy of all event counters, used by the health
// endpoint.
func (s *Service) Counters() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for name, count := range s.counters {
		out[name] = count
	}
	return out
}
