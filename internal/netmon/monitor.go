// FilePath: internal/netmon/monitor.go
package netmon

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/strct-org/beeportal/internal/config"
	"github.com/strct-org/beeportal/internal/models"
	"github.com/strct-org/beeportal/internal/scheduler"
	nuts "github.com/vaudience/go-nuts"
)

// NetworkClient is the slice of the device client the monitor needs.
type NetworkClient interface {
	NetworkStats(ctx context.Context, deviceID string) (*models.NetworkStats, error)
	TriggerSpeedtest(ctx context.Context, deviceID string) error
}

// Status is one read of the monitor's state.
type Status struct {
	Current          *models.NetworkSample  `json:"current"`
	History          []models.NetworkSample `json:"history"`
	SpeedtestRunning bool                   `json:"speedtest_running"`
	Error            string                 `json:"error,omitempty"`
}

// Monitor polls one device's network endpoint on a fixed interval and keeps
// a bounded rolling window of samples for charting. Later responses for the
// same device supersede earlier ones; stopping the loop (or re-targeting
// via the scheduler key) prevents any write for a stale target.
type Monitor struct {
	client     NetworkClient
	owner      string
	deviceID   string
	windowSize int
	simulate   bool
	cooldown   time.Duration

	mu               sync.RWMutex
	current          *models.NetworkSample
	history          []models.NetworkSample
	errMsg           string
	testRunningUntil time.Time
}

// NewMonitor creates a monitor for one device on behalf of one session
// owner. Devices can be shared across users, so the owner scopes the
// monitor's polling loop: each session polls independently.
func NewMonitor(client NetworkClient, owner, deviceID string, cfg config.NetMonitorConfig) *Monitor {
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = 50
	}
	return &Monitor{
		client:     client,
		owner:      owner,
		deviceID:   deviceID,
		windowSize: windowSize,
		simulate:   cfg.SimulateOnFailure,
		cooldown:   cfg.SpeedtestCooldown,
	}
}

func loopKey(owner, deviceID string) string {
	return "netmon:" + owner + ":" + deviceID
}

// Start registers the polling loop with the scheduler: one immediate fetch,
// then one per interval until stopped.
func (m *Monitor) Start(ctx context.Context, sched *scheduler.Scheduler, interval time.Duration) {
	sched.Every(ctx, loopKey(m.owner, m.deviceID), interval, m.Poll)
}

// Stop cancels the polling loop.
func (m *Monitor) Stop(sched *scheduler.Scheduler) {
	sched.Cancel(loopKey(m.owner, m.deviceID))
}

// Poll runs one fetch cycle. On success the device's history replaces the
// window wholesale (the device is the richer source); on failure the
// previous window stays visible and either an error is recorded or, when
// the simulation fallback is enabled, a synthesized sample is appended.
func (m *Monitor) Poll(ctx context.Context) {
	stats, err := m.client.NetworkStats(ctx, m.deviceID)
	if err != nil {
		if m.simulate {
			m.appendSample(simulatedSample())
			return
		}
		nuts.L.Debugf("[NetMon] Device %s network fetch failed: %v", m.deviceID, err)
		m.mu.Lock()
		m.errMsg = "could not retrieve network health"
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
	current := stats.Current
	m.current = &current
	if len(stats.History) > 0 {
		m.history = trimWindow(stats.History, m.windowSize)
	} else {
		m.history = trimWindow(append(m.history, current), m.windowSize)
	}
}

// RunSpeedtest fires the device's async measurement trigger. The monitor
// optimistically reports "running" for the cooldown window regardless of
// the trigger call's own outcome; the regular polling observes the result.
func (m *Monitor) RunSpeedtest(ctx context.Context) error {
	m.mu.Lock()
	m.testRunningUntil = time.Now().Add(m.cooldown)
	m.mu.Unlock()

	if err := m.client.TriggerSpeedtest(ctx, m.deviceID); err != nil {
		nuts.L.Warnf("[NetMon] Speedtest trigger failed for %s: %v", m.deviceID, err)
		return err
	}
	return nil
}

// Snapshot returns a copy of the monitor's state.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]models.NetworkSample, len(m.history))
	copy(history, m.history)

	var current *models.NetworkSample
	if m.current != nil {
		sample := *m.current
		current = &sample
	}

	return Status{
		Current:          current,
		History:          history,
		SpeedtestRunning: time.Now().Before(m.testRunningUntil),
		Error:            m.errMsg,
	}
}

func (m *Monitor) appendSample(sample models.NetworkSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
	m.current = &sample
	m.history = trimWindow(append(m.history, sample), m.windowSize)
}

func trimWindow(samples []models.NetworkSample, size int) []models.NetworkSample {
	if len(samples) <= size {
		return samples
	}
	trimmed := make([]models.NetworkSample, size)
	copy(trimmed, samples[len(samples)-size:])
	return trimmed
}

// simulatedSample fabricates one plausible data point, mirroring what the
// demo scaffolding showed when a device was offline.
func simulatedSample() models.NetworkSample {
	latency := 20 + rand.Float64()*15
	loss := 0.0
	if rand.Float64() > 0.95 {
		loss = 2.0
	}
	isDown := false

	sample := models.NetworkSample{
		LatencyMs:   &latency,
		LossPercent: &loss,
		IsDown:      &isDown,
		Timestamp:   time.Now().UTC(),
	}
	if rand.Float64() > 0.9 {
		bandwidth := 150.0
		sample.BandwidthMbps = &bandwidth
	}
	return sample
}
