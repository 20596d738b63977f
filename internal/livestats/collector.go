// FilePath: internal/livestats/collector.go
package livestats

import (
	"context"
	"sync"
	"time"

	"github.com/strct-org/beeportal/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceSource supplies the current device list for a collector cycle,
// typically bound to a portal store.
type DeviceSource func() []models.Device

// SnapshotCache is the optional write-through store for the last published
// snapshot. Implementations must tolerate being unavailable; caching is
// best effort only.
type SnapshotCache interface {
	Put(ctx context.Context, key string, stats map[string]models.LiveStats) error
	Get(ctx context.Context, key string) (map[string]models.LiveStats, error)
}

// Collector owns the polling timer for one session's device set and keeps
// the latest complete snapshot in memory.
type Collector struct {
	aggregator *Aggregator
	source     DeviceSource
	interval   time.Duration
	cache      SnapshotCache
	cacheKey   string

	mu          sync.RWMutex
	stats       map[string]models.LiveStats
	generatedAt time.Time
	ready       bool
}

func NewCollector(aggregator *Aggregator, source DeviceSource, interval time.Duration, cache SnapshotCache, cacheKey string) *Collector {
	return &Collector{
		aggregator: aggregator,
		source:     source,
		interval:   interval,
		cache:      cache,
		cacheKey:   cacheKey,
	}
}

// Start runs one immediate cycle and then refreshes on the interval until
// ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.seed(ctx)
	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()
}

// Refresh runs one aggregator cycle and replaces the published snapshot
// wholesale. No merging: devices removed from the list disappear from the
// snapshot with the cycle. A cancelled context means the owning session is
// gone; the cycle is skipped entirely rather than publishing for the dead
// session.
func (c *Collector) Refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	devices := c.source()
	stats := c.aggregator.RefreshAll(ctx, devices)
	now := time.Now().UTC()

	c.mu.Lock()
	c.stats = stats
	c.generatedAt = now
	c.ready = true
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Put(ctx, c.cacheKey, stats); err != nil {
			nuts.L.Warnf("[LiveStats] Snapshot cache write failed: %v", err)
		}
	}
}

// Snapshot returns a copy of the latest published snapshot. ok is false
// until the first cycle (or a cache seed) has completed.
func (c *Collector) Snapshot() (map[string]models.LiveStats, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return nil, time.Time{}, false
	}
	out := make(map[string]models.LiveStats, len(c.stats))
	for id, stats := range c.stats {
		out[id] = stats
	}
	return out, c.generatedAt, true
}

// Stale reports whether the snapshot is older than twice the poll interval.
func (c *Collector) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return true
	}
	return time.Since(c.generatedAt) > 2*c.interval
}

// seed pre-populates the snapshot from the cache so a portal reload shows
// the last known state while the first real cycle runs. The seed keeps its
// cached staleness: generatedAt stays zero so Stale() stays true.
func (c *Collector) seed(ctx context.Context) {
	if c.cache == nil {
		return
	}
	cached, err := c.cache.Get(ctx, c.cacheKey)
	if err != nil {
		nuts.L.Warnf("[LiveStats] Snapshot cache read failed: %v", err)
		return
	}
	if cached == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return
	}
	c.stats = cached
	c.ready = true
}
