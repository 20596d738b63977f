// FilePath: internal/livestats/aggregator.go
package livestats

import (
	"context"
	"sync"
	"time"

	"github.com/strct-org/beeportal/internal/deviceapi"
	"github.com/strct-org/beeportal/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// StatusFetcher is the slice of the device client the aggregator needs.
type StatusFetcher interface {
	Status(ctx context.Context, deviceID string) (*deviceapi.StatusResponse, error)
}

// Aggregator answers "which devices are online, and what is their usage"
// with one bounded status probe per device. It owns no timer; callers decide
// when a cycle runs.
type Aggregator struct {
	fetcher StatusFetcher
	timeout time.Duration
}

func NewAggregator(fetcher StatusFetcher, timeout time.Duration) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		timeout: timeout,
	}
}

// RefreshAll probes every device concurrently and returns one LiveStats
// entry per input device. The map is only built after every probe has
// settled: the published snapshot is always complete, never partial. A
// device that fails in any way (timeout, refusal, non-2xx, bad body) is
// reported offline with zeroed usage; no retries happen within a cycle.
func (a *Aggregator) RefreshAll(ctx context.Context, devices []models.Device) map[string]models.LiveStats {
	results := make([]models.LiveStats, len(devices))

	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func(idx int, deviceID string) {
			defer wg.Done()
			results[idx] = a.probe(ctx, deviceID)
		}(i, device.ID)
	}
	wg.Wait()

	stats := make(map[string]models.LiveStats, len(devices))
	for i, device := range devices {
		stats[device.ID] = results[i]
	}
	return stats
}

// probe runs a single status attempt. Every failure path funnels into the
// same offline record: from the portal's perspective a timeout and an
// active refusal both mean "cannot be used right now".
func (a *Aggregator) probe(ctx context.Context, deviceID string) models.LiveStats {
	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	status, err := a.fetcher.Status(probeCtx, deviceID)
	if err != nil {
		nuts.L.Debugf("[LiveStats] Device %s unreachable: %v", deviceID, err)
		return models.LiveStats{
			IsOnline:     false,
			StorageUsed:  0,
			StorageTotal: 0,
		}
	}

	stats := models.LiveStats{
		IsOnline:     true,
		StorageUsed:  status.Used,
		StorageTotal: status.Total,
	}
	if status.IP != "" {
		ip := status.IP
		stats.IPAddress = &ip
	}
	if status.Uptime > 0 {
		uptime := status.Uptime
		stats.UptimeSeconds = &uptime
	}
	return stats
}
