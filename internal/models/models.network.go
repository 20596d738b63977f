// FilePath: internal/models/models.network.go
package models

import "time"

// NetworkSample is one point of the device-side network monitor stream.
// Bandwidth is sparse: it is only populated after an explicit speed test.
type NetworkSample struct {
	LatencyMs     *float64  `json:"latency"`
	LossPercent   *float64  `json:"loss"`
	IsDown        *bool     `json:"is_down"`
	BandwidthMbps *float64  `json:"bandwidth"`
	Timestamp     time.Time `json:"timestamp"`
}

// NetworkStats is the device's monitor payload: the latest sample plus the
// recent history the device retains.
type NetworkStats struct {
	Current NetworkSample   `json:"current"`
	History []NetworkSample `json:"history"`
}
