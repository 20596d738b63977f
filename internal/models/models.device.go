// FilePath: internal/models/models.device.go
package models

import "time"

// Device is the account-side record of a claimed BeeStation appliance.
// The IsOnline flag stored here is only the Account API's last snapshot;
// the authoritative reachability value comes from the live status poll.
type Device struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	FriendlyName string    `json:"friendly_name"`
	IsOnline     bool      `json:"is_online"`
	LastSeen     time.Time `json:"last_seen"`
	LocalIP      string    `json:"local_ip" readxs:"owner,system,superadmin" writexs:"system,superadmin"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LiveStats is the ephemeral reachability and usage snapshot for one device,
// recomputed on every aggregator cycle. Optional fields are nil when the
// device did not answer or the response omitted them.
type LiveStats struct {
	IsOnline      bool    `json:"is_online"`
	StorageUsed   int64   `json:"storage_used"`
	StorageTotal  int64   `json:"storage_total"`
	IPAddress     *string `json:"ip_address,omitempty"`
	UptimeSeconds *int64  `json:"uptime,omitempty"`
}

// ClaimRequest is the payload for claiming a manufactured device.
type ClaimRequest struct {
	SerialNumber string `json:"serial_number"`
	ClaimToken   string `json:"claim_token"`
	FriendlyName string `json:"friendly_name"`
}
