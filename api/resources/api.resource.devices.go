// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/itsatony/struccy"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
	"github.com/strct-org/beeportal/internal/portalservice"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	portal *portalservice.PortalService
}

type renameRequest struct {
	FriendlyName string `json:"friendly_name"`
}

type liveStatsResponse struct {
	Stats       map[string]models.LiveStats `json:"stats"`
	URLs        map[string]string           `json:"urls"`
	GeneratedAt *time.Time                  `json:"generated_at,omitempty"`
	Stale       bool                        `json:"stale"`
}

// @Summary List devices
// @Description Returns the signed-in user's claimed devices
// @Tags devices
// @Produce json
// @Success 200 {array} models.Device
// @Failure 401 {object} errors.APIError
// @Router /devices [get]
// @Security BearerAuth
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	rendered, err := renderDevices(session.Store.Devices())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to render devices", err).WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, rendered)
}

// @Summary Refresh devices
// @Description Re-fetches the device list from the Account API
// @Tags devices
// @Produce json
// @Success 200 {array} models.Device
// @Failure 401 {object} errors.APIError
// @Router /devices/refresh [post]
// @Security BearerAuth
func (h *DeviceHandlers) RefreshDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	session.Store.RefreshDevices(r.Context())

	rendered, err := renderDevices(session.Store.Devices())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to render devices", err).WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, rendered)
}

// @Summary Claim a device
// @Description Claims a manufactured device and adds it to the session
// @Tags devices
// @Accept json
// @Produce json
// @Param claim body models.ClaimRequest true "Claim details"
// @Success 201 {object} models.Device
// @Failure 400 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /devices/claim [post]
// @Security BearerAuth
func (h *DeviceHandlers) ClaimDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var req models.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.SerialNumber == "" || req.ClaimToken == "" {
		respondWithError(w, errors.NewValidationError("serial_number and claim_token are required", nil).WithRequestID(requestID))
		return
	}

	token := session.Tokens
	bearer, err := token.Token(r.Context())
	if err != nil {
		respondWithError(w, errors.NewAuthError("no session token", err).WithRequestID(requestID))
		return
	}

	device, err := h.portal.Account.ClaimDevice(r.Context(), bearer, &req)
	if err != nil {
		if errors.IsConflict(err) {
			respondWithError(w, errors.NewConflictError("device already claimed", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewUpstreamError("failed to claim device", err).WithRequestID(requestID))
		return
	}

	// The claimed device is visible immediately; the next device refresh
	// reconciles with the server.
	session.Store.AddDeviceToState(*device)
	respondWithJSON(w, http.StatusCreated, device)
}

// @Summary Rename a device
// @Description Updates the friendly name in the session state
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param rename body renameRequest true "New name"
// @Success 200 {object} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices/{id} [put]
// @Security BearerAuth
func (h *DeviceHandlers) RenameDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.FriendlyName == "" {
		respondWithError(w, errors.NewValidationError("friendly_name is required", nil).WithRequestID(requestID))
		return
	}

	device, found := findDevice(session.Store.Devices(), deviceID)
	if !found {
		respondWithError(w, errors.NewNotFoundError("device not found", nil).WithRequestID(requestID))
		return
	}

	device.FriendlyName = req.FriendlyName
	device.UpdatedAt = time.Now().UTC()
	session.Store.UpdateDeviceInState(device)
	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Unlink a device
// @Description Removes the device from the session state
// @Tags devices
// @Param id path string true "Device ID"
// @Success 204
// @Failure 404 {object} errors.APIError
// @Router /devices/{id} [delete]
// @Security BearerAuth
func (h *DeviceHandlers) UnlinkDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	if _, found := findDevice(session.Store.Devices(), deviceID); !found {
		respondWithError(w, errors.NewNotFoundError("device not found", nil).WithRequestID(requestID))
		return
	}

	session.Store.RemoveDeviceFromState(deviceID)
	session.ReleaseDevice(deviceID)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Live device status
// @Description Returns the latest complete reachability and usage snapshot
// @Tags devices
// @Produce json
// @Success 200 {object} liveStatsResponse
// @Failure 401 {object} errors.APIError
// @Router /devices/live [get]
// @Security BearerAuth
func (h *DeviceHandlers) LiveStats(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	stats, generatedAt, ok := session.Collector().Snapshot()
	response := liveStatsResponse{
		Stats: stats,
		URLs:  h.portal.Resolver.URLMap(session.Store.Devices()),
		Stale: session.Collector().Stale(),
	}
	if ok && !generatedAt.IsZero() {
		response.GeneratedAt = &generatedAt
	}
	if response.Stats == nil {
		response.Stats = map[string]models.LiveStats{}
	}
	respondWithJSON(w, http.StatusOK, response)
}

// renderDevices applies field-level read access before the device records
// leave the service: owners see their device's LAN address, nobody else
// does.
func renderDevices(devices []models.Device) ([]map[string]any, error) {
	rendered := make([]map[string]any, 0, len(devices))
	for i := range devices {
		fields, err := struccy.StructToMapFieldsWithReadXS(&devices[i], []string{"owner"})
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, fields)
	}
	return rendered, nil
}

func findDevice(devices []models.Device, deviceID string) (models.Device, bool) {
	for _, device := range devices {
		if device.ID == deviceID {
			return device, true
		}
	}
	return models.Device{}, false
}
