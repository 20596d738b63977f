// FilePath: api/resources/api.resource.network.go
package resources

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/strct-org/beeportal/internal/portalservice"
	nuts "github.com/vaudience/go-nuts"
)

// NetworkHandlers encapsulates the network-health HTTP handlers
type NetworkHandlers struct {
	portal *portalservice.PortalService
}

// @Summary Network health
// @Description Returns the current sample and rolling history for a device
// @Tags network
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} netmon.Status
// @Failure 401 {object} errors.APIError
// @Router /devices/{id}/network [get]
// @Security BearerAuth
func (h *NetworkHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	deviceID := mux.Vars(r)["id"]
	monitor := session.Monitor(deviceID)
	respondWithJSON(w, http.StatusOK, monitor.Snapshot())
}

// @Summary Run a speed test
// @Description Triggers an async measurement on the device
// @Tags network
// @Produce json
// @Param id path string true "Device ID"
// @Success 202 {object} netmon.Status
// @Failure 401 {object} errors.APIError
// @Router /devices/{id}/network/speedtest [post]
// @Security BearerAuth
func (h *NetworkHandlers) RunSpeedtest(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	deviceID := mux.Vars(r)["id"]
	monitor := session.Monitor(deviceID)
	if err := monitor.RunSpeedtest(r.Context()); err != nil {
		// The trigger is fire-and-forget; the cooldown window already
		// started and polling picks up whatever the device measured.
		nuts.L.Debugf("[API] Speedtest trigger for %s returned: %v", deviceID, err)
	}
	respondWithJSON(w, http.StatusAccepted, monitor.Snapshot())
}
