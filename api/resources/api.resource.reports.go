// FilePath: api/resources/api.resource.reports.go
package resources

import (
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/portalservice"
	"github.com/strct-org/beeportal/internal/report"
	nuts "github.com/vaudience/go-nuts"
)

// ReportHandlers encapsulates the PDF report HTTP handlers
type ReportHandlers struct {
	portal *portalservice.PortalService
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(ts)
	})
	return decoder
}

// @Summary Generate a network report
// @Description Renders a PDF over the device's retained network history
// @Tags reports
// @Produce application/pdf
// @Param id path string true "Device ID"
// @Param metric query string true "latency, bandwidth or loss"
// @Param range query string false "24h, 7d, 30d or custom"
// @Param start query string false "RFC3339 start for custom range"
// @Success 200
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/reports/network [get]
// @Security BearerAuth
func (h *ReportHandlers) NetworkReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var req report.Request
	if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid report query", err).WithRequestID(requestID))
		return
	}
	req.DeviceID = mux.Vars(r)["id"]
	if req.DeviceName == "" {
		if device, found := findDevice(session.Store.Devices(), req.DeviceID); found {
			req.DeviceName = device.FriendlyName
		}
	}

	monitor := session.Monitor(req.DeviceID)
	snapshot := monitor.Snapshot()

	pdf, err := report.Generate(req, snapshot.History)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to generate report").WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(req, time.Now().UTC())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		nuts.L.Warnf("[API] Report stream for %s aborted: %v", req.DeviceID, err)
	}
}
