// FilePath: api/resources/api.resource.files.go
package resources

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/portalservice"
	nuts "github.com/vaudience/go-nuts"
)

const maxUploadSize = 512 << 20 // 512 MB

// FileHandlers encapsulates the device-filesystem HTTP handlers
type FileHandlers struct {
	portal *portalservice.PortalService
}

type mkdirBody struct {
	Name string `json:"name"`
}

type deleteBody struct {
	Name string `json:"name"`
}

// @Summary List a directory
// @Description Navigates the device browser to path and returns the listing
// @Tags files
// @Produce json
// @Param id path string true "Device ID"
// @Param path query string false "Directory path, defaults to /"
// @Success 200 {object} filebrowser.Listing
// @Failure 401 {object} errors.APIError
// @Router /devices/{id}/files [get]
// @Security BearerAuth
func (h *FileHandlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	deviceID := mux.Vars(r)["id"]
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	listing := session.Browser(deviceID).Navigate(r.Context(), path)
	respondWithJSON(w, http.StatusOK, listing)
}

// @Summary Create a folder
// @Description Creates a folder in the browser's current directory
// @Tags files
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param folder body mkdirBody true "Folder name"
// @Success 201 {object} filebrowser.Listing
// @Failure 409 {object} errors.APIError
// @Router /devices/{id}/files/mkdir [post]
// @Security BearerAuth
func (h *FileHandlers) Mkdir(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	var body mkdirBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if body.Name == "" {
		respondWithError(w, errors.NewValidationError("name is required", nil).WithRequestID(requestID))
		return
	}

	listing, err := session.Browser(deviceID).Mkdir(r.Context(), body.Name)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to create folder").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

// @Summary Delete a file or folder
// @Description Deletes an entry of the browser's current directory
// @Tags files
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param entry body deleteBody true "Entry name"
// @Success 200 {object} filebrowser.Listing
// @Failure 502 {object} errors.APIError
// @Router /devices/{id}/files/delete [post]
// @Security BearerAuth
func (h *FileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	var body deleteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if body.Name == "" {
		respondWithError(w, errors.NewValidationError("name is required", nil).WithRequestID(requestID))
		return
	}

	listing, err := session.Browser(deviceID).Delete(r.Context(), body.Name)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to delete entry").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// @Summary Upload a file
// @Description Streams a multipart upload into the browser's current directory
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Device ID"
// @Param file formData file true "File content"
// @Success 201 {object} filebrowser.Listing
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/files/upload [post]
// @Security BearerAuth
func (h *FileHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondWithError(w, errors.NewValidationError("file too large", err).WithRequestID(requestID))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid file upload", err).WithRequestID(requestID))
		return
	}
	defer file.Close()

	listing, err := session.Browser(deviceID).Upload(r.Context(), header.Filename, file)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to upload file").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

// @Summary Download a file
// @Description Streams a file from the browser's current directory
// @Tags files
// @Produce octet-stream
// @Param id path string true "Device ID"
// @Param name query string true "File name"
// @Success 200
// @Failure 502 {object} errors.APIError
// @Router /devices/{id}/files/download [get]
// @Security BearerAuth
func (h *FileHandlers) Download(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	deviceID := mux.Vars(r)["id"]
	name := r.URL.Query().Get("name")
	if name == "" {
		respondWithError(w, errors.NewValidationError("name is required", nil).WithRequestID(requestID))
		return
	}

	path := session.Browser(deviceID).DownloadPath(name)
	stream, err := h.portal.Devices.Download(r.Context(), deviceID, path)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to download file").WithRequestID(requestID))
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, stream); err != nil {
		nuts.L.Warnf("[API] Download stream for %s aborted: %v", deviceID, err)
	}
}

// asAPIError passes a typed API error through and wraps anything else.
func asAPIError(err error, msg string) *errors.APIError {
	if apiErr, ok := err.(*errors.APIError); ok {
		return apiErr
	}
	return errors.NewUpstreamError(msg, err)
}
