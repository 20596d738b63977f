// FilePath: api/resources/api.resource.user.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/strct-org/beeportal/api/middleware"
	"github.com/strct-org/beeportal/internal/errors"
	"github.com/strct-org/beeportal/internal/models"
	"github.com/strct-org/beeportal/internal/portalservice"
	nuts "github.com/vaudience/go-nuts"
)

// UserHandlers encapsulates the account-profile HTTP handlers
type UserHandlers struct {
	portal *portalservice.PortalService
}

// sessionResponse is the portal-state envelope returned by session reads.
type sessionResponse struct {
	State            string       `json:"state"`
	User             *models.User `json:"user"`
	UserMissing      bool         `json:"user_missing"`
	IsLoading        bool         `json:"is_loading"`
	IsInitialLoading bool         `json:"is_initial_loading"`
	Error            string       `json:"error,omitempty"`
}

// @Summary Get the portal session
// @Description Returns the signed-in user's profile and session state
// @Tags user
// @Produce json
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errors.APIError
// @Router /session [get]
// @Security BearerAuth
func (h *UserHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	respondWithJSON(w, http.StatusOK, sessionState(session))
}

// @Summary Refresh the user profile
// @Description Re-fetches the profile from the Account API
// @Tags user
// @Produce json
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errors.APIError
// @Router /user/refresh [post]
// @Security BearerAuth
func (h *UserHandlers) RefreshUser(w http.ResponseWriter, r *http.Request) {
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr)
		return
	}

	session.Store.RefreshUser(r.Context())
	respondWithJSON(w, http.StatusOK, sessionState(session))
}

// @Summary Create the account profile
// @Description Creates the profile for a freshly signed-up identity
// @Tags user
// @Accept json
// @Produce json
// @Param profile body models.CreateUserRequest true "Profile details"
// @Success 201 {object} models.User
// @Failure 400 {object} errors.APIError
// @Router /user [post]
// @Security BearerAuth
func (h *UserHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	session, apiErr := currentSession(h.portal, r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	created, err := h.portal.Account.CreateUser(r.Context(), user.Token, &req)
	if err != nil {
		respondWithError(w, errors.NewUpstreamError("failed to create profile", err).WithRequestID(requestID))
		return
	}

	session.Store.RefreshUser(r.Context())
	respondWithJSON(w, http.StatusCreated, created)
}

// @Summary Delete the account
// @Description Removes the profile and ends the portal session
// @Tags user
// @Success 204
// @Failure 401 {object} errors.APIError
// @Router /user [delete]
// @Security BearerAuth
func (h *UserHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	if err := h.portal.Account.DeleteUser(r.Context(), user.Token); err != nil {
		respondWithError(w, errors.NewUpstreamError("failed to delete account", err).WithRequestID(requestID))
		return
	}

	h.portal.Sessions().Dispose(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Sign out
// @Description Tears down the portal session state
// @Tags user
// @Success 204
// @Failure 401 {object} errors.APIError
// @Router /session [delete]
// @Security BearerAuth
func (h *UserHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("no user context found", nil))
		return
	}

	h.portal.Sessions().Dispose(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions shared by all resource handlers.

// currentSession resolves the authenticated user's portal session, creating
// and bootstrapping it on the first request.
func currentSession(portal *portalservice.PortalService, r *http.Request) (*portalservice.Session, *errors.APIError) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errors.NewAuthError("no user context found", nil)
	}
	return portal.Sessions().Obtain(r.Context(), user.ID, user.Token), nil
}

func sessionState(session *portalservice.Session) sessionResponse {
	store := session.Store
	return sessionResponse{
		State:            string(store.State()),
		User:             store.User(),
		UserMissing:      store.UserMissing(),
		IsLoading:        store.IsLoading(),
		IsInitialLoading: store.IsInitialLoading(),
		Error:            store.Err(),
	}
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
