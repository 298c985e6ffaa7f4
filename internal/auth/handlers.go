package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{authSvc: authSvc, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /v1/auth/register.
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid JSON payload")
		return
	}

	session, err := h.authSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, session)
}

// Login handles POST /v1/auth/login.
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid JSON payload")
		return
	}

	session, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if httperrors.CodeOf(err) == httperrors.CodeLoginFailed {
			httperrors.RespondUnauthorized(w, httperrors.CodeLoginFailed, "invalid email or password")
			return
		}
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// GetMe handles GET /v1/users/me.
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      user.ID,
		"email":        user.Email,
		"games_played": user.GamesPlayed,
		"victories":    user.Victories,
		"total_points": user.TotalPoints,
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
