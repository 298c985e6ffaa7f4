package game

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for gameplay.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for game endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// GetState handles GET /v1/games/{id}.
func (h *HTTPHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.authedGame(w, r)
	if !ok {
		return
	}

	state, err := h.svc.GetState(r.Context(), gameID, userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, state)
}

// GetCurrentQuestion handles GET /v1/games/{id}/question/current.
func (h *HTTPHandlers) GetCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.authedGame(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetCurrentQuestion(r.Context(), gameID, userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// SubmitAnswer handles POST /v1/games/{id}/answer.
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.authedGame(w, r)
	if !ok {
		return
	}

	var params SubmitParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid JSON payload")
		return
	}

	result, err := h.svc.SubmitAnswer(r.Context(), gameID, userID, params)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// GetResults handles GET /v1/games/{id}/results.
func (h *HTTPHandlers) GetResults(w http.ResponseWriter, r *http.Request) {
	userID, gameID, ok := h.authedGame(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetResults(r.Context(), gameID, userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *HTTPHandlers) authedGame(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid game id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, gameID, true
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
