package lobby

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for lobby management.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for lobby endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// Create handles POST /v1/lobbies.
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}

	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid JSON payload")
		return
	}

	view, err := h.svc.Create(r.Context(), userID, params)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view, h.logger)
}

// Get handles GET /v1/lobbies/{id}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	lobbyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.svc.GetByID(r.Context(), lobbyID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view, h.logger)
}

// GetByCode handles GET /v1/lobbies/code/{code}.
func (h *HTTPHandlers) GetByCode(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view, h.logger)
}

// Join handles POST /v1/lobbies/join.
func (h *HTTPHandlers) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid JSON payload")
		return
	}

	view, err := h.svc.Join(r.Context(), req.Code, userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view, h.logger)
}

// SetReady handles PATCH /v1/lobbies/{id}/ready.
func (h *HTTPHandlers) SetReady(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	lobbyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Ready *bool `json:"ready"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ready == nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidReadyStatus, "ready flag is required")
		return
	}

	view, err := h.svc.SetReady(r.Context(), lobbyID, userID, *req.Ready)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view, h.logger)
}

// Leave handles DELETE /v1/lobbies/{id}/leave.
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	lobbyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Leave(r.Context(), lobbyID, userID); err != nil {
		httperrors.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start handles POST /v1/lobbies/{id}/start.
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}
	lobbyID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	game, err := h.svc.Start(r.Context(), lobbyID, userID)
	if err != nil {
		httperrors.Respond(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":         game.ID,
		"lobby_id":        game.LobbyID,
		"total_questions": game.TotalQuestions,
	}, h.logger)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		httperrors.RespondError(w, http.StatusBadRequest, httperrors.CodeInvalidRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
