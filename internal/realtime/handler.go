package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth/jwt"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// TokenValidator authenticates the bearer token presented at connect time.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Memberships verifies lobby membership before room subscription.
type Memberships interface {
	IsMember(ctx context.Context, lobbyID, userID uuid.UUID) (bool, error)
}

// ReadyUpdater flips a member's readiness on behalf of a socket message.
type ReadyUpdater interface {
	SetReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error
}

// WSHandler upgrades HTTP requests to WebSocket connections and routes
// client messages.
type WSHandler struct {
	hub      *Hub
	tokens   TokenValidator
	members  Memberships
	ready    ReadyUpdater
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWSHandler creates the /ws endpoint handler.
func NewWSHandler(hub *Hub, tokens TokenValidator, members Memberships, ready ReadyUpdater, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		tokens:  tokens,
		members: members,
		ready:   ready,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the frontend domain is fixed
				return true
			},
		},
		logger: logger.With().Str("component", "ws_handler").Logger(),
	}
}

// ServeHTTP authenticates the connect request, upgrades it and runs the
// read/write pumps until the client goes away.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.CodeInvalidToken, "invalid or expired token")
		return
	}
	userID := claims.UserID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	wrapped := NewConnection(conn, h.logger.With().Str("user_id", userID.String()).Logger())
	h.hub.Register(userID, wrapped)

	go wrapped.WritePump()
	wrapped.ReadPump(func(msg Message) {
		h.handleMessage(r.Context(), userID, msg)
	})

	h.disconnect(userID, wrapped)
}

func (h *WSHandler) handleMessage(ctx context.Context, userID uuid.UUID, msg Message) {
	switch msg.Type {
	case TypePing:
		_ = h.hub.SendToUser(userID, Message{Type: TypePong})

	case TypeLobbyJoin:
		var payload LobbyJoinPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(userID, httperrors.CodeInvalidPayload, "malformed lobby:join payload")
			return
		}
		isMember, err := h.members.IsMember(ctx, payload.LobbyID, userID)
		if err != nil {
			h.sendError(userID, httperrors.CodeInternalError, "membership check failed")
			return
		}
		if !isMember {
			h.sendError(userID, httperrors.CodeNotInLobby, "player is not in this lobby")
			return
		}
		h.hub.JoinRoom(LobbyRoom(payload.LobbyID), userID)

	case TypeLobbyLeave:
		var payload LobbyLeavePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(userID, httperrors.CodeInvalidPayload, "malformed lobby:leave payload")
			return
		}
		h.hub.LeaveRoom(LobbyRoom(payload.LobbyID), userID)

	case TypeLobbyReady:
		var payload LobbyReadyPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(userID, httperrors.CodeInvalidPayload, "malformed lobby:ready payload")
			return
		}
		if err := h.ready.SetReady(ctx, payload.LobbyID, userID, payload.Ready); err != nil {
			h.sendError(userID, httperrors.CodeOf(err), "ready update rejected")
		}

	default:
		h.sendError(userID, httperrors.CodeUnknownMessageType, "unknown message type: "+msg.Type)
	}
}

// disconnect tears down the connection and tells any in-flight games that the
// player dropped. Game state is untouched; the player can reconnect and
// resume.
func (h *WSHandler) disconnect(userID uuid.UUID, conn *Connection) {
	rooms := h.hub.Unregister(userID, conn)
	for _, room := range rooms {
		raw, ok := strings.CutPrefix(room, "game:")
		if !ok {
			continue
		}
		gameID, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		h.hub.Broadcast(room, NewMessage(TypeGamePlayerDisconnected, PlayerDisconnectedPayload{
			GameID: gameID,
			UserID: userID,
		}))
	}
}

func (h *WSHandler) sendError(userID uuid.UUID, code, message string) {
	_ = h.hub.SendToUser(userID, NewMessage(TypeError, ErrorPayload{Code: code, Message: message}))
}
