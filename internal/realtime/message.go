package realtime

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/triviarena/backend/internal/game"
	"github.com/triviarena/backend/internal/leaderboard"
)

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeLobbyJoin  = "lobby:join"
	TypeLobbyLeave = "lobby:leave"
	TypeLobbyReady = "lobby:ready"
	TypePing       = "ping"

	// Server -> Client
	TypeLobbyPlayerJoined       = "lobby:player_joined"
	TypeLobbyPlayerReadyChanged = "lobby:player_ready_changed"
	TypeLobbyPlayerLeft         = "lobby:player_left"
	TypeLobbyGameStarting       = "lobby:game_starting"
	TypeGameStarted             = "game:started"
	TypeGameNewQuestion         = "game:new_question"
	TypeGamePlayerAnswered      = "game:player_answered"
	TypeGameQuestionResults     = "game:question_results"
	TypeGameLeaderboardUpdate   = "game:leaderboard_update"
	TypeGameOver                = "game:over"
	TypeGamePlayerDisconnected  = "game:player_disconnected"
	TypeError                   = "error"
	TypePong                    = "pong"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals a payload into a tagged message. Marshal failures are
// programming errors; the message is sent with an empty payload.
func NewMessage(msgType string, payload interface{}) Message {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{Type: msgType}
	}
	return Message{Type: msgType, Payload: raw}
}

// Client payloads.

type LobbyJoinPayload struct {
	LobbyID uuid.UUID `json:"lobby_id"`
}

type LobbyLeavePayload struct {
	LobbyID uuid.UUID `json:"lobby_id"`
}

type LobbyReadyPayload struct {
	LobbyID uuid.UUID `json:"lobby_id"`
	Ready   bool      `json:"ready"`
}

// Server payloads.

type PlayerJoinedPayload struct {
	LobbyID uuid.UUID `json:"lobby_id"`
	UserID  uuid.UUID `json:"user_id"`
}

type PlayerReadyChangedPayload struct {
	LobbyID    uuid.UUID `json:"lobby_id"`
	UserID     uuid.UUID `json:"user_id"`
	IsReady    bool      `json:"is_ready"`
	ReadyCount int       `json:"ready_count"`
	TotalCount int       `json:"total_count"`
}

type PlayerLeftPayload struct {
	LobbyID    uuid.UUID  `json:"lobby_id"`
	UserID     uuid.UUID  `json:"user_id"`
	NewOwnerID *uuid.UUID `json:"new_owner_id,omitempty"`
}

type GameStartingPayload struct {
	LobbyID          uuid.UUID `json:"lobby_id"`
	GameID           uuid.UUID `json:"game_id"`
	CountdownSeconds int       `json:"countdown_seconds"`
}

type GameStartedPayload struct {
	GameID  uuid.UUID   `json:"game_id"`
	LobbyID uuid.UUID   `json:"lobby_id"`
	Players []uuid.UUID `json:"players"`
}

type PlayerAnsweredPayload struct {
	GameID        uuid.UUID `json:"game_id"`
	UserID        uuid.UUID `json:"user_id"`
	QuestionIndex int       `json:"question_index"`
	Finished      bool      `json:"finished"`
}

type LeaderboardUpdatePayload struct {
	GameID      uuid.UUID           `json:"game_id"`
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
}

type GameOverPayload struct {
	GameID  uuid.UUID           `json:"game_id"`
	Results []game.PlayerResult `json:"results"`
}

type PlayerDisconnectedPayload struct {
	GameID uuid.UUID `json:"game_id"`
	UserID uuid.UUID `json:"user_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
