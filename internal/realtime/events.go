package realtime

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/game"
	"github.com/triviarena/backend/internal/leaderboard"
)

// Notifier fans lobby and game lifecycle events out to connected clients. It
// is the event sink the lobby and game services emit through.
type Notifier struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewNotifier creates a notifier over a hub.
func NewNotifier(hub *Hub, logger zerolog.Logger) *Notifier {
	return &Notifier{hub: hub, logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *Notifier) LobbyPlayerJoined(lobbyID, userID uuid.UUID) {
	n.hub.JoinRoom(LobbyRoom(lobbyID), userID)
	n.hub.Broadcast(LobbyRoom(lobbyID), NewMessage(TypeLobbyPlayerJoined, PlayerJoinedPayload{
		LobbyID: lobbyID,
		UserID:  userID,
	}))
}

func (n *Notifier) LobbyPlayerReadyChanged(lobbyID, userID uuid.UUID, ready bool, readyCount, totalCount int) {
	n.hub.Broadcast(LobbyRoom(lobbyID), NewMessage(TypeLobbyPlayerReadyChanged, PlayerReadyChangedPayload{
		LobbyID:    lobbyID,
		UserID:     userID,
		IsReady:    ready,
		ReadyCount: readyCount,
		TotalCount: totalCount,
	}))
}

func (n *Notifier) LobbyPlayerLeft(lobbyID, userID uuid.UUID, newOwnerID *uuid.UUID) {
	n.hub.LeaveRoom(LobbyRoom(lobbyID), userID)
	n.hub.Broadcast(LobbyRoom(lobbyID), NewMessage(TypeLobbyPlayerLeft, PlayerLeftPayload{
		LobbyID:    lobbyID,
		UserID:     userID,
		NewOwnerID: newOwnerID,
	}))
}

func (n *Notifier) LobbyGameStarting(lobbyID, gameID uuid.UUID, countdownSeconds int) {
	n.hub.Broadcast(LobbyRoom(lobbyID), NewMessage(TypeLobbyGameStarting, GameStartingPayload{
		LobbyID:          lobbyID,
		GameID:           gameID,
		CountdownSeconds: countdownSeconds,
	}))
}

func (n *Notifier) GameStarted(gameID, lobbyID uuid.UUID, playerIDs []uuid.UUID) {
	n.hub.MoveToGame(lobbyID, gameID, playerIDs)
	n.hub.Broadcast(GameRoom(gameID), NewMessage(TypeGameStarted, GameStartedPayload{
		GameID:  gameID,
		LobbyID: lobbyID,
		Players: playerIDs,
	}))
}

// NextQuestion is player-scoped so a question delivery never exposes another
// player's pacing. Failures are expected when the player is offline; they poll
// the REST endpoint instead.
func (n *Notifier) NextQuestion(gameID, userID uuid.UUID, view *game.QuestionView) {
	if err := n.hub.SendToUser(userID, NewMessage(TypeGameNewQuestion, view)); err != nil {
		n.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("question push skipped")
	}
}

// QuestionResult carries the solution, so it goes only to the player who
// submitted.
func (n *Notifier) QuestionResult(gameID, userID uuid.UUID, result *game.SubmitResult) {
	if err := n.hub.SendToUser(userID, NewMessage(TypeGameQuestionResults, result)); err != nil {
		n.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("result push skipped")
	}
}

func (n *Notifier) PlayerAnswered(gameID, userID uuid.UUID, questionIndex int, finished bool) {
	n.hub.Broadcast(GameRoom(gameID), NewMessage(TypeGamePlayerAnswered, PlayerAnsweredPayload{
		GameID:        gameID,
		UserID:        userID,
		QuestionIndex: questionIndex,
		Finished:      finished,
	}))
}

func (n *Notifier) LeaderboardUpdated(gameID uuid.UUID, entries []leaderboard.Entry) {
	n.hub.Broadcast(GameRoom(gameID), NewMessage(TypeGameLeaderboardUpdate, LeaderboardUpdatePayload{
		GameID:      gameID,
		Leaderboard: entries,
	}))
}

func (n *Notifier) GameOver(gameID uuid.UUID, results []game.PlayerResult) {
	n.hub.Broadcast(GameRoom(gameID), NewMessage(TypeGameOver, GameOverPayload{
		GameID:  gameID,
		Results: results,
	}))
}
