package game

import (
	"github.com/google/uuid"

	"github.com/triviarena/backend/internal/db/model"
	"github.com/triviarena/backend/internal/leaderboard"
)

// QuestionView is a question as shown to a player mid-game. Correct answers
// and explanations are stripped until the player has answered.
type QuestionView struct {
	QuestionID       uuid.UUID              `json:"question_id"`
	Index            int                    `json:"index"`
	TotalQuestions   int                    `json:"total_questions"`
	Type             string                 `json:"type"`
	Difficulty       string                 `json:"difficulty"`
	Text             string                 `json:"text"`
	Options          []model.QuestionOption `json:"options"`
	TimeLimitSeconds float64                `json:"time_limit_seconds"`
}

// SubmitParams carries one answer submission.
type SubmitParams struct {
	QuestionID    uuid.UUID `json:"question_id"`
	AnswerIDs     []string  `json:"answer_ids"`
	TimeRemaining float64   `json:"time_remaining"`
}

// SubmitResult reveals the verdict and the question's solution to the
// submitting player.
type SubmitResult struct {
	IsCorrect        bool     `json:"is_correct"`
	PointsEarned     int      `json:"points_earned"`
	TotalScore       int      `json:"total_score"`
	CorrectAnswerIDs []string `json:"correct_answer_ids"`
	Explanation      *string  `json:"explanation,omitempty"`
	NextIndex        int      `json:"next_index"`
	Finished         bool     `json:"finished"`
}

// PlayerState summarizes one participant's live progress.
type PlayerState struct {
	UserID               uuid.UUID `json:"user_id"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	Score                int       `json:"score"`
	Finished             bool      `json:"finished"`
}

// StateView is a live snapshot of a whole game.
type StateView struct {
	GameID         uuid.UUID           `json:"game_id"`
	LobbyID        uuid.UUID           `json:"lobby_id"`
	Status         string              `json:"status"`
	TotalQuestions int                 `json:"total_questions"`
	Players        []PlayerState       `json:"players"`
	Leaderboard    []leaderboard.Entry `json:"leaderboard"`
}

// PlayerResult is one row of a completed game's final standings.
type PlayerResult struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	Rank         int       `json:"rank"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correct_count"`
	Victory      bool      `json:"victory"`
}

// ResultsView is the final standings payload for a completed game.
type ResultsView struct {
	GameID    uuid.UUID      `json:"game_id"`
	Winner    *PlayerResult  `json:"winner,omitempty"`
	Requester *PlayerResult  `json:"requester,omitempty"`
	Results   []PlayerResult `json:"results"`
}

// EventSink receives game lifecycle events for fan-out to connected clients.
// NextQuestion and QuestionResult are player-scoped; the rest go to the whole
// game room.
type EventSink interface {
	GameStarted(gameID, lobbyID uuid.UUID, playerIDs []uuid.UUID)
	NextQuestion(gameID, userID uuid.UUID, view *QuestionView)
	PlayerAnswered(gameID, userID uuid.UUID, questionIndex int, finished bool)
	QuestionResult(gameID, userID uuid.UUID, result *SubmitResult)
	LeaderboardUpdated(gameID uuid.UUID, entries []leaderboard.Entry)
	GameOver(gameID uuid.UUID, results []PlayerResult)
}
