package model

import (
	"time"

	"github.com/google/uuid"
)

// Lobby / game lifecycle states.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Question difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question types.
const (
	TypeSingleCorrect = "single_correct"
	TypeMultiCorrect  = "multi_correct"
	TypeTrueFalse     = "true_false"
)

// DifficultyDistribution splits a question count across difficulty buckets.
// The sum of the three buckets must equal the lobby's question count.
type DifficultyDistribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Total returns the number of questions the distribution asks for.
func (d DifficultyDistribution) Total() int {
	return d.Easy + d.Medium + d.Hard
}

// Lobby is the pre-game social unit players gather in.
type Lobby struct {
	ID            uuid.UUID
	Code          string
	OwnerID       uuid.UUID
	TopicIDs      []uuid.UUID
	PlayerIDs     []uuid.UUID
	Status        string
	MaxPlayers    int
	QuestionCount int
	Difficulty    DifficultyDistribution
	CurrentGameID *uuid.UUID
	CreatedAt     time.Time
	StartedAt     *time.Time
	ExpiresAt     time.Time
	ArchivedAt    *time.Time
}

// LobbyPlayer is a join record between a lobby and a player.
type LobbyPlayer struct {
	LobbyID  uuid.UUID
	UserID   uuid.UUID
	IsReady  bool
	JoinedAt time.Time
}

// Game is an immutable snapshot of a started match. The question sequence is
// shared by every participant.
type Game struct {
	ID             uuid.UUID
	LobbyID        uuid.UUID
	TopicIDs       []uuid.UUID
	PlayerIDs      []uuid.UUID
	QuestionIDs    []uuid.UUID
	TotalQuestions int
	Status         string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// PlayerProgress tracks one participant's cursor and score within a game.
// Index == TotalQuestions means the player has finished.
type PlayerProgress struct {
	GameID               uuid.UUID
	UserID               uuid.UUID
	CurrentQuestionIndex int
	Score                int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AnswerSubmission is an immutable fact; (game, player, question) is unique.
type AnswerSubmission struct {
	ID            uuid.UUID
	GameID        uuid.UUID
	UserID        uuid.UUID
	QuestionID    uuid.UUID
	AnswerIDs     []string
	IsCorrect     bool
	TimeRemaining float64
	PointsEarned  int
	CreatedAt     time.Time
}

// QuestionOption is a single answer choice.
type QuestionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is owned by the content store; the core mutates only its counters.
type Question struct {
	ID               uuid.UUID
	TopicID          uuid.UUID
	Type             string
	Difficulty       string
	Text             string
	Options          []QuestionOption
	CorrectAnswerIDs []string
	Explanation      *string
	TimesAsked       int
	TimesCorrect     int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Topic categorizes questions; consumed read-only for validation.
type Topic struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsActive    bool
}

// User is a player account with lifetime stats.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	GamesPlayed  int
	Victories    int
	TotalPoints  int
	LastSeenAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatsDelta is an additive update to a user's lifetime stats.
type StatsDelta struct {
	GamesPlayed int
	Victories   int
	TotalPoints int
}
