package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviarena/backend/internal/db/model"
)

// GameRepository persists games, per-player progress and answer submissions.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository constructs a game repository over a pgx pool.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// CreateGameParams carries the immutable snapshot taken from a lobby at start.
type CreateGameParams struct {
	LobbyID     uuid.UUID
	TopicIDs    []uuid.UUID
	PlayerIDs   []uuid.UUID
	QuestionIDs []uuid.UUID
}

const gameColumns = `id, lobby_id, topic_ids, player_ids, question_ids,
	total_questions, status, started_at, completed_at`

// Create inserts an in_progress game with its frozen question sequence.
func (r *GameRepository) Create(ctx context.Context, params CreateGameParams) (*model.Game, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO games (lobby_id, topic_ids, player_ids, question_ids, total_questions, status)
		VALUES ($1, $2, $3, $4, $5, 'in_progress')
		RETURNING `+gameColumns,
		params.LobbyID, params.TopicIDs, params.PlayerIDs, params.QuestionIDs, len(params.QuestionIDs),
	)
	return scanGame(row)
}

// GetByID fetches a game.
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Game, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	return scanGame(row)
}

// Complete flips an in_progress game to completed exactly once. The status
// guard in the WHERE clause is the idempotency point for concurrent
// completion checks; the boolean result reports whether this caller won the
// transition.
func (r *GameRepository) Complete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE games
		SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status = 'in_progress'`, id)
	if err != nil {
		return false, translateErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateProgress inserts a zeroed progress row for a participant.
func (r *GameRepository) CreateProgress(ctx context.Context, gameID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO player_progress (game_id, user_id, current_question_index, score)
		VALUES ($1, $2, 0, 0)`, gameID, userID)
	return translateErr(err)
}

// GetProgress fetches one participant's progress.
func (r *GameRepository) GetProgress(ctx context.Context, gameID, userID uuid.UUID) (*model.PlayerProgress, error) {
	var p model.PlayerProgress
	err := r.pool.QueryRow(ctx, `
		SELECT game_id, user_id, current_question_index, score, created_at, updated_at
		FROM player_progress
		WHERE game_id = $1 AND user_id = $2`, gameID, userID).
		Scan(&p.GameID, &p.UserID, &p.CurrentQuestionIndex, &p.Score, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// ListProgress returns progress rows for every participant.
func (r *GameRepository) ListProgress(ctx context.Context, gameID uuid.UUID) ([]model.PlayerProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT game_id, user_id, current_question_index, score, created_at, updated_at
		FROM player_progress
		WHERE game_id = $1`, gameID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var progress []model.PlayerProgress
	for rows.Next() {
		var p model.PlayerProgress
		if err := rows.Scan(&p.GameID, &p.UserID, &p.CurrentQuestionIndex, &p.Score, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// AddScore adds points to a participant's cumulative score.
func (r *GameRepository) AddScore(ctx context.Context, gameID, userID uuid.UUID, points int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE player_progress
		SET score = score + $3, updated_at = now()
		WHERE game_id = $1 AND user_id = $2`, gameID, userID, points)
	return translateErr(err)
}

// AdvanceProgress moves a participant's question cursor forward by one.
func (r *GameRepository) AdvanceProgress(ctx context.Context, gameID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE player_progress
		SET current_question_index = current_question_index + 1, updated_at = now()
		WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	return translateErr(err)
}

// InsertSubmissionParams captures an immutable answer submission.
type InsertSubmissionParams struct {
	GameID        uuid.UUID
	UserID        uuid.UUID
	QuestionID    uuid.UUID
	AnswerIDs     []string
	IsCorrect     bool
	TimeRemaining float64
	PointsEarned  int
}

// InsertSubmission records an answer. The unique constraint on
// (game_id, user_id, question_id) is the idempotency guard; a violation is
// returned as ErrDuplicate for the service to surface as Conflict.
func (r *GameRepository) InsertSubmission(ctx context.Context, params InsertSubmissionParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO answer_submissions
			(game_id, user_id, question_id, answer_ids, is_correct, time_remaining, points_earned)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.GameID, params.UserID, params.QuestionID, params.AnswerIDs,
		params.IsCorrect, params.TimeRemaining, params.PointsEarned,
	)
	return translateErr(err)
}

// CountCorrect returns how many questions the player answered correctly.
func (r *GameRepository) CountCorrect(ctx context.Context, gameID, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM answer_submissions
		WHERE game_id = $1 AND user_id = $2 AND is_correct`, gameID, userID).Scan(&count)
	return count, translateErr(err)
}

func scanGame(row rowScanner) (*model.Game, error) {
	var g model.Game
	err := row.Scan(
		&g.ID, &g.LobbyID, &g.TopicIDs, &g.PlayerIDs, &g.QuestionIDs,
		&g.TotalQuestions, &g.Status, &g.StartedAt, &g.CompletedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return &g, nil
}
