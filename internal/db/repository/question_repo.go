package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviarena/backend/internal/db/model"
)

// QuestionRepository reads the question bank and maintains ask counters.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository constructs a question repository over a pgx pool.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, topic_id, type, difficulty, text, options,
	correct_answer_ids, explanation, times_asked, times_correct, is_active,
	created_at, updated_at`

// GetByID fetches a full question, correct answers included.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// ListActiveByTopics returns active questions in the given topics at one
// difficulty level.
func (r *QuestionRepository) ListActiveByTopics(ctx context.Context, topicIDs []uuid.UUID, difficulty string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE topic_id = ANY($1) AND is_active AND difficulty = $2`,
		topicIDs, difficulty)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// RecordAsked bumps the lifetime ask counter and, when answered correctly,
// the correct counter.
func (r *QuestionRepository) RecordAsked(ctx context.Context, id uuid.UUID, wasCorrect bool) error {
	correct := 0
	if wasCorrect {
		correct = 1
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE questions
		SET times_asked = times_asked + 1,
		    times_correct = times_correct + $2,
		    updated_at = now()
		WHERE id = $1`, id, correct)
	return translateErr(err)
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	var (
		q       model.Question
		options []byte
	)
	err := row.Scan(
		&q.ID, &q.TopicID, &q.Type, &q.Difficulty, &q.Text, &options,
		&q.CorrectAnswerIDs, &q.Explanation, &q.TimesAsked, &q.TimesCorrect,
		&q.IsActive, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return &q, nil
}
