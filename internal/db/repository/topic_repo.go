package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TopicRepository validates topic references at lobby creation.
type TopicRepository struct {
	pool *pgxpool.Pool
}

// NewTopicRepository constructs a topic repository over a pgx pool.
func NewTopicRepository(pool *pgxpool.Pool) *TopicRepository {
	return &TopicRepository{pool: pool}
}

// Exists reports whether an active topic with the given id exists.
func (r *TopicRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM topics WHERE id = $1 AND is_active)`, id).
		Scan(&exists)
	return exists, translateErr(err)
}
