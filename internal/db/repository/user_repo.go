package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviarena/backend/internal/db/model"
)

// UserRepository exposes the player-record operations the core needs.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a user repository over a pgx pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, games_played, victories,
	total_points, last_seen_at, created_at, updated_at`

// Create inserts a new account. Returns ErrDuplicate when the email is taken.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns, email, passwordHash)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpdateLastSeen stamps the user's last activity time.
func (r *UserRepository) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_seen_at = now() WHERE id = $1`, id)
	return translateErr(err)
}

// ApplyStatsDelta adds lifetime stat increments after game completion.
func (r *UserRepository) ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta model.StatsDelta) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET games_played = games_played + $2,
		    victories = victories + $3,
		    total_points = total_points + $4,
		    updated_at = now()
		WHERE id = $1`, id, delta.GamesPlayed, delta.Victories, delta.TotalPoints)
	return translateErr(err)
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.GamesPlayed, &u.Victories,
		&u.TotalPoints, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}
