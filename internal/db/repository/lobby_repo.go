package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviarena/backend/internal/db/model"
)

// LobbyRepository persists lobbies and their membership records.
type LobbyRepository struct {
	pool *pgxpool.Pool
}

// NewLobbyRepository constructs a lobby repository over a pgx pool.
func NewLobbyRepository(pool *pgxpool.Pool) *LobbyRepository {
	return &LobbyRepository{pool: pool}
}

// CreateLobbyParams carries the fields needed to insert a lobby row.
type CreateLobbyParams struct {
	Code          string
	OwnerID       uuid.UUID
	TopicIDs      []uuid.UUID
	QuestionCount int
	Difficulty    model.DifficultyDistribution
	MaxPlayers    int
	TTL           time.Duration
}

const lobbyColumns = `id, code, owner_id, topic_ids, player_ids, status,
	max_players, question_count, difficulty, current_game_id,
	created_at, started_at, expires_at, archived_at`

// Create inserts a new waiting lobby. Returns ErrDuplicate when the code
// collides with another non-archived lobby; the caller retries with a fresh
// code.
func (r *LobbyRepository) Create(ctx context.Context, params CreateLobbyParams) (*model.Lobby, error) {
	difficulty, err := json.Marshal(params.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("marshal difficulty: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lobbies (code, owner_id, topic_ids, player_ids, status,
			max_players, question_count, difficulty, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now() + $9)
		RETURNING `+lobbyColumns,
		params.Code, params.OwnerID, params.TopicIDs, []uuid.UUID{}, model.StatusWaiting,
		params.MaxPlayers, params.QuestionCount, difficulty, params.TTL,
	)
	return scanLobby(row)
}

// GetByID fetches a non-archived lobby.
func (r *LobbyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lobby, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+lobbyColumns+`
		FROM lobbies
		WHERE id = $1 AND archived_at IS NULL`, id)
	return scanLobby(row)
}

// GetByCode fetches a non-archived lobby by its invite code, case-insensitive.
func (r *LobbyRepository) GetByCode(ctx context.Context, code string) (*model.Lobby, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+lobbyColumns+`
		FROM lobbies
		WHERE upper(code) = upper($1) AND archived_at IS NULL`, code)
	return scanLobby(row)
}

// UpdateStatus transitions a lobby; started_at is stamped on in_progress.
func (r *LobbyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lobbies
		SET status = $2,
		    started_at = CASE WHEN $2 = 'in_progress' THEN now() ELSE started_at END
		WHERE id = $1`, id, status)
	return translateErr(err)
}

// SetCurrentGame links the lobby to its active game.
func (r *LobbyRepository) SetCurrentGame(ctx context.Context, lobbyID, gameID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobbies SET current_game_id = $2 WHERE id = $1`, lobbyID, gameID)
	return translateErr(err)
}

// UpdateOwner transfers lobby ownership.
func (r *LobbyRepository) UpdateOwner(ctx context.Context, lobbyID, newOwnerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobbies SET owner_id = $2 WHERE id = $1`, lobbyID, newOwnerID)
	return translateErr(err)
}

// Archive soft-deletes a lobby and marks it completed.
func (r *LobbyRepository) Archive(ctx context.Context, lobbyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobbies SET archived_at = now(), status = 'completed' WHERE id = $1`, lobbyID)
	return translateErr(err)
}

// ArchiveExpired archives waiting lobbies past their expiry; returns the count.
func (r *LobbyRepository) ArchiveExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lobbies
		SET archived_at = now(), status = 'completed'
		WHERE expires_at < now() AND status = 'waiting' AND archived_at IS NULL`)
	if err != nil {
		return 0, translateErr(err)
	}
	return tag.RowsAffected(), nil
}

// AddPlayerID appends a player to the lobby's player_ids array.
func (r *LobbyRepository) AddPlayerID(ctx context.Context, lobbyID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobbies SET player_ids = array_append(player_ids, $2) WHERE id = $1`,
		lobbyID, userID)
	return translateErr(err)
}

// RemovePlayerID removes a player from the lobby's player_ids array.
func (r *LobbyRepository) RemovePlayerID(ctx context.Context, lobbyID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobbies SET player_ids = array_remove(player_ids, $2) WHERE id = $1`,
		lobbyID, userID)
	return translateErr(err)
}

// AddMember inserts a membership row. Returns ErrDuplicate for a repeat join.
func (r *LobbyRepository) AddMember(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lobby_players (lobby_id, user_id, is_ready)
		VALUES ($1, $2, $3)`, lobbyID, userID, ready)
	return translateErr(err)
}

// RemoveMember deletes a membership row.
func (r *LobbyRepository) RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM lobby_players WHERE lobby_id = $1 AND user_id = $2`, lobbyID, userID)
	return translateErr(err)
}

// SetMemberReady updates a member's readiness flag.
func (r *LobbyRepository) SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lobby_players SET is_ready = $3 WHERE lobby_id = $1 AND user_id = $2`,
		lobbyID, userID, ready)
	return translateErr(err)
}

// IsMember reports whether a player has a membership row in the lobby.
func (r *LobbyRepository) IsMember(ctx context.Context, lobbyID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lobby_players WHERE lobby_id = $1 AND user_id = $2
		)`, lobbyID, userID).Scan(&exists)
	return exists, translateErr(err)
}

// ListMembers returns membership rows ordered by join time.
func (r *LobbyRepository) ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]model.LobbyPlayer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lobby_id, user_id, is_ready, joined_at
		FROM lobby_players
		WHERE lobby_id = $1
		ORDER BY joined_at ASC`, lobbyID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var members []model.LobbyPlayer
	for rows.Next() {
		var m model.LobbyPlayer
		if err := rows.Scan(&m.LobbyID, &m.UserID, &m.IsReady, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLobby(row rowScanner) (*model.Lobby, error) {
	var (
		l          model.Lobby
		difficulty []byte
	)
	err := row.Scan(
		&l.ID, &l.Code, &l.OwnerID, &l.TopicIDs, &l.PlayerIDs, &l.Status,
		&l.MaxPlayers, &l.QuestionCount, &difficulty, &l.CurrentGameID,
		&l.CreatedAt, &l.StartedAt, &l.ExpiresAt, &l.ArchivedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := json.Unmarshal(difficulty, &l.Difficulty); err != nil {
		return nil, fmt.Errorf("unmarshal difficulty: %w", err)
	}
	return &l, nil
}
