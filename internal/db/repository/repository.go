package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by repositories; services translate these into the
// typed error taxonomy.
var (
	// ErrNotFound indicates the requested row does not exist (or is archived).
	ErrNotFound = errors.New("row not found")
	// ErrDuplicate indicates a store-level uniqueness constraint rejected a
	// write. This is the serialization point for duplicate submissions,
	// duplicate joins and lobby code collisions.
	ErrDuplicate = errors.New("duplicate key")
)

const pgUniqueViolation = "23505"

// translateErr maps pgx errors onto repository sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}
