package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Entry is one ranked row of a game's leaderboard.
type Entry struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
	Rank   int       `json:"rank"`
}

// StoreOptions configures leaderboard store behavior.
type StoreOptions struct {
	EntryTTL time.Duration // default: 24h
}

// Store manages per-game leaderboards in Redis sorted sets.
type Store struct {
	redis  *redis.Client
	logger zerolog.Logger
	ttl    time.Duration
}

// NewStore constructs a leaderboard store instance.
func NewStore(redis *redis.Client, logger zerolog.Logger, opts StoreOptions) *Store {
	ttl := opts.EntryTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		redis:  redis,
		logger: logger.With().Str("component", "leaderboard").Logger(),
		ttl:    ttl,
	}
}

func (s *Store) boardKey(gameID uuid.UUID) string {
	return fmt.Sprintf("game:%s:leaderboard", gameID)
}

func (s *Store) orderKey(gameID uuid.UUID) string {
	return fmt.Sprintf("game:%s:lb:order", gameID)
}

// Init seeds a zero score for every participant so the board shows the full
// roster before anyone answers. The side hash records insertion positions,
// which later break score ties deterministically. Both keys expire together;
// the board is a live-game view, not an archive.
func (s *Store) Init(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) error {
	boardKey := s.boardKey(gameID)
	orderKey := s.orderKey(gameID)

	pipe := s.redis.TxPipeline()
	for i, playerID := range playerIDs {
		pipe.ZAdd(ctx, boardKey, redis.Z{Score: 0, Member: playerID.String()})
		pipe.HSet(ctx, orderKey, playerID.String(), i)
	}
	pipe.Expire(ctx, boardKey, s.ttl)
	pipe.Expire(ctx, orderKey, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("init leaderboard: %w", err)
	}
	return nil
}

// Increment atomically adds points to a player's score and returns the new
// total.
func (s *Store) Increment(ctx context.Context, gameID, userID uuid.UUID, points int) (int, error) {
	total, err := s.redis.ZIncrBy(ctx, s.boardKey(gameID), float64(points), userID.String()).Result()
	if err != nil {
		return 0, fmt.Errorf("increment leaderboard: %w", err)
	}
	return int(total), nil
}

// ReadAll returns the full board ordered by score descending. Redis breaks
// score ties lexicographically by member, so ties are re-sorted here by the
// recorded insertion position.
func (s *Store) ReadAll(ctx context.Context, gameID uuid.UUID) ([]Entry, error) {
	results, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	positions, err := s.redis.HGetAll(ctx, s.orderKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard order: %w", err)
	}

	type row struct {
		entry Entry
		pos   int
	}
	rows := make([]row, 0, len(results))
	for _, z := range results {
		member := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping unparseable leaderboard member")
			continue
		}
		pos, _ := strconv.Atoi(positions[member])
		rows = append(rows, row{
			entry: Entry{UserID: userID, Score: int(z.Score)},
			pos:   pos,
		})
	}

	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].entry.Score != rows[b].entry.Score {
			return rows[a].entry.Score > rows[b].entry.Score
		}
		return rows[a].pos < rows[b].pos
	})

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		r.entry.Rank = i + 1
		entries[i] = r.entry
	}
	return entries, nil
}

// SetExpiry resets the retention window on a game's board, so final results
// stay readable for the full TTL after completion regardless of how long the
// game ran.
func (s *Store) SetExpiry(ctx context.Context, gameID uuid.UUID) error {
	pipe := s.redis.TxPipeline()
	pipe.Expire(ctx, s.boardKey(gameID), s.ttl)
	pipe.Expire(ctx, s.orderKey(gameID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set leaderboard expiry: %w", err)
	}
	return nil
}

// ReadRank returns a single player's rank (1-based) and score.
func (s *Store) ReadRank(ctx context.Context, gameID, userID uuid.UUID) (int, int, error) {
	entries, err := s.ReadAll(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank, e.Score, nil
		}
	}
	return 0, 0, redis.Nil
}
