package leaderboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, zerolog.Nop(), StoreOptions{EntryTTL: time.Hour}), mr
}

func TestInitSeedsFullRoster(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	players := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, store.Init(ctx, gameID, players))

	entries, err := store.ReadAll(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, 0, e.Score)
	}
}

func TestInitSetsExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	require.NoError(t, store.Init(ctx, gameID, []uuid.UUID{uuid.New()}))

	assert.Greater(t, mr.TTL(store.boardKey(gameID)), time.Duration(0))
	assert.Greater(t, mr.TTL(store.orderKey(gameID)), time.Duration(0))
}

func TestSetExpiryResetsRetention(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	require.NoError(t, store.Init(ctx, gameID, []uuid.UUID{uuid.New()}))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.SetExpiry(ctx, gameID))

	assert.Equal(t, time.Hour, mr.TTL(store.boardKey(gameID)))
	assert.Equal(t, time.Hour, mr.TTL(store.orderKey(gameID)))
}

func TestIncrementReturnsRunningTotal(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	player := uuid.New()
	require.NoError(t, store.Init(ctx, gameID, []uuid.UUID{player}))

	total, err := store.Increment(ctx, gameID, player, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, total)

	total, err = store.Increment(ctx, gameID, player, 200)
	require.NoError(t, err)
	assert.Equal(t, 350, total)
}

func TestReadAllOrdersByScoreDescending(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	first, second, third := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, store.Init(ctx, gameID, []uuid.UUID{first, second, third}))

	_, err := store.Increment(ctx, gameID, second, 300)
	require.NoError(t, err)
	_, err = store.Increment(ctx, gameID, third, 100)
	require.NoError(t, err)

	entries, err := store.ReadAll(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, second, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, third, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, first, entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestReadAllBreaksTiesByJoinOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	players := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, store.Init(ctx, gameID, players))

	for _, p := range players {
		_, err := store.Increment(ctx, gameID, p, 200)
		require.NoError(t, err)
	}

	entries, err := store.ReadAll(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, players[i], e.UserID, "tied players keep join order")
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestReadAllUnknownGame(t *testing.T) {
	store, _ := newTestStore(t)

	entries, err := store.ReadAll(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadRank(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	gameID := uuid.New()
	leader, trailer := uuid.New(), uuid.New()
	require.NoError(t, store.Init(ctx, gameID, []uuid.UUID{leader, trailer}))

	_, err := store.Increment(ctx, gameID, leader, 400)
	require.NoError(t, err)

	rank, score, err := store.ReadRank(ctx, gameID, leader)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 400, score)

	rank, score, err = store.ReadRank(ctx, gameID, trailer)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
	assert.Equal(t, 0, score)

	_, _, err = store.ReadRank(ctx, gameID, uuid.New())
	assert.ErrorIs(t, err, redis.Nil)
}
