package question

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triviarena/backend/internal/db/model"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

type stubQuestionStore struct {
	pools map[string][]model.Question
	err   error
}

func (s *stubQuestionStore) ListActiveByTopics(_ context.Context, _ []uuid.UUID, difficulty string) ([]model.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pools[difficulty], nil
}

func makePool(difficulty string, n int) []model.Question {
	pool := make([]model.Question, n)
	for i := range pool {
		pool[i] = model.Question{ID: uuid.New(), Difficulty: difficulty}
	}
	return pool
}

func TestSelectMatchesDistribution(t *testing.T) {
	store := &stubQuestionStore{pools: map[string][]model.Question{
		model.DifficultyEasy:   makePool(model.DifficultyEasy, 10),
		model.DifficultyMedium: makePool(model.DifficultyMedium, 10),
		model.DifficultyHard:   makePool(model.DifficultyHard, 10),
	}}
	supplier := NewSupplier(store, zerolog.Nop())

	ids, err := supplier.Select(context.Background(), []uuid.UUID{uuid.New()},
		model.DifficultyDistribution{Easy: 3, Medium: 2, Hard: 1})
	require.NoError(t, err)
	assert.Len(t, ids, 6)

	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "question repeated in selection")
		seen[id] = true
	}
}

func TestSelectUnderSuppliedPoolTakesAll(t *testing.T) {
	store := &stubQuestionStore{pools: map[string][]model.Question{
		model.DifficultyEasy: makePool(model.DifficultyEasy, 2),
		model.DifficultyHard: makePool(model.DifficultyHard, 5),
	}}
	supplier := NewSupplier(store, zerolog.Nop())

	ids, err := supplier.Select(context.Background(), []uuid.UUID{uuid.New()},
		model.DifficultyDistribution{Easy: 5, Hard: 3})
	require.NoError(t, err)
	// Easy contributes its whole pool of 2, hard its requested 3.
	assert.Len(t, ids, 5)
}

func TestSelectSkipsZeroBuckets(t *testing.T) {
	store := &stubQuestionStore{pools: map[string][]model.Question{
		model.DifficultyMedium: makePool(model.DifficultyMedium, 4),
	}}
	supplier := NewSupplier(store, zerolog.Nop())

	ids, err := supplier.Select(context.Background(), []uuid.UUID{uuid.New()},
		model.DifficultyDistribution{Medium: 4})
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestSelectEmptyBank(t *testing.T) {
	store := &stubQuestionStore{pools: map[string][]model.Question{}}
	supplier := NewSupplier(store, zerolog.Nop())

	_, err := supplier.Select(context.Background(), []uuid.UUID{uuid.New()},
		model.DifficultyDistribution{Easy: 5})
	require.Error(t, err)
	assert.Equal(t, httperrors.KindInvalidState, httperrors.KindOf(err))
	assert.Equal(t, httperrors.CodeNoQuestions, httperrors.CodeOf(err))
}

func TestSelectStoreError(t *testing.T) {
	store := &stubQuestionStore{err: errors.New("connection refused")}
	supplier := NewSupplier(store, zerolog.Nop())

	_, err := supplier.Select(context.Background(), []uuid.UUID{uuid.New()},
		model.DifficultyDistribution{Easy: 1})
	require.Error(t, err)
	assert.Equal(t, httperrors.KindInternal, httperrors.KindOf(err))
}
