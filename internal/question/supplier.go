package question

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/triviarena/backend/internal/db/model"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// Store is the persistence surface the supplier needs.
type Store interface {
	ListActiveByTopics(ctx context.Context, topicIDs []uuid.UUID, difficulty string) ([]model.Question, error)
}

// Supplier selects the question set for a game from the bank.
type Supplier struct {
	store  Store
	logger zerolog.Logger
}

// NewSupplier creates a question supplier.
func NewSupplier(store Store, logger zerolog.Logger) *Supplier {
	return &Supplier{
		store:  store,
		logger: logger.With().Str("component", "question_supplier").Logger(),
	}
}

// Select picks question ids for a game matching the requested difficulty
// distribution. The three difficulty pools are fetched concurrently. An
// under-supplied pool contributes everything it has rather than failing; the
// selection only errors when the bank has nothing at all for the topics. The
// combined set is shuffled so every game sees its own order.
func (s *Supplier) Select(ctx context.Context, topicIDs []uuid.UUID, dist model.DifficultyDistribution) ([]uuid.UUID, error) {
	buckets := []struct {
		difficulty string
		count      int
	}{
		{model.DifficultyEasy, dist.Easy},
		{model.DifficultyMedium, dist.Medium},
		{model.DifficultyHard, dist.Hard},
	}

	picked := make([][]uuid.UUID, len(buckets))

	g, gctx := errgroup.WithContext(ctx)
	for i, bucket := range buckets {
		if bucket.count == 0 {
			continue
		}
		g.Go(func() error {
			pool, err := s.store.ListActiveByTopics(gctx, topicIDs, bucket.difficulty)
			if err != nil {
				return err
			}
			picked[i] = sample(pool, bucket.count)
			if len(picked[i]) < bucket.count {
				s.logger.Warn().
					Str("difficulty", bucket.difficulty).
					Int("requested", bucket.count).
					Int("available", len(picked[i])).
					Msg("question pool under-supplied")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "selecting questions", err)
	}

	var ids []uuid.UUID
	for _, bucket := range picked {
		ids = append(ids, bucket...)
	}
	if len(ids) == 0 {
		return nil, httperrors.New(httperrors.KindInvalidState, httperrors.CodeNoQuestions,
			"no questions available for the selected topics")
	}

	rand.Shuffle(len(ids), func(a, b int) {
		ids[a], ids[b] = ids[b], ids[a]
	})
	return ids, nil
}

// sample returns up to n question ids drawn uniformly without replacement.
func sample(pool []model.Question, n int) []uuid.UUID {
	idx := rand.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	ids := make([]uuid.UUID, 0, n)
	for _, j := range idx[:n] {
		ids = append(ids, pool[j].ID)
	}
	return ids
}
