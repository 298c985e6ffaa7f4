package lobby

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/metrics"
)

// ExpiredArchiver archives waiting lobbies past their expiry.
type ExpiredArchiver interface {
	ArchiveExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically archives expired waiting lobbies so stale invite
// codes return to the pool.
type Sweeper struct {
	store    ExpiredArchiver
	logger   zerolog.Logger
	interval time.Duration
}

func NewSweeper(store ExpiredArchiver, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		store:    store,
		logger:   logger.With().Str("component", "lobby_sweeper").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	archived, err := s.store.ArchiveExpired(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("lobby sweep failed")
		return
	}
	if archived > 0 {
		metrics.LobbiesExpired.Add(float64(archived))
		s.logger.Info().Int64("archived", archived).Msg("expired lobbies archived")
	}
}
