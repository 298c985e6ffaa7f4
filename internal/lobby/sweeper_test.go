package lobby

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingArchiver struct {
	calls atomic.Int32
}

func (c *countingArchiver) ArchiveExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestSweeperRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	archiver := &countingArchiver{}
	sweeper := NewSweeper(archiver, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return archiver.calls.Load() == 1
	}, time.Second, 10*time.Millisecond, "first sweep happens without waiting for the ticker")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancellation")
	}
}
