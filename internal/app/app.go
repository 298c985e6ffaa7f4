package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth"
	"github.com/triviarena/backend/internal/auth/jwt"
	"github.com/triviarena/backend/internal/config"
	"github.com/triviarena/backend/internal/db/repository"
	"github.com/triviarena/backend/internal/game"
	"github.com/triviarena/backend/internal/game/scoring"
	"github.com/triviarena/backend/internal/leaderboard"
	"github.com/triviarena/backend/internal/lobby"
	"github.com/triviarena/backend/internal/logging"
	"github.com/triviarena/backend/internal/question"
	"github.com/triviarena/backend/internal/realtime"
	"github.com/triviarena/backend/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	sweeper   *lobby.Sweeper
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the full service graph.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	topicRepo := repository.NewTopicRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	lobbyRepo := repository.NewLobbyRepository(pool)
	gameRepo := repository.NewGameRepository(pool)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	})
	authSvc := auth.NewService(userRepo, tokens, logger)

	hub := realtime.NewHub(logger)
	notifier := realtime.NewNotifier(hub, logger)

	supplier := question.NewSupplier(questionRepo, logger)
	board := leaderboard.NewStore(redisClient, logger, leaderboard.StoreOptions{
		EntryTTL: cfg.Game.ResultRetention,
	})

	gameSvc := game.NewService(
		gameRepo,
		questionRepo,
		userRepo,
		lobbyRepo,
		supplier,
		board,
		notifier,
		game.ServiceOptions{
			QuestionTimeLimit: cfg.Game.QuestionTimeLimit,
			ScoringConfig:     scoring.DefaultConfig(),
		},
		logger,
	)

	lobbySvc := lobby.NewService(
		lobbyRepo,
		topicRepo,
		gameSvc,
		notifier,
		lobby.ServiceOptions{
			TTL:              cfg.Lobby.TTL,
			CountdownSeconds: cfg.Game.StartCountdown,
		},
		logger,
	)

	wsHandler := realtime.NewWSHandler(hub, authSvc, lobbyRepo, readyAdapter{svc: lobbySvc}, logger)
	sweeper := lobby.NewSweeper(lobbyRepo, cfg.Lobby.SweepInterval, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Handlers{
		Auth:  auth.NewHTTPHandlers(authSvc, logger),
		Lobby: lobby.NewHTTPHandlers(lobbySvc, logger),
		Game:  game.NewHTTPHandlers(gameSvc, logger),
		WS:    wsHandler,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		sweeper:   sweeper,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// readyAdapter narrows the lobby service for the socket handler, which has no
// use for the returned view.
type readyAdapter struct {
	svc *lobby.Service
}

func (r readyAdapter) SetReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error {
	_, err := r.svc.SetReady(ctx, lobbyID, userID, ready)
	return err
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.sweeper.Run(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("lobby sweeper stopped")
		}
	}()
}
