package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/auth"
	"github.com/triviarena/backend/internal/config"
	"github.com/triviarena/backend/internal/game"
	"github.com/triviarena/backend/internal/lobby"
)

// Handlers groups the route handlers the server exposes.
type Handlers struct {
	Auth  *auth.HTTPHandlers
	Lobby *lobby.HTTPHandlers
	Game  *game.HTTPHandlers
	WS    http.Handler
}

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, authSvc *auth.Service, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth endpoints
	mux.HandleFunc("POST /v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
	mux.Handle("GET /v1/users/me", auth.RequireAuth(http.HandlerFunc(h.Auth.GetMe)))

	// Lobby endpoints
	protect := func(fn http.HandlerFunc) http.Handler { return auth.RequireAuth(fn) }
	mux.Handle("POST /v1/lobbies", protect(h.Lobby.Create))
	mux.Handle("GET /v1/lobbies/{id}", protect(h.Lobby.Get))
	mux.Handle("GET /v1/lobbies/code/{code}", protect(h.Lobby.GetByCode))
	mux.Handle("POST /v1/lobbies/join", protect(h.Lobby.Join))
	mux.Handle("PATCH /v1/lobbies/{id}/ready", protect(h.Lobby.SetReady))
	mux.Handle("DELETE /v1/lobbies/{id}/leave", protect(h.Lobby.Leave))
	mux.Handle("POST /v1/lobbies/{id}/start", protect(h.Lobby.Start))

	// Game endpoints
	mux.Handle("GET /v1/games/{id}", protect(h.Game.GetState))
	mux.Handle("GET /v1/games/{id}/question/current", protect(h.Game.GetCurrentQuestion))
	mux.Handle("POST /v1/games/{id}/answer", protect(h.Game.SubmitAnswer))
	mux.Handle("GET /v1/games/{id}/results", protect(h.Game.GetResults))

	// WebSocket endpoint; the handler authenticates the token itself.
	mux.Handle("GET /ws", h.WS)

	handler := auth.Middleware(authSvc, logger)(mux)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}
