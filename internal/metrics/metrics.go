package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gameplay counters exposed on /metrics.
var (
	LobbiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_lobbies_created_total",
		Help: "Number of lobbies created.",
	})

	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_games_started_total",
		Help: "Number of games started from lobbies.",
	})

	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_games_completed_total",
		Help: "Number of games that reached completion.",
	})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_answers_submitted_total",
		Help: "Number of answer submissions by verdict.",
	}, []string{"verdict"})

	LobbiesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_lobbies_expired_total",
		Help: "Number of lobbies archived by the expiry sweeper.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trivia_ws_connected_clients",
		Help: "Number of live websocket connections.",
	})
)
