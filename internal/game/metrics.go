package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_games_started_total",
		Help: "Number of games created.",
	})

	gamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polebot_games_finished_total",
		Help: "Number of games reaching the finish state.",
	}, []string{"reason"})
)
