package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_updates_received_total",
		Help: "Updates read from the long-poll server and enqueued.",
	})

	updatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_updates_dropped_total",
		Help: "Updates skipped by the router: wrong type or malformed.",
	})

	updatesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_updates_processed_total",
		Help: "Updates fully handled by a worker.",
	})

	workerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_worker_errors_total",
		Help: "Updates whose handling returned an error or panicked.",
	})

	ratelimitThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polebot_ratelimit_throttled_total",
		Help: "Updates delayed by the per-user rate limiter.",
	})

	longpollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polebot_longpoll_errors_total",
		Help: "Long-poll cycle failures by kind.",
	}, []string{"kind"})
)
