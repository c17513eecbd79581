package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Quiz attempts created, by quiz type
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzle_quiz_sessions_started_total",
			Help: "Total number of quiz sessions started",
		},
		[]string{"type"},
	)

	// Quiz attempts finalised, by quiz type and completion reason
	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzle_quiz_sessions_completed_total",
			Help: "Total number of quiz sessions completed",
		},
		[]string{"type", "reason"}, // reason: submitted/time_expired
	)

	ResultPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizzle_quiz_results_persist_failures_total",
			Help: "Total number of quiz results that could not be stored",
		},
	)

	// Attempts currently held in memory, including completed ones awaiting expiry
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizzle_active_quiz_sessions",
			Help: "Current number of quiz sessions held in memory",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzle_auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // status: success/failure
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
