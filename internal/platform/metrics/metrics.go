package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProfilesCreated    prometheus.Counter
	ProfilesDeleted    prometheus.Counter
	GamesCompleted     prometheus.Counter
	WalletAdjustments  prometheus.Counter
	EventsConsumed     *prometheus.CounterVec
	EgressFailures     prometheus.Counter
	AuthTokensRejected prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_profiles_created_total",
			Help: "Total number of player profiles created",
		}),
		ProfilesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_profiles_deleted_total",
			Help: "Total number of player profiles deleted",
		}),
		GamesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_games_completed_total",
			Help: "Total number of game-completed events applied",
		}),
		WalletAdjustments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_wallet_adjustments_total",
			Help: "Total number of successful wallet adjustments",
		}),
		EventsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "player_service_events_consumed_total",
			Help: "Total number of inbound domain events consumed, by topic",
		}, []string{"topic"}),
		EgressFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_egress_failures_total",
			Help: "Total number of failed stats publications",
		}),
		AuthTokensRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "player_service_auth_tokens_rejected_total",
			Help: "Total number of bearer tokens that failed verification",
		}),
	}
}
