package events

import (
	"context"
	"log/slog"
	"sync/atomic"

	"playerservice/internal/profile"
	"playerservice/pkg/platform/circuit"
)

// probeEvery is how often a publish is let through while the breaker is
// open, so a recovered broker can close the circuit again.
const probeEvery = 10

// statsPublisher matches the egress surface the domain service consumes.
type statsPublisher interface {
	PublishPlayerStats(ctx context.Context, stats profile.PlayerStats) error
}

// GuardedPublisher wraps a stats publisher with a circuit breaker. While the
// circuit is open, publishes are dropped instead of blocking the game event
// path on a struggling broker; every probeEvery-th call still goes through
// as a probe. Stats are derived from persisted state, so a dropped message
// is recovered by the next successful publish for that player.
type GuardedPublisher struct {
	inner   statsPublisher
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped atomic.Uint64
}

func NewGuardedPublisher(inner statsPublisher, logger *slog.Logger) *GuardedPublisher {
	return &GuardedPublisher{
		inner:   inner,
		breaker: circuit.New("stats-egress", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}
}

func (g *GuardedPublisher) PublishPlayerStats(ctx context.Context, stats profile.PlayerStats) error {
	if g.breaker.IsOpen() {
		if g.skipped.Add(1)%probeEvery != 0 {
			g.logger.Debug("stats publish skipped, circuit open", "player_id", stats.PlayerID)
			return nil
		}
	}

	if err := g.inner.PublishPlayerStats(ctx, stats); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.Warn("stats egress circuit opened", "error", err)
		}
		return err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.Info("stats egress circuit closed")
	}
	return nil
}
