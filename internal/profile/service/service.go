// Package service implements the profile domain service. It owns every
// state-transition rule: create idempotency, preference whitelisting and
// merge semantics, wallet non-negativity, and event-driven statistics.
// All invariants are enforced here regardless of whether an HTTP request or
// an inbound event triggered the operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"playerservice/internal/platform/metrics"
	"playerservice/internal/profile"
	"playerservice/internal/profile/store"
	derrors "playerservice/pkg/domain-errors"
)

// StatsPublisher carries derived statistics out after a completed game.
// Delivery is best-effort: failures never roll back the persisted update.
type StatsPublisher interface {
	PublishPlayerStats(ctx context.Context, stats profile.PlayerStats) error
}

// maxUpdateAttempts bounds optimistic-concurrency retries on
// read-modify-write paths.
const maxUpdateAttempts = 3

type Service struct {
	store   store.Store
	egress  StatsPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithStatsPublisher(publisher StatsPublisher) Option {
	return func(s *Service) {
		s.egress = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("profile store is required")
	}

	svc := &Service{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateProfile creates the player's Active record exactly once. The store's
// atomic insert closes the check-then-act race: under concurrent duplicate
// creates the loser surfaces AlreadyExists rather than silently succeeding.
func (s *Service) CreateProfile(ctx context.Context, playerID uuid.UUID) error {
	p := profile.NewProfile(playerID, s.now())

	if err := s.store.Insert(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return derrors.New(derrors.CodeAlreadyExists, "profile already exists")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to create profile")
	}

	s.logger.InfoContext(ctx, "profile created", "player_id", playerID)
	if s.metrics != nil {
		s.metrics.ProfilesCreated.Inc()
	}
	return nil
}

// GetProfile returns a snapshot of the player's record.
func (s *Service) GetProfile(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error) {
	return s.load(ctx, playerID)
}

// DeleteProfile removes the record permanently. There is no soft delete.
func (s *Service) DeleteProfile(ctx context.Context, playerID uuid.UUID) error {
	if err := s.store.Delete(ctx, playerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "profile not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to delete profile")
	}

	s.logger.InfoContext(ctx, "profile deleted", "player_id", playerID)
	if s.metrics != nil {
		s.metrics.ProfilesDeleted.Inc()
	}
	return nil
}

// GetPreferences returns the player's full preference mapping.
func (s *Service) GetPreferences(ctx context.Context, playerID uuid.UUID) (profile.Preferences, error) {
	p, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return p.Preferences, nil
}

// GetGamePreferences returns the subset of preferences relevant to game
// setup.
func (s *Service) GetGamePreferences(ctx context.Context, playerID uuid.UUID) (profile.Preferences, error) {
	p, err := s.load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return p.Preferences.GameSubset(), nil
}

// UpdatePreferences merges incoming into the stored mapping and returns the
// merged result. An empty update or any key outside the whitelist rejects
// the whole update; nothing is merged partially.
func (s *Service) UpdatePreferences(ctx context.Context, playerID uuid.UUID, incoming profile.Preferences) (profile.Preferences, error) {
	if len(incoming) == 0 {
		return nil, derrors.New(derrors.CodeInvalidPreference, "preferences cannot be empty")
	}
	if key, bad := incoming.FirstInvalidKey(); bad {
		return nil, derrors.New(derrors.CodeInvalidPreference, "invalid preference: "+key)
	}

	var merged profile.Preferences
	_, err := s.mutate(ctx, playerID, func(p *profile.PlayerProfile) error {
		merged = p.Preferences.Merge(incoming)
		p.Preferences = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// GetWallet returns the current balance.
func (s *Service) GetWallet(ctx context.Context, playerID uuid.UUID) (int, error) {
	p, err := s.load(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return p.Wallet, nil
}

// AdjustWallet applies a signed change atomically and returns the new
// balance. The whole adjustment is rejected when it would drive the balance
// negative.
func (s *Service) AdjustWallet(ctx context.Context, playerID uuid.UUID, changeAmount int) (int, error) {
	updated, err := s.mutate(ctx, playerID, func(p *profile.PlayerProfile) error {
		if p.Wallet+changeAmount < 0 {
			return derrors.New(derrors.CodeInsufficientFunds, "insufficient funds")
		}
		p.Wallet += changeAmount
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.WalletAdjustments.Inc()
	}
	return updated.Wallet, nil
}

// HandleGameCompleted applies a finished game to the player's statistics and
// then publishes the derived win rate. Publish failures are logged and
// swallowed; the persisted update stands.
func (s *Service) HandleGameCompleted(ctx context.Context, event profile.GameCompletedEvent) error {
	updated, err := s.mutate(ctx, event.PlayerID, func(p *profile.PlayerProfile) error {
		p.GamesPlayed++
		if event.Won {
			p.GamesWon++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.GamesCompleted.Inc()
	}

	s.publishStats(ctx, profile.PlayerStats{
		PlayerID: updated.PlayerID,
		Stats:    float64(updated.GamesWon) / float64(updated.GamesPlayed),
	})
	return nil
}

// HandleLeaderboardUpdated records the player's new leaderboard position.
func (s *Service) HandleLeaderboardUpdated(ctx context.Context, event profile.LeaderboardUpdatedEvent) error {
	_, err := s.mutate(ctx, event.PlayerID, func(p *profile.PlayerProfile) error {
		p.LeaderboardPosition = event.NewPosition
		return nil
	})
	return err
}

func (s *Service) publishStats(ctx context.Context, stats profile.PlayerStats) {
	if s.egress == nil {
		return
	}
	if err := s.egress.PublishPlayerStats(ctx, stats); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish player stats",
			"player_id", stats.PlayerID,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.EgressFailures.Inc()
		}
	}
}

func (s *Service) load(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error) {
	p, err := s.store.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return profile.PlayerProfile{}, derrors.New(derrors.CodeNotFound, "profile not found")
		}
		return profile.PlayerProfile{}, derrors.Wrap(err, derrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// mutate runs a read-modify-write against the store, retrying a bounded
// number of times when a concurrent writer invalidated the read. The store's
// version compare guarantees at most one writer's update is visible per
// round.
func (s *Service) mutate(ctx context.Context, playerID uuid.UUID, apply func(*profile.PlayerProfile) error) (profile.PlayerProfile, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		p, err := s.load(ctx, playerID)
		if err != nil {
			return profile.PlayerProfile{}, err
		}

		if err := apply(&p); err != nil {
			return profile.PlayerProfile{}, err
		}
		p.UpdatedAt = s.now()

		switch err := s.store.Update(ctx, p); {
		case err == nil:
			return p, nil
		case errors.Is(err, store.ErrConflict):
			continue
		case errors.Is(err, store.ErrNotFound):
			return profile.PlayerProfile{}, derrors.New(derrors.CodeNotFound, "profile not found")
		default:
			return profile.PlayerProfile{}, derrors.Wrap(err, derrors.CodeInternal, "failed to persist profile")
		}
	}
	return profile.PlayerProfile{}, derrors.New(derrors.CodeInternal, "profile update contention not resolved")
}
