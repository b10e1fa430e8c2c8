package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playerservice/internal/profile"
)

// Postgres persists profiles in PostgreSQL through a pgx connection pool.
// Per-key atomicity comes from the primary key (Insert uses ON CONFLICT DO
// NOTHING) and an optimistic version column (Update compares and bumps it in
// one statement).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the given URL and verifies the connection.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// RunMigrations creates the profile table if it does not exist. The wallet
// CHECK backs up the service-level non-negativity invariant at the storage
// boundary.
func (s *Postgres) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS player_profiles (
			player_id UUID PRIMARY KEY,
			preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
			games_played INT NOT NULL DEFAULT 0,
			games_won INT NOT NULL DEFAULT 0,
			leaderboard_position INT NOT NULL DEFAULT 0,
			time_played BIGINT NOT NULL DEFAULT 0,
			wallet INT NOT NULL CHECK (wallet >= 0),
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

func (s *Postgres) Insert(ctx context.Context, p profile.PlayerProfile) error {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	query := `
		INSERT INTO player_profiles
			(player_id, preferences, games_played, games_won, leaderboard_position, time_played, wallet, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (player_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		p.PlayerID, prefs, p.GamesPlayed, p.GamesWon, p.LeaderboardPosition,
		p.TimePlayed, p.Wallet, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error) {
	query := `
		SELECT player_id, preferences, games_played, games_won, leaderboard_position, time_played, wallet, version, created_at, updated_at
		FROM player_profiles
		WHERE player_id = $1
	`
	var p profile.PlayerProfile
	var prefs []byte
	err := s.pool.QueryRow(ctx, query, playerID).Scan(
		&p.PlayerID, &prefs, &p.GamesPlayed, &p.GamesWon, &p.LeaderboardPosition,
		&p.TimePlayed, &p.Wallet, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.PlayerProfile{}, ErrNotFound
		}
		return profile.PlayerProfile{}, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
		return profile.PlayerProfile{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return p, nil
}

func (s *Postgres) Update(ctx context.Context, p profile.PlayerProfile) error {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	query := `
		UPDATE player_profiles
		SET preferences = $2,
			games_played = $3,
			games_won = $4,
			leaderboard_position = $5,
			time_played = $6,
			wallet = $7,
			version = version + 1,
			updated_at = $8
		WHERE player_id = $1 AND version = $9
	`
	tag, err := s.pool.Exec(ctx, query,
		p.PlayerID, prefs, p.GamesPlayed, p.GamesWon, p.LeaderboardPosition,
		p.TimePlayed, p.Wallet, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a deleted record from a concurrent writer.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM player_profiles WHERE player_id = $1)`, p.PlayerID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check profile existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, playerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM player_profiles WHERE player_id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
