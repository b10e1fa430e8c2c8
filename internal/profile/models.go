// Package profile holds the player-profile domain model: the durable record,
// the role enum carried by access tokens, and the preference whitelist.
package profile

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a token can carry.
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole maps a role name from a token's authorities claim onto the enum.
// Unknown names degrade to RolePlayer rather than failing authentication.
func ParseRole(name string) Role {
	switch Role(name) {
	case RolePlayer, RoleAdmin:
		return Role(name)
	default:
		return RolePlayer
	}
}

// StartingWalletBalance seeds every new profile's wallet.
const StartingWalletBalance = 150

// PlayerProfile is the durable per-player record, keyed by PlayerID.
// The domain service is the sole writer; Wallet is never persisted negative.
type PlayerProfile struct {
	PlayerID            uuid.UUID   `json:"playerId"`
	Preferences         Preferences `json:"preferences"`
	GamesPlayed         int         `json:"gamesPlayed"`
	GamesWon            int         `json:"gamesWon"`
	LeaderboardPosition int         `json:"leaderboardPosition"`
	TimePlayed          int64       `json:"timePlayed"`
	Wallet              int         `json:"wallet"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`

	// Version is the optimistic concurrency token the store compares on
	// update. It never leaves the service boundary.
	Version int64 `json:"-"`
}

// NewProfile returns the Active record Create persists: default preferences,
// zeroed statistics, and the starting wallet balance.
func NewProfile(playerID uuid.UUID, now time.Time) PlayerProfile {
	return PlayerProfile{
		PlayerID:    playerID,
		Preferences: DefaultPreferences(),
		Wallet:      StartingWalletBalance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GameCompletedEvent reports a finished game for a player.
type GameCompletedEvent struct {
	PlayerID uuid.UUID `json:"playerId"`
	Won      bool      `json:"won"`
}

// LeaderboardUpdatedEvent carries a player's recomputed leaderboard position.
type LeaderboardUpdatedEvent struct {
	PlayerID    uuid.UUID `json:"playerId"`
	NewPosition int       `json:"newLeaderboardPosition"`
}

// PlayerStats is the derived statistic published after each completed game.
type PlayerStats struct {
	PlayerID uuid.UUID `json:"playerId"`
	Stats    float64   `json:"stats"`
}
