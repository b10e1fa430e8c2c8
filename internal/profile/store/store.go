package store

import (
	"context"

	"github.com/google/uuid"

	"playerservice/internal/profile"
	"playerservice/pkg/platform/sentinel"
)

// Store is the durable keyed storage for profile records. Implementations
// own per-key atomicity: Insert must reject an existing key atomically
// (closing the create race) and Update must compare the record's Version so
// at most one concurrent writer's read-modify-write survives.
//
// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code.
type Store interface {
	// Insert persists a new record, failing with sentinel.ErrConflict when
	// a record for the same player already exists.
	Insert(ctx context.Context, p profile.PlayerProfile) error

	// Get returns the record, or sentinel.ErrNotFound.
	Get(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error)

	// Update persists p only if the stored Version still equals p.Version,
	// bumping the version on success. Fails with sentinel.ErrConflict on a
	// stale version and sentinel.ErrNotFound when the record is gone.
	Update(ctx context.Context, p profile.PlayerProfile) error

	// Delete removes the record permanently, or fails with
	// sentinel.ErrNotFound.
	Delete(ctx context.Context, playerID uuid.UUID) error
}

// ErrNotFound and ErrConflict re-export the sentinels so store consumers
// need a single import.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)
