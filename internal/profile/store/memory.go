package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"playerservice/internal/profile"
)

// InMemory keeps profiles in a mutex-guarded map. It backs unit tests and
// local development; it intentionally favors clarity over performance.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]profile.PlayerProfile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[uuid.UUID]profile.PlayerProfile)}
}

func (s *InMemory) Insert(_ context.Context, p profile.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.PlayerID]; exists {
		return ErrConflict
	}
	p.Preferences = clonePreferences(p.Preferences)
	s.profiles[p.PlayerID] = p
	return nil
}

func (s *InMemory) Get(_ context.Context, playerID uuid.UUID) (profile.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[playerID]
	if !ok {
		return profile.PlayerProfile{}, ErrNotFound
	}
	p.Preferences = clonePreferences(p.Preferences)
	return p, nil
}

func (s *InMemory) Update(_ context.Context, p profile.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[p.PlayerID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != p.Version {
		return ErrConflict
	}
	p.Version++
	p.Preferences = clonePreferences(p.Preferences)
	s.profiles[p.PlayerID] = p
	return nil
}

func (s *InMemory) Delete(_ context.Context, playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[playerID]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, playerID)
	return nil
}

// clonePreferences guards against callers mutating a map the store still
// holds a reference to. Nested values are shared; top-level writes are the
// only mutation path the service performs.
func clonePreferences(prefs profile.Preferences) profile.Preferences {
	if prefs == nil {
		return nil
	}
	cloned := make(profile.Preferences, len(prefs))
	for k, v := range prefs {
		cloned[k] = v
	}
	return cloned
}
