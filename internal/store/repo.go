// Package store persists factory state snapshots by session id.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"candyworks/internal/tycoon"
)

// ErrNotFound is returned by Load when no snapshot exists for the id.
var ErrNotFound = errors.New("snapshot not found")

// Repo is the interface for factory state persistence.
type Repo interface {
	// Load returns a copy of the stored state for the given session ID.
	Load(ctx context.Context, sessionID string) (*tycoon.State, error)

	// Save persists a copy of the state.
	Save(ctx context.Context, sessionID string, state *tycoon.State) error

	// List returns the stored session IDs in sorted order.
	List(ctx context.Context) ([]string, error)
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*tycoon.State
}

// NewMemoryRepo creates a new in-memory state repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		states: make(map[string]*tycoon.State),
	}
}

func (r *MemoryRepo) Load(_ context.Context, sessionID string) (*tycoon.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.states[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

func (r *MemoryRepo) Save(_ context.Context, sessionID string, state *tycoon.State) error {
	if err := validID(sessionID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[sessionID] = state.Clone()
	return nil
}

func (r *MemoryRepo) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
