package consequence

import (
	"context"
	"sort"
	"sync"
)

// Repository holds pending consequences keyed by player id. It is injected
// into the Scheduler so hosting environments can choose the backing store;
// the in-memory implementation below is the default and the one used in
// tests. Storage errors are surfaced, never swallowed.
type Repository interface {
	// Add stores a newly scheduled consequence.
	Add(ctx context.Context, c *Consequence) error

	// ListPending returns all non-exhausted consequences for a player,
	// ordered by schedule sequence.
	ListPending(ctx context.Context, playerID string) ([]*Consequence, error)

	// Update persists a mutated consequence (execution count bump).
	Update(ctx context.Context, c *Consequence) error

	// Remove deletes a consequence. Returns false if it was not present.
	Remove(ctx context.Context, playerID, id string) (bool, error)
}

// MemoryRepository is a thread-safe in-memory Repository.
type MemoryRepository struct {
	mu      sync.Mutex
	pending map[string]map[string]*Consequence // player id -> consequence id -> record
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		pending: make(map[string]map[string]*Consequence),
	}
}

func (r *MemoryRepository) Add(ctx context.Context, c *Consequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.pending[c.PlayerID]
	if !ok {
		byID = make(map[string]*Consequence)
		r.pending[c.PlayerID] = byID
	}
	cp := *c
	byID[c.ID] = &cp
	return nil
}

func (r *MemoryRepository) ListPending(ctx context.Context, playerID string) ([]*Consequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Consequence
	for _, c := range r.pending[playerID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return ScheduledBefore(out[i], out[j]) })
	return out, nil
}

// Update upserts, matching the Redis implementation.
func (r *MemoryRepository) Update(ctx context.Context, c *Consequence) error {
	return r.Add(ctx, c)
}

func (r *MemoryRepository) Remove(ctx context.Context, playerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.pending[playerID]
	if !ok {
		return false, nil
	}
	if _, ok := byID[id]; !ok {
		return false, nil
	}
	delete(byID, id)
	return true, nil
}
