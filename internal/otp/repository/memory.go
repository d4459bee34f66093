package repository

import (
	"context"
	"sync"

	"zero-trust-otp/backend/internal/otp/domain"
)

// MemoryRepository is an in-process Repository. Challenges do not survive a restart.
// Expired challenges are not evicted in the background; they are dropped once a
// verification reports them expired or a new challenge supersedes them.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.Challenge
}

// NewMemoryRepository returns an empty in-memory challenge repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Challenge)}
}

// Put stores a copy of c under key.
func (r *MemoryRepository) Put(ctx context.Context, key string, c *domain.Challenge) error {
	cp := *c
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = &cp
	return nil
}

// Get returns a copy of the challenge under key.
func (r *MemoryRepository) Get(ctx context.Context, key string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Delete removes the challenge under key.
func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

// Update runs fn on the stored challenge while holding the lock.
func (r *MemoryRepository) Update(ctx context.Context, key string, fn func(c *domain.Challenge) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[key]
	if !ok {
		return ErrNotFound
	}
	err := fn(c)
	if c.Consumed() {
		delete(r.m, key)
	}
	return err
}

// Len returns the number of stored challenges.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
