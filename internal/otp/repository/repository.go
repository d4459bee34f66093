package repository

import (
	"context"
	"errors"

	"zero-trust-otp/backend/internal/otp/domain"
)

// ErrNotFound is returned when no challenge is stored under a key.
var ErrNotFound = errors.New("challenge not found")

// Repository holds at most one active challenge per key (e.g. recipient address).
type Repository interface {
	// Put stores c under key, superseding any outstanding challenge.
	Put(ctx context.Context, key string, c *domain.Challenge) error
	// Get returns a copy of the challenge under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*domain.Challenge, error)
	// Delete removes the challenge under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Update runs fn on the stored challenge as one atomic read-modify-write.
	// Returns ErrNotFound when nothing is stored under key. A consumed challenge is removed after fn returns.
	Update(ctx context.Context, key string, fn func(c *domain.Challenge) error) error
}
