// Package cache declares the key-value store with expiry used for token denylists
// and verification tokens. Backends live in subpackages.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMiss       = errors.New("cache: key not found")
	ErrInvalidTTL = errors.New("cache: ttl must be positive")
	ErrFull       = errors.New("cache: no room for new key")
)

type Cache interface {
	// Set value with expiry, overwriting the existing one
	// Must return ErrInvalidTTL for non-positive ttl: no key lives forever
	// Bounded backends return ErrFull instead of evicting live keys
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Set value only if key is absent (or expired); report whether value was set
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Get value, ErrMiss if key is absent or expired
	Get(ctx context.Context, key string) (string, error)

	// Delete key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)
}
