// Package revocation keeps the denylist of tokens that must not be accepted
// any more although their signature and expiration are fine.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/smallsquare/internal/cache"
	"github.com/nkiryanov/smallsquare/internal/models"
)

const keyPrefix = "blacklist"

// Reason stored as the denylist entry value
type Reason string

const (
	ReasonLogout  Reason = "logout"
	ReasonRefresh Reason = "refresh"
)

type Store struct {
	cache cache.Cache
}

func New(c cache.Cache) *Store {
	return &Store{cache: c}
}

// Key of the denylist entry: blacklist:<type>:<token>
func Key(typ models.TokenType, token string) string {
	return keyPrefix + ":" + string(typ) + ":" + token
}

// Denylist the token for the rest of its lifetime
// Nothing is written when the token has no lifetime left
func (s *Store) Denylist(ctx context.Context, token string, typ models.TokenType, reason Reason, remaining time.Duration) error {
	remaining = remaining.Truncate(time.Millisecond)
	if remaining <= 0 {
		return nil
	}

	if err := s.cache.Set(ctx, Key(typ, token), string(reason), remaining); err != nil {
		return fmt.Errorf("cant denylist %s token. Err: %w", typ, err)
	}
	return nil
}

// DenylistOnce is Denylist that fails to overwrite existing entry
// Returns false when the token was denylisted already or has no lifetime left
func (s *Store) DenylistOnce(ctx context.Context, token string, typ models.TokenType, reason Reason, remaining time.Duration) (bool, error) {
	remaining = remaining.Truncate(time.Millisecond)
	if remaining <= 0 {
		return false, nil
	}

	ok, err := s.cache.SetNX(ctx, Key(typ, token), string(reason), remaining)
	if err != nil {
		return false, fmt.Errorf("cant denylist %s token. Err: %w", typ, err)
	}
	return ok, nil
}

func (s *Store) IsDenylisted(ctx context.Context, token string, typ models.TokenType) (bool, error) {
	ok, err := s.cache.Exists(ctx, Key(typ, token))
	if err != nil {
		return false, fmt.Errorf("cant check %s token denylist. Err: %w", typ, err)
	}
	return ok, nil
}
