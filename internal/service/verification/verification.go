// Package verification issues short-lived opaque tokens sent by mail:
// password reset links and email ownership confirmation.
package verification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/cache"
	"github.com/nkiryanov/smallsquare/internal/logger"
	"github.com/nkiryanov/smallsquare/internal/repository"
)

const (
	DefaultTTL = 15 * time.Minute

	purposePasswordReset = "findPassword"
	purposeVerifyEmail   = "verifyEmail"

	verifiedValue = "true"
)

// Keys look like <purpose>:token:<uuid> and <purpose>:email:<email>
func tokenKey(purpose string, token string) string {
	return purpose + ":token:" + token
}

func emailKey(purpose string, email string) string {
	return purpose + ":email:" + email
}

type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type Config struct {
	// Base of links put into letters, like https://smallsquare.dev
	LinkBase string

	// Lifetime of tokens and verified marks; DefaultTTL if not set
	TTL time.Duration

	Logger logger.Logger
}

type Service struct {
	linkBase string
	ttl      time.Duration
	logger   logger.Logger

	cache   cache.Cache
	storage repository.Storage
	mailer  Mailer
}

func NewService(cfg Config, c cache.Cache, storage repository.Storage, mailer Mailer) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	return &Service{
		linkBase: cfg.LinkBase,
		ttl:      cfg.TTL,
		logger:   cfg.Logger.With("component", "verification"),
		cache:    c,
		storage:  storage,
		mailer:   mailer,
	}
}

// SendPasswordReset mails a reset link to the user owning the email
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	if _, err := s.storage.User().GetUserByEmail(ctx, email); err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, tokenKey(purposePasswordReset, token), email, s.ttl); err != nil {
		return fmt.Errorf("cant store password reset token. Err: %w", err)
	}

	body := fmt.Sprintf(
		"Follow the link to set a new password: %s\nThe link is valid for %s.",
		s.link("reset-password", token), s.ttl,
	)
	if err := s.mailer.Send(ctx, email, "Password reset", body); err != nil {
		return fmt.Errorf("cant send password reset mail. Err: %w", err)
	}

	return nil
}

// LookupPasswordReset returns email the reset token was issued for
func (s *Service) LookupPasswordReset(ctx context.Context, token string) (string, error) {
	email, err := s.cache.Get(ctx, tokenKey(purposePasswordReset, token))

	switch {
	case err == nil:
		return email, nil
	case errors.Is(err, cache.ErrMiss):
		return "", apperrors.ErrResetTokenNotFound
	default:
		return "", fmt.Errorf("cant get password reset token. Err: %w", err)
	}
}

func (s *Service) DeletePasswordReset(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, tokenKey(purposePasswordReset, token)); err != nil {
		return fmt.Errorf("cant delete password reset token. Err: %w", err)
	}
	return nil
}

// SendEmailVerification mails a confirmation link to the email
// The email need not belong to a user: it is verified before signup
func (s *Service) SendEmailVerification(ctx context.Context, email string) error {
	token := uuid.NewString()
	if err := s.cache.Set(ctx, tokenKey(purposeVerifyEmail, token), email, s.ttl); err != nil {
		return fmt.Errorf("cant store email verification token. Err: %w", err)
	}

	body := fmt.Sprintf(
		"Follow the link to confirm your email: %s\nThe link is valid for %s.",
		s.link("verify-email", token), s.ttl,
	)
	if err := s.mailer.Send(ctx, email, "Email verification", body); err != nil {
		return fmt.Errorf("cant send email verification mail. Err: %w", err)
	}

	return nil
}

// VerifyEmail marks email of the token as verified and spends the token
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	key := tokenKey(purposeVerifyEmail, token)

	email, err := s.cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		return "", apperrors.ErrVerificationTokenNotFound
	case err != nil:
		return "", fmt.Errorf("cant get email verification token. Err: %w", err)
	}

	if err := s.cache.Set(ctx, emailKey(purposeVerifyEmail, email), verifiedValue, s.ttl); err != nil {
		return "", fmt.Errorf("cant mark email verified. Err: %w", err)
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("cant delete spent email verification token", "error", err)
	}

	return email, nil
}

func (s *Service) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	value, err := s.cache.Get(ctx, emailKey(purposeVerifyEmail, email))

	switch {
	case err == nil:
		return value == verifiedValue, nil
	case errors.Is(err, cache.ErrMiss):
		return false, nil
	default:
		return false, fmt.Errorf("cant check email verification. Err: %w", err)
	}
}

func (s *Service) link(path string, token string) string {
	return s.linkBase + "/" + path + "?" + url.Values{"token": {token}}.Encode()
}
