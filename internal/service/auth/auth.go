package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/credentials"
	"github.com/nkiryanov/smallsquare/internal/logger"
	"github.com/nkiryanov/smallsquare/internal/models"
	"github.com/nkiryanov/smallsquare/internal/repository"
	"github.com/nkiryanov/smallsquare/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/smallsquare/internal/service/revocation"
)

// Email verification and password reset tokens lookup
type Verifier interface {
	IsEmailVerified(ctx context.Context, email string) (bool, error)
	LookupPasswordReset(ctx context.Context, token string) (string, error)
	DeletePasswordReset(ctx context.Context, token string) error
}

type MetricsRecorder interface {
	ObserveAuth(operation string, started time.Time, err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAuth(string, time.Time, error) {}

type Config struct {
	// Hasher to use during signup, login or password change
	// BcryptHasher with default cost if not set
	Hasher PasswordHasher

	// Signup is allowed only for emails confirmed with verification link
	RequireVerifiedEmail bool

	Logger  logger.Logger
	Metrics MetricsRecorder
}

// Auth service
// Runs the session lifecycle: tokens are issued on login, revoked on logout and rotated on refresh
type AuthService struct {
	hasher               PasswordHasher
	requireVerifiedEmail bool
	logger               logger.Logger
	metrics              MetricsRecorder

	tokens   *tokenmanager.TokenManager
	storage  repository.Storage
	denylist *revocation.Store
	verifier Verifier
}

func NewService(
	cfg Config,
	tokens *tokenmanager.TokenManager,
	storage repository.Storage,
	denylist *revocation.Store,
	verifier Verifier,
) (*AuthService, error) {
	if tokens == nil || storage == nil || denylist == nil || verifier == nil {
		return nil, errors.New("token manager, storage, denylist and verifier must not be nil")
	}

	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &AuthService{
		hasher:               cfg.Hasher,
		requireVerifiedEmail: cfg.RequireVerifiedEmail,
		logger:               cfg.Logger.With("component", "auth"),
		metrics:              cfg.Metrics,
		tokens:               tokens,
		storage:              storage,
		denylist:             denylist,
		verifier:             verifier,
	}, nil
}

func (s *AuthService) observe(operation string, started time.Time, err *error) {
	s.metrics.ObserveAuth(operation, started, *err)
}

// Signup creates active user with USER role
func (s *AuthService) Signup(ctx context.Context, in credentials.SignupInput) (user models.User, err error) {
	defer s.observe("signup", time.Now(), &err)

	signup, err := credentials.ParseSignup(in)
	if err != nil {
		return user, err
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		repo := storage.User()

		checks := []struct {
			exists func(context.Context, string) (bool, error)
			value  string
			err    error
		}{
			{repo.ExistsByUsername, signup.Username.String(), apperrors.ErrUsernameTaken},
			{repo.ExistsByEmail, signup.Email.String(), apperrors.ErrEmailTaken},
			{repo.ExistsByNickname, signup.Nickname.String(), apperrors.ErrNicknameTaken},
		}
		for _, c := range checks {
			taken, err := c.exists(ctx, c.value)
			if err != nil {
				return err
			}
			if taken {
				return c.err
			}
		}

		if in.Password != in.CheckPassword {
			return apperrors.ErrConfirmationMismatch
		}

		if s.requireVerifiedEmail {
			verified, err := s.verifier.IsEmailVerified(ctx, signup.Email.String())
			if err != nil {
				return err
			}
			if !verified {
				return apperrors.ErrEmailNotVerified
			}
		}

		hash, err := s.hasher.Hash(signup.Password.String())
		if err != nil {
			return fmt.Errorf("can't use this as password. Err: %w", err)
		}

		user, err = repo.CreateUser(ctx, repository.CreateUserParams{
			Username:     signup.Username.String(),
			PasswordHash: hash,
			Nickname:     signup.Nickname.String(),
			Email:        signup.Email.String(),
			Name:         signup.Name.String(),
			Role:         models.RoleUser,
		})
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues new token pair
func (s *AuthService) Login(ctx context.Context, username string, password string) (pair models.TokenPair, err error) {
	defer s.observe("login", time.Now(), &err)

	var user models.User
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().GetUserByUsername(ctx, username)
		return err
	})
	if err != nil {
		return pair, err
	}

	if !user.IsActive {
		return pair, apperrors.ErrInactiveAccount
	}
	if !Matches(s.hasher, user.PasswordHash, password) {
		return pair, apperrors.ErrWrongPassword
	}

	pair, err = s.tokens.IssuePair(user)
	if err != nil {
		return pair, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	return pair, nil
}

// Logout revokes both tokens of the pair for the rest of their lifetimes
// Logging out twice is fine
func (s *AuthService) Logout(ctx context.Context, access string, refresh string) (err error) {
	defer s.observe("logout", time.Now(), &err)

	accessClaims, err := s.parse(access, models.TokenTypeAccess)
	if err != nil {
		return err
	}
	refreshClaims, err := s.parse(refresh, models.TokenTypeRefresh)
	if err != nil {
		return err
	}
	if accessClaims.Subject != refreshClaims.Subject {
		return fmt.Errorf("%w: tokens belong to different users", apperrors.ErrInvalidToken)
	}

	now := s.tokens.Now()
	err = s.denylist.Denylist(ctx, access, models.TokenTypeAccess, revocation.ReasonLogout, accessClaims.Remaining(now))
	if err != nil {
		return err
	}
	err = s.denylist.Denylist(ctx, refresh, models.TokenTypeRefresh, revocation.ReasonLogout, refreshClaims.Remaining(now))
	if err != nil {
		return err
	}

	s.logger.Info("user logged out", "user_id", accessClaims.UserID())
	return nil
}

// Refresh rotates the pair: presented refresh token is revoked and a new pair is issued
// Of concurrent refreshes with the same token only one succeeds
func (s *AuthService) Refresh(ctx context.Context, refresh string) (pair models.TokenPair, err error) {
	defer s.observe("refresh", time.Now(), &err)

	claims, err := s.parse(refresh, models.TokenTypeRefresh)
	if err != nil {
		return pair, err
	}

	now := s.tokens.Now()
	if claims.Expired(now) {
		return pair, apperrors.ErrExpiredToken
	}

	revoked, err := s.denylist.IsDenylisted(ctx, refresh, models.TokenTypeRefresh)
	if err != nil {
		return pair, err
	}
	if revoked {
		s.logger.Warn("revoked refresh token presented", "user_id", claims.UserID())
		return pair, apperrors.ErrRevokedToken
	}

	var user models.User
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().GetUserByID(ctx, claims.UserID())
		return err
	})
	if err != nil {
		return pair, err
	}
	if !user.IsActive {
		return pair, apperrors.ErrInactiveAccount
	}

	// Token may run out while the user is loaded; a denylist entry shorter than 1ms is not written
	remaining := claims.Remaining(s.tokens.Now())
	if remaining < time.Millisecond {
		return pair, apperrors.ErrExpiredToken
	}

	won, err := s.denylist.DenylistOnce(ctx, refresh, models.TokenTypeRefresh, revocation.ReasonRefresh, remaining)
	if err != nil {
		return pair, err
	}
	if !won {
		s.logger.Warn("refresh token reused concurrently", "user_id", user.ID)
		return pair, apperrors.ErrRevokedToken
	}

	pair, err = s.tokens.IssuePair(user)
	if err != nil {
		return pair, fmt.Errorf("token could not be issued. Err: %w", err)
	}

	return pair, nil
}

// ChangePassword sets new password for the user knowing the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current string, newPassword string, confirm string) (err error) {
	defer s.observe("change_password", time.Now(), &err)

	return s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if !Matches(s.hasher, user.PasswordHash, current) {
			return apperrors.ErrWrongPassword
		}
		if newPassword != confirm {
			return apperrors.ErrConfirmationMismatch
		}

		return s.setPassword(ctx, storage, user, newPassword)
	})
}

// ResetPassword sets new password for the owner of the reset token
// Token is single use: it is spent as soon as it is found
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string, confirm string) (err error) {
	defer s.observe("reset_password", time.Now(), &err)

	if newPassword != confirm {
		return apperrors.ErrConfirmationMismatch
	}

	email, err := s.verifier.LookupPasswordReset(ctx, token)
	if err != nil {
		return err
	}
	if err := s.verifier.DeletePasswordReset(ctx, token); err != nil {
		return err
	}

	return s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}

		return s.setPassword(ctx, storage, user, newPassword)
	})
}

// setPassword validates the password, rejects the current one and stores the hash
func (s *AuthService) setPassword(ctx context.Context, storage repository.Storage, user models.User, raw string) error {
	password, err := credentials.NewPassword(raw)
	if err != nil {
		return err
	}
	if Matches(s.hasher, user.PasswordHash, password.String()) {
		return apperrors.ErrSamePassword
	}

	hash, err := s.hasher.Hash(password.String())
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	_, err = storage.User().UpdatePassword(ctx, user.ID, hash)
	return err
}

// Deactivate soft deletes the account; it can't log in any more
func (s *AuthService) Deactivate(ctx context.Context, userID int64, password string) (err error) {
	defer s.observe("deactivate", time.Now(), &err)

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !Matches(s.hasher, user.PasswordHash, password) {
			return apperrors.ErrWrongPassword
		}

		_, err = storage.User().SetActive(ctx, user.ID, false)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deactivated", "user_id", userID)
	return nil
}

// Authenticate returns claims of a live access token
func (s *AuthService) Authenticate(ctx context.Context, access string) (claims *tokenmanager.Claims, err error) {
	defer s.observe("authenticate", time.Now(), &err)

	claims, err = s.parse(access, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.Expired(s.tokens.Now()) {
		return nil, apperrors.ErrExpiredToken
	}

	revoked, err := s.denylist.IsDenylisted(ctx, access, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrRevokedToken
	}

	return claims, nil
}

// parse token and check it has expected type
func (s *AuthService) parse(token string, typ models.TokenType) (*tokenmanager.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: %s token expected, got %s", apperrors.ErrInvalidToken, typ, claims.Type)
	}
	return claims, nil
}
