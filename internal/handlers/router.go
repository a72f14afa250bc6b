package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/smallsquare/internal/credentials"
	"github.com/nkiryanov/smallsquare/internal/handlers/middleware"
	"github.com/nkiryanov/smallsquare/internal/logger"
	"github.com/nkiryanov/smallsquare/internal/models"
	"github.com/nkiryanov/smallsquare/internal/service/auth/tokenmanager"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	mailService mailService,
	metrics metricsHandler,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	mux := http.NewServeMux()

	mux.Handle("POST /api/users/signup", handleSignup(authService, logger))
	mux.Handle("POST /api/users/login", handleLogin(authService, logger))
	mux.Handle("POST /api/users/logout", handleLogout(authService, logger))
	mux.Handle("POST /api/users/refresh", handleRefresh(authService, logger))
	mux.Handle("POST /api/users/password/reset", handleResetPassword(authService, logger))

	mux.Handle("GET /api/users/me", withAuth(handleMe(userService, logger)))
	mux.Handle("PATCH /api/users/me", withAuth(handleUpdateProfile(userService, logger)))
	mux.Handle("POST /api/users/me/password", withAuth(handleChangePassword(authService, logger)))
	mux.Handle("POST /api/users/me/deactivate", withAuth(handleDeactivate(authService, logger)))

	mux.Handle("POST /api/mail/password-reset", handleSendPasswordReset(mailService, logger))
	mux.Handle("POST /api/mail/verify", handleSendEmailVerification(mailService, logger))
	mux.Handle("POST /api/mail/verify/confirm", handleVerifyEmail(mailService, logger))

	mux.Handle("GET /metrics", metrics.Handler())

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.MetricsMiddleware(metrics),
	)

	return handler
}

type authService interface {
	// Has to return *apperrors.ValidationError, duplicate errors or apperrors.ErrConfirmationMismatch
	Signup(ctx context.Context, in credentials.SignupInput) (models.User, error)

	// Has to return apperrors.ErrUserNotFound, apperrors.ErrInactiveAccount or apperrors.ErrWrongPassword
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	Logout(ctx context.Context, access string, refresh string) error

	// If token expired: has to return apperrors.ErrExpiredToken
	// If token revoked or already rotated: has to return apperrors.ErrRevokedToken
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	ChangePassword(ctx context.Context, userID int64, current string, newPassword string, confirm string) error
	ResetPassword(ctx context.Context, token string, newPassword string, confirm string) error
	Deactivate(ctx context.Context, userID int64, password string) error

	Authenticate(ctx context.Context, access string) (*tokenmanager.Claims, error)
}

type userService interface {
	Me(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in credentials.ProfileInput) (models.User, error)
}

type mailService interface {
	SendPasswordReset(ctx context.Context, email string) error
	SendEmailVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (string, error)
}

type metricsHandler interface {
	Handler() http.Handler
	ObserveHTTP(method string, route string, status int, elapsed time.Duration)
}
