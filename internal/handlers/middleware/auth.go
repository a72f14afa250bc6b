package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/handlers/render"
	"github.com/nkiryanov/smallsquare/internal/handlers/userctx"
	"github.com/nkiryanov/smallsquare/internal/models"
	"github.com/nkiryanov/smallsquare/internal/service/auth/tokenmanager"
)

type authenticator interface {
	// Return claims of live access token
	Authenticate(ctx context.Context, access string) (*tokenmanager.Claims, error)
}

// AuthMiddleware puts user of the bearer access token to request context
// The user is built from token claims, the store is not queried
func AuthMiddleware(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := a.Authenticate(r.Context(), access)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrExpiredToken):
					render.ServiceError(w, "Access token expired", http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrRevokedToken):
					render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				default:
					render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			user := models.User{
				ID:       claims.UserID(),
				Username: claims.Username,
				Nickname: claims.Nickname,
				Email:    claims.Email,
				Name:     claims.Name,
				Role:     claims.Role,
				IsActive: true,
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
