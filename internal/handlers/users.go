package handlers

import (
	"net/http"

	"github.com/nkiryanov/smallsquare/internal/credentials"
	"github.com/nkiryanov/smallsquare/internal/handlers/render"
	"github.com/nkiryanov/smallsquare/internal/logger"
)

func handleSignup(auth authService, l logger.Logger) http.Handler {
	type SignupRequest struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		CheckPassword string `json:"checkPassword"`
		Nickname      string `json:"nickname"`
		Email         string `json:"email"`
		Name          string `json:"name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[SignupRequest](w, r)
		if err != nil {
			return
		}

		user, err := auth.Signup(r.Context(), credentials.SignupInput(data))
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type LoginRequest struct {
		Username string `json:"username" validate:"notblank"`
		Password string `json:"password" validate:"notblank"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, writeTokens(w, pair))
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type LogoutRequest struct {
		AccessToken  string `json:"accessToken" validate:"notblank"`
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LogoutRequest](w, r)
		if err != nil {
			return
		}

		refresh := refreshFromRequest(r, data.RefreshToken)
		if refresh == "" {
			render.FieldError(w, "refreshToken", "This field is required")
			return
		}

		if err := auth.Logout(r.Context(), data.AccessToken, refresh); err != nil {
			renderError(w, r, err, l)
			return
		}

		clearRefreshCookie(w)
		render.JSON(w, messageResponse{Message: "User logged out successfully"})
	})
}

// Refresh token is taken from body, or from cookie when body has none
func handleRefresh(auth authService, l logger.Logger) http.Handler {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[RefreshRequest](w, r)
		if err != nil {
			return
		}

		refresh := refreshFromRequest(r, data.RefreshToken)
		if refresh == "" {
			render.FieldError(w, "refreshToken", "This field is required")
			return
		}

		pair, err := auth.Refresh(r.Context(), refresh)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, writeTokens(w, pair))
	})
}

func handleResetPassword(auth authService, l logger.Logger) http.Handler {
	type ResetPasswordRequest struct {
		Token         string `json:"token" validate:"notblank"`
		NewPassword   string `json:"newPassword"`
		CheckPassword string `json:"checkPassword"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[ResetPasswordRequest](w, r)
		if err != nil {
			return
		}

		if err := auth.ResetPassword(r.Context(), data.Token, data.NewPassword, data.CheckPassword); err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, messageResponse{Message: "Password changed successfully"})
	})
}
