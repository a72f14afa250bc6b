package handlers

import (
	"net/http"

	"github.com/nkiryanov/smallsquare/internal/credentials"
	"github.com/nkiryanov/smallsquare/internal/handlers/render"
	"github.com/nkiryanov/smallsquare/internal/handlers/userctx"
	"github.com/nkiryanov/smallsquare/internal/logger"
)

// Handlers below are wrapped with auth middleware, so user is always in context

func handleMe(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := userctx.FromContext(r.Context())

		user, err := users.Me(r.Context(), current.ID)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleUpdateProfile(users userService, l logger.Logger) http.Handler {
	type UpdateProfileRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[UpdateProfileRequest](w, r)
		if err != nil {
			return
		}

		user, err := users.UpdateProfile(r.Context(), current.ID, credentials.ProfileInput(data))
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleChangePassword(auth authService, l logger.Logger) http.Handler {
	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"notblank"`
		NewPassword     string `json:"newPassword"`
		CheckPassword   string `json:"checkPassword"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
		if err != nil {
			return
		}

		err = auth.ChangePassword(r.Context(), current.ID, data.CurrentPassword, data.NewPassword, data.CheckPassword)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, messageResponse{Message: "Password changed successfully"})
	})
}

func handleDeactivate(auth authService, l logger.Logger) http.Handler {
	type DeactivateRequest struct {
		Password string `json:"password" validate:"notblank"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[DeactivateRequest](w, r)
		if err != nil {
			return
		}

		if err := auth.Deactivate(r.Context(), current.ID, data.Password); err != nil {
			renderError(w, r, err, l)
			return
		}

		clearRefreshCookie(w)
		render.JSON(w, messageResponse{Message: "User deactivated successfully"})
	})
}
