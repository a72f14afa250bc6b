package handlers

import (
	"net/http"

	"github.com/nkiryanov/smallsquare/internal/handlers/render"
	"github.com/nkiryanov/smallsquare/internal/logger"
)

type mailRequest struct {
	Email string `json:"email" validate:"notblank,email"`
}

func handleSendPasswordReset(mail mailService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[mailRequest](w, r)
		if err != nil {
			return
		}

		if err := mail.SendPasswordReset(r.Context(), data.Email); err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSONWithStatus(w, messageResponse{Message: "Password reset mail sent"}, http.StatusAccepted)
	})
}

func handleSendEmailVerification(mail mailService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[mailRequest](w, r)
		if err != nil {
			return
		}

		if err := mail.SendEmailVerification(r.Context(), data.Email); err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSONWithStatus(w, messageResponse{Message: "Verification mail sent"}, http.StatusAccepted)
	})
}

func handleVerifyEmail(mail mailService, l logger.Logger) http.Handler {
	type VerifyEmailRequest struct {
		Token string `json:"token" validate:"notblank"`
	}
	type VerifyEmailResponse struct {
		Email    string `json:"email"`
		Verified bool   `json:"verified"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[VerifyEmailRequest](w, r)
		if err != nil {
			return
		}

		email, err := mail.VerifyEmail(r.Context(), data.Token)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, VerifyEmailResponse{Email: email, Verified: true})
	})
}
