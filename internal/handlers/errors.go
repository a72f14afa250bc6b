package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/smallsquare/internal/apperrors"
	"github.com/nkiryanov/smallsquare/internal/handlers/render"
	"github.com/nkiryanov/smallsquare/internal/logger"
)

var statusByError = []struct {
	err     error
	code    int
	message string
}{
	{apperrors.ErrUsernameTaken, http.StatusConflict, "Username is already taken"},
	{apperrors.ErrEmailTaken, http.StatusConflict, "Email is already taken"},
	{apperrors.ErrNicknameTaken, http.StatusConflict, "Nickname is already taken"},
	{apperrors.ErrDuplicate, http.StatusConflict, "User already exists"},
	{apperrors.ErrWrongPassword, http.StatusUnauthorized, "Wrong password"},
	{apperrors.ErrConfirmationMismatch, http.StatusBadRequest, "Password and its confirmation differ"},
	{apperrors.ErrSamePassword, http.StatusBadRequest, "New password must differ from the current one"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{apperrors.ErrResetTokenNotFound, http.StatusNotFound, "Password reset token not found"},
	{apperrors.ErrVerificationTokenNotFound, http.StatusNotFound, "Verification token not found"},
	{apperrors.ErrNotFound, http.StatusNotFound, "Not found"},
	{apperrors.ErrInactiveAccount, http.StatusForbidden, "Account is deactivated"},
	{apperrors.ErrEmailNotVerified, http.StatusForbidden, "Email is not verified"},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{apperrors.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
	{apperrors.ErrRevokedToken, http.StatusUnauthorized, "Token revoked"},
}

var validationMessages = map[apperrors.ValidationKind]string{
	apperrors.KindBlank:   "This field is required",
	apperrors.KindPattern: "Value has wrong format",
}

// renderError writes status code the error maps to
// Unknown errors are logged and hidden behind 500
func renderError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		render.FieldError(w, verr.Field, validationMessages[verr.Kind])
		return
	}

	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			render.ServiceError(w, s.message, s.code)
			return
		}
	}

	l.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
