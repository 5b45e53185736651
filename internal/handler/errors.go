package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gamereviews/gamereviews/internal/handler/dto"
	"github.com/gamereviews/gamereviews/internal/middleware"
	"github.com/gamereviews/gamereviews/internal/service"
)

// errorWriter maps service errors to HTTP responses.
//
// By default it keeps the historical status codes: a non-owner edit is
// 401 and a duplicate review is 500. With strict set, those become 403
// and 409, and duplicate accounts become 409.
type errorWriter struct {
	logger *slog.Logger
	strict bool
}

func (e errorWriter) handle(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, e.pick(http.StatusBadRequest, http.StatusConflict), "EMAIL_EXISTS", "email already registered")
	case errors.Is(err, service.ErrUsernameExists):
		writeError(w, e.pick(http.StatusBadRequest, http.StatusConflict), "USERNAME_EXISTS", "username already taken")
	case errors.Is(err, service.ErrUserNotFound):
		// A valid token whose user no longer exists.
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
	case errors.Is(err, service.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, e.pick(http.StatusUnauthorized, http.StatusForbidden), "FORBIDDEN", "user not authorized")
	case errors.Is(err, service.ErrDuplicateReview):
		writeError(w, e.pick(http.StatusInternalServerError, http.StatusConflict), "DUPLICATE_REVIEW", "you have already reviewed this game")
	default:
		e.logger.Error("internal_error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func (e errorWriter) pick(legacy, strict int) int {
	if e.strict {
		return strict
	}
	return legacy
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
