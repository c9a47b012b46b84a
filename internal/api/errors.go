package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/cardgen"
	"github.com/phrazzld/recall-api/internal/service/study"
	"github.com/phrazzld/recall-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
// Unrecognized errors default to 500 so nothing internal leaks via a
// surprising status.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, study.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, study.ErrInvalidOutcome),
		errors.Is(err, generation.ErrEmptySourceText),
		errors.Is(err, generation.ErrEmptyCategory),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Concurrent-write collisions the caller can simply retry
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Quota exhaustion
	case errors.Is(err, cardgen.ErrQuotaExceeded):
		return http.StatusTooManyRequests

	// Upstream generation failures
	case errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	// Safety blocks are a property of the submitted content
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	default:
		// Includes study.ErrCorruptProgress and storage failures.
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal details never appear here; they go to the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, study.ErrNotOwned):
		return "You do not own this card"

	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Card not found"

	case errors.Is(err, study.ErrInvalidOutcome):
		return "Outcome must be one of: again, hard, good, easy"

	case errors.Is(err, generation.ErrEmptySourceText):
		return "Source text is required"

	case errors.Is(err, generation.ErrEmptyCategory):
		return "Category is required"

	case errors.Is(err, store.ErrDuplicate):
		return "The request conflicted with a concurrent update, please retry"

	case errors.Is(err, cardgen.ErrQuotaExceeded):
		return "Monthly generation quota exceeded"

	case errors.Is(err, generation.ErrContentBlocked):
		return "The submitted text was rejected by content safety filters"

	case errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse):
		return "Card generation is temporarily unavailable"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and sanitized message for
// err and logs the full error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
