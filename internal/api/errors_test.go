package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/cardgen"
	"github.com/phrazzld/recall-api/internal/service/study"
	"github.com/phrazzld/recall-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"not owned", study.ErrNotOwned, http.StatusForbidden},
		{"card not found", study.ErrCardNotFound, http.StatusNotFound},
		{"store card not found", store.ErrCardNotFound, http.StatusNotFound},
		{"invalid outcome", study.ErrInvalidOutcome, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"quota exceeded", cardgen.ErrQuotaExceeded, http.StatusTooManyRequests},
		{"duplicate entity", store.ErrDuplicate, http.StatusConflict},
		{"progress exists", store.ErrProgressExists, http.StatusConflict},
		{"transient provider failure", generation.ErrTransientFailure, http.StatusBadGateway},
		{"content blocked", generation.ErrContentBlocked, http.StatusUnprocessableEntity},
		{"corrupt progress", study.ErrCorruptProgress, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{
			"wrapped quota exceeded",
			fmt.Errorf("%w: 20 of 20 used", cardgen.ErrQuotaExceeded),
			http.StatusTooManyRequests,
		},
		{
			"wrapped not owned",
			fmt.Errorf("submit review: %w", study.ErrNotOwned),
			http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal details never surface", func(t *testing.T) {
		t.Parallel()

		err := errors.New("pq: connection refused host=10.0.0.5 password=hunter2")
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
		assert.NotContains(t, msg, "hunter2")
	})

	t.Run("known errors get specific messages", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Monthly generation quota exceeded",
			GetSafeErrorMessage(cardgen.ErrQuotaExceeded))
		assert.Equal(t, "You do not own this card",
			GetSafeErrorMessage(study.ErrNotOwned))
		assert.Equal(t, "Outcome must be one of: again, hard, good, easy",
			GetSafeErrorMessage(study.ErrInvalidOutcome))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}
