package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// ReservationResult reports the outcome of a quota reservation attempt.
// UsageCount reflects the stored counter after the call: incremented on
// success, untouched on rejection.
type ReservationResult struct {
	Success    bool `json:"success"`
	UsageCount int  `json:"usage_count"`
	Limit      int  `json:"limit"`
	Remaining  int  `json:"remaining"`
}

// QuotaStore defines the interface for the per-user, per-period usage
// counter backing the metered AI generation feature.
type QuotaStore interface {
	// CheckAndReserve atomically checks remaining budget and reserves
	// count units against the (userID, periodKey) counter, creating the
	// counter with the given limit on first use of the period.
	//
	// The check and the increment are a single conditional update
	// evaluated by the storage layer: no interleaving of concurrent
	// calls for the same user can push the stored usage count past the
	// limit. A reservation that would exceed the limit is rejected
	// without mutating state (Success=false), which is a normal result,
	// not an error. Errors indicate storage failure only.
	CheckAndReserve(ctx context.Context, userID uuid.UUID, periodKey string, count, limit int) (*ReservationResult, error)

	// Get returns the counter for the period, for advisory display.
	// The value may be stale by the time the caller reads it.
	// Returns ErrQuotaNotFound if no reservation has happened yet in
	// the period.
	Get(ctx context.Context, userID uuid.UUID, periodKey string) (*domain.UsageQuota, error)
}
