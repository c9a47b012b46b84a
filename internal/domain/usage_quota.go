package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UsageQuota validation errors
var (
	ErrEmptyQuotaUserID    = errors.New("usage quota user ID cannot be empty")
	ErrEmptyQuotaPeriodKey = errors.New("usage quota period key cannot be empty")
	ErrInvalidQuotaLimit   = errors.New("usage quota limit must be greater than 0")
	ErrInvalidUsageCount   = errors.New("usage count must be within [0, limit]")
)

// UsageQuota is a per-user, per-billing-period counter of metered AI
// operations. The invariant UsageCount <= Limit holds after every
// successful reservation; reservations that would violate it are
// rejected at the storage layer, never clamped.
type UsageQuota struct {
	UserID     uuid.UUID `json:"user_id"`
	PeriodKey  string    `json:"period_key"` // UTC calendar month, e.g. "2026-08"
	UsageCount int       `json:"usage_count"`
	Limit      int       `json:"limit"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks if the UsageQuota has valid data.
func (q *UsageQuota) Validate() error {
	if q.UserID == uuid.Nil {
		return ErrEmptyQuotaUserID
	}

	if q.PeriodKey == "" {
		return ErrEmptyQuotaPeriodKey
	}

	if q.Limit <= 0 {
		return ErrInvalidQuotaLimit
	}

	if q.UsageCount < 0 || q.UsageCount > q.Limit {
		return ErrInvalidUsageCount
	}

	return nil
}

// Remaining returns the unreserved portion of the quota, never negative.
func (q *UsageQuota) Remaining() int {
	if q.UsageCount >= q.Limit {
		return 0
	}
	return q.Limit - q.UsageCount
}

// PeriodKeyFor returns the quota period key for the given instant:
// the UTC calendar month the instant falls in.
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}
