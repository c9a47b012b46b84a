package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// AttemptStore defines the interface for the session attempt log.
// The log is append-only: rows are never mutated, only inserted by
// Record and bulk-deleted by the retention sweep via Purge.
type AttemptStore interface {
	// Record appends an attempt. No deduplication is performed; every
	// answered card produces exactly one row.
	Record(ctx context.Context, attempt *domain.SessionAttempt) error

	// RecentlyAttempted returns the set of card IDs the user attempted
	// at or after since. Reads are consistent with the user's own
	// writes: a card recorded just before this call is in the result.
	RecentlyAttempted(ctx context.Context, userID uuid.UUID, since time.Time) (map[uuid.UUID]struct{}, error)

	// History returns the user's most recent attempts for a card,
	// newest first, at most limit rows.
	History(ctx context.Context, userID, cardID uuid.UUID, limit int) ([]*domain.SessionAttempt, error)

	// Purge deletes the user's attempts strictly older than olderThan.
	// Idempotent and safe to run concurrently with writes. Returns the
	// number of rows removed.
	Purge(ctx context.Context, userID uuid.UUID, olderThan time.Time) (int64, error)

	// StaleUsers lists the users who still have attempts older than
	// olderThan. The retention sweep iterates this and purges per
	// user, keeping each delete bounded to one user's rows.
	StaleUsers(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)

	// DailyHistogram aggregates the user's attempts on cards in the
	// given category over the last windowDays calendar days into
	// per-day correct/incorrect/total/accuracy buckets, ascending by
	// date. Days with no attempts are omitted, not zero-filled.
	DailyHistogram(ctx context.Context, userID uuid.UUID, category string, windowDays int) ([]*domain.DailyReviewStats, error)
}
