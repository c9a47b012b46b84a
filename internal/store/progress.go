package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// ProgressStore defines the interface for card progress persistence.
// Progress rows are owned by the study service: they are created lazily
// on first review and mutated only with scheduler output.
type ProgressStore interface {
	// Create saves a new progress row.
	// Returns validation errors if the data is invalid and
	// ErrProgressExists if a row already exists for the (user, card) pair.
	Create(ctx context.Context, progress *domain.CardProgress) error

	// Get retrieves progress by the combination of user ID and card ID.
	// Returns ErrProgressNotFound if no row exists. No row locking is
	// taken; do not use this when you plan to write the row back.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// GetForUpdate retrieves progress with a row-level lock using
	// SELECT .. FOR UPDATE. Use within a transaction when the row will
	// be updated, so concurrent answers to the same card each compute
	// from a consistent read.
	// Returns ErrProgressNotFound if no row exists.
	GetForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// Update modifies an existing progress row, identified by the
	// UserID and CardID fields of the value.
	// Returns ErrProgressNotFound if no row exists.
	Update(ctx context.Context, progress *domain.CardProgress) error

	// GetMap retrieves the progress rows a user has for the given cards,
	// keyed by card ID. Cards the user has never reviewed are simply
	// absent from the result.
	GetMap(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]*domain.CardProgress, error)

	// SetImportant flips the user's important flag for a card. The flag
	// is display-only and never consulted by scheduling; a missing
	// progress row is created in the new state with the flag applied.
	SetImportant(ctx context.Context, userID, cardID uuid.UUID, important bool) error

	// WithTx returns a new ProgressStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProgressStore
}
