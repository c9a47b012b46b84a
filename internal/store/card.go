package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// SessionScope narrows a study session to a slice of the user's cards.
// Exactly one of the fields is normally set; all empty selects every
// card the user owns.
type SessionScope struct {
	Category string
	ListName string
	Topic    string
}

// IsEmpty reports whether the scope places no restriction at all.
func (s SessionScope) IsEmpty() bool {
	return s.Category == "" && s.ListName == "" && s.Topic == ""
}

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves multiple cards to the store atomically.
	// Run it within a transaction via WithTx and store.RunInTransaction;
	// outside a transaction partial inserts are possible on failure.
	// Returns validation errors if any card data is invalid.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByScope retrieves all of a user's cards matching the scope,
	// in creation order. Returns an empty slice when nothing matches.
	ListByScope(ctx context.Context, userID uuid.UUID, scope SessionScope) ([]*domain.Card, error)

	// Delete removes a card from the store by its ID. Associated
	// progress and attempt rows are removed by ON DELETE CASCADE
	// constraints in the schema.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CardStore
}
