package generation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// Request validation errors
var (
	ErrEmptySourceText = errors.New("source text cannot be empty")
	ErrEmptyUserID     = errors.New("user ID cannot be empty")
	ErrEmptyCategory   = errors.New("category cannot be empty")
)

// Request describes one card generation call: the text to generate
// from and the scope the produced cards are filed under.
type Request struct {
	UserID     uuid.UUID
	SourceText string
	Category   string
	ListName   string
	Topic      string
}

// Validate checks the request before it reaches a provider.
func (r Request) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if r.SourceText == "" {
		return ErrEmptySourceText
	}
	if r.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Generator defines the interface for generating flashcards from text.
// This interface serves as a boundary between the application core and
// external AI/LLM services.
type Generator interface {
	// GenerateCards creates flashcards from the request's source text,
	// owned by the requesting user and scoped per the request.
	// Returns a non-empty slice of cards or an error from the package
	// taxonomy (see errors.go).
	GenerateCards(ctx context.Context, req Request) ([]*domain.Card, error)
}
