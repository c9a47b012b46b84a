// Package study implements the session selector and review submission
// flow that tie the card scheduler, the progress store and the attempt
// log together.
package study

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
)

// Common service errors. The API layer maps these to HTTP status codes
// with errors.Is.
var (
	// ErrCardNotFound indicates the referenced card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrNotOwned indicates the card belongs to a different user than
	// the one making the request.
	ErrNotOwned = errors.New("card is owned by another user")

	// ErrInvalidOutcome indicates the submitted review outcome is not
	// one of the recognized values.
	ErrInvalidOutcome = domain.ErrInvalidReviewOutcome

	// ErrCorruptProgress indicates a stored progress record carries an
	// unrecognized state. The record is rejected, never coerced.
	ErrCorruptProgress = domain.ErrCorruptProgressState
)

// Service orchestrates study sessions and review submissions.
type Service interface {
	// SelectSession assembles a study session for the user: all cards
	// matching the scope, minus cards answered inside the suppression
	// window, due cards first, shuffled within each tier, capped at
	// limit. A limit of zero or less falls back to the configured
	// session cap.
	SelectSession(
		ctx context.Context,
		userID uuid.UUID,
		scope store.SessionScope,
		limit int,
	) ([]*domain.Card, error)

	// SubmitReview records the user's answer to a card: the scheduler
	// computes the next progress record inside a transaction, and the
	// attempt log is appended after the transaction commits. Returns
	// the updated progress.
	//
	// sessionID is optional client-supplied correlation; pass uuid.Nil
	// when absent.
	SubmitReview(
		ctx context.Context,
		userID, cardID uuid.UUID,
		outcome domain.ReviewOutcome,
		sessionID uuid.UUID,
	) (*domain.CardProgress, error)

	// History returns the user's most recent attempts for a card,
	// newest first.
	History(ctx context.Context, userID, cardID uuid.UUID, limit int) ([]*domain.SessionAttempt, error)

	// DailyStats aggregates the user's attempts per calendar day over
	// the trailing window, optionally restricted to one category.
	DailyStats(
		ctx context.Context,
		userID uuid.UUID,
		category string,
		windowDays int,
	) ([]*domain.DailyReviewStats, error)

	// MarkImportant flips the user's important flag on a card. Display
	// only; scheduling never consults it.
	MarkImportant(ctx context.Context, userID, cardID uuid.UUID, important bool) error
}
