package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the result of a card review.
type ReviewOutcome string

// Possible review outcome values
const (
	ReviewOutcomeAgain ReviewOutcome = "again"
	ReviewOutcomeHard  ReviewOutcome = "hard"
	ReviewOutcomeGood  ReviewOutcome = "good"
	ReviewOutcomeEasy  ReviewOutcome = "easy"
)

// IsValid reports whether the outcome is one of the recognized values.
func (o ReviewOutcome) IsValid() bool {
	switch o {
	case ReviewOutcomeAgain, ReviewOutcomeHard, ReviewOutcomeGood, ReviewOutcomeEasy:
		return true
	default:
		return false
	}
}

// IsCorrect reports whether the outcome counts as a correct answer.
// "again" is the only failing outcome; hard/good/easy are all correct
// with varying confidence.
func (o ReviewOutcome) IsCorrect() bool {
	return o != ReviewOutcomeAgain
}

// CardState is the lifecycle stage of a card's review progress.
type CardState string

// Card lifecycle states. A card starts in StateNew, moves to
// StateLearning on its first review, graduates to StateReview, and
// drops to StateRelearning on a lapse before graduating back.
const (
	StateNew        CardState = "new"
	StateLearning   CardState = "learning"
	StateReview     CardState = "review"
	StateRelearning CardState = "relearning"
)

// IsValid reports whether the state is one of the four lifecycle stages.
func (s CardState) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}

// Ease factor bounds. These are invariants of the scheduling algorithm:
// every transition clamps the ease factor into this range.
const (
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	DefaultEaseFactor = 2.5
)

// Common validation errors for CardProgress
var (
	ErrEmptyProgressUserID = errors.New("card progress user ID cannot be empty")
	ErrEmptyProgressCardID = errors.New("card progress card ID cannot be empty")
	ErrInvalidInterval     = errors.New("interval must be greater than or equal to 0")
	ErrInvalidStep         = errors.New("current step must be greater than or equal to 0")
	ErrInvalidEaseFactor   = errors.New("ease factor must be within [1.3, 2.5]")
	ErrInvalidState        = errors.New("state must be one of new, learning, review, relearning")
)

// CardProgress tracks a user's spaced repetition state for a specific
// card. Exactly one record exists per (user, card) pair, created lazily
// on the first review and mutated only through the scheduler.
type CardProgress struct {
	UserID       uuid.UUID `json:"user_id"`
	CardID       uuid.UUID `json:"card_id"`
	State        CardState `json:"state"`
	CurrentStep  int       `json:"current_step"`  // Index into the learning/relearning step sequence
	EaseFactor   float64   `json:"ease_factor"`   // Interval growth multiplier, [1.3, 2.5]
	IntervalDays int       `json:"interval_days"` // Current review interval in days (review state)
	NextReviewAt time.Time `json:"next_review_at"`
	ReviewCount  int       `json:"review_count"` // Correct answers while in review state, monotonic
	LastCorrect  bool      `json:"last_correct"`
	Important    bool      `json:"important"` // User flag, never consulted by scheduling
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewCardProgress creates progress for a card the user has never
// reviewed. The card is available for review immediately.
func NewCardProgress(userID, cardID uuid.UUID) (*CardProgress, error) {
	now := time.Now().UTC()
	progress := &CardProgress{
		UserID:       userID,
		CardID:       cardID,
		State:        StateNew,
		CurrentStep:  0,
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 0,
		NextReviewAt: now, // New cards are due immediately
		ReviewCount:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the CardProgress has valid data.
// Returns an error if any field fails validation.
func (p *CardProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.CardID == uuid.Nil {
		return ErrEmptyProgressCardID
	}

	if !p.State.IsValid() {
		return ErrInvalidState
	}

	if p.CurrentStep < 0 {
		return ErrInvalidStep
	}

	if p.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if p.EaseFactor < MinEaseFactor || p.EaseFactor > MaxEaseFactor {
		return ErrInvalidEaseFactor
	}

	return nil
}

// Due reports whether the card is due for review at the given time.
func (p *CardProgress) Due(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}
