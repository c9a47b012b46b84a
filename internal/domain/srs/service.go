package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("card progress cannot be nil")

	// ErrInvalidOutcome is returned for outcome values outside the
	// recognized set. Aliased to the domain error so callers can match
	// at either layer.
	ErrInvalidOutcome = domain.ErrInvalidReviewOutcome

	// ErrCorruptState is returned when a record's state is not one of
	// the four lifecycle stages. The record is rejected, not repaired.
	ErrCorruptState = domain.ErrCorruptProgressState
)

// Scheduler defines the interface for spaced-repetition scheduling.
// Implementations must be pure: no I/O, no hidden randomness, and a
// new progress record returned rather than the input mutated.
type Scheduler interface {
	// Schedule computes the next progress record for a review outcome.
	Schedule(
		progress *domain.CardProgress,
		outcome domain.ReviewOutcome,
		now time.Time,
	) (*domain.CardProgress, error)
}

// defaultScheduler is the standard implementation of the Scheduler interface.
type defaultScheduler struct {
	params *Params
}

// NewDefaultScheduler creates a new scheduler with default parameters.
func NewDefaultScheduler() Scheduler {
	return &defaultScheduler{
		params: NewDefaultParams(),
	}
}

// NewSchedulerWithParams creates a new scheduler with custom parameters.
func NewSchedulerWithParams(params *Params) Scheduler {
	return &defaultScheduler{
		params: params,
	}
}

// Schedule implements the Scheduler interface.
func (s *defaultScheduler) Schedule(
	progress *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if !outcome.IsValid() {
		return nil, ErrInvalidOutcome
	}

	next := nextProgress(progress, outcome, now, s.params)
	if next == nil {
		return nil, ErrCorruptState
	}

	return next, nil
}
