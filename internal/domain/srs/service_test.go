package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

func TestSchedulerValidation(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	now := time.Now().UTC()

	t.Run("nil progress is rejected", func(t *testing.T) {
		_, err := scheduler.Schedule(nil, domain.ReviewOutcomeGood, now)
		if !errors.Is(err, ErrNilProgress) {
			t.Errorf("Expected ErrNilProgress, got %v", err)
		}
	})

	t.Run("unrecognized outcome is rejected", func(t *testing.T) {
		p := newProgress(t)
		_, err := scheduler.Schedule(p, domain.ReviewOutcome("brilliant"), now)
		if !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("Expected ErrInvalidOutcome, got %v", err)
		}
	})

	t.Run("empty outcome is rejected", func(t *testing.T) {
		p := newProgress(t)
		_, err := scheduler.Schedule(p, domain.ReviewOutcome(""), now)
		if !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("Expected ErrInvalidOutcome, got %v", err)
		}
	})

	t.Run("corrupt state is rejected not coerced", func(t *testing.T) {
		p := newProgress(t)
		p.State = domain.CardState("archived")
		_, err := scheduler.Schedule(p, domain.ReviewOutcomeGood, now)
		if !errors.Is(err, ErrCorruptState) {
			t.Errorf("Expected ErrCorruptState, got %v", err)
		}
	})
}

func TestSchedulerDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	scheduler := NewDefaultScheduler()
	now := time.Now().UTC()

	p, err := domain.NewCardProgress(uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("failed to create progress: %v", err)
	}
	before := *p

	if _, err := scheduler.Schedule(p, domain.ReviewOutcomeGood, now); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if *p != before {
		t.Errorf("Scheduler mutated its input: before %+v, after %+v", before, *p)
	}
}

func TestSchedulerWithCustomParams(t *testing.T) {
	t.Parallel()
	params := NewParams(ParamsConfig{
		LearningSteps:          []time.Duration{5 * time.Minute},
		GraduatingIntervalDays: 3,
	})
	scheduler := NewSchedulerWithParams(params)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	p := newProgress(t)
	next, err := scheduler.Schedule(p, domain.ReviewOutcomeGood, now)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	want := now.Add(5 * time.Minute)
	if !next.NextReviewAt.Equal(want) {
		t.Errorf("Expected next review %v, got %v", want, next.NextReviewAt)
	}

	// Single learning step: the next good answer graduates with the
	// configured interval.
	graduated, err := scheduler.Schedule(next, domain.ReviewOutcomeGood, now)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if graduated.State != domain.StateReview {
		t.Errorf("Expected state review, got %s", graduated.State)
	}
	if graduated.IntervalDays != 3 {
		t.Errorf("Expected interval 3, got %d", graduated.IntervalDays)
	}
}
