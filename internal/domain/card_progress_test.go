package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCardProgress(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	progress, err := NewCardProgress(userID, cardID)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if progress.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, progress.UserID)
	}

	if progress.CardID != cardID {
		t.Errorf("Expected card ID %s, got %s", cardID, progress.CardID)
	}

	if progress.State != StateNew {
		t.Errorf("Expected state new, got %s", progress.State)
	}

	if progress.EaseFactor != DefaultEaseFactor {
		t.Errorf("Expected ease factor %v, got %v", DefaultEaseFactor, progress.EaseFactor)
	}

	if progress.ReviewCount != 0 {
		t.Errorf("Expected review count 0, got %d", progress.ReviewCount)
	}

	now := time.Now().UTC()
	maxDiff := 2 * time.Second
	if progress.NextReviewAt.Sub(now) > maxDiff || now.Sub(progress.NextReviewAt) > maxDiff {
		t.Errorf("Expected NextReviewAt close to now, got %v", progress.NextReviewAt)
	}

	if !progress.Due(now.Add(time.Second)) {
		t.Error("Expected a new card to be due immediately")
	}
}

func TestNewCardProgressValidation(t *testing.T) {
	if _, err := NewCardProgress(uuid.Nil, uuid.New()); !errors.Is(err, ErrEmptyProgressUserID) {
		t.Errorf("Expected ErrEmptyProgressUserID, got %v", err)
	}

	if _, err := NewCardProgress(uuid.New(), uuid.Nil); !errors.Is(err, ErrEmptyProgressCardID) {
		t.Errorf("Expected ErrEmptyProgressCardID, got %v", err)
	}
}

func TestCardProgressValidate(t *testing.T) {
	valid := func(t *testing.T) *CardProgress {
		t.Helper()
		p, err := NewCardProgress(uuid.New(), uuid.New())
		if err != nil {
			t.Fatalf("failed to create progress: %v", err)
		}
		return p
	}

	testCases := []struct {
		name     string
		mutate   func(*CardProgress)
		expected error
	}{
		{
			name:     "ease factor below floor",
			mutate:   func(p *CardProgress) { p.EaseFactor = 1.2 },
			expected: ErrInvalidEaseFactor,
		},
		{
			name:     "ease factor above ceiling",
			mutate:   func(p *CardProgress) { p.EaseFactor = 2.6 },
			expected: ErrInvalidEaseFactor,
		},
		{
			name:     "negative interval",
			mutate:   func(p *CardProgress) { p.IntervalDays = -1 },
			expected: ErrInvalidInterval,
		},
		{
			name:     "negative step",
			mutate:   func(p *CardProgress) { p.CurrentStep = -1 },
			expected: ErrInvalidStep,
		},
		{
			name:     "unrecognized state",
			mutate:   func(p *CardProgress) { p.State = CardState("suspended") },
			expected: ErrInvalidState,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid(t)
			tc.mutate(p)
			if err := p.Validate(); !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestReviewOutcome(t *testing.T) {
	for _, o := range []ReviewOutcome{ReviewOutcomeAgain, ReviewOutcomeHard, ReviewOutcomeGood, ReviewOutcomeEasy} {
		if !o.IsValid() {
			t.Errorf("Expected outcome %s to be valid", o)
		}
	}

	if ReviewOutcome("perfect").IsValid() {
		t.Error("Expected unrecognized outcome to be invalid")
	}

	if ReviewOutcomeAgain.IsCorrect() {
		t.Error("Expected again to count as incorrect")
	}
	for _, o := range []ReviewOutcome{ReviewOutcomeHard, ReviewOutcomeGood, ReviewOutcomeEasy} {
		if !o.IsCorrect() {
			t.Errorf("Expected outcome %s to count as correct", o)
		}
	}
}

func TestCardProgressDue(t *testing.T) {
	p, err := NewCardProgress(uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("failed to create progress: %v", err)
	}

	now := time.Now().UTC()
	p.NextReviewAt = now.Add(time.Hour)

	if p.Due(now) {
		t.Error("Expected card scheduled an hour out to not be due")
	}
	if !p.Due(now.Add(time.Hour)) {
		t.Error("Expected card to be due exactly at its review time")
	}
	if !p.Due(now.Add(2 * time.Hour)) {
		t.Error("Expected card to be due after its review time")
	}
}
