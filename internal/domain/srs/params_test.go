package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	if params.MinEaseFactor != 1.3 {
		t.Errorf("Expected min ease factor 1.3, got %v", params.MinEaseFactor)
	}
	if params.MaxEaseFactor != 2.5 {
		t.Errorf("Expected max ease factor 2.5, got %v", params.MaxEaseFactor)
	}
	if len(params.LearningSteps) == 0 {
		t.Error("Expected at least one learning step")
	}
	if len(params.RelearningSteps) == 0 {
		t.Error("Expected at least one relearning step")
	}
	if params.EaseFactorAdjustment[domain.ReviewOutcomeGood] != 0 {
		t.Error("Expected good outcome to leave ease factor unchanged")
	}
	if params.EaseFactorAdjustment[domain.ReviewOutcomeAgain] >= 0 {
		t.Error("Expected again outcome to penalize ease factor")
	}
	if params.MaxIntervalDays <= 0 {
		t.Error("Expected a positive interval cap")
	}
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel()
	params := NewParams(ParamsConfig{
		MinEaseFactor:             1.4,
		LearningSteps:             []time.Duration{2 * time.Minute, 20 * time.Minute, time.Hour},
		EasyIntervalDays:          7,
		AgainEaseFactorAdjustment: -0.3,
		MaxIntervalDays:           180,
	})

	if params.MinEaseFactor != 1.4 {
		t.Errorf("Expected overridden min ease factor 1.4, got %v", params.MinEaseFactor)
	}
	if len(params.LearningSteps) != 3 {
		t.Errorf("Expected 3 learning steps, got %d", len(params.LearningSteps))
	}
	if params.EasyIntervalDays != 7 {
		t.Errorf("Expected easy interval 7, got %d", params.EasyIntervalDays)
	}
	if params.EaseFactorAdjustment[domain.ReviewOutcomeAgain] != -0.3 {
		t.Errorf("Expected again adjustment -0.3, got %v",
			params.EaseFactorAdjustment[domain.ReviewOutcomeAgain])
	}
	if params.MaxIntervalDays != 180 {
		t.Errorf("Expected interval cap 180, got %d", params.MaxIntervalDays)
	}

	// Untouched fields keep defaults
	if params.MaxEaseFactor != 2.5 {
		t.Errorf("Expected default max ease factor 2.5, got %v", params.MaxEaseFactor)
	}
	if params.GraduatingIntervalDays != 1 {
		t.Errorf("Expected default graduating interval 1, got %d", params.GraduatingIntervalDays)
	}
}
