package srs

import (
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Step sequences for the learning and relearning states. Steps are
	// short intra-day intervals; a card graduates to the review state
	// once it advances past the last step.
	LearningSteps   []time.Duration
	RelearningSteps []time.Duration

	// Intervals (in days) granted on graduation out of the learning state.
	GraduatingIntervalDays int
	EasyIntervalDays       int

	// Ease factor adjustment applied per review outcome, before clamping.
	EaseFactorAdjustment map[domain.ReviewOutcome]float64

	// Interval growth modifiers for review-state answers. Good answers
	// multiply the interval by the ease factor directly; Hard and Easy
	// use these modifiers (Easy additionally multiplies by ease).
	HardIntervalModifier float64
	EasyIntervalModifier float64

	// LapseIntervalMultiplier scales the pre-lapse interval when a card
	// graduates out of relearning back into review.
	LapseIntervalMultiplier float64

	// MaxIntervalDays caps interval growth per step so a bad ease factor
	// or input error cannot produce runaway schedules.
	MaxIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance. Zero values leave the default in place.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	LearningSteps   []time.Duration
	RelearningSteps []time.Duration

	GraduatingIntervalDays int
	EasyIntervalDays       int

	AgainEaseFactorAdjustment float64
	HardEaseFactorAdjustment  float64
	EasyEaseFactorAdjustment  float64

	HardIntervalModifier float64
	EasyIntervalModifier float64

	LapseIntervalMultiplier float64
	MaxIntervalDays         int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: domain.MaxEaseFactor,

		// Two short learning steps: a failed or fresh card comes back
		// within the session, then within the hour.
		LearningSteps: []time.Duration{
			1 * time.Minute,
			10 * time.Minute,
		},
		RelearningSteps: []time.Duration{
			10 * time.Minute,
		},

		GraduatingIntervalDays: 1,
		EasyIntervalDays:       4,

		EaseFactorAdjustment: map[domain.ReviewOutcome]float64{
			domain.ReviewOutcomeAgain: -0.20,
			domain.ReviewOutcomeHard:  -0.15,
			domain.ReviewOutcomeGood:  0.0,
			domain.ReviewOutcomeEasy:  0.15,
		},

		HardIntervalModifier: 1.2,
		EasyIntervalModifier: 1.3,

		LapseIntervalMultiplier: 0.5,

		MaxIntervalDays: 365,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Fields left at their zero value keep the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	if len(config.LearningSteps) > 0 {
		params.LearningSteps = config.LearningSteps
	}
	if len(config.RelearningSteps) > 0 {
		params.RelearningSteps = config.RelearningSteps
	}

	if config.GraduatingIntervalDays > 0 {
		params.GraduatingIntervalDays = config.GraduatingIntervalDays
	}
	if config.EasyIntervalDays > 0 {
		params.EasyIntervalDays = config.EasyIntervalDays
	}

	if config.AgainEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeAgain] = config.AgainEaseFactorAdjustment
	}
	if config.HardEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeHard] = config.HardEaseFactorAdjustment
	}
	if config.EasyEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeEasy] = config.EasyEaseFactorAdjustment
	}

	if config.HardIntervalModifier > 0 {
		params.HardIntervalModifier = config.HardIntervalModifier
	}
	if config.EasyIntervalModifier > 0 {
		params.EasyIntervalModifier = config.EasyIntervalModifier
	}

	if config.LapseIntervalMultiplier > 0 {
		params.LapseIntervalMultiplier = config.LapseIntervalMultiplier
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}

	return params
}
