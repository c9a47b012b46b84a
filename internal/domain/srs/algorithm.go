package srs

import (
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// nextEaseFactor applies the outcome's ease adjustment and clamps the
// result into [MinEaseFactor, MaxEaseFactor]. The ease factor governs
// how quickly review intervals grow; lapses and hard answers lower it,
// easy answers raise it, and good answers leave it untouched.
func nextEaseFactor(currentEF float64, outcome domain.ReviewOutcome, params *Params) float64 {
	newEF := currentEF + params.EaseFactorAdjustment[outcome]

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// nextReviewInterval grows the current interval for a correct answer in
// the review state. Good answers multiply by the ease factor directly;
// Hard answers use a smaller fixed modifier, Easy answers a larger one
// on top of the ease factor. Growth is capped at MaxIntervalDays per
// step and the result is always at least one day longer than before.
func nextReviewInterval(
	currentDays int,
	easeFactor float64,
	outcome domain.ReviewOutcome,
	params *Params,
) int {
	var modifier float64
	switch outcome {
	case domain.ReviewOutcomeHard:
		modifier = params.HardIntervalModifier
	case domain.ReviewOutcomeEasy:
		modifier = params.EasyIntervalModifier * easeFactor
	default:
		// Good: the ease factor is the modifier
		modifier = easeFactor
	}

	next := int(float64(currentDays) * modifier)
	if next <= currentDays {
		next = currentDays + 1
	}
	if next > params.MaxIntervalDays {
		next = params.MaxIntervalDays
	}

	return next
}

// lapsedInterval computes the review interval a card returns to after
// completing the relearning steps, scaling the pre-lapse interval down
// by the lapse multiplier with a floor of one day.
func lapsedInterval(preLapseDays int, params *Params) int {
	next := int(float64(preLapseDays) * params.LapseIntervalMultiplier)
	if next < 1 {
		next = 1
	}
	return next
}

// stepInterval returns the delay for the given step index in a step
// sequence, clamping the index to the final step.
func stepInterval(steps []time.Duration, step int) time.Duration {
	if step >= len(steps) {
		step = len(steps) - 1
	}
	if step < 0 {
		step = 0
	}
	return steps[step]
}

// clone copies a progress record so transitions stay free of aliasing;
// the scheduler never mutates its input.
func clone(p *domain.CardProgress) *domain.CardProgress {
	c := *p
	return &c
}

// scheduleNew handles the first review of an unseen card.
// Every first review moves the card into the learning state at step
// zero, except an Easy answer which graduates it straight to review.
func scheduleNew(
	p *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	next := clone(p)

	if outcome == domain.ReviewOutcomeEasy {
		next.State = domain.StateReview
		next.CurrentStep = 0
		next.IntervalDays = params.EasyIntervalDays
		next.NextReviewAt = now.AddDate(0, 0, params.EasyIntervalDays)
		return next
	}

	next.State = domain.StateLearning
	next.CurrentStep = 0
	next.NextReviewAt = now.Add(stepInterval(params.LearningSteps, 0))
	return next
}

// scheduleSteps advances a card through a learning or relearning step
// sequence. Again resets to step zero, Hard repeats the current step,
// Good advances one step, and Easy jumps straight to graduation. When
// the sequence is exhausted the card graduates into the review state
// with graduationDays as its initial interval.
func scheduleSteps(
	p *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
	steps []time.Duration,
	graduationDays int,
	params *Params,
) *domain.CardProgress {
	next := clone(p)

	switch outcome {
	case domain.ReviewOutcomeAgain:
		next.CurrentStep = 0
		next.NextReviewAt = now.Add(stepInterval(steps, 0))
		return next

	case domain.ReviewOutcomeHard:
		next.NextReviewAt = now.Add(stepInterval(steps, next.CurrentStep))
		return next

	case domain.ReviewOutcomeEasy:
		return graduate(next, now, graduationDays)

	default:
		// Good: advance; graduate once the sequence is exhausted
		next.CurrentStep++
		if next.CurrentStep >= len(steps) {
			return graduate(next, now, graduationDays)
		}
		next.NextReviewAt = now.Add(stepInterval(steps, next.CurrentStep))
		return next
	}
}

// graduate moves a card into the review state with the given initial
// interval, preserving the accumulated ease factor and review count.
func graduate(p *domain.CardProgress, now time.Time, intervalDays int) *domain.CardProgress {
	p.State = domain.StateReview
	p.CurrentStep = 0
	p.IntervalDays = intervalDays
	p.NextReviewAt = now.AddDate(0, 0, intervalDays)
	return p
}

// scheduleReview handles an answer for a card in the review state.
// Correct answers grow the interval and bump the review count; a lapse
// drops the card into relearning with a penalized (but never reset)
// ease factor, keeping the pre-lapse interval for later graduation.
func scheduleReview(
	p *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	next := clone(p)
	next.EaseFactor = nextEaseFactor(p.EaseFactor, outcome, params)

	if outcome == domain.ReviewOutcomeAgain {
		next.State = domain.StateRelearning
		next.CurrentStep = 0
		next.NextReviewAt = now.Add(stepInterval(params.RelearningSteps, 0))
		// IntervalDays deliberately kept: relearning graduation scales it
		return next
	}

	next.ReviewCount++
	next.IntervalDays = nextReviewInterval(p.IntervalDays, next.EaseFactor, outcome, params)
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	return next
}

// scheduleRelearning walks the relearning steps. It mirrors learning
// but graduates back to review (never to new), restoring a scaled-down
// version of the pre-lapse interval.
func scheduleRelearning(
	p *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	return scheduleSteps(p, outcome, now,
		params.RelearningSteps, lapsedInterval(p.IntervalDays, params), params)
}

// nextProgress computes the full state transition for a review outcome.
// It is deterministic given identical inputs and pattern-matches
// exhaustively over the four lifecycle states; an unrecognized state is
// the caller's signal of a corrupt record, reported as nil.
func nextProgress(
	p *domain.CardProgress,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	var next *domain.CardProgress

	switch p.State {
	case domain.StateNew:
		next = scheduleNew(p, outcome, now, params)
	case domain.StateLearning:
		next = scheduleSteps(p, outcome, now,
			params.LearningSteps, learningGraduationDays(p, outcome, params), params)
	case domain.StateReview:
		next = scheduleReview(p, outcome, now, params)
	case domain.StateRelearning:
		next = scheduleRelearning(p, outcome, now, params)
	default:
		return nil
	}

	next.LastCorrect = outcome.IsCorrect()
	next.UpdatedAt = now
	return next
}

// learningGraduationDays picks the initial review interval granted when
// a card graduates out of learning: the easy interval for an Easy jump,
// the standard graduating interval otherwise.
func learningGraduationDays(p *domain.CardProgress, outcome domain.ReviewOutcome, params *Params) int {
	if outcome == domain.ReviewOutcomeEasy {
		return params.EasyIntervalDays
	}
	return params.GraduatingIntervalDays
}
