package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionAttempt validation errors
var (
	ErrEmptyAttemptUserID = errors.New("session attempt user ID cannot be empty")
	ErrEmptyAttemptCardID = errors.New("session attempt card ID cannot be empty")
	ErrZeroAttemptTime    = errors.New("session attempt time cannot be zero")
)

// SessionAttempt records a single answered card within a study session.
// Attempts are append-only: they are never mutated, and are removed only
// by the retention sweep once they age past the retention horizon.
type SessionAttempt struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CardID      uuid.UUID `json:"card_id"`
	AttemptedAt time.Time `json:"attempted_at"`
	IsCorrect   bool      `json:"is_correct"`
	SessionID   uuid.UUID `json:"session_id,omitempty"` // Optional; uuid.Nil when absent
}

// NewSessionAttempt creates an attempt record for an answered card.
// sessionID may be uuid.Nil when the client did not supply one.
func NewSessionAttempt(userID, cardID uuid.UUID, isCorrect bool, sessionID uuid.UUID) (*SessionAttempt, error) {
	attempt := &SessionAttempt{
		ID:          uuid.New(),
		UserID:      userID,
		CardID:      cardID,
		AttemptedAt: time.Now().UTC(),
		IsCorrect:   isCorrect,
		SessionID:   sessionID,
	}

	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Validate checks if the SessionAttempt has valid data.
func (a *SessionAttempt) Validate() error {
	if a.UserID == uuid.Nil {
		return ErrEmptyAttemptUserID
	}

	if a.CardID == uuid.Nil {
		return ErrEmptyAttemptCardID
	}

	if a.AttemptedAt.IsZero() {
		return ErrZeroAttemptTime
	}

	return nil
}

// DailyReviewStats aggregates a user's attempts for one calendar day.
// Days with no attempts are omitted from reports rather than zero-filled.
type DailyReviewStats struct {
	Date      time.Time `json:"date"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	Total     int       `json:"total"`
	Accuracy  float64   `json:"accuracy"`
}

// NewDailyReviewStats builds a stats entry from raw correct/incorrect counts,
// deriving the total and accuracy. Accuracy is zero when there are no attempts.
func NewDailyReviewStats(date time.Time, correct, incorrect int) *DailyReviewStats {
	stats := &DailyReviewStats{
		Date:      date,
		Correct:   correct,
		Incorrect: incorrect,
		Total:     correct + incorrect,
	}
	if stats.Total > 0 {
		stats.Accuracy = float64(correct) / float64(stats.Total)
	}
	return stats
}
