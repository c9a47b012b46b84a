package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/recall-api/internal/domain"
)

// ReviewRequest is the payload for submitting a card review.
type ReviewRequest struct {
	Outcome   string `json:"outcome" validate:"required,oneof=again hard good easy"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,uuid"`
}

// ImportantRequest is the payload for flipping a card's important flag.
type ImportantRequest struct {
	Important bool `json:"important"`
}

// GenerateRequest is the payload for AI card generation.
type GenerateRequest struct {
	SourceText string `json:"source_text" validate:"required"`
	Category   string `json:"category" validate:"required"`
	ListName   string `json:"list_name,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

// CardResponse is the API shape of a card.
type CardResponse struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	ListName  string          `json:"list_name,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionResponse is the assembled study session.
type SessionResponse struct {
	Cards []CardResponse `json:"cards"`
	Count int            `json:"count"`
}

// ProgressResponse is the API shape of a progress record, returned
// after a review submission.
type ProgressResponse struct {
	CardID       string    `json:"card_id"`
	State        string    `json:"state"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	NextReviewAt time.Time `json:"next_review_at"`
	ReviewCount  int       `json:"review_count"`
	LastCorrect  bool      `json:"last_correct"`
	Important    bool      `json:"important"`
}

// AttemptResponse is a single entry in a card's review history.
type AttemptResponse struct {
	AttemptedAt time.Time `json:"attempted_at"`
	IsCorrect   bool      `json:"is_correct"`
	SessionID   string    `json:"session_id,omitempty"`
}

// DailyStatsResponse is one day of aggregated review activity.
type DailyStatsResponse struct {
	Date      string  `json:"date"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Total     int     `json:"total"`
	Accuracy  float64 `json:"accuracy"`
}

// QuotaResponse reports the user's generation quota for the current
// period.
type QuotaResponse struct {
	PeriodKey  string `json:"period_key"`
	UsageCount int    `json:"usage_count"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// GenerateResponse is returned after a successful generation run.
type GenerateResponse struct {
	Cards      []CardResponse `json:"cards"`
	UsageCount int            `json:"usage_count"`
	Limit      int            `json:"limit"`
}

func toCardResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:        card.ID.String(),
		Category:  card.Category,
		ListName:  card.ListName,
		Topic:     card.Topic,
		Content:   card.Content,
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}
}

func toCardResponses(cards []*domain.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card))
	}
	return out
}

func toProgressResponse(progress *domain.CardProgress) ProgressResponse {
	return ProgressResponse{
		CardID:       progress.CardID.String(),
		State:        string(progress.State),
		EaseFactor:   progress.EaseFactor,
		IntervalDays: progress.IntervalDays,
		NextReviewAt: progress.NextReviewAt,
		ReviewCount:  progress.ReviewCount,
		LastCorrect:  progress.LastCorrect,
		Important:    progress.Important,
	}
}

func toAttemptResponses(attempts []*domain.SessionAttempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		resp := AttemptResponse{
			AttemptedAt: attempt.AttemptedAt,
			IsCorrect:   attempt.IsCorrect,
		}
		if attempt.SessionID != uuid.Nil {
			resp.SessionID = attempt.SessionID.String()
		}
		out = append(out, resp)
	}
	return out
}

func toDailyStatsResponses(stats []*domain.DailyReviewStats) []DailyStatsResponse {
	out := make([]DailyStatsResponse, 0, len(stats))
	for _, day := range stats {
		out = append(out, DailyStatsResponse{
			Date:      day.Date.Format("2006-01-02"),
			Correct:   day.Correct,
			Incorrect: day.Incorrect,
			Total:     day.Total,
			Accuracy:  day.Accuracy,
		})
	}
	return out
}
