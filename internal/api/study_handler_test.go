package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/study"
	"github.com/phrazzld/recall-api/internal/store"
)

// mockStudyService is a function-field mock of study.Service.
type mockStudyService struct {
	selectSessionFn func(ctx context.Context, userID uuid.UUID, scope store.SessionScope, limit int) ([]*domain.Card, error)
	submitReviewFn  func(ctx context.Context, userID, cardID uuid.UUID, outcome domain.ReviewOutcome, sessionID uuid.UUID) (*domain.CardProgress, error)
	historyFn       func(ctx context.Context, userID, cardID uuid.UUID, limit int) ([]*domain.SessionAttempt, error)
	dailyStatsFn    func(ctx context.Context, userID uuid.UUID, category string, windowDays int) ([]*domain.DailyReviewStats, error)
	markImportantFn func(ctx context.Context, userID, cardID uuid.UUID, important bool) error
}

func (m *mockStudyService) SelectSession(
	ctx context.Context,
	userID uuid.UUID,
	scope store.SessionScope,
	limit int,
) ([]*domain.Card, error) {
	return m.selectSessionFn(ctx, userID, scope, limit)
}

func (m *mockStudyService) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	outcome domain.ReviewOutcome,
	sessionID uuid.UUID,
) (*domain.CardProgress, error) {
	return m.submitReviewFn(ctx, userID, cardID, outcome, sessionID)
}

func (m *mockStudyService) History(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.SessionAttempt, error) {
	return m.historyFn(ctx, userID, cardID, limit)
}

func (m *mockStudyService) DailyStats(
	ctx context.Context,
	userID uuid.UUID,
	category string,
	windowDays int,
) ([]*domain.DailyReviewStats, error) {
	return m.dailyStatsFn(ctx, userID, category, windowDays)
}

func (m *mockStudyService) MarkImportant(
	ctx context.Context,
	userID, cardID uuid.UUID,
	important bool,
) error {
	return m.markImportantFn(ctx, userID, cardID, important)
}

// withAuthedContext attaches the authenticated user ID and, when
// cardID is non-nil, the chi URL parameter "id".
func withAuthedContext(req *http.Request, userID uuid.UUID, cardID *uuid.UUID) *http.Request {
	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}
	if cardID != nil {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", cardID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func sampleCard(t *testing.T, userID uuid.UUID, category string) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, category, json.RawMessage(`{"front":"Q","back":"A"}`))
	require.NoError(t, err)
	return card
}

func TestGetSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("returns cards and count", func(t *testing.T) {
		t.Parallel()

		cards := []*domain.Card{
			sampleCard(t, userID, "spanish"),
			sampleCard(t, userID, "spanish"),
		}
		var gotScope store.SessionScope
		var gotLimit int
		svc := &mockStudyService{
			selectSessionFn: func(_ context.Context, _ uuid.UUID, scope store.SessionScope, limit int) ([]*domain.Card, error) {
				gotScope = scope
				gotLimit = limit
				return cards, nil
			},
		}
		handler := NewStudyHandler(svc, validator.New(), nil)

		req := httptest.NewRequest(
			http.MethodGet, "/api/study/session?category=spanish&limit=10", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetSession(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "spanish", gotScope.Category)
		assert.Equal(t, 10, gotLimit)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Len(t, resp.Cards, 2)
	})

	t.Run("rejects malformed limit", func(t *testing.T) {
		t.Parallel()

		svc := &mockStudyService{
			selectSessionFn: func(context.Context, uuid.UUID, store.SessionScope, int) ([]*domain.Card, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		handler := NewStudyHandler(svc, validator.New(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/study/session?limit=abc", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()

		handler := NewStudyHandler(&mockStudyService{}, validator.New(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/study/session", nil)
		rr := httptest.NewRecorder()

		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestSubmitReviewHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()

	newReviewRequest := func(t *testing.T, body string) *http.Request {
		t.Helper()
		req := httptest.NewRequest(
			http.MethodPost, "/api/cards/"+cardID.String()+"/review",
			bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return withAuthedContext(req, userID, &cardID)
	}

	t.Run("returns updated progress", func(t *testing.T) {
		t.Parallel()

		sessionID := uuid.New()
		var gotOutcome domain.ReviewOutcome
		var gotSessionID uuid.UUID
		svc := &mockStudyService{
			submitReviewFn: func(_ context.Context, _, cid uuid.UUID, outcome domain.ReviewOutcome, sid uuid.UUID) (*domain.CardProgress, error) {
				gotOutcome = outcome
				gotSessionID = sid
				return &domain.CardProgress{
					UserID:       userID,
					CardID:       cid,
					State:        domain.StateLearning,
					EaseFactor:   domain.DefaultEaseFactor,
					NextReviewAt: time.Now().UTC().Add(10 * time.Minute),
					LastCorrect:  true,
				}, nil
			},
		}
		handler := NewStudyHandler(svc, validator.New(), nil)

		body := `{"outcome":"good","session_id":"` + sessionID.String() + `"}`
		rr := httptest.NewRecorder()
		handler.SubmitReview(rr, newReviewRequest(t, body))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.ReviewOutcomeGood, gotOutcome)
		assert.Equal(t, sessionID, gotSessionID)

		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, string(domain.StateLearning), resp.State)
		assert.True(t, resp.LastCorrect)
	})

	t.Run("rejects unknown outcome before service", func(t *testing.T) {
		t.Parallel()

		svc := &mockStudyService{
			submitReviewFn: func(context.Context, uuid.UUID, uuid.UUID, domain.ReviewOutcome, uuid.UUID) (*domain.CardProgress, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		handler := NewStudyHandler(svc, validator.New(), nil)

		rr := httptest.NewRecorder()
		handler.SubmitReview(rr, newReviewRequest(t, `{"outcome":"perfect"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("maps service errors to statuses", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name       string
			serviceErr error
			wantStatus int
		}{
			{"not found", study.ErrCardNotFound, http.StatusNotFound},
			{"not owned", study.ErrNotOwned, http.StatusForbidden},
			{"corrupt state", study.ErrCorruptProgress, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				svc := &mockStudyService{
					submitReviewFn: func(context.Context, uuid.UUID, uuid.UUID, domain.ReviewOutcome, uuid.UUID) (*domain.CardProgress, error) {
						return nil, tc.serviceErr
					},
				}
				handler := NewStudyHandler(svc, validator.New(), nil)

				rr := httptest.NewRecorder()
				handler.SubmitReview(rr, newReviewRequest(t, `{"outcome":"good"}`))

				assert.Equal(t, tc.wantStatus, rr.Code)
			})
		}
	})

	t.Run("rejects malformed card ID", func(t *testing.T) {
		t.Parallel()

		handler := NewStudyHandler(&mockStudyService{}, validator.New(), nil)

		req := httptest.NewRequest(
			http.MethodPost, "/api/cards/not-a-uuid/review",
			bytes.NewBufferString(`{"outcome":"good"}`))
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "not-a-uuid")
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
		rr := httptest.NewRecorder()

		handler.SubmitReview(rr, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMarkImportantHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()

	var gotImportant bool
	svc := &mockStudyService{
		markImportantFn: func(_ context.Context, _, _ uuid.UUID, important bool) error {
			gotImportant = important
			return nil
		},
	}
	handler := NewStudyHandler(svc, validator.New(), nil)

	req := httptest.NewRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/important",
		bytes.NewBufferString(`{"important":true}`))
	req = withAuthedContext(req, userID, &cardID)
	rr := httptest.NewRecorder()

	handler.MarkImportant(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, gotImportant)
}

func TestGetHistoryHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()
	sessionID := uuid.New()

	attempts := []*domain.SessionAttempt{
		{
			ID:          uuid.New(),
			UserID:      userID,
			CardID:      cardID,
			AttemptedAt: time.Now().UTC(),
			IsCorrect:   true,
			SessionID:   sessionID,
		},
		{
			ID:          uuid.New(),
			UserID:      userID,
			CardID:      cardID,
			AttemptedAt: time.Now().UTC().Add(-time.Hour),
			IsCorrect:   false,
		},
	}
	svc := &mockStudyService{
		historyFn: func(context.Context, uuid.UUID, uuid.UUID, int) ([]*domain.SessionAttempt, error) {
			return attempts, nil
		},
	}
	handler := NewStudyHandler(svc, validator.New(), nil)

	req := httptest.NewRequest(
		http.MethodGet, "/api/cards/"+cardID.String()+"/history", nil)
	req = withAuthedContext(req, userID, &cardID)
	rr := httptest.NewRecorder()

	handler.GetHistory(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []AttemptResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, sessionID.String(), resp[0].SessionID)
	assert.Empty(t, resp[1].SessionID)
}

func TestGetDailyStatsHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("formats days as dates", func(t *testing.T) {
		t.Parallel()

		day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		var gotCategory string
		var gotWindow int
		svc := &mockStudyService{
			dailyStatsFn: func(_ context.Context, _ uuid.UUID, category string, windowDays int) ([]*domain.DailyReviewStats, error) {
				gotCategory = category
				gotWindow = windowDays
				return []*domain.DailyReviewStats{
					domain.NewDailyReviewStats(day, 3, 1),
				}, nil
			},
		}
		handler := NewStudyHandler(svc, validator.New(), nil)

		req := httptest.NewRequest(
			http.MethodGet, "/api/stats/daily?category=spanish&window_days=7", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetDailyStats(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "spanish", gotCategory)
		assert.Equal(t, 7, gotWindow)

		var resp []DailyStatsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "2025-06-15", resp[0].Date)
		assert.Equal(t, 4, resp[0].Total)
		assert.InDelta(t, 0.75, resp[0].Accuracy, 0.001)
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		t.Parallel()

		handler := NewStudyHandler(&mockStudyService{}, validator.New(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/stats/daily?window_days=0", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetDailyStats(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
