package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/service/cardgen"
	"github.com/phrazzld/recall-api/internal/service/quota"
	"github.com/phrazzld/recall-api/internal/store"
)

// mockGenService is a function-field mock of cardgen.Service.
type mockGenService struct {
	generateFn func(ctx context.Context, req generation.Request) (*cardgen.Result, error)
}

func (m *mockGenService) GenerateAndStore(
	ctx context.Context,
	req generation.Request,
) (*cardgen.Result, error) {
	return m.generateFn(ctx, req)
}

// mockQuotaService is a function-field mock of quota.Service.
type mockQuotaService struct {
	reserveFn   func(ctx context.Context, userID uuid.UUID, count int) (*store.ReservationResult, error)
	remainingFn func(ctx context.Context, userID uuid.UUID) (*quota.Status, error)
}

func (m *mockQuotaService) Reserve(
	ctx context.Context,
	userID uuid.UUID,
	count int,
) (*store.ReservationResult, error) {
	return m.reserveFn(ctx, userID, count)
}

func (m *mockQuotaService) Remaining(
	ctx context.Context,
	userID uuid.UUID,
) (*quota.Status, error) {
	return m.remainingFn(ctx, userID)
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	newGenerateRequest := func(t *testing.T, body string) *http.Request {
		t.Helper()
		req := httptest.NewRequest(
			http.MethodPost, "/api/generate", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return withAuthedContext(req, userID, nil)
	}

	t.Run("returns created cards and usage", func(t *testing.T) {
		t.Parallel()

		var gotReq generation.Request
		genSvc := &mockGenService{
			generateFn: func(_ context.Context, req generation.Request) (*cardgen.Result, error) {
				gotReq = req
				card, err := domain.NewCard(
					req.UserID, req.Category, json.RawMessage(`{"front":"Q","back":"A"}`))
				require.NoError(t, err)
				return &cardgen.Result{
					Cards: []*domain.Card{card},
					Reservation: &store.ReservationResult{
						Success:    true,
						UsageCount: 3,
						Limit:      20,
						Remaining:  17,
					},
				}, nil
			},
		}
		handler := NewGenerateHandler(genSvc, &mockQuotaService{}, validator.New(), nil)

		body := `{"source_text":"El gato duerme.","category":"spanish","topic":"animals"}`
		rr := httptest.NewRecorder()
		handler.Generate(rr, newGenerateRequest(t, body))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, userID, gotReq.UserID)
		assert.Equal(t, "spanish", gotReq.Category)
		assert.Equal(t, "animals", gotReq.Topic)

		var resp GenerateResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Cards, 1)
		assert.Equal(t, 3, resp.UsageCount)
		assert.Equal(t, 20, resp.Limit)
	})

	t.Run("quota exhaustion maps to 429", func(t *testing.T) {
		t.Parallel()

		genSvc := &mockGenService{
			generateFn: func(context.Context, generation.Request) (*cardgen.Result, error) {
				return nil, cardgen.ErrQuotaExceeded
			},
		}
		handler := NewGenerateHandler(genSvc, &mockQuotaService{}, validator.New(), nil)

		body := `{"source_text":"text","category":"spanish"}`
		rr := httptest.NewRecorder()
		handler.Generate(rr, newGenerateRequest(t, body))

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})

	t.Run("provider failure maps to 502", func(t *testing.T) {
		t.Parallel()

		genSvc := &mockGenService{
			generateFn: func(context.Context, generation.Request) (*cardgen.Result, error) {
				return nil, generation.ErrTransientFailure
			},
		}
		handler := NewGenerateHandler(genSvc, &mockQuotaService{}, validator.New(), nil)

		body := `{"source_text":"text","category":"spanish"}`
		rr := httptest.NewRecorder()
		handler.Generate(rr, newGenerateRequest(t, body))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("missing source text fails validation", func(t *testing.T) {
		t.Parallel()

		genSvc := &mockGenService{
			generateFn: func(context.Context, generation.Request) (*cardgen.Result, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		handler := NewGenerateHandler(genSvc, &mockQuotaService{}, validator.New(), nil)

		rr := httptest.NewRecorder()
		handler.Generate(rr, newGenerateRequest(t, `{"category":"spanish"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetQuotaEndpoint(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("reports current usage", func(t *testing.T) {
		t.Parallel()

		quotaSvc := &mockQuotaService{
			remainingFn: func(context.Context, uuid.UUID) (*quota.Status, error) {
				return &quota.Status{
					PeriodKey:  "2025-06",
					UsageCount: 5,
					Limit:      20,
					Remaining:  15,
				}, nil
			},
		}
		handler := NewGenerateHandler(&mockGenService{}, quotaSvc, validator.New(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetQuota(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp QuotaResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "2025-06", resp.PeriodKey)
		assert.Equal(t, 15, resp.Remaining)
	})

	t.Run("storage failure maps to 500", func(t *testing.T) {
		t.Parallel()

		quotaSvc := &mockQuotaService{
			remainingFn: func(context.Context, uuid.UUID) (*quota.Status, error) {
				return nil, errors.New("connection refused")
			},
		}
		handler := NewGenerateHandler(&mockGenService{}, quotaSvc, validator.New(), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
		req = withAuthedContext(req, userID, nil)
		rr := httptest.NewRecorder()

		handler.GetQuota(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
