package cardgen

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/service/quota"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns a scripted card batch or error.
type fakeGenerator struct {
	cards []*domain.Card
	err   error
	calls int
}

func (f *fakeGenerator) GenerateCards(
	ctx context.Context,
	req generation.Request,
) ([]*domain.Card, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cards, nil
}

// fakeQuota tracks reservations against a fixed budget.
type fakeQuota struct {
	used  int
	limit int
	err   error
}

func (f *fakeQuota) Reserve(
	ctx context.Context,
	userID uuid.UUID,
	count int,
) (*store.ReservationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.used+count > f.limit {
		return &store.ReservationResult{
			Success:    false,
			UsageCount: f.used,
			Limit:      f.limit,
		}, nil
	}
	f.used += count
	return &store.ReservationResult{
		Success:    true,
		UsageCount: f.used,
		Limit:      f.limit,
		Remaining:  f.limit - f.used,
	}, nil
}

func (f *fakeQuota) Remaining(ctx context.Context, userID uuid.UUID) (*quota.Status, error) {
	return &quota.Status{UsageCount: f.used, Limit: f.limit, Remaining: f.limit - f.used}, nil
}

func newTestService(
	gen generation.Generator,
	quotaSvc quota.Service,
	persisted *[]*domain.Card,
	persistErr error,
) *serviceImpl {
	svc := &serviceImpl{
		generator: gen,
		quota:     quotaSvc,
		logger:    slog.Default(),
	}
	svc.runTx = func(ctx context.Context, cards []*domain.Card) error {
		if persistErr != nil {
			return persistErr
		}
		if persisted != nil {
			*persisted = append(*persisted, cards...)
		}
		return nil
	}
	return svc
}

func validRequest() generation.Request {
	return generation.Request{
		UserID:     uuid.New(),
		SourceText: "The French Revolution began in 1789.",
		Category:   "history",
	}
}

func makeCards(t *testing.T, userID uuid.UUID, n int) []*domain.Card {
	t.Helper()
	cards := make([]*domain.Card, 0, n)
	for i := 0; i < n; i++ {
		card, err := domain.NewCard(userID, "history", []byte(`{"front":"q","back":"a"}`))
		require.NoError(t, err)
		cards = append(cards, card)
	}
	return cards
}

func TestGenerateAndStoreSuccess(t *testing.T) {
	t.Parallel()

	req := validRequest()
	gen := &fakeGenerator{cards: makeCards(t, req.UserID, 3)}
	quotaSvc := &fakeQuota{limit: 5}
	var persisted []*domain.Card
	svc := newTestService(gen, quotaSvc, &persisted, nil)

	result, err := svc.GenerateAndStore(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.Cards, 3)
	assert.Len(t, persisted, 3)
	assert.True(t, result.Reservation.Success)
	assert.Equal(t, 1, quotaSvc.used)
}

func TestGenerateAndStoreQuotaExhausted(t *testing.T) {
	t.Parallel()

	req := validRequest()
	gen := &fakeGenerator{cards: makeCards(t, req.UserID, 1)}
	svc := newTestService(gen, &fakeQuota{used: 5, limit: 5}, nil, nil)

	_, err := svc.GenerateAndStore(context.Background(), req)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	// The provider is never called without a reservation.
	assert.Equal(t, 0, gen.calls)
}

func TestGenerateAndStoreNoRefundOnGenerationFailure(t *testing.T) {
	t.Parallel()

	req := validRequest()
	gen := &fakeGenerator{err: generation.ErrTransientFailure}
	quotaSvc := &fakeQuota{limit: 5}
	svc := newTestService(gen, quotaSvc, nil, nil)

	_, err := svc.GenerateAndStore(context.Background(), req)
	require.ErrorIs(t, err, generation.ErrTransientFailure)
	// The reserved unit stays spent.
	assert.Equal(t, 1, quotaSvc.used)
}

func TestGenerateAndStoreNoRefundOnPersistFailure(t *testing.T) {
	t.Parallel()

	req := validRequest()
	gen := &fakeGenerator{cards: makeCards(t, req.UserID, 2)}
	quotaSvc := &fakeQuota{limit: 5}
	svc := newTestService(gen, quotaSvc, nil, errors.New("deadlock detected"))

	_, err := svc.GenerateAndStore(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, quotaSvc.used)
}

func TestGenerateAndStoreQuotaStorageFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	svc := newTestService(gen, &fakeQuota{err: errors.New("connection refused")}, nil, nil)

	_, err := svc.GenerateAndStore(context.Background(), validRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 0, gen.calls)
}

func TestGenerateAndStoreValidatesRequest(t *testing.T) {
	t.Parallel()

	quotaSvc := &fakeQuota{limit: 5}
	svc := newTestService(&fakeGenerator{}, quotaSvc, nil, nil)

	req := validRequest()
	req.Category = ""
	_, err := svc.GenerateAndStore(context.Background(), req)
	require.ErrorIs(t, err, generation.ErrEmptyCategory)
	// Validation failures never touch the quota.
	assert.Equal(t, 0, quotaSvc.used)
}
