// Package cardgen orchestrates metered AI card generation: a quota
// reservation happens before the provider call, and generated cards
// are persisted atomically.
package cardgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/service/quota"
	"github.com/phrazzld/recall-api/internal/store"
)

// ErrQuotaExceeded indicates the user's monthly generation allotment
// is spent. The API layer maps this to 429.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// Result carries the outcome of one generation call.
type Result struct {
	Cards       []*domain.Card
	Reservation *store.ReservationResult
}

// Service generates and persists cards behind the usage quota.
type Service interface {
	// GenerateAndStore reserves one quota unit, generates cards from
	// the request and persists them atomically. Returns
	// ErrQuotaExceeded when the allotment is spent.
	//
	// The reserved unit is not refunded when generation or persistence
	// fails afterwards.
	GenerateAndStore(ctx context.Context, req generation.Request) (*Result, error)
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db        *sql.DB
	cardStore store.CardStore
	generator generation.Generator
	quota     quota.Service
	logger    *slog.Logger

	// runTx persists a card batch transactionally; tests swap it out.
	runTx func(ctx context.Context, cards []*domain.Card) error
}

// NewService creates a new cardgen Service implementation.
func NewService(
	db *sql.DB,
	cardStore store.CardStore,
	generator generation.Generator,
	quotaService quota.Service,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if quotaService == nil {
		panic("quotaService cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	svc := &serviceImpl{
		db:        db,
		cardStore: cardStore,
		generator: generator,
		quota:     quotaService,
		logger:    log.With(slog.String("component", "cardgen_service")),
	}
	svc.runTx = svc.persistCards
	return svc
}

func (s *serviceImpl) persistCards(ctx context.Context, cards []*domain.Card) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.cardStore.WithTx(tx).CreateMultiple(ctx, cards)
	})
}

// GenerateAndStore implements Service.GenerateAndStore.
func (s *serviceImpl) GenerateAndStore(
	ctx context.Context,
	req generation.Request,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The reservation precedes the provider call so a slow or failing
	// generation can never hand out more than the allotment. The unit
	// is deliberately kept on failure; refunding would let a flaky
	// provider mint unlimited retries.
	reservation, err := s.quota.Reserve(ctx, req.UserID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}
	if !reservation.Success {
		log.Info("generation rejected, quota exhausted",
			slog.String("user_id", req.UserID.String()),
			slog.Int("usage_count", reservation.UsageCount),
			slog.Int("limit", reservation.Limit))
		return nil, fmt.Errorf("%w: %d of %d used",
			ErrQuotaExceeded, reservation.UsageCount, reservation.Limit)
	}

	cards, err := s.generator.GenerateCards(ctx, req)
	if err != nil {
		log.Error("card generation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID.String()))
		return nil, err
	}

	if err := s.runTx(ctx, cards); err != nil {
		log.Error("failed to persist generated cards",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID.String()),
			slog.Int("card_count", len(cards)))
		return nil, fmt.Errorf("failed to persist cards: %w", err)
	}

	log.Info("cards generated and stored",
		slog.String("user_id", req.UserID.String()),
		slog.String("category", req.Category),
		slog.Int("card_count", len(cards)),
		slog.Int("quota_remaining", reservation.Remaining))
	return &Result{Cards: cards, Reservation: reservation}, nil
}
