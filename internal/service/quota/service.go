// Package quota implements the usage guard in front of metered AI card
// generation. Reservations are delegated to the store's atomic
// check-and-increment; this layer only resolves the caller's limit
// from their entitlement tier and the current period.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// EntitlementChecker reports whether a user is on the premium tier.
// Backed by an external billing system; this service only reads it.
type EntitlementChecker interface {
	IsPremium(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Limits holds the monthly allotments per tier.
type Limits struct {
	FreeMonthly    int
	PremiumMonthly int
}

// Status is the advisory view of a user's counter for display. It may
// be stale by the time the caller reads it; only Reserve is
// authoritative.
type Status struct {
	PeriodKey  string `json:"period_key"`
	UsageCount int    `json:"usage_count"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// Service guards metered usage with per-user monthly counters.
type Service interface {
	// Reserve atomically claims count units of the user's current
	// monthly allotment. Exhaustion is a normal rejection
	// (Success=false), not an error; errors indicate storage or
	// entitlement lookup failure only.
	Reserve(ctx context.Context, userID uuid.UUID, count int) (*store.ReservationResult, error)

	// Remaining reports the user's current counter without reserving.
	Remaining(ctx context.Context, userID uuid.UUID) (*Status, error)
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	quotaStore   store.QuotaStore
	entitlements EntitlementChecker
	limits       Limits
	logger       *slog.Logger

	// now is swappable so tests can pin the period boundary.
	now func() time.Time
}

// NewService creates a new quota Service implementation.
func NewService(
	quotaStore store.QuotaStore,
	entitlements EntitlementChecker,
	limits Limits,
	log *slog.Logger,
) Service {
	if quotaStore == nil {
		panic("quotaStore cannot be nil")
	}
	if entitlements == nil {
		panic("entitlements cannot be nil")
	}
	if limits.FreeMonthly <= 0 || limits.PremiumMonthly <= 0 {
		panic("monthly limits must be positive")
	}

	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		quotaStore:   quotaStore,
		entitlements: entitlements,
		limits:       limits,
		logger:       log.With(slog.String("component", "quota_service")),
		now:          time.Now,
	}
}

// limitFor resolves the user's monthly allotment from their tier. An
// entitlement lookup failure falls back to the free limit rather than
// blocking the reservation; the user can only be under-served, never
// over-served.
func (s *serviceImpl) limitFor(ctx context.Context, userID uuid.UUID) int {
	log := logger.FromContextOrDefault(ctx, s.logger)

	premium, err := s.entitlements.IsPremium(ctx, userID)
	if err != nil {
		log.Warn("entitlement lookup failed, assuming free tier",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return s.limits.FreeMonthly
	}
	if premium {
		return s.limits.PremiumMonthly
	}
	return s.limits.FreeMonthly
}

// Reserve implements Service.Reserve.
func (s *serviceImpl) Reserve(
	ctx context.Context,
	userID uuid.UUID,
	count int,
) (*store.ReservationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if count <= 0 {
		return nil, fmt.Errorf("reservation count must be positive, got %d", count)
	}

	periodKey := domain.PeriodKeyFor(s.now())
	limit := s.limitFor(ctx, userID)

	result, err := s.quotaStore.CheckAndReserve(ctx, userID, periodKey, count, limit)
	if err != nil {
		log.Error("quota reservation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey))
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}

	if !result.Success {
		log.Info("quota exhausted",
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey),
			slog.Int("usage_count", result.UsageCount),
			slog.Int("limit", result.Limit))
	}
	return result, nil
}

// Remaining implements Service.Remaining.
func (s *serviceImpl) Remaining(ctx context.Context, userID uuid.UUID) (*Status, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	periodKey := domain.PeriodKeyFor(s.now())
	limit := s.limitFor(ctx, userID)

	quota, err := s.quotaStore.Get(ctx, userID, periodKey)
	if err != nil {
		if errors.Is(err, store.ErrQuotaNotFound) {
			// Nothing reserved yet this period.
			return &Status{
				PeriodKey:  periodKey,
				UsageCount: 0,
				Limit:      limit,
				Remaining:  limit,
			}, nil
		}
		log.Error("failed to read quota",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey))
		return nil, fmt.Errorf("failed to read quota: %w", err)
	}

	return &Status{
		PeriodKey:  quota.PeriodKey,
		UsageCount: quota.UsageCount,
		Limit:      quota.Limit,
		Remaining:  quota.Remaining(),
	}, nil
}
