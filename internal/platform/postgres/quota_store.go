package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresQuotaStore implements the store.QuotaStore interface
// using a PostgreSQL database as the storage backend.
//
// The reservation path is a single conditional upsert so that the
// check-and-increment is atomic inside the database. Two concurrent
// reservations for the same user serialize on the row; the loser
// re-evaluates the guard against the winner's committed count and is
// rejected if the combined usage would exceed the limit.
type PostgresQuotaStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuotaStore creates a new PostgreSQL implementation of the QuotaStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQuotaStore(db store.DBTX, logger *slog.Logger) *PostgresQuotaStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuotaStore{
		db:     db,
		logger: logger.With(slog.String("component", "quota_store")),
	}
}

// Ensure PostgresQuotaStore implements store.QuotaStore interface
var _ store.QuotaStore = (*PostgresQuotaStore)(nil)

// CheckAndReserve implements store.QuotaStore.CheckAndReserve
//
// The INSERT creates the period counter on first use; on conflict the
// DO UPDATE increments it, but only when the incremented count stays
// within the stored limit. When the guard fails no row is returned and
// nothing is mutated, and the current counter is read back so the
// rejection can report accurate numbers.
func (s *PostgresQuotaStore) CheckAndReserve(
	ctx context.Context,
	userID uuid.UUID,
	periodKey string,
	count, limit int,
) (*store.ReservationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if count <= 0 {
		return nil, fmt.Errorf("reservation count must be positive, got %d", count)
	}
	if limit < 0 {
		return nil, fmt.Errorf("usage limit cannot be negative, got %d", limit)
	}

	// A fresh insert that already exceeds the limit must be rejected
	// before touching the database; the upsert guard below only protects
	// the conflict path.
	if count > limit {
		log.Debug("reservation rejected before insert",
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey),
			slog.Int("count", count),
			slog.Int("limit", limit))
		return s.rejectedResult(ctx, userID, periodKey, limit)
	}

	query := `
		INSERT INTO usage_quotas (user_id, period_key, usage_count, usage_limit, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, period_key)
		DO UPDATE SET usage_count = usage_quotas.usage_count + $3, updated_at = $5
		WHERE usage_quotas.usage_count + $3 <= usage_quotas.usage_limit
		RETURNING usage_count, usage_limit
	`

	var usageCount, usageLimit int
	err := s.db.QueryRowContext(ctx, query, userID, periodKey, count, limit, time.Now().UTC()).
		Scan(&usageCount, &usageLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Guard failed: the existing counter cannot absorb the
			// reservation. Read it back for the rejection report.
			log.Debug("reservation rejected by quota guard",
				slog.String("user_id", userID.String()),
				slog.String("period_key", periodKey),
				slog.Int("count", count))
			return s.rejectedResult(ctx, userID, periodKey, limit)
		}
		log.Error("failed to reserve quota",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey))
		return nil, MapError(err)
	}

	log.Debug("quota reserved",
		slog.String("user_id", userID.String()),
		slog.String("period_key", periodKey),
		slog.Int("count", count),
		slog.Int("usage_count", usageCount),
		slog.Int("limit", usageLimit))

	return &store.ReservationResult{
		Success:    true,
		UsageCount: usageCount,
		Limit:      usageLimit,
		Remaining:  remaining(usageCount, usageLimit),
	}, nil
}

// rejectedResult reads the current counter so a rejection carries the
// real usage numbers. A missing row means nothing was ever reserved in
// the period, so the counter reads as zero against the caller's limit.
func (s *PostgresQuotaStore) rejectedResult(
	ctx context.Context,
	userID uuid.UUID,
	periodKey string,
	limit int,
) (*store.ReservationResult, error) {
	quota, err := s.Get(ctx, userID, periodKey)
	if err != nil {
		if errors.Is(err, store.ErrQuotaNotFound) {
			return &store.ReservationResult{
				Success:    false,
				UsageCount: 0,
				Limit:      limit,
				Remaining:  limit,
			}, nil
		}
		return nil, err
	}

	return &store.ReservationResult{
		Success:    false,
		UsageCount: quota.UsageCount,
		Limit:      quota.Limit,
		Remaining:  remaining(quota.UsageCount, quota.Limit),
	}, nil
}

func remaining(usageCount, limit int) int {
	if usageCount >= limit {
		return 0
	}
	return limit - usageCount
}

// Get implements store.QuotaStore.Get
// Returns store.ErrQuotaNotFound when no reservation has happened yet
// in the period.
func (s *PostgresQuotaStore) Get(ctx context.Context, userID uuid.UUID, periodKey string) (*domain.UsageQuota, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, period_key, usage_count, usage_limit, updated_at
		FROM usage_quotas
		WHERE user_id = $1 AND period_key = $2
	`

	var quota domain.UsageQuota
	err := s.db.QueryRowContext(ctx, query, userID, periodKey).Scan(
		&quota.UserID,
		&quota.PeriodKey,
		&quota.UsageCount,
		&quota.Limit,
		&quota.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuotaNotFound
		}
		log.Error("failed to get quota",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey))
		return nil, MapError(err)
	}

	return &quota, nil
}
