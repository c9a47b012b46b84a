package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `user_id, card_id, state, current_step, ease_factor,
	interval_days, next_review_at, review_count, last_correct, important,
	created_at, updated_at`

func scanProgress(row interface{ Scan(dest ...any) error }) (*domain.CardProgress, error) {
	var p domain.CardProgress
	var state string
	err := row.Scan(
		&p.UserID,
		&p.CardID,
		&state,
		&p.CurrentStep,
		&p.EaseFactor,
		&p.IntervalDays,
		&p.NextReviewAt,
		&p.ReviewCount,
		&p.LastCorrect,
		&p.Important,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.State = domain.CardState(state)
	return &p, nil
}

// Create implements store.ProgressStore.Create
// Returns store.ErrProgressExists if a row already exists for the pair.
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.CardProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	query := `
		INSERT INTO card_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CardID,
		string(progress.State),
		progress.CurrentStep,
		progress.EaseFactor,
		progress.IntervalDays,
		progress.NextReviewAt,
		progress.ReviewCount,
		progress.LastCorrect,
		progress.Important,
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("progress already exists",
				slog.String("user_id", progress.UserID.String()),
				slog.String("card_id", progress.CardID.String()))
			return store.ErrProgressExists
		}
		log.Error("failed to create progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return MapError(err)
	}

	log.Debug("progress created",
		slog.String("user_id", progress.UserID.String()),
		slog.String("card_id", progress.CardID.String()))
	return nil
}

// Get implements store.ProgressStore.Get
// Returns store.ErrProgressNotFound if no row exists. No row lock is taken.
func (s *PostgresProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	return s.get(ctx, userID, cardID, false)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate
// Takes a SELECT .. FOR UPDATE row lock; call within a transaction.
func (s *PostgresProgressStore) GetForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	return s.get(ctx, userID, cardID, true)
}

func (s *PostgresProgressStore) get(
	ctx context.Context,
	userID, cardID uuid.UUID,
	forUpdate bool,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return progress, nil
}

// Update implements store.ProgressStore.Update
// Returns store.ErrProgressNotFound if no row exists.
func (s *PostgresProgressStore) Update(ctx context.Context, progress *domain.CardProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	query := `
		UPDATE card_progress
		SET state = $3, current_step = $4, ease_factor = $5, interval_days = $6,
		    next_review_at = $7, review_count = $8, last_correct = $9,
		    important = $10, updated_at = $11
		WHERE user_id = $1 AND card_id = $2
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CardID,
		string(progress.State),
		progress.CurrentStep,
		progress.EaseFactor,
		progress.IntervalDays,
		progress.NextReviewAt,
		progress.ReviewCount,
		progress.LastCorrect,
		progress.Important,
		progress.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rowsAffected == 0 {
		log.Debug("progress not found for update",
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return store.ErrProgressNotFound
	}

	log.Debug("progress updated",
		slog.String("user_id", progress.UserID.String()),
		slog.String("card_id", progress.CardID.String()),
		slog.String("state", string(progress.State)))
	return nil
}

// GetMap implements store.ProgressStore.GetMap
// Cards the user has never reviewed are absent from the result.
func (s *PostgresProgressStore) GetMap(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
) (map[uuid.UUID]*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[uuid.UUID]*domain.CardProgress, len(cardIDs))
	if len(cardIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + progressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = ANY($2)
	`

	rows, err := s.db.QueryContext(ctx, query, userID, cardIDs)
	if err != nil {
		log.Error("failed to get progress map",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, MapError(err)
		}
		result[progress.CardID] = progress
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return result, nil
}

// SetImportant implements store.ProgressStore.SetImportant
// Upserts so the flag can be set before a card's first review.
func (s *PostgresProgressStore) SetImportant(ctx context.Context, userID, cardID uuid.UUID, important bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()

	query := `
		INSERT INTO card_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, 0, $4, 0, $5, 0, FALSE, $6, $5, $5)
		ON CONFLICT (user_id, card_id)
		DO UPDATE SET important = $6, updated_at = $5
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		userID,
		cardID,
		string(domain.StateNew),
		domain.DefaultEaseFactor,
		now,
		important,
	)
	if err != nil {
		log.Error("failed to set important flag",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return MapError(err)
	}

	log.Debug("important flag set",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("important", important))
	return nil
}

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
