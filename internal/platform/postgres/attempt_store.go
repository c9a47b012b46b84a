package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// PostgresAttemptStore implements the store.AttemptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgreSQL implementation of the AttemptStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

// Ensure PostgresAttemptStore implements store.AttemptStore interface
var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// Record implements store.AttemptStore.Record
func (s *PostgresAttemptStore) Record(ctx context.Context, attempt *domain.SessionAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		log.Warn("attempt validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", attempt.UserID.String()),
			slog.String("card_id", attempt.CardID.String()))
		return err
	}

	// session_id is nullable; uuid.Nil marks an attempt outside any session.
	var sessionID any
	if attempt.SessionID != uuid.Nil {
		sessionID = attempt.SessionID
	}

	query := `
		INSERT INTO session_attempts (id, user_id, card_id, attempted_at, is_correct, session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		attempt.ID,
		attempt.UserID,
		attempt.CardID,
		attempt.AttemptedAt,
		attempt.IsCorrect,
		sessionID,
	)
	if err != nil {
		log.Error("failed to record attempt",
			slog.String("error", err.Error()),
			slog.String("user_id", attempt.UserID.String()),
			slog.String("card_id", attempt.CardID.String()))
		return MapError(err)
	}

	log.Debug("attempt recorded",
		slog.String("user_id", attempt.UserID.String()),
		slog.String("card_id", attempt.CardID.String()),
		slog.Bool("is_correct", attempt.IsCorrect))
	return nil
}

// RecentlyAttempted implements store.AttemptStore.RecentlyAttempted
// Returns the set of card IDs the user attempted at or after the cutoff.
func (s *PostgresAttemptStore) RecentlyAttempted(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) (map[uuid.UUID]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT card_id
		FROM session_attempts
		WHERE user_id = $1 AND attempted_at >= $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		log.Error("failed to query recent attempts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var cardID uuid.UUID
		if err := rows.Scan(&cardID); err != nil {
			log.Error("failed to scan card id",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, MapError(err)
		}
		result[cardID] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return result, nil
}

// History implements store.AttemptStore.History
// Returns the user's attempts for one card, newest first, at most limit rows.
func (s *PostgresAttemptStore) History(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.SessionAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, card_id, attempted_at, is_correct, session_id
		FROM session_attempts
		WHERE user_id = $1 AND card_id = $2
		ORDER BY attempted_at DESC, id DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, cardID, limit)
	if err != nil {
		log.Error("failed to query attempt history",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []*domain.SessionAttempt
	for rows.Next() {
		var attempt domain.SessionAttempt
		var sessionID uuid.NullUUID
		err := rows.Scan(
			&attempt.ID,
			&attempt.UserID,
			&attempt.CardID,
			&attempt.AttemptedAt,
			&attempt.IsCorrect,
			&sessionID,
		)
		if err != nil {
			log.Error("failed to scan attempt row",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, MapError(err)
		}
		if sessionID.Valid {
			attempt.SessionID = sessionID.UUID
		}
		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return attempts, nil
}

// Purge implements store.AttemptStore.Purge
// Deletes the user's attempts older than the cutoff and reports how many
// rows were removed. Idempotent.
func (s *PostgresAttemptStore) Purge(ctx context.Context, userID uuid.UUID, olderThan time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM session_attempts WHERE user_id = $1 AND attempted_at < $2`

	result, err := s.db.ExecContext(ctx, query, userID, olderThan)
	if err != nil {
		log.Error("failed to purge attempts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Time("older_than", olderThan))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	if rowsAffected > 0 {
		log.Debug("purged old attempts for user",
			slog.Int64("deleted", rowsAffected),
			slog.String("user_id", userID.String()))
	}
	return rowsAffected, nil
}

// StaleUsers implements store.AttemptStore.StaleUsers
// Lists users who still have attempts older than the cutoff.
func (s *PostgresAttemptStore) StaleUsers(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT DISTINCT user_id FROM session_attempts WHERE attempted_at < $1`

	rows, err := s.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		log.Error("failed to list stale attempt users",
			slog.String("error", err.Error()),
			slog.Time("older_than", olderThan))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, MapError(err)
		}
		users = append(users, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// DailyHistogram implements store.AttemptStore.DailyHistogram
// Aggregates the user's attempts on cards in the category over the last
// windowDays calendar days (UTC). Days with no attempts are omitted.
func (s *PostgresAttemptStore) DailyHistogram(
	ctx context.Context,
	userID uuid.UUID,
	category string,
	windowDays int,
) ([]*domain.DailyReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	since := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(windowDays - 1))

	query := `
		SELECT date_trunc('day', a.attempted_at AT TIME ZONE 'UTC')::date AS day,
		       COUNT(*) FILTER (WHERE a.is_correct) AS correct,
		       COUNT(*) FILTER (WHERE NOT a.is_correct) AS incorrect
		FROM session_attempts a
		JOIN cards c ON c.id = a.card_id
		WHERE a.user_id = $1
		  AND a.attempted_at >= $2
		  AND ($3 = '' OR c.category = $3)
		GROUP BY day
		ORDER BY day
	`

	rows, err := s.db.QueryContext(ctx, query, userID, since, category)
	if err != nil {
		log.Error("failed to query daily histogram",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("category", category))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var stats []*domain.DailyReviewStats
	for rows.Next() {
		var day time.Time
		var correct, incorrect int
		if err := rows.Scan(&day, &correct, &incorrect); err != nil {
			log.Error("failed to scan histogram row",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, MapError(err)
		}
		stats = append(stats, domain.NewDailyReviewStats(day, correct, incorrect))
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return stats, nil
}
