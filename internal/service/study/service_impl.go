package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// Config tunes the selector.
type Config struct {
	// SuppressionWindow is how long a just-answered card stays out of
	// session selection.
	SuppressionWindow time.Duration

	// SessionLimit caps the number of cards one session request returns
	// when the caller does not supply its own limit.
	SessionLimit int
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	db            *sql.DB
	cardStore     store.CardStore
	progressStore store.ProgressStore
	attemptStore  store.AttemptStore
	scheduler     srs.Scheduler
	cfg           Config
	logger        *slog.Logger

	// runTx wraps the review write in a transaction, handing the
	// callback a ProgressStore bound to it. Tests swap it out.
	runTx func(ctx context.Context, fn func(ctx context.Context, progress store.ProgressStore) error) error
}

// NewService creates a new study Service implementation.
// db is required for the review transaction; the stores are rebased
// onto that transaction via WithTx.
func NewService(
	db *sql.DB,
	cardStore store.CardStore,
	progressStore store.ProgressStore,
	attemptStore store.AttemptStore,
	scheduler srs.Scheduler,
	cfg Config,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}
	if attemptStore == nil {
		panic("attemptStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if cfg.SuppressionWindow <= 0 {
		panic("suppression window must be positive")
	}
	if cfg.SessionLimit <= 0 {
		panic("session limit must be positive")
	}

	if log == nil {
		log = slog.Default()
	}

	svc := &serviceImpl{
		db:            db,
		cardStore:     cardStore,
		progressStore: progressStore,
		attemptStore:  attemptStore,
		scheduler:     scheduler,
		cfg:           cfg,
		logger:        log.With(slog.String("component", "study_service")),
	}
	svc.runTx = svc.runInTransaction
	return svc
}

// runInTransaction binds the progress store to a fresh transaction and
// runs fn inside it.
func (s *serviceImpl) runInTransaction(
	ctx context.Context,
	fn func(ctx context.Context, progress store.ProgressStore) error,
) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.progressStore.WithTx(tx))
	})
}

// SelectSession implements Service.SelectSession.
func (s *serviceImpl) SelectSession(
	ctx context.Context,
	userID uuid.UUID,
	scope store.SessionScope,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 || limit > s.cfg.SessionLimit {
		limit = s.cfg.SessionLimit
	}

	cards, err := s.cardStore.ListByScope(ctx, userID, scope)
	if err != nil {
		log.Error("failed to list cards for session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	if len(cards) == 0 {
		return []*domain.Card{}, nil
	}

	now := time.Now().UTC()

	// A failure reading the attempt log degrades to no exclusions.
	// Selection must keep working when the log is unavailable; showing
	// a just-answered card again is the cheaper failure.
	suppressed, err := s.attemptStore.RecentlyAttempted(ctx, userID, now.Add(-s.cfg.SuppressionWindow))
	if err != nil {
		log.Warn("attempt log unavailable, skipping suppression",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		suppressed = nil
	}

	cardIDs := make([]uuid.UUID, 0, len(cards))
	for _, card := range cards {
		cardIDs = append(cardIDs, card.ID)
	}
	progressByCard, err := s.progressStore.GetMap(ctx, userID, cardIDs)
	if err != nil {
		log.Error("failed to load progress for session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	// Cards with no progress row have never been reviewed and count as
	// due.
	var due, notDue []*domain.Card
	for _, card := range cards {
		if _, recent := suppressed[card.ID]; recent {
			continue
		}
		progress, ok := progressByCard[card.ID]
		if !ok || progress.Due(now) {
			due = append(due, card)
		} else {
			notDue = append(notDue, card)
		}
	}

	shuffle(due)
	shuffle(notDue)

	session := make([]*domain.Card, 0, limit)
	session = append(session, due...)
	session = append(session, notDue...)
	if len(session) > limit {
		session = session[:limit]
	}

	log.Debug("session selected",
		slog.String("user_id", userID.String()),
		slog.Int("due", len(due)),
		slog.Int("not_due", len(notDue)),
		slog.Int("suppressed", len(suppressed)),
		slog.Int("returned", len(session)))
	return session, nil
}

func shuffle(cards []*domain.Card) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// SubmitReview implements Service.SubmitReview.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	outcome domain.ReviewOutcome,
	sessionID uuid.UUID,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !outcome.IsValid() {
		log.Warn("invalid review outcome",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("outcome", string(outcome)))
		return nil, ErrInvalidOutcome
	}

	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to get card for review",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card.UserID != userID {
		log.Warn("review attempt on card owned by another user",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, ErrNotOwned
	}

	now := time.Now().UTC()

	var updated *domain.CardProgress
	reviewTx := func(ctx context.Context, txProgress store.ProgressStore) error {
		// Lock the row so concurrent answers to the same card each
		// compute from a consistent read. A missing row means this is
		// the card's first review; start from the new state.
		created := false
		current, err := txProgress.GetForUpdate(ctx, userID, cardID)
		if err != nil {
			if !errors.Is(err, store.ErrProgressNotFound) {
				return fmt.Errorf("failed to get progress: %w", err)
			}
			current, err = domain.NewCardProgress(userID, cardID)
			if err != nil {
				return fmt.Errorf("failed to initialize progress: %w", err)
			}
			created = true
		}

		next, err := s.scheduler.Schedule(current, outcome, now)
		if err != nil {
			return err
		}
		// The important flag is display-only state living on the same
		// row; scheduling must not clear it.
		next.Important = current.Important

		if created {
			if err := txProgress.Create(ctx, next); err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
		} else {
			if err := txProgress.Update(ctx, next); err != nil {
				return fmt.Errorf("failed to update progress: %w", err)
			}
		}

		updated = next
		return nil
	}

	err = s.runTx(ctx, reviewTx)
	if errors.Is(err, store.ErrDuplicate) {
		// Two concurrent first reviews: both missed the lock on the
		// absent row and the loser's insert hit the winner's committed
		// one. Rerun once; this pass locks the existing row and takes
		// the update path.
		err = s.runTx(ctx, reviewTx)
	}
	if err != nil {
		if errors.Is(err, srs.ErrCorruptState) {
			log.Error("corrupt progress state",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, ErrCorruptProgress
		}
		return nil, err
	}

	// The attempt is appended after the progress write committed, so
	// the log never references a schedule that was rolled back. A
	// failed append costs one suppression entry and one history row,
	// not the review itself.
	attempt, err := domain.NewSessionAttempt(userID, cardID, outcome.IsCorrect(), sessionID)
	if err == nil {
		err = s.attemptStore.Record(ctx, attempt)
	}
	if err != nil {
		log.Warn("failed to record session attempt",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
	}

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("outcome", string(outcome)),
		slog.String("state", string(updated.State)))
	return updated, nil
}

// History implements Service.History.
func (s *serviceImpl) History(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.SessionAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempts, err := s.attemptStore.History(ctx, userID, cardID, limit)
	if err != nil {
		log.Error("failed to get attempt history",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return attempts, nil
}

// DailyStats implements Service.DailyStats.
func (s *serviceImpl) DailyStats(
	ctx context.Context,
	userID uuid.UUID,
	category string,
	windowDays int,
) ([]*domain.DailyReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stats, err := s.attemptStore.DailyHistogram(ctx, userID, category, windowDays)
	if err != nil {
		log.Error("failed to get daily stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}

// MarkImportant implements Service.MarkImportant.
func (s *serviceImpl) MarkImportant(
	ctx context.Context,
	userID, cardID uuid.UUID,
	important bool,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to get card: %w", err)
	}
	if card.UserID != userID {
		return ErrNotOwned
	}

	if err := s.progressStore.SetImportant(ctx, userID, cardID, important); err != nil {
		log.Error("failed to set important flag",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return fmt.Errorf("failed to set important flag: %w", err)
	}

	log.Debug("important flag updated",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("important", important))
	return nil
}
