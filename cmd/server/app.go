package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/generation"
	"github.com/phrazzld/recall-api/internal/platform/gemini"
	"github.com/phrazzld/recall-api/internal/platform/postgres"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/cardgen"
	"github.com/phrazzld/recall-api/internal/service/quota"
	"github.com/phrazzld/recall-api/internal/service/study"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/phrazzld/recall-api/internal/task"
)

// application holds the shared application dependencies so wiring and
// shutdown live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore     store.CardStore
	progressStore store.ProgressStore
	attemptStore  store.AttemptStore
	quotaStore    store.QuotaStore

	tokenValidator auth.TokenValidator
	generator      generation.Generator
	studyService   study.Service
	quotaService   quota.Service
	genService     cardgen.Service

	sweeper *task.Sweeper
}

// newApplication builds the full dependency graph. Configuration,
// logging and the database connection must already be established.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokenValidator, err = auth.NewTokenValidator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token validator: %w", err)
	}

	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.progressStore = postgres.NewPostgresProgressStore(db, logger)
	app.attemptStore = postgres.NewPostgresAttemptStore(db, logger)
	app.quotaStore = postgres.NewPostgresQuotaStore(db, logger)

	app.generator, err = gemini.NewGenerator(
		ctx,
		logger.With("component", "llm_generator"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}

	app.studyService = study.NewService(
		db,
		app.cardStore,
		app.progressStore,
		app.attemptStore,
		srs.NewDefaultScheduler(),
		study.Config{
			SuppressionWindow: time.Duration(cfg.Study.SuppressionWindowMinutes) * time.Minute,
			SessionLimit:      cfg.Study.SessionLimit,
		},
		logger,
	)

	app.quotaService = quota.NewService(
		app.quotaStore,
		quota.NewStaticEntitlements(cfg.Quota.PremiumUserIDs),
		quota.Limits{
			FreeMonthly:    cfg.Quota.FreeMonthlyLimit,
			PremiumMonthly: cfg.Quota.PremiumMonthlyLimit,
		},
		logger,
	)

	app.genService = cardgen.NewService(
		db,
		app.cardStore,
		app.generator,
		app.quotaService,
		logger,
	)

	app.sweeper = task.NewSweeper(
		app.attemptStore,
		task.SweeperConfig{
			Interval:  time.Duration(cfg.Study.PurgeIntervalMinutes) * time.Minute,
			Retention: time.Duration(cfg.Study.RetentionDays) * 24 * time.Hour,
		},
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the retention sweeper and the HTTP server, blocking until
// shutdown.
func (app *application) Run(ctx context.Context) error {
	app.sweeper.Start()

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work. The database connection is closed by
// main's defer.
func (app *application) cleanup() {
	app.sweeper.Stop()
}
