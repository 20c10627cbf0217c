// Package server initializes and runs the windykator back-office server:
// database and migrations, the invoicing SaaS client, workflow services,
// and the HTTP API, with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"windykator/internal/auth"
	"windykator/internal/config"
	"windykator/internal/eligibility"
	"windykator/internal/fakturownia"
	"windykator/internal/httpapi"
	"windykator/internal/letterarchive"
	"windykator/internal/logging"
	"windykator/internal/messaging"
	"windykator/internal/repositories/repomanager"
	"windykator/internal/services"
	"windykator/internal/syncer"
)

// App wires the application together and runs it.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.API
}

// NewApp builds the full dependency graph from the given config. The
// database is opened and migrated here so a broken setup fails before the
// server starts listening.
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	saas := fakturownia.NewClient(cfg.FakturowniaBaseURL, cfg.FakturowniaAPIToken, cfg.FakturowniaRateLimitRPS)
	dispatcher := messaging.NewDispatcherFromConfig(cfg)
	archive := letterarchive.NewArchive(cfg)

	engine := &eligibility.Engine{
		LevelIntervalDays:    cfg.ReminderIntervalDays,
		LetterCountThreshold: cfg.LetterCountThreshold,
		LetterDebtThreshold:  cfg.LetterDebtThreshold,
		CollectionsMinDays:   cfg.CollectionsMinDays,
	}

	flagSvc := services.NewFlagService(db, rm, saas, logger)
	reminderSvc := services.NewReminderService(db, rm, saas, dispatcher, engine, logger, cfg.SaaSWriteDelay)
	letterSvc := services.NewLetterService(db, rm, saas, archive, engine, logger)
	collectionsSvc := services.NewCollectionsService(db, rm, engine)
	sync := syncer.New(db, rm, saas, logger)

	api := httpapi.New(auth.NewAuthenticator(cfg), flagSvc, reminderSvc, letterSvc, collectionsSvc, sync, logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is canceled or an
// OS signal arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()
	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	wg.Wait()
}
