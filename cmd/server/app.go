package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wanmilin/glin/internal/api"
	"github.com/wanmilin/glin/internal/config"
	"github.com/wanmilin/glin/internal/domain"
	"github.com/wanmilin/glin/internal/platform/logger"
	"github.com/wanmilin/glin/internal/platform/sqlite"
	"github.com/wanmilin/glin/internal/provider"
	"github.com/wanmilin/glin/internal/store"
	"github.com/wanmilin/glin/internal/task"
	"github.com/wanmilin/glin/internal/worker"
)

// defaultWorkerPoolSize applies when the thread_pool_size setting is
// absent or unparseable.
const defaultWorkerPoolSize = 10

// application holds the composed components so Run can start and stop
// them together.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	tasks    store.VideoTaskStore
	settings store.SettingsStore
	pool     *worker.Pool
	scanner  *task.Scanner
	recovery *task.Recovery
	server   *http.Server
}

// initializeApp loads configuration and wires every component of the
// orchestration core together.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_path", cfg.Database.Path)

	db, err := sqlite.Open(cfg.Database.Path, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tasks := sqlite.NewVideoTaskStore(db)
	settings := sqlite.NewSettingsStore(db)

	requestClient := &http.Client{
		Timeout: time.Duration(cfg.Provider.RequestTimeoutSeconds) * time.Second,
	}
	downloadClient := &http.Client{
		Timeout: time.Duration(cfg.Provider.DownloadTimeoutSeconds) * time.Second,
	}

	clock := task.NewClock()
	selector := provider.NewSelector(requestClient, appLogger)
	downloader := task.NewDownloader(downloadClient, clock, appLogger)
	processor := task.NewProcessor(tasks, settings, selector, downloader, clock, appLogger)

	pool := worker.NewPool(workerPoolSize(ctx, settings, appLogger), appLogger)
	scanner := task.NewScanner(tasks, processor, pool, clock, appLogger)
	recovery := task.NewRecovery(tasks, settings, selector, processor, pool, appLogger)

	taskHandler := api.NewTaskHandler(tasks, processor)
	settingsHandler := api.NewSettingsHandler(settings)
	router := api.NewRouter(taskHandler, settingsHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &application{
		cfg:      cfg,
		logger:   appLogger,
		db:       db,
		tasks:    tasks,
		settings: settings,
		pool:     pool,
		scanner:  scanner,
		recovery: recovery,
		server:   server,
	}, nil
}

// Run starts recovery, the scan loop and the HTTP server, then blocks
// until ctx is cancelled or the server fails.
func (a *application) Run(ctx context.Context) error {
	defer func() { _ = a.db.Close() }()

	// Pick up work interrupted by the previous run before accepting new
	// submissions.
	if err := a.recovery.Run(ctx); err != nil {
		a.logger.Error("startup recovery failed", "error", err)
	}

	go a.scanner.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.pool.Shutdown()
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
	}

	a.pool.Shutdown()
	a.pool.Wait()

	a.logger.Info("shutdown complete")
	return nil
}

// workerPoolSize reads the configured pool size from settings, falling
// back to the default when absent or invalid.
func workerPoolSize(ctx context.Context, settings store.SettingsStore, logger *slog.Logger) int {
	raw, err := settings.Get(ctx, domain.SettingWorkerPoolSize)
	if err != nil {
		if !errors.Is(err, store.ErrSettingNotFound) {
			logger.Warn("failed to read worker pool size setting", "error", err)
		}
		return defaultWorkerPoolSize
	}

	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		logger.Warn("invalid worker pool size setting, using default",
			"value", raw,
			"default", defaultWorkerPoolSize)
		return defaultWorkerPoolSize
	}
	return size
}
