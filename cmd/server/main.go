// Package main is the entry point for the Ballast portfolio rebalancing server.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize logging
//  3. Open the portfolio and cache databases and apply schemas
//  4. Load the symbol-to-asset mapping table
//  5. Register background jobs (mapping reload, session cleanup,
//     nightly maintenance, offsite backups when configured)
//  6. Start the HTTP server
//  7. Wait for shutdown signal and drain gracefully
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/modules/importer"
	"github.com/aristath/ballast/internal/reliability"
	"github.com/aristath/ballast/internal/scheduler"
	"github.com/aristath/ballast/internal/server"
	"github.com/aristath/ballast/internal/sessions"
	"github.com/aristath/ballast/pkg/logger"
)

func main() {
	// Bootstrap logger, replaced once configuration is loaded
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting Ballast")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	// Monetary amounts serialize as bare JSON numbers, matching what the
	// web UI sends back
	decimal.MarshalJSONWithoutQuotes = true

	// Open databases
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	databases := map[string]*database.DB{
		"portfolio": portfolioDB,
		"cache":     cacheDB,
	}

	// Apply schemas
	for name, db := range databases {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", name).Msg("Failed to run migrations")
		}
	}

	// Load the symbol-to-asset mapping table
	mappingTable := importer.NewMappingTable(cfg.DataDir, log)
	if err := mappingTable.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load asset mappings")
	}

	// Import session store
	sessionRepo := sessions.NewRepository(cacheDB.Conn(), cfg.SessionTTL())

	// Offsite backups, enabled only when S3 settings are present
	var backupService *reliability.BackupService
	if cfg.Backup.Configured() {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 client")
		}
		backupService = reliability.NewBackupService(s3Client, databases, cfg.DataDir, log)
		log.Info().Str("bucket", cfg.Backup.S3Bucket).Msg("Offsite backups enabled")
	} else {
		log.Warn().Msg("Offsite backups disabled, S3 settings not configured")
	}

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if err := registerJobs(sched, cfg, databases, mappingTable, sessionRepo, backupService, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:           log,
		Config:        cfg,
		PortfolioDB:   portfolioDB,
		CacheDB:       cacheDB,
		MappingTable:  mappingTable,
		SessionRepo:   sessionRepo,
		BackupService: backupService,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	databases map[string]*database.DB,
	mappingTable *importer.MappingTable,
	sessionRepo *sessions.Repository,
	backupService *reliability.BackupService,
	log zerolog.Logger,
) error {
	// Pick up hand-edited asset mappings without a restart
	if err := sched.AddJob(cfg.MappingReloadSchedule, importer.NewReloadJob(mappingTable)); err != nil {
		return err
	}

	// Purge expired import sessions
	if err := sched.AddJob("@every 10m", sessions.NewCleanupJob(sessionRepo, log)); err != nil {
		return err
	}

	// Nightly integrity check and WAL truncation, before the backup window
	maintenanceJob := reliability.NewNightlyMaintenanceJob(databases, cfg.DataDir, log)
	if err := sched.AddJob("0 30 2 * * *", maintenanceJob); err != nil {
		return err
	}

	if backupService != nil {
		backupJob := reliability.NewBackupJob(backupService, cfg.Backup.RetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			return err
		}
	}

	return nil
}
