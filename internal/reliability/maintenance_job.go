package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/ballast/internal/database"
)

// NightlyMaintenanceJob checkpoints WAL files and watches database health
type NightlyMaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	log       zerolog.Logger
}

// NewNightlyMaintenanceJob creates a new nightly maintenance job
func NewNightlyMaintenanceJob(
	databases map[string]*database.DB,
	dataDir string,
	log zerolog.Logger,
) *NightlyMaintenanceJob {
	return &NightlyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		log:       log.With().Str("job", "nightly_maintenance").Logger(),
	}
}

// Run executes the nightly maintenance pass
func (j *NightlyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting nightly maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for name, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			return fmt.Errorf("health check failed for %s: %w", name, err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, the autocheckpoint still runs
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}

		j.logStats(name, db)
	}

	j.checkDiskSpace()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Nightly maintenance completed")

	return nil
}

// Name returns the job name for the scheduler
func (j *NightlyMaintenanceJob) Name() string {
	return "nightly_maintenance"
}

func (j *NightlyMaintenanceJob) logStats(name string, db *database.DB) {
	stats, err := db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Str("database", name).Msg("Failed to read database stats")
		return
	}

	j.log.Info().
		Str("database", name).
		Float64("size_mb", float64(stats.SizeBytes)/1024/1024).
		Float64("wal_size_mb", float64(stats.WALSizeBytes)/1024/1024).
		Msg("Database size")
}

// checkDiskSpace warns when the data directory volume runs low
func (j *NightlyMaintenanceJob) checkDiskSpace() {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check disk space")
		return
	}

	freeGB := float64(usage.Free) / 1e9
	switch {
	case freeGB < 1.0:
		j.log.Error().Float64("free_gb", freeGB).Msg("Disk space critically low")
	case freeGB < 5.0:
		j.log.Warn().Float64("free_gb", freeGB).Msg("Disk space running low")
	}
}
