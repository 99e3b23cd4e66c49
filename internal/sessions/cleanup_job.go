package sessions

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes expired import sessions. Scheduled every few minutes;
// expired sessions are already invisible to readers, this reclaims the rows.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new session cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "import_session_cleanup").Logger(),
	}
}

// Run executes the cleanup, removing all expired sessions.
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired sessions")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired import sessions")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "import_session_cleanup"
}
