package sessions

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJob_Run(t *testing.T) {
	db := setupTestDB(t)
	fresh := NewRepository(db, time.Hour)
	stale := NewRepository(db, -time.Hour)

	_, err := fresh.Store(samplePayload())
	require.NoError(t, err)
	_, err = stale.Store(samplePayload())
	require.NoError(t, err)
	_, err = stale.Store(samplePayload())
	require.NoError(t, err)

	job := NewCleanupJob(fresh, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, job.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM import_sessions").Scan(&count))
	assert.Equal(t, 1, count, "only the fresh session should remain")
}

func TestCleanupJob_Name(t *testing.T) {
	job := NewCleanupJob(nil, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Equal(t, "import_session_cleanup", job.Name())
}
