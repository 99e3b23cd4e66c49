package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) (*MappingTable, string) {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewMappingTable(dir, log), dir
}

func TestMappingTable_LoadWritesDefaultsOnFirstRun(t *testing.T) {
	table, dir := testTable(t)

	require.NoError(t, table.Load())

	snap := table.Snapshot()
	assert.Equal(t, "Domestic Equity", snap.Mappings["ITOT"])
	assert.True(t, snap.Ignored("SPAXX"))

	_, err := os.Stat(filepath.Join(dir, MappingFileName))
	assert.NoError(t, err, "default mapping file should be written to disk")
}

func TestMappingTable_LoadReadsExistingFile(t *testing.T) {
	table, dir := testTable(t)

	custom := `{"mappings": {"GLD": "Gold"}, "ignore": ["CASH"]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, MappingFileName), []byte(custom), 0644))

	require.NoError(t, table.Load())

	snap := table.Snapshot()
	assert.Equal(t, "Gold", snap.Mappings["GLD"])
	assert.True(t, snap.Ignored("CASH"))
	assert.Empty(t, snap.Mappings["ITOT"], "defaults should not leak into a loaded file")
}

func TestMappingTable_LoadRejectsMalformedFile(t *testing.T) {
	table, dir := testTable(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, MappingFileName), []byte("not json"), 0644))

	err := table.Load()
	require.Error(t, err)

	// The previous snapshot survives a failed reload.
	snap := table.Snapshot()
	assert.Equal(t, "Domestic Equity", snap.Mappings["VTI"])
}

func TestMappingTable_SnapshotIsIsolated(t *testing.T) {
	table, _ := testTable(t)
	require.NoError(t, table.Load())

	snap := table.Snapshot()
	snap.Mappings["VTI"] = "Tampered"

	assert.Equal(t, "Domestic Equity", table.Snapshot().Mappings["VTI"])
}

func TestReloadJob_PicksUpEdits(t *testing.T) {
	table, dir := testTable(t)
	require.NoError(t, table.Load())

	job := NewReloadJob(table)
	assert.Equal(t, "mapping_reload", job.Name())

	custom := `{"mappings": {"BND": "Total Bond"}, "ignore": []}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, MappingFileName), []byte(custom), 0644))

	require.NoError(t, job.Run())
	assert.Equal(t, "Total Bond", table.Snapshot().Mappings["BND"])
}
