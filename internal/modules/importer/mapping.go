package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// MappingFileName is the symbol table file kept in the data directory.
const MappingFileName = "symbol_map.json"

// MappingTable owns the process-wide symbol mapping table. It is read from
// DATA_DIR/symbol_map.json, seeded with the built-in defaults when no file
// exists yet, and reloaded on a schedule so edits on disk show up without a
// restart.
type MappingTable struct {
	path string
	log  zerolog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// NewMappingTable creates a table rooted in the given data directory. The
// table starts on the built-in defaults; call Load to read the file.
func NewMappingTable(dataDir string, log zerolog.Logger) *MappingTable {
	return &MappingTable{
		path: filepath.Join(dataDir, MappingFileName),
		log:  log.With().Str("service", "mapping_table").Logger(),
		snap: defaultSnapshot(),
	}
}

// Load reads the mapping file, writing the default table to disk first when
// the file does not exist.
func (t *MappingTable) Load() error {
	raw, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		snap := defaultSnapshot()
		if writeErr := t.persist(snap); writeErr != nil {
			return fmt.Errorf("failed to write default mapping file: %w", writeErr)
		}
		t.set(snap)
		t.log.Info().
			Str("path", t.path).
			Int("mappings", len(snap.Mappings)).
			Msg("Wrote default symbol mapping file")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read mapping file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to parse mapping file: %w", err)
	}
	if snap.Mappings == nil {
		snap.Mappings = map[string]string{}
	}

	t.set(snap)
	t.log.Debug().
		Int("mappings", len(snap.Mappings)).
		Int("ignored", len(snap.Ignore)).
		Msg("Symbol mapping table loaded")
	return nil
}

// Snapshot returns a copy of the current table that is safe to use without
// holding any lock.
func (t *MappingTable) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	mappings := make(map[string]string, len(t.snap.Mappings))
	for symbol, category := range t.snap.Mappings {
		mappings[symbol] = category
	}
	ignore := make([]string, len(t.snap.Ignore))
	copy(ignore, t.snap.Ignore)

	return Snapshot{Mappings: mappings, Ignore: ignore}
}

func (t *MappingTable) set(snap Snapshot) {
	t.mu.Lock()
	t.snap = snap
	t.mu.Unlock()
}

func (t *MappingTable) persist(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0644)
}

// ReloadJob refreshes the mapping table from disk on the scheduler.
type ReloadJob struct {
	table *MappingTable
}

// NewReloadJob creates a scheduler job wrapping the table.
func NewReloadJob(table *MappingTable) *ReloadJob {
	return &ReloadJob{table: table}
}

// Name returns the job name.
func (j *ReloadJob) Name() string { return "mapping_reload" }

// Run reloads the table.
func (j *ReloadJob) Run() error { return j.table.Load() }
