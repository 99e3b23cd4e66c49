package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/ballast/internal/config"
	"github.com/aristath/ballast/internal/database"
	"github.com/aristath/ballast/internal/modules/importer"
	"github.com/aristath/ballast/internal/sessions"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dataDir := t.TempDir()

	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, portfolioDB.Migrate())
	t.Cleanup(func() { _ = portfolioDB.Close() })

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	require.NoError(t, cacheDB.Migrate())
	t.Cleanup(func() { _ = cacheDB.Close() })

	table := importer.NewMappingTable(dataDir, zerolog.Nop())
	require.NoError(t, table.Load())

	return New(Config{
		Log:    zerolog.Nop(),
		Config: &config.Config{DataDir: dataDir, Port: 8080, CORSOrigins: []string{"http://localhost:5173"}},

		PortfolioDB:  portfolioDB,
		CacheDB:      cacheDB,
		MappingTable: table,
		SessionRepo:  sessions.NewRepository(cacheDB.Conn(), time.Hour),
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "ballast", response["service"])
}

// Every module registers its routes under /api. One request per mount is
// enough to catch wiring mistakes.
func TestRouteSurface(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"rebalance calculate", http.MethodPost, "/api/rebalance/calculate",
			`{"assets":[{"name":"Stock","target_pct":60,"current_value":"6000"},{"name":"Bond","target_pct":40,"current_value":"4000"}],"contribution":"1000"}`,
			http.StatusOK},
		{"import mapping", http.MethodGet, "/api/import/mapping", "", http.StatusOK},
		{"presets list", http.MethodGet, "/api/presets", "", http.StatusOK},
		{"portfolios list", http.MethodGet, "/api/portfolios", "", http.StatusOK},
		{"system status", http.MethodGet, "/api/system/status", "", http.StatusOK},
		{"backups unconfigured", http.MethodGet, "/api/backups", "", http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, "body: %s", rec.Body.String())
		})
	}
}
