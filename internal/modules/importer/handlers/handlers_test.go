package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/ballast/internal/modules/importer"
	"github.com/aristath/ballast/internal/sessions"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const sessionSchema = `
CREATE TABLE import_sessions (
    id TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);
`

const sampleCSV = `Account Name,Symbol,Description,Current Value
Brokerage,VTI,VANGUARD TOTAL STOCK MARKET ETF,"$25,000.00"
Brokerage,SPAXX**,FIDELITY GOVERNMENT MONEY MARKET,$500.00
Roth IRA,ITOT,ISHARES CORE S&P TOTAL US STOCK MKT,"$5,000.00"
Roth IRA,XYZ,SOME UNMAPPED FUND,$100.00
`

func setupHandler(t *testing.T) *Handler {
	t.Helper()

	log := zerolog.New(nil).Level(zerolog.Disabled)

	table := importer.NewMappingTable(t.TempDir(), log)
	require.NoError(t, table.Load())
	service := importer.NewService(table, log)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(sessionSchema)
	require.NoError(t, err)

	return NewHandler(service, sessions.NewRepository(db, time.Hour), log)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/import/positions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleUploadPositions(t *testing.T) {
	handler := setupHandler(t)

	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "Portfolio_Positions.csv", []byte(sampleCSV)))

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			SessionID string              `json:"session_id"`
			Accounts  []string            `json:"accounts"`
			Positions []importer.Position `json:"positions"`
			Mapping   map[string]string   `json:"mapping"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	_, err := uuid.Parse(response.Data.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Brokerage", "Roth IRA"}, response.Data.Accounts)
	// The money market sweep is filtered, everything else survives.
	require.Len(t, response.Data.Positions, 3)
	assert.Equal(t, "Domestic Equity", response.Data.Mapping["VTI"])
}

func TestHandleUploadPositions_RejectsNonCSV(t *testing.T) {
	handler := setupHandler(t)

	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "positions.txt", []byte(sampleCSV)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUploadPositions_RejectsTinyFile(t *testing.T) {
	handler := setupHandler(t)

	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "positions.csv", []byte("a,b\n")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUploadPositions_RejectsUnparseable(t *testing.T) {
	handler := setupHandler(t)

	content := []byte("Wrong,Header,Columns\nBrokerage,VTI,100\n")
	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "positions.csv", content))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_CSV", errObj["code"])
}

func TestHandleUploadPositions_Latin1Fallback(t *testing.T) {
	handler := setupHandler(t)

	content := []byte("Account Name,Symbol,Description,Current Value\nBrokerage,VTI,CAF")
	content = append(content, 0xC9) // Latin-1 'É'
	content = append(content, []byte(",$100.00\n")...)

	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "positions.csv", content))

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Positions []importer.Position `json:"positions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Data.Positions, 1)
	assert.Equal(t, "CAFÉ", response.Data.Positions[0].Description)
}

func TestHandleAggregate_InlinePositions(t *testing.T) {
	handler := setupHandler(t)

	requestBody := map[string]interface{}{
		"positions": []interface{}{
			map[string]interface{}{"account": "Brokerage", "symbol": "VTI", "current_value": 25000.00},
			map[string]interface{}{"account": "Brokerage", "symbol": "ITOT", "current_value": 5000.00},
		},
	}

	w := postJSON(t, handler.HandleAggregate, "/api/import/aggregate", requestBody)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Assets []importer.AggregatedAsset `json:"assets"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Data.Assets, 1)
	assert.Equal(t, "Domestic Equity", response.Data.Assets[0].Name)
	assert.Equal(t, "30000.00", response.Data.Assets[0].CurrentValue.StringFixed(2))
}

func TestHandleAggregate_FromSession(t *testing.T) {
	handler := setupHandler(t)

	w := httptest.NewRecorder()
	handler.HandleUploadPositions(w, uploadRequest(t, "positions.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusOK, w.Code)

	var uploaded struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&uploaded))

	requestBody := map[string]interface{}{
		"session_id":      uploaded.Data.SessionID,
		"custom_mappings": map[string]interface{}{"XYZ": "Speculative"},
		"account":         "Roth IRA",
	}

	w = postJSON(t, handler.HandleAggregate, "/api/import/aggregate", requestBody)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Assets []importer.AggregatedAsset `json:"assets"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Data.Assets, 2)
	assert.Equal(t, "Domestic Equity", response.Data.Assets[0].Name)
	assert.Equal(t, "5000.00", response.Data.Assets[0].CurrentValue.StringFixed(2))
	assert.Equal(t, "Speculative", response.Data.Assets[1].Name)
}

func TestHandleAggregate_SessionNotFound(t *testing.T) {
	handler := setupHandler(t)

	w := postJSON(t, handler.HandleAggregate, "/api/import/aggregate", map[string]interface{}{
		"session_id": uuid.NewString(),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "SESSION_NOT_FOUND", errObj["code"])
}

func TestHandleAggregate_UnresolvedPositions(t *testing.T) {
	handler := setupHandler(t)

	requestBody := map[string]interface{}{
		"positions": []interface{}{
			map[string]interface{}{"account": "Brokerage", "symbol": "MYSTERY", "current_value": 100.00},
		},
	}

	w := postJSON(t, handler.HandleAggregate, "/api/import/aggregate", requestBody)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "UNRESOLVED_POSITIONS", errObj["code"])

	details := errObj["details"].(map[string]interface{})
	symbols := details["symbols"].([]interface{})
	assert.Equal(t, "MYSTERY", symbols[0])
}

func TestHandleAggregate_RequiresInput(t *testing.T) {
	handler := setupHandler(t)

	w := postJSON(t, handler.HandleAggregate, "/api/import/aggregate", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetMapping(t *testing.T) {
	handler := setupHandler(t)

	req := httptest.NewRequest("GET", "/api/import/mapping", nil)
	w := httptest.NewRecorder()
	handler.HandleGetMapping(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data importer.Snapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Domestic Equity", response.Data.Mappings["VTI"])
	assert.Contains(t, response.Data.Ignore, "SPAXX")
}
