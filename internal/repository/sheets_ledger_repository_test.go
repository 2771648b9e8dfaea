package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/datecheck-bot/pkg/config"
)

func newSheetsStub(t *testing.T, handler http.HandlerFunc) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func TestSheetsLedgerReadsFirstColumnOfFirstSheet(t *testing.T) {
	var metadataCalls, valueCalls int32
	svc := newSheetsStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/values/"):
			atomic.AddInt32(&valueCalls, 1)
			assert.Contains(t, r.URL.Path, "'Bookings'!A:A")
			assert.Equal(t, "COLUMNS", r.URL.Query().Get("majorDimension"))
			_, _ = w.Write([]byte(`{"range":"'Bookings'!A1:A5","majorDimension":"COLUMNS","values":[["Дата","01.01.2026","","14.02.2026"," 20.03.2026 "]]}`))
		case strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/sheet-key"):
			atomic.AddInt32(&metadataCalls, 1)
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Bookings"}},{"properties":{"title":"Archive"}}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	repo := NewSheetsLedgerRepository(svc, "sheet-key", "", 1)
	dates, err := repo.BookedDates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"01.01.2026", "", "14.02.2026", " 20.03.2026 "}, dates)
	assert.Equal(t, int32(1), atomic.LoadInt32(&metadataCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&valueCalls))
	assert.Equal(t, config.LedgerSheets, repo.Name())
	assert.NoError(t, repo.Close())
}

func TestSheetsLedgerNamedSheetSkipsMetadata(t *testing.T) {
	svc := newSheetsStub(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/values/") {
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		assert.Contains(t, r.URL.Path, "'Studio''s dates'!A:A")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"majorDimension":"COLUMNS"}`))
	})

	dates, err := NewSheetsLedgerRepository(svc, "sheet-key", "Studio's dates", 1).BookedDates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestSheetsLedgerPropagatesAPIErrors(t *testing.T) {
	svc := newSheetsStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`))
	})

	_, err := NewSheetsLedgerRepository(svc, "sheet-key", "Bookings", 1).BookedDates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")
}

func TestSheetsLedgerEmptySpreadsheetIsAnError(t *testing.T) {
	svc := newSheetsStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sheets":[]}`))
	})

	_, err := NewSheetsLedgerRepository(svc, "sheet-key", "", 1).BookedDates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no worksheets")
}

func TestSheetsServiceProviderSelection(t *testing.T) {
	provider, err := NewSheetsServiceProvider(config.LedgerConfig{CredentialsJSON: "{}", CredentialsFile: "/tmp/key.json"})
	require.NoError(t, err)
	assert.Equal(t, "inline", provider.Describe())

	provider, err = NewSheetsServiceProvider(config.LedgerConfig{CredentialsFile: "/tmp/key.json"})
	require.NoError(t, err)
	assert.Equal(t, "file", provider.Describe())

	_, err = NewSheetsServiceProvider(config.LedgerConfig{CredentialsJSON: "  "})
	assert.Error(t, err)
}

func TestSheetsCredentialErrors(t *testing.T) {
	_, err := InlineCredentials{JSON: "not json"}.SheetsService(context.Background())
	assert.Error(t, err)

	_, err = FileCredentials{Path: filepath.Join(t.TempDir(), "missing.json")}.SheetsService(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read credentials file")
}

func TestSkipHeader(t *testing.T) {
	assert.Equal(t, []string{"b"}, skipHeader([]string{"a", "b"}, 1))
	assert.Equal(t, []string{"a", "b"}, skipHeader([]string{"a", "b"}, 0))
	assert.Empty(t, skipHeader([]string{"a"}, 3))
}
