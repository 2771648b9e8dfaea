package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datecheck-bot/internal/service"
	"github.com/noah-isme/datecheck-bot/pkg/config"
)

func testRouter(withAvailability bool) (*gin.Engine, *service.MetricsService) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	var availability *AvailabilityHandler
	if withAvailability {
		checker := service.NewAvailabilityService(&ledgerStub{}, time.Second, metrics, nil)
		availability = NewAvailabilityHandler(checker, metrics)
	}
	cfg := &config.Config{Env: config.EnvDevelopment}
	return NewRouter(cfg, metrics, availability, nil), metrics
}

func TestRouterAlive(t *testing.T) {
	r, _ := testRouter(false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bot is alive!", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r, metrics := testRouter(false)
	metrics.RecordDateCheck("chat", service.OutcomeFree)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status  string                  `json:"status"`
		Metrics service.MetricsSnapshot `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, uint64(1), body.Metrics.DateChecks)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "date_checks_total")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouterAvailabilityRouteIsOptional(t *testing.T) {
	r, _ := testRouter(false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=25.12.2025", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	r, _ = testRouter(true)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=25.12.2025", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
