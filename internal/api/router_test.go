package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaelee/vigil/internal/api/handlers"
	"github.com/minjaelee/vigil/internal/classify"
	"github.com/minjaelee/vigil/internal/discovery"
	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/internal/refresh"
	"github.com/minjaelee/vigil/internal/risk"
	"github.com/minjaelee/vigil/internal/trade"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// newTestRouter wires real components against stub upstream servers.
func newTestRouter(t *testing.T, upstream http.Handler) (http.Handler, *ingest.Store) {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
		Discovery: config.DiscoveryConfig{BaseURL: server.URL, Limit: 20},
		Trade:     config.TradeConfig{BaseURL: server.URL, CapitalLimit: 100},
	}
	log := logger.New(cfg)

	client := discovery.NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
	store := ingest.NewStore(nil, log)
	sizer := risk.NewSizer(cfg, log)
	submitter := trade.NewSubmitter(cfg, httputil.New(cfg, log), client, log)

	pipeline := refresh.NewPipeline(cfg, client,
		ingest.NewNormalizer(log),
		classify.NewClassifier(classify.AlertThresholds, log),
		store, log)
	refresher := refresh.NewRefresher(pipeline, log)

	router := NewRouter(
		handlers.NewCandidatesHandler(store, client, log),
		handlers.NewStatusHandler(client, refresher, log),
		handlers.NewTradingHandler(store, sizer, submitter, nil, log),
		log,
	)
	return router, store
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vigil-api")
}

func TestCandidatesEndpoint(t *testing.T) {
	router, store := newTestRouter(t, http.NotFoundHandler())
	store.Replace(context.Background(), []model.Candidate{
		{Symbol: "VIGL", Score: 0.85, Tier: model.TierCritical},
	}, 2)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/candidates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Candidates []model.Candidate `json:"candidates"`
		Count      int               `json:"count"`
		Dropped    int64             `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, int64(2), body.Dropped)
	assert.Equal(t, model.TierCritical, body.Candidates[0].Tier)
}

func TestStatusEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["safe_to_trade"])
	assert.NotEmpty(t, body["session"])
}

func TestTradeEndpoint(t *testing.T) {
	router, store := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/trades/execute") {
			assert.NotEmpty(t, r.URL.Query().Get("idempotency_key"))
			w.Write([]byte(`{"success":true,"execution_result":{"order_id":"ord-9"}}`))
			return
		}
		http.NotFound(w, r)
	}))
	store.Replace(context.Background(), []model.Candidate{
		{Symbol: "VIGL", Price: 2.45, Score: 0.85, VolumeSurge: 12, Tier: model.TierCritical},
	}, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/trades", strings.NewReader(`{"symbol":"vigl"}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 40, body.Plan.Shares)
	assert.InDelta(t, 4.0, body.Plan.StopLossPct, 1e-9)
	assert.Equal(t, model.OrderAccepted, body.Result.Status)
	assert.Equal(t, "ord-9", body.Result.OrderID)
}

func TestTradeEndpointUnknownSymbol(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/trades", strings.NewReader(`{"symbol":"NOPE"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTradeEndpointPositionTooSmall(t *testing.T) {
	router, store := newTestRouter(t, http.NotFoundHandler())
	store.Replace(context.Background(), []model.Candidate{
		{Symbol: "EXPN", Price: 150, Score: 0.85, Tier: model.TierCritical},
	}, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/trades", strings.NewReader(`{"symbol":"EXPN"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "position too small")
}

func TestOrdersRecentWithoutJournal(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/orders/recent", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	log := logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})

	r := httptest.NewRecorder()
	handler := recoveryMiddleware(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	handler.ServeHTTP(r, httptest.NewRequest("GET", "/api/candidates", nil))

	assert.Equal(t, http.StatusInternalServerError, r.Code)
	assert.Contains(t, r.Body.String(), "Internal server error")
}
