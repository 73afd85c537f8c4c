package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/api/handlers"
	"github.com/wonny/signalbt/internal/audit"
	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/metrics"
	"github.com/wonny/signalbt/pkg/logger"
)

const runID = "22222222-2222-2222-2222-222222222222"

func newTestRouter(t *testing.T) (http.Handler, *metrics.Recorder) {
	t.Helper()
	ctx := context.Background()

	store, err := audit.OpenSQLite(ctx, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	snaps := []contracts.PortfolioSnapshot{
		{Period: "2024-01", Forward: "2024-02", Holdings: contracts.EqualWeight([]string{"A"}).Holdings,
			StrategyReturn: 0.05, BenchmarkReturn: 0.01, BenchmarkAvailable: true},
		{Period: "2024-02", Forward: "2024-03", StrategyReturn: -0.02, BenchmarkReturn: 0, BenchmarkAvailable: true},
	}
	res := &backtest.Result{
		RunID: runID, Strategy: "buy_all", Policy: "buy_all", Cadence: "monthly", Benchmark: "NSEI",
		StartedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Snapshots: snaps,
		Series:    backtest.BuildSeries(snaps),
		Skipped:   []contracts.SkippedPeriod{{Period: "2024-03", Forward: "2024-04", Reason: "no price directory for forward period"}},
		Summary:   backtest.Summarize(snaps, backtest.Params{PeriodsPerYear: 12}),
	}
	require.NoError(t, store.Save(ctx, res))

	rec := metrics.NewRecorder()
	rec.PeriodScored("buy_all")

	log := logger.NewNop()
	router := NewRouter(handlers.NewRunsHandler(store, log), promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}), log)
	return router, rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_Runs(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		{
			name: "list", path: "/api/runs", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var out struct {
					Runs  []audit.RunRecord `json:"runs"`
					Count int               `json:"count"`
				}
				require.NoError(t, json.Unmarshal(body, &out))
				assert.Equal(t, 1, out.Count)
				assert.Equal(t, runID, out.Runs[0].RunID)
			},
		},
		{name: "bad limit", path: "/api/runs?limit=zero", wantStatus: http.StatusBadRequest},
		{
			name: "get", path: "/api/runs/" + runID, wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var out struct {
					Run     audit.RunRecord           `json:"run"`
					Skipped []contracts.SkippedPeriod `json:"skipped"`
				}
				require.NoError(t, json.Unmarshal(body, &out))
				assert.Equal(t, 2, out.Run.Scored)
				assert.Len(t, out.Skipped, 1)
			},
		},
		{
			name: "series", path: "/api/runs/" + runID + "/series", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var rows []contracts.SeriesRow
				require.NoError(t, json.Unmarshal(body, &rows))
				require.Len(t, rows, 2)
				assert.InDelta(t, 1.05*0.98, rows[1].CumulativeStrategy, 1e-12)
			},
		},
		{
			name: "portfolio", path: "/api/runs/" + runID + "/portfolio", wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var snaps []contracts.PortfolioSnapshot
				require.NoError(t, json.Unmarshal(body, &snaps))
				require.Len(t, snaps, 2)
				assert.Equal(t, []string{"A"}, snaps[0].Instruments())
			},
		},
		{name: "unknown run", path: "/api/runs/nope", wantStatus: http.StatusNotFound},
		{name: "unknown run series", path: "/api/runs/nope/series", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signalbt_periods_scored_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := get(t, h, "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
