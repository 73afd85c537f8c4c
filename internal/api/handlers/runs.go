package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/signalbt/internal/audit"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/pkg/logger"
)

// RunReader is the read side of the results store
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]audit.RunRecord, error)
	GetRun(ctx context.Context, runID string) (*audit.RunRecord, error)
	Series(ctx context.Context, runID string) ([]contracts.SeriesRow, error)
	Portfolio(ctx context.Context, runID string) ([]contracts.PortfolioSnapshot, error)
	Skipped(ctx context.Context, runID string) ([]contracts.SkippedPeriod, error)
}

const defaultListLimit = 50

// RunsHandler serves persisted backtest runs
// ⭐ SSOT: 백테스트 결과 API 핸들러는 이 구조체에서만
type RunsHandler struct {
	runs   RunReader
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runs RunReader, log *logger.Logger) *RunsHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RunsHandler{runs: runs, logger: log}
}

// ListRuns returns the most recent runs
// GET /api/runs?limit=N
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one run with its summary and skipped periods
// GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, id, "run", err)
		return
	}

	skipped, err := h.runs.Skipped(r.Context(), id)
	if err != nil {
		h.fail(w, id, "skipped periods", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":     run,
		"skipped": skipped,
	})
}

// GetSeries returns the return series of a run
// GET /api/runs/{id}/series
func (h *RunsHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	series, err := h.runs.Series(r.Context(), id)
	if err != nil {
		h.fail(w, id, "series", err)
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// GetPortfolio returns the per-period snapshots of a run
// GET /api/runs/{id}/portfolio
func (h *RunsHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snaps, err := h.runs.Portfolio(r.Context(), id)
	if err != nil {
		h.fail(w, id, "portfolio", err)
		return
	}

	respondJSON(w, http.StatusOK, snaps)
}

func (h *RunsHandler) fail(w http.ResponseWriter, id, what string, err error) {
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found: "+id)
		return
	}
	h.logger.WithFields(map[string]interface{}{
		"run_id": id,
		"what":   what,
	}).WithError(err).Error("Failed to read run")
	respondError(w, http.StatusInternalServerError, "Failed to retrieve "+what)
}
