package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/contracts"
)

// counterValue sums every series of a family whose labels include want
func counterValue(t *testing.T, r *Recorder, name string, want map[string]string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, want) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func matches(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.PeriodScored("buy_all")
	r.PeriodScored("buy_all")
	r.PeriodSkipped("buy_all", "no price directory for forward period")
	r.InstrumentDropped("buy_all")

	assert.Equal(t, 2.0, counterValue(t, r, "signalbt_periods_scored_total", map[string]string{"strategy": "buy_all"}))
	assert.Equal(t, 1.0, counterValue(t, r, "signalbt_periods_skipped_total", map[string]string{"reason": "no_prices"}))
	assert.Equal(t, 1.0, counterValue(t, r, "signalbt_instruments_dropped_total", nil))
}

func TestRecorder_RunFinished(t *testing.T) {
	r := NewRecorder()

	r.RunFinished("s", time.Second, nil)
	r.RunFinished("s", time.Second, fmt.Errorf("no periods: %w", contracts.ErrStructural))
	r.RunFinished("s", time.Second, errors.New("boom"))

	for _, result := range []string{"ok", "structural", "error"} {
		assert.Equal(t, 1.0, counterValue(t, r, "signalbt_runs_total", map[string]string{"result": result}), result)
	}

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "signalbt_run_duration_seconds" {
			assert.Equal(t, uint64(3), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}

func TestReasonClass(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"no price directory for forward period", "no_prices"},
		{"decisions unreadable: decisions 2024-01: missing data", "no_decisions"},
		{"parse period \"bad\"", "calendar"},
		{"policy failed", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ReasonClass(tt.reason))
		})
	}
}
