package prices

import (
	"context"
	"fmt"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/pkg/logger"
)

// Access answers "what did this instrument return over this period".
// It never decides what an unavailable return means; callers do.
type Access struct {
	source Source
	logger *logger.Logger
}

// NewAccess wraps a price source
func NewAccess(source Source, log *logger.Logger) *Access {
	if log == nil {
		log = logger.NewNop()
	}
	return &Access{source: source, logger: log}
}

// HasPeriod reports whether the period has a price directory
func (a *Access) HasPeriod(ctx context.Context, period contracts.Period) bool {
	return a.source.HasPeriod(ctx, period)
}

// PeriodReturn returns the instrument's return over the period window.
// A non-nil error means the return is unavailable; it wraps ErrMissingData,
// ErrInsufficientSeries or ErrMalformedRecord, or is the context error.
func (a *Access) PeriodReturn(ctx context.Context, instrument string, period contracts.Period) (float64, error) {
	series, err := a.source.Series(ctx, instrument, period)
	if err != nil {
		return 0, err
	}

	r, ok := Return(series)
	if !ok {
		return 0, fmt.Errorf("%s %s: %d samples: %w", instrument, period, series.Len(), contracts.ErrInsufficientSeries)
	}
	return r, nil
}

// Stats returns return, volatility and drawdown over the period window
func (a *Access) Stats(ctx context.Context, instrument string, period contracts.Period) (contracts.SeriesStats, bool) {
	series, err := a.source.Series(ctx, instrument, period)
	if err != nil {
		a.logger.WithFields(map[string]interface{}{
			"instrument": instrument,
			"period":     period,
			"reason":     contracts.UnavailableReason(err),
		}).Debug("price stats unavailable")
		return contracts.SeriesStats{}, false
	}
	return Stats(series)
}
