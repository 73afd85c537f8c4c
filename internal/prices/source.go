// Package prices loads per-period price series and derives period returns.
package prices

import (
	"context"

	"github.com/wonny/signalbt/internal/contracts"
)

// Source loads the price series of one instrument restricted to one period window.
// Implementations return errors wrapping contracts.ErrMissingData when the
// artifact is absent and contracts.ErrMalformedRecord when it cannot be parsed.
type Source interface {
	// HasPeriod reports whether any price directory exists for the period
	HasPeriod(ctx context.Context, period contracts.Period) bool

	// Series returns the bars sorted ascending by date
	Series(ctx context.Context, instrument string, period contracts.Period) (*contracts.PriceSeries, error)
}
