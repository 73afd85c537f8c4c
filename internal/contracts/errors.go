package contracts

import "errors"

// Error taxonomy. Only ErrStructural ever aborts a run;
// the rest are contained at the instrument or period level.
var (
	ErrMissingData        = errors.New("missing data")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrInsufficientSeries = errors.New("insufficient series")
	ErrStructural         = errors.New("structural failure")
)

// UnavailableReason turns a per-instrument price error into a short reason
func UnavailableReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingData):
		return "missing price file"
	case errors.Is(err, ErrInsufficientSeries):
		return "fewer than 2 price rows"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed price file"
	default:
		return err.Error()
	}
}
