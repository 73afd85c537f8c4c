package contracts

// Period is an opaque, totally ordered evaluation interval label:
// "2006-01" for monthly cadence, the week-start date "2006-01-02" for weekly.
type Period string

// String implements fmt.Stringer
func (p Period) String() string {
	return string(p)
}

// IsZero reports whether the label is empty
func (p Period) IsZero() bool {
	return p == ""
}

// PeriodState is the evaluator state of one decision period
type PeriodState string

const (
	StateAwaitingPrices PeriodState = "AWAITING_PRICES"
	StateScored         PeriodState = "SCORED"
	StateSkipped        PeriodState = "SKIPPED"
)

// SkippedPeriod records why a period was excluded from the series
type SkippedPeriod struct {
	Period  Period `json:"period"`
	Forward Period `json:"forward"`
	Reason  string `json:"reason"`
}
