package contracts

import (
	"sort"
	"strings"
)

// Decision is the label an upstream analyst attached to one instrument for one period
type Decision string

const (
	DecisionBuy     Decision = "BUY"
	DecisionSell    Decision = "SELL"
	DecisionHold    Decision = "HOLD"
	DecisionUnknown Decision = "UNKNOWN" // missing or unparseable record
)

// Confidence bounds (inclusive)
const (
	MinConfidence = 0
	MaxConfidence = 10
)

// NormalizeDecision uppercases and trims a raw label.
// Anything other than exactly BUY or SELL becomes HOLD.
func NormalizeDecision(raw string) Decision {
	switch Decision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionBuy:
		return DecisionBuy
	case DecisionSell:
		return DecisionSell
	default:
		return DecisionHold
	}
}

// ClampConfidence forces a confidence score into [0,10]
func ClampConfidence(c int) int {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// DecisionRecord is one (instrument, period) decision
// ⭐ 계약: 외부 생산자가 한 번 기록한 후 불변
type DecisionRecord struct {
	Instrument    string   `json:"instrument"`
	Period        Period   `json:"period"`
	Decision      Decision `json:"decision"`
	Confidence    int      `json:"confidence"`     // 0 ~ 10
	HasConfidence bool     `json:"has_confidence"` // false when absent or non-numeric
	Rationale     string   `json:"rationale,omitempty"`
}

// DecisionSet maps instrument -> record for a single period
type DecisionSet map[string]DecisionRecord

// Lookup returns the record for an instrument, or an UNKNOWN record when absent
func (s DecisionSet) Lookup(instrument string) DecisionRecord {
	if rec, ok := s[instrument]; ok {
		return rec
	}
	return DecisionRecord{Instrument: instrument, Decision: DecisionUnknown}
}

// Instruments returns all instruments in alphabetical order
func (s DecisionSet) Instruments() []string {
	out := make([]string, 0, len(s))
	for inst := range s {
		out = append(out, inst)
	}
	sort.Strings(out)
	return out
}

// WithDecision returns the alphabetically ordered records carrying the given label
func (s DecisionSet) WithDecision(d Decision) []DecisionRecord {
	out := make([]DecisionRecord, 0)
	for _, inst := range s.Instruments() {
		if rec := s[inst]; rec.Decision == d {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns the number of records per label
func (s DecisionSet) Count() map[Decision]int {
	counts := make(map[Decision]int, 3)
	for _, rec := range s {
		counts[rec.Decision]++
	}
	return counts
}
