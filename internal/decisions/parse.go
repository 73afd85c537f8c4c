package decisions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/signalbt/internal/contracts"
)

var (
	signalLine     = regexp.MustCompile(`(?im)^[\s*#>-]*(?:final\s+decision|signal)\s*\**\s*:\s*\**\s*([A-Za-z]+)`)
	reasonLine     = regexp.MustCompile(`(?ims)^[\s*#>-]*reason(?:ing)?\s*\**\s*:\s*\**\s*(.*)`)
	confidenceLine = regexp.MustCompile(`(?im)^[\s*#>-]*confidence\s*\**\s*:\s*\**\s*([-+]?[0-9]*\.?[0-9]+)`)
)

// ParseJSON decodes a JSON decision record.
// A JSON string holding JSON (double-encoded) is unwrapped once.
func ParseJSON(data []byte) (contracts.DecisionRecord, error) {
	var raw interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return contracts.DecisionRecord{}, fmt.Errorf("decode json: %w: %v", contracts.ErrMalformedRecord, err)
	}

	if inner, ok := raw.(string); ok {
		if err := json.Unmarshal([]byte(inner), &raw); err != nil {
			return contracts.DecisionRecord{}, fmt.Errorf("decode nested json: %w: %v", contracts.ErrMalformedRecord, err)
		}
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return contracts.DecisionRecord{}, fmt.Errorf("decision is %T, want object: %w", raw, contracts.ErrMalformedRecord)
	}

	fields := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}

	rec := contracts.DecisionRecord{
		Decision:  contracts.NormalizeDecision(firstString(fields, "decision", "signal", "final_decision")),
		Rationale: strings.TrimSpace(firstString(fields, "reasoning", "reason", "rationale")),
	}
	rec.Confidence, rec.HasConfidence = coerceConfidence(fields["confidence"])
	return rec, nil
}

// ParseText decodes the line-oriented form:
//
//	Signal: BUY            (or "Final Decision: BUY")
//	Confidence: 7          (optional)
//	Reason: free text, may continue over several lines
func ParseText(data []byte) (contracts.DecisionRecord, error) {
	text := string(data)

	m := signalLine.FindStringSubmatch(text)
	if m == nil {
		return contracts.DecisionRecord{}, fmt.Errorf("no Signal/Final Decision line: %w", contracts.ErrMalformedRecord)
	}

	rec := contracts.DecisionRecord{Decision: contracts.NormalizeDecision(m[1])}
	if c := confidenceLine.FindStringSubmatch(text); c != nil {
		rec.Confidence, rec.HasConfidence = coerceConfidence(c[1])
	}
	if r := reasonLine.FindStringSubmatch(text); r != nil {
		rec.Rationale = strings.TrimSpace(r[1])
	}
	return rec, nil
}

func firstString(fields map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// coerceConfidence accepts numbers and numeric strings; floats truncate.
// Anything else is 0 and never an error.
func coerceConfidence(v interface{}) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > contracts.MaxConfidence {
		f = contracts.MaxConfidence
	}
	if f < contracts.MinConfidence {
		f = contracts.MinConfidence
	}
	return contracts.ClampConfidence(int(f)), true
}
