package metrics

import "strings"

// ReasonClass maps a skip reason to a fixed label value
func ReasonClass(reason string) string {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "price"):
		return "no_prices"
	case strings.Contains(r, "decisions"):
		return "no_decisions"
	case strings.Contains(r, "successor"), strings.Contains(r, "parse"):
		return "calendar"
	default:
		return "other"
	}
}
