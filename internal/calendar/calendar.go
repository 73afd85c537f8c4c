// Package calendar converts period labels to their successors and enumerates
// the decision periods present under a collection root.
package calendar

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/wonny/signalbt/internal/contracts"
)

// Cadence is one period granularity
// ⭐ 월간/주간은 같은 인터페이스의 두 구현
type Cadence interface {
	Name() string

	// Parse converts a label to the start instant of its window
	Parse(p contracts.Period) (time.Time, error)

	// Successor is pure calendar arithmetic; it never consults stored data
	Successor(p contracts.Period) (contracts.Period, error)

	// Month returns the "2006-01" month that contains the period start
	Month(p contracts.Period) (string, error)

	// PeriodsPerYear is the default annualization factor
	PeriodsPerYear() int
}

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// Monthly labels periods "2006-01"
type Monthly struct{}

func (Monthly) Name() string { return "monthly" }

func (Monthly) PeriodsPerYear() int { return 12 }

func (Monthly) Parse(p contracts.Period) (time.Time, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(string(p)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse monthly period %q: %w", p, err)
	}
	return t, nil
}

func (m Monthly) Successor(p contracts.Period) (contracts.Period, error) {
	t, err := m.Parse(p)
	if err != nil {
		return "", err
	}
	return contracts.Period(t.AddDate(0, 1, 0).Format(monthLayout)), nil
}

func (m Monthly) Month(p contracts.Period) (string, error) {
	t, err := m.Parse(p)
	if err != nil {
		return "", err
	}
	return t.Format(monthLayout), nil
}

// Weekly labels periods by their week-start date "2006-01-02"
type Weekly struct{}

func (Weekly) Name() string { return "weekly" }

func (Weekly) PeriodsPerYear() int { return 52 }

func (Weekly) Parse(p contracts.Period) (time.Time, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(string(p)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse weekly period %q: %w", p, err)
	}
	return t, nil
}

func (w Weekly) Successor(p contracts.Period) (contracts.Period, error) {
	t, err := w.Parse(p)
	if err != nil {
		return "", err
	}
	return contracts.Period(t.AddDate(0, 0, 7).Format(dayLayout)), nil
}

func (w Weekly) Month(p contracts.Period) (string, error) {
	t, err := w.Parse(p)
	if err != nil {
		return "", err
	}
	return t.Format(monthLayout), nil
}

// ForName resolves a cadence by its name
func ForName(name string) (Cadence, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monthly", "month", "m":
		return Monthly{}, nil
	case "weekly", "week", "w":
		return Weekly{}, nil
	default:
		return nil, fmt.Errorf("unknown cadence %q (want monthly or weekly)", name)
	}
}

// Compare orders two labels of the same cadence chronologically
func Compare(c Cadence, a, b contracts.Period) (int, error) {
	ta, err := c.Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := c.Parse(b)
	if err != nil {
		return 0, err
	}
	return ta.Compare(tb), nil
}

// Enumerate lists the period directories under root that parse for the cadence,
// sorted ascending. A non-empty cutoff bounds the result inclusively.
// Entries that are not directories or do not parse are ignored.
func Enumerate(c Cadence, root string, cutoff contracts.Period) ([]contracts.Period, error) {
	var cutoffAt time.Time
	if !cutoff.IsZero() {
		t, err := c.Parse(cutoff)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff: %w", err)
		}
		cutoffAt = t
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("period root %s: %w", root, contracts.ErrMissingData)
		}
		return nil, fmt.Errorf("read period root %s: %w", root, err)
	}

	type dated struct {
		period contracts.Period
		at     time.Time
	}
	found := make([]dated, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := contracts.Period(e.Name())
		at, err := c.Parse(p)
		if err != nil {
			continue
		}
		if !cutoffAt.IsZero() && at.After(cutoffAt) {
			continue
		}
		found = append(found, dated{period: p, at: at})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].at.Before(found[j].at)
	})

	periods := make([]contracts.Period, len(found))
	for i, d := range found {
		periods[i] = d.period
	}
	return periods, nil
}
