// Package decisions loads the per-period decision records produced upstream.
package decisions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/signalbt/internal/calendar"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/pkg/logger"
)

// Store reads <root>/<period>/<INSTRUMENT>.{json,txt}
// ⭐ SSOT: 시그널 파일 해석은 여기서만
type Store struct {
	root    string
	cadence calendar.Cadence
	logger  *logger.Logger
}

// NewStore creates a decision store for one cadence
func NewStore(root string, cadence calendar.Cadence, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{root: root, cadence: cadence, logger: log}
}

// Root returns the configured decision root
func (s *Store) Root() string {
	return s.root
}

// Periods lists decision periods in ascending order, bounded by an inclusive cutoff
func (s *Store) Periods(cutoff contracts.Period) ([]contracts.Period, error) {
	return calendar.Enumerate(s.cadence, s.root, cutoff)
}

// DecisionsFor loads every decision of the period.
// Malformed records are logged and excluded; they never fail the period.
func (s *Store) DecisionsFor(ctx context.Context, period contracts.Period) (contracts.DecisionSet, error) {
	dir := filepath.Join(s.root, string(period))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("decisions %s: %w", period, contracts.ErrMissingData)
		}
		return nil, fmt.Errorf("read decisions %s: %w", period, err)
	}

	// instrument -> file, JSON preferred over text
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".txt" {
			continue
		}
		inst := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, ok := files[inst]; ok && strings.EqualFold(filepath.Ext(prev), ".json") {
			continue
		}
		files[inst] = name
	}

	instruments := make([]string, 0, len(files))
	for inst := range files {
		instruments = append(instruments, inst)
	}
	sort.Strings(instruments)

	set := make(contracts.DecisionSet, len(files))
	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := s.readRecord(filepath.Join(dir, files[inst]))
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"period":     period,
				"instrument": inst,
				"file":       files[inst],
			}).WithError(err).Warn("malformed decision excluded")
			continue
		}

		rec.Instrument = inst
		rec.Period = period
		set[inst] = rec
	}

	return set, nil
}

func (s *Store) readRecord(path string) (contracts.DecisionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.DecisionRecord{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseText(data)
}
