package prices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/signalbt/internal/contracts"
)

// FileStore reads <root>/<period>/<INSTRUMENT>.{csv,parquet}
// ⭐ SSOT: 가격 파일 경로 규칙은 여기서만
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at the price directory
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the configured price root
func (s *FileStore) Root() string {
	return s.root
}

// PeriodDir returns the directory holding one period's price files
func (s *FileStore) PeriodDir(period contracts.Period) string {
	return filepath.Join(s.root, string(period))
}

// HasPeriod reports whether the period's price directory exists
func (s *FileStore) HasPeriod(_ context.Context, period contracts.Period) bool {
	info, err := os.Stat(s.PeriodDir(period))
	return err == nil && info.IsDir()
}

// Series loads and sorts the series for an instrument.
// Index symbols may be stored with or without the "^" prefix; both are tried.
func (s *FileStore) Series(ctx context.Context, instrument string, period contracts.Period) (*contracts.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, name := range candidateNames(instrument) {
		bars, err := s.readBars(period, name)
		if errors.Is(err, contracts.ErrMissingData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", instrument, period, err)
		}

		series := &contracts.PriceSeries{Instrument: instrument, Period: period, Bars: bars}
		series.Sort()
		return series, nil
	}

	return nil, fmt.Errorf("%s %s: no price file: %w", instrument, period, contracts.ErrMissingData)
}

// readBars prefers CSV, then parquet
func (s *FileStore) readBars(period contracts.Period, name string) ([]contracts.PriceBar, error) {
	dir := s.PeriodDir(period)

	csvPath := filepath.Join(dir, name+".csv")
	if f, err := os.Open(csvPath); err == nil {
		defer f.Close()
		return parseCSV(f)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	pqPath := filepath.Join(dir, name+".parquet")
	if _, err := os.Stat(pqPath); err == nil {
		return readParquet(pqPath)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return nil, contracts.ErrMissingData
}

func candidateNames(instrument string) []string {
	name := strings.TrimSpace(instrument)
	if strings.HasPrefix(name, "^") {
		return []string{name, strings.TrimPrefix(name, "^")}
	}
	return []string{name, "^" + name}
}
