package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/internal/contracts"
)

var seriesHeader = []string{
	"period",
	"strategy_return",
	"benchmark_return",
	"excess_return",
	"cumulative_strategy",
	"cumulative_benchmark",
}

// SeriesRecord is the parquet schema of one return series row
type SeriesRecord struct {
	Period              string  `parquet:"period"`
	StrategyReturn      float64 `parquet:"strategy_return"`
	BenchmarkReturn     float64 `parquet:"benchmark_return"`
	ExcessReturn        float64 `parquet:"excess_return"`
	CumulativeStrategy  float64 `parquet:"cumulative_strategy"`
	CumulativeBenchmark float64 `parquet:"cumulative_benchmark"`
}

// Paths lists the files written for one run
type Paths struct {
	Series    string
	Portfolio string
	Summary   string
	Parquet   string // empty when parquet export is off
}

// FileWriter writes run outputs under one directory, named <strategy>_<cadence>
// ⭐ SSOT: 결과 파일 포맷은 여기서만
type FileWriter struct {
	dir     string
	parquet bool
}

// NewFileWriter creates a writer; withParquet adds a parquet copy of the series
func NewFileWriter(dir string, withParquet bool) *FileWriter {
	return &FileWriter{dir: dir, parquet: withParquet}
}

// PathsFor returns the output paths of a run
func (w *FileWriter) PathsFor(res *backtest.Result) Paths {
	base := filepath.Join(w.dir, res.Strategy+"_"+res.Cadence)
	p := Paths{
		Series:    base + ".csv",
		Portfolio: base + "_portfolio.json",
		Summary:   base + "_summary.txt",
	}
	if w.parquet {
		p.Parquet = base + ".parquet"
	}
	return p
}

// Save writes every output file
func (w *FileWriter) Save(_ context.Context, res *backtest.Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	paths := w.PathsFor(res)

	if err := writeSeriesCSV(paths.Series, res.Series); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	if err := writePortfolio(paths.Portfolio, res.Snapshots); err != nil {
		return fmt.Errorf("write portfolio log: %w", err)
	}
	if err := os.WriteFile(paths.Summary, []byte(FormatSummary(res)), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if paths.Parquet != "" {
		if err := writeSeriesParquet(paths.Parquet, res.Series); err != nil {
			return fmt.Errorf("write parquet series: %w", err)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeSeriesCSV(path string, rows []contracts.SeriesRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			string(r.Period),
			formatFloat(r.StrategyReturn),
			formatFloat(r.BenchmarkReturn),
			formatFloat(r.ExcessReturn),
			formatFloat(r.CumulativeStrategy),
			formatFloat(r.CumulativeBenchmark),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadSeriesCSV loads a series file written by FileWriter
func ReadSeriesCSV(path string) ([]contracts.SeriesRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty series file", path)
	}

	rows := make([]contracts.SeriesRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(seriesHeader) {
			return nil, fmt.Errorf("%s row %d: want %d columns, got %d", path, i+1, len(seriesHeader), len(rec))
		}
		var vals [5]float64
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
			}
			vals[j] = v
		}
		rows = append(rows, contracts.SeriesRow{
			Period:              contracts.Period(rec[0]),
			StrategyReturn:      vals[0],
			BenchmarkReturn:     vals[1],
			ExcessReturn:        vals[2],
			CumulativeStrategy:  vals[3],
			CumulativeBenchmark: vals[4],
		})
	}
	return rows, nil
}

// PortfolioLog is the on-disk portfolio log: period -> holdings
type PortfolioLog map[contracts.Period][]contracts.Holding

func portfolioLog(snapshots []contracts.PortfolioSnapshot) PortfolioLog {
	log := make(PortfolioLog, len(snapshots))
	for _, s := range snapshots {
		holdings := s.Holdings
		if holdings == nil {
			holdings = []contracts.Holding{}
		}
		log[s.Period] = holdings
	}
	return log
}

func writePortfolio(path string, snapshots []contracts.PortfolioSnapshot) error {
	data, err := json.MarshalIndent(portfolioLog(snapshots), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeSeriesParquet(path string, rows []contracts.SeriesRow) error {
	records := make([]SeriesRecord, len(rows))
	for i, r := range rows {
		records[i] = SeriesRecord{
			Period:              string(r.Period),
			StrategyReturn:      r.StrategyReturn,
			BenchmarkReturn:     r.BenchmarkReturn,
			ExcessReturn:        r.ExcessReturn,
			CumulativeStrategy:  r.CumulativeStrategy,
			CumulativeBenchmark: r.CumulativeBenchmark,
		}
	}
	return parquet.WriteFile(path, records)
}
