package prices

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/signalbt/internal/contracts"
)

// BarRecord is the parquet schema for one daily price bar
type BarRecord struct {
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Close  float64 `parquet:"close"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Volume int64   `parquet:"volume"`
}

func readParquet(path string) ([]contracts.PriceBar, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", filepath.Base(path), contracts.ErrMalformedRecord, err)
	}

	bars := make([]contracts.PriceBar, len(rows))
	for i, r := range rows {
		bars[i] = contracts.PriceBar{
			Date:   time.UnixMilli(r.Date).UTC(),
			Close:  r.Close,
			High:   r.High,
			Low:    r.Low,
			Volume: r.Volume,
		}
	}
	return bars, nil
}

// WriteParquet stores a series as <dir>/<instrument>.parquet
func WriteParquet(dir string, series *contracts.PriceSeries) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	records := make([]BarRecord, len(series.Bars))
	for i, b := range series.Bars {
		records[i] = BarRecord{
			Date:   b.Date.UnixMilli(),
			Close:  b.Close,
			High:   b.High,
			Low:    b.Low,
			Volume: b.Volume,
		}
	}
	return parquet.WriteFile(filepath.Join(dir, series.Instrument+".parquet"), records)
}
