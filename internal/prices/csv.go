package prices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/signalbt/internal/contracts"
)

// Accepted date layouts (plain date, yfinance index, RFC3339)
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type csvColumns struct {
	date, close, high, low, volume int
}

// parseCSV reads a price CSV whose header names at least Date and Close.
// Rows whose date does not parse (e.g. extra yfinance header rows) are ignored;
// a dated row with an unparseable close makes the file malformed.
func parseCSV(r io.Reader) ([]contracts.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w: %v", contracts.ErrMalformedRecord, err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	bars := make([]contracts.PriceBar, 0, 32)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w: %v", contracts.ErrMalformedRecord, err)
		}

		date, ok := parseDate(field(row, cols.date))
		if !ok {
			continue
		}

		raw := field(row, cols.close)
		if raw == "" {
			continue
		}
		closePx, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(closePx) || math.IsInf(closePx, 0) {
			return nil, fmt.Errorf("close %q on %s: %w", raw, date.Format("2006-01-02"), contracts.ErrMalformedRecord)
		}

		bar := contracts.PriceBar{Date: date, Close: closePx}
		bar.High, _ = strconv.ParseFloat(field(row, cols.high), 64)
		bar.Low, _ = strconv.ParseFloat(field(row, cols.low), 64)
		if v, err := strconv.ParseFloat(field(row, cols.volume), 64); err == nil {
			bar.Volume = int64(v)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func locateColumns(header []string) (csvColumns, error) {
	cols := csvColumns{date: -1, close: -1, high: -1, low: -1, volume: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "datetime", "timestamp":
			cols.date = i
		case "close":
			cols.close = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "volume":
			cols.volume = i
		}
	}

	// yfinance multi-index exports put "Price" in the first column and leave the date header empty
	if cols.date < 0 && len(header) > 0 {
		first := strings.ToLower(strings.TrimSpace(header[0]))
		if first == "" || first == "price" {
			cols.date = 0
		}
	}

	if cols.date < 0 || cols.close < 0 {
		return cols, fmt.Errorf("header %v lacks Date/Close: %w", header, contracts.ErrMalformedRecord)
	}
	return cols, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
