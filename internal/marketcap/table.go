// Package marketcap holds the read-only (month, instrument) -> market cap table.
package marketcap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wonny/signalbt/internal/contracts"
)

// Table is loaded once and shared across periods without locking
type Table struct {
	caps    map[string]map[string]float64 // month -> instrument -> cap
	skipped int
}

// Empty returns a table with no rows
func Empty() *Table {
	return &Table{caps: make(map[string]map[string]float64)}
}

// Load reads a CSV with Month, Ticker and MarketCap columns
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("market cap file %s: %w", path, contracts.ErrMissingData)
		}
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the market-cap CSV from r.
// Rows with an empty key or a non-positive/unparseable cap are counted and skipped.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read market cap header: %w: %v", contracts.ErrMalformedRecord, err)
	}

	monthCol, tickerCol, capCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "month", "period":
			monthCol = i
		case "ticker", "instrument", "symbol":
			tickerCol = i
		case "marketcap", "market_cap", "market cap":
			capCol = i
		}
	}
	if monthCol < 0 || tickerCol < 0 || capCol < 0 {
		return nil, fmt.Errorf("market cap header %v lacks Month/Ticker/MarketCap: %w", header, contracts.ErrMalformedRecord)
	}

	t := Empty()
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read market cap row: %w: %v", contracts.ErrMalformedRecord, err)
		}

		month := cell(row, monthCol)
		inst := cell(row, tickerCol)
		raw := strings.ReplaceAll(cell(row, capCol), ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if month == "" || inst == "" || err != nil || value <= 0 {
			t.skipped++
			continue
		}
		t.Set(month, inst, value)
	}

	return t, nil
}

// Set stores one row, replacing any previous value
func (t *Table) Set(month, instrument string, value float64) {
	byInst, ok := t.caps[month]
	if !ok {
		byInst = make(map[string]float64)
		t.caps[month] = byInst
	}
	byInst[instrument] = value
}

// Lookup returns the market cap of an instrument for a "2006-01" month
func (t *Table) Lookup(month, instrument string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.caps[month][instrument]
	return v, ok
}

// Months returns the number of distinct months loaded
func (t *Table) Months() int {
	if t == nil {
		return 0
	}
	return len(t.caps)
}

// Skipped returns the number of rows that could not be used
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
