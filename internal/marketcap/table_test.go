package marketcap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/internal/contracts"
)

func TestParse(t *testing.T) {
	input := `Month,Ticker,MarketCap
2024-01,INFY,600000
2024-01,TCS,"1,400,000"
2024-02,INFY,610000
2024-02,WIPRO,n/a
2024-02,,100
2024-02,ITC,0
`
	table, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	v, ok := table.Lookup("2024-01", "TCS")
	require.True(t, ok)
	assert.Equal(t, 1400000.0, v)

	v, ok = table.Lookup("2024-02", "INFY")
	require.True(t, ok)
	assert.Equal(t, 610000.0, v)

	_, ok = table.Lookup("2024-02", "WIPRO")
	assert.False(t, ok)

	_, ok = table.Lookup("2024-03", "INFY")
	assert.False(t, ok)

	assert.Equal(t, 2, table.Months())
	assert.Equal(t, 3, table.Skipped())
}

func TestParseBadHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("Date,Close\n2024-01-01,1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMalformedRecord))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketcap.csv")
	require.NoError(t, os.WriteFile(path, []byte("Month,Ticker,MarketCap\n2024-01,INFY,5\n"), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	v, ok := table.Lookup("2024-01", "INFY")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, err = Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, errors.Is(err, contracts.ErrMissingData))
}

func TestNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("2024-01", "INFY")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Months())
}
