package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/prices"
	"github.com/wonny/signalbt/pkg/logger"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Price artifact utilities",
}

var (
	pricesConvertCmd = &cobra.Command{
		Use:   "convert [period...]",
		Short: "Convert CSV price files to parquet",
		Long: `Reads every <prices>/<period>/<TICKER>.csv and writes <TICKER>.parquet next
to it (or under --dest/<period>). With no period arguments every period
directory is converted.

Example:
  go run ./cmd/signalbt prices convert 2024-01 2024-02
  go run ./cmd/signalbt prices convert --dest data/prices_parquet`,
		RunE: runPricesConvert,
	}

	convertDest string
)

func init() {
	rootCmd.AddCommand(pricesCmd)
	pricesCmd.AddCommand(pricesConvertCmd)
	pricesConvertCmd.Flags().StringVar(&convertDest, "dest", "", "destination root (default: the price root)")
}

// convertPeriod converts one period directory; malformed files are reported and skipped
func convertPeriod(cmd *cobra.Command, store *prices.FileStore, destRoot string, period contracts.Period, log *logger.Logger) (int, error) {
	entries, err := os.ReadDir(store.PeriodDir(period))
	if err != nil {
		return 0, err
	}

	var instruments []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		instruments = append(instruments, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(instruments)

	dest := filepath.Join(destRoot, string(period))
	converted := 0
	for _, inst := range instruments {
		series, err := store.Series(cmd.Context(), inst, period)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"period":     period,
				"instrument": inst,
			}).WithError(err).Warn("price file skipped")
			continue
		}
		if err := prices.WriteParquet(dest, series); err != nil {
			return converted, fmt.Errorf("write %s/%s: %w", period, inst, err)
		}
		converted++
	}
	return converted, nil
}

func runPricesConvert(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(env)

	store := prices.NewFileStore(env.Data.PricesDir)
	destRoot := convertDest
	if destRoot == "" {
		destRoot = store.Root()
	}

	periods := make([]contracts.Period, 0, len(args))
	for _, a := range args {
		periods = append(periods, contracts.Period(a))
	}
	if len(periods) == 0 {
		entries, err := os.ReadDir(store.Root())
		if err != nil {
			return fmt.Errorf("read price root: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				periods = append(periods, contracts.Period(e.Name()))
			}
		}
	}

	total := 0
	for i, p := range periods {
		n, err := convertPeriod(cmd, store, destRoot, p, log)
		if err != nil {
			return err
		}
		total += n
		PrintProgress("Convert", fmt.Sprintf("%s: %d files", p, n), i+1, len(periods))
	}

	PrintSuccess(fmt.Sprintf("%d parquet files written under %s", total, destRoot))
	return nil
}
