package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/pkg/config"
)

// Global flags; each overrides the matching environment variable when set
var (
	signalsDir    string
	pricesDir     string
	marketCapFile string
	outputDir     string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "signalbt",
	Short: "Walk-forward backtester for periodic BUY/SELL/HOLD decisions",
	Long: `signalbt scores per-period trading decisions against the next period's
realized prices under a pluggable selection policy.

Usage:
  go run ./cmd/signalbt [command]

Examples:
  go run ./cmd/signalbt backtest run --policy top_n_confidence --top-n 5 --threshold 7
  go run ./cmd/signalbt backtest run --run-file strategies/topn_cap.yaml
  go run ./cmd/signalbt bootstrap --policy buy_all --trials 500
  go run ./cmd/signalbt periods --cadence weekly
  go run ./cmd/signalbt serve`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&signalsDir, "signals", "", "decision root: <signals>/<period>/<TICKER>.json|txt (env SIGNALS_DIR)")
	pf.StringVar(&pricesDir, "prices", "", "price root: <prices>/<period>/<TICKER>.csv|parquet (env PRICES_DIR)")
	pf.StringVar(&marketCapFile, "marketcap", "", "market-cap CSV Month,Ticker,MarketCap (env MARKETCAP_FILE)")
	pf.StringVar(&outputDir, "output", "", "output directory (env OUTPUT_DIR)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadEnv reads process config and applies the global flag overrides
func loadEnv() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if signalsDir != "" {
		cfg.Data.SignalsDir = signalsDir
	}
	if pricesDir != "" {
		cfg.Data.PricesDir = pricesDir
	}
	if marketCapFile != "" {
		cfg.Data.MarketCapFile = marketCapFile
	}
	if outputDir != "" {
		cfg.Data.OutputDir = outputDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
