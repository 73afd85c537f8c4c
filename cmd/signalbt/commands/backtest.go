package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/metrics"
	"github.com/wonny/signalbt/internal/strategyconfig"
	"github.com/wonny/signalbt/pkg/logger"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Walk-forward backtesting",
	Long: `Scores each decision period t against the realized prices of period t+1.

A period whose successor has no price directory is skipped and logged;
the run fails only when nothing at all can be scored.`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one backtest",
		Long: `Runs one policy over every decision period and writes:
  <output>/<strategy>_<cadence>.csv            return series
  <output>/<strategy>_<cadence>_portfolio.json holdings per period
  <output>/<strategy>_<cadence>_summary.txt    key=value summary

Example:
  go run ./cmd/signalbt backtest run --policy top_n_confidence --top-n 5 --threshold 7
  go run ./cmd/signalbt backtest run --policy top_n_market_cap --weighting market_cap --marketcap data/marketcap.csv
  go run ./cmd/signalbt backtest run --run-file strategies/longshort_weekly.yaml --cutoff 2024-06-24`,
		RunE: runBacktest,
	}

	backtestFlags   strategyFlags
	backtestParquet bool
	backtestNoFiles bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	bindStrategyFlags(backtestRunCmd.Flags(), &backtestFlags)
	backtestRunCmd.Flags().BoolVar(&backtestParquet, "parquet", false, "also write the series as parquet")
	backtestRunCmd.Flags().BoolVar(&backtestNoFiles, "no-files", false, "skip file outputs (database sinks only)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(env)

	sc, err := resolveStrategy(cmd.Flags(), &backtestFlags, env)
	if err != nil {
		return fmt.Errorf("run config: %w", err)
	}
	printWarnings(strategyconfig.Warn(sc))

	ctx := cmd.Context()
	p, err := buildPipeline(ctx, env, sc, log, metrics.NewRecorder())
	if err != nil {
		return err
	}
	defer p.Close()

	PrintRunHeader(sc, env)

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	sinks, closeSinks, err := openSinks(ctx, env, sinkOptions{files: !backtestNoFiles, parquet: backtestParquet}, log)
	if err != nil {
		return fmt.Errorf("open result sinks: %w", err)
	}
	defer closeSinks()

	if err := sinks.Save(ctx, result); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	PrintBacktestResult(result)
	if !backtestNoFiles {
		PrintSuccess("Outputs written to " + env.Data.OutputDir)
	}
	return nil
}
