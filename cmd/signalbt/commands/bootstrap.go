package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/backtest"
	"github.com/wonny/signalbt/pkg/logger"
)

var (
	bootstrapCmd = &cobra.Command{
		Use:   "bootstrap",
		Short: "Compare a strategy against randomized decisions",
		Long: `Runs the strategy once on the real decisions, then --trials times with
the same instruments but labels drawn uniformly from BUY/SELL/HOLD and
confidence drawn uniformly from 0-10. Trial i uses seed+i.

Example:
  go run ./cmd/signalbt bootstrap --policy top_n_confidence --top-n 5 --trials 1000 --seed 42`,
		RunE: runBootstrap,
	}

	bootstrapFlags strategyFlags
)

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bindStrategyFlags(bootstrapCmd.Flags(), &bootstrapFlags)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(env)

	sc, err := resolveStrategy(cmd.Flags(), &bootstrapFlags, env)
	if err != nil {
		return fmt.Errorf("run config: %w", err)
	}

	ctx := cmd.Context()
	p, err := buildPipeline(ctx, env, sc, log, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	PrintRunHeader(sc, env)

	evaluator, actual, err := p.run(ctx)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Printf("🎲 Running %d randomized trials (seed %d)...\n", sc.Bootstrap.Trials, sc.Bootstrap.Seed)
	res, err := backtest.Bootstrap(ctx, p.decisions, evaluator, p.engineConfig(), actual,
		sc.Bootstrap.Trials, sc.Bootstrap.Seed, log)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	PrintBootstrapResult(res)
	return nil
}
