package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/metrics"
	"github.com/wonny/signalbt/internal/scheduler"
	"github.com/wonny/signalbt/internal/scheduler/jobs"
	"github.com/wonny/signalbt/internal/strategyconfig"
	"github.com/wonny/signalbt/pkg/logger"
)

var (
	scheduleCmd = &cobra.Command{
		Use:   "schedule <run-file>...",
		Short: "Re-run backtests on their cron schedules",
		Long: `Loads each run file, registers it under its schedule.cron spec
(seconds field first, or a descriptor such as @weekly) and re-runs it as
new decision periods land. Results go to every configured sink.

Example:
  go run ./cmd/signalbt schedule strategies/topn_monthly.yaml strategies/longshort_weekly.yaml --serve`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSchedule,
	}

	scheduleServe  bool
	scheduleRetain time.Duration
	scheduleNow    bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleServe, "serve", false, "also start the results API")
	scheduleCmd.Flags().DurationVar(&scheduleRetain, "retain", 0, "prune SQLite runs older than this (0 = keep all)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run every job once at startup")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(env)
	ctx := cmd.Context()

	recorder := metrics.NewRecorder()
	sinks, closeSinks, err := openSinks(ctx, env, sinkOptions{files: true}, log)
	if err != nil {
		return fmt.Errorf("open result sinks: %w", err)
	}
	defer closeSinks()

	sched := scheduler.New(log)

	for _, path := range args {
		sc, _, err := strategyconfig.Load(path)
		if err != nil {
			return fmt.Errorf("load run file: %w", err)
		}
		if sc.Schedule.Cron == "" {
			return fmt.Errorf("%s: schedule.cron is required", path)
		}
		if sc.Benchmark == "" {
			sc.Benchmark = env.Benchmark
		}
		printWarnings(strategyconfig.Warn(sc))

		p, err := buildPipeline(ctx, env, sc, log, recorder)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer p.Close()

		name := sc.Meta.StrategyID + "_" + sc.Cadence.Name
		if err := sched.AddJob(jobs.NewBacktestJob(name, sc.Schedule.Cron, p, sinks, log)); err != nil {
			return err
		}
	}

	if scheduleRetain > 0 {
		if store := sqliteSink(sinks); store != nil {
			if err := sched.AddJob(jobs.NewRetentionJob(store, scheduleRetain, log)); err != nil {
				return err
			}
		} else {
			PrintWarning("--retain needs SQLITE_PATH; retention disabled")
		}
	}

	if scheduleServe {
		stop, err := startAPI(ctx, env, recorder, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	if scheduleNow {
		for _, name := range sched.Jobs() {
			if _, err := sched.RunNow(name); err != nil {
				return err
			}
		}
	}

	sched.Start()
	PrintJobList(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	waitForSignal()
	sched.Stop()
	return nil
}
