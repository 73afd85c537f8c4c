package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/calendar"
	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/internal/decisions"
	"github.com/wonny/signalbt/internal/prices"
	"github.com/wonny/signalbt/pkg/logger"
)

var (
	periodsCmd = &cobra.Command{
		Use:   "periods",
		Short: "List decision periods and whether they can be scored",
		Long: `Enumerates decision periods in calendar order with their successor
period and whether the successor's price directory exists.

Example:
  go run ./cmd/signalbt periods --cadence weekly --cutoff 2024-06-24`,
		RunE: runPeriods,
	}

	periodsCadence string
	periodsCutoff  string
)

func init() {
	rootCmd.AddCommand(periodsCmd)
	periodsCmd.Flags().StringVar(&periodsCadence, "cadence", "monthly", "period cadence (monthly|weekly)")
	periodsCmd.Flags().StringVar(&periodsCutoff, "cutoff", "", "last decision period to include (inclusive)")
}

// periodRow is one line of the periods listing
type periodRow struct {
	Period    contracts.Period
	Forward   contracts.Period
	Decisions int
	Scorable  bool
}

func listPeriods(cmd *cobra.Command, cadence calendar.Cadence, store *decisions.Store, source prices.Source, cutoff contracts.Period) ([]periodRow, error) {
	periods, err := store.Periods(cutoff)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	rows := make([]periodRow, 0, len(periods))
	for _, p := range periods {
		row := periodRow{Period: p}
		if fwd, err := cadence.Successor(p); err == nil {
			row.Forward = fwd
			row.Scorable = source.HasPeriod(ctx, fwd)
		}
		if set, err := store.DecisionsFor(ctx, p); err == nil {
			row.Decisions = len(set)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func runPeriods(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(env)

	cadence, err := calendar.ForName(periodsCadence)
	if err != nil {
		return err
	}

	store := decisions.NewStore(env.Data.SignalsDir, cadence, log)
	rows, err := listPeriods(cmd, cadence, store, prices.NewFileStore(env.Data.PricesDir), contracts.Period(periodsCutoff))
	if err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Printf("  %-12s %-12s %9s  %s\n", "PERIOD", "FORWARD", "DECISIONS", "SCORABLE")
	PrintSeparator()
	scorable := 0
	for _, r := range rows {
		mark := "❌"
		if r.Scorable {
			mark = "✅"
			scorable++
		}
		fmt.Printf("  %-12s %-12s %9d  %s\n", r.Period, r.Forward, r.Decisions, mark)
	}
	PrintSeparator()
	fmt.Printf("  %d periods, %d scorable\n", len(rows), scorable)
	return nil
}
