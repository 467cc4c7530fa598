package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/hydration-engine/engine"
)

var (
	queryFrom string
	queryTo   string
)

var (
	goalByMonth bool

	intakeGranularity string
	intakeFunc        string
	intakeDayOffset   int
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Print the daily goal series, or monthly averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		from, to, err := parseQueryRange(a.loc)
		if err != nil {
			return err
		}

		eng := engine.New(a.store)
		var values []float64
		if goalByMonth {
			values, err = eng.GoalAmountsByMonth(ctx, from, to)
		} else {
			values, err = eng.GoalAmounts(ctx, from, to)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), values)
	},
}

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Print bucketed intake totals or averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		from, to, err := parseQueryRange(a.loc)
		if err != nil {
			return err
		}
		granularity, err := engine.ParseGranularity(intakeGranularity)
		if err != nil {
			return err
		}
		fn, err := engine.ParseAggregateFunc(intakeFunc)
		if err != nil {
			return err
		}
		offset := a.cfg.Engine.DayOffset
		if cmd.Flags().Changed("day-offset") {
			offset = intakeDayOffset
		}

		parts, err := engine.New(a.store).IntakeAggregate(ctx, engine.IntakeQuery{
			Begin:       from,
			End:         to,
			DayOffset:   offset,
			Granularity: granularity,
			Func:        fn,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), parts)
	},
}

func init() {
	for _, c := range []*cobra.Command{goalCmd, intakeCmd} {
		c.Flags().StringVar(&queryFrom, "from", "", "First day (YYYY-MM-DD)")
		c.Flags().StringVar(&queryTo, "to", "", "Day after the last (YYYY-MM-DD)")
		_ = c.MarkFlagRequired("from")
		_ = c.MarkFlagRequired("to")
		rootCmd.AddCommand(c)
	}
	goalCmd.Flags().BoolVar(&goalByMonth, "by-month", false, "Average per calendar month")
	intakeCmd.Flags().StringVar(&intakeGranularity, "granularity", "day", "Bucket size: day, month or year")
	intakeCmd.Flags().StringVar(&intakeFunc, "func", "sum", "Aggregation: sum or average")
	intakeCmd.Flags().IntVar(&intakeDayOffset, "day-offset", 0, "Hour a logical day starts at (default from config)")
}

func parseQueryRange(loc *time.Location) (time.Time, time.Time, error) {
	from, err := engine.ParseDate(queryFrom, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date (expected YYYY-MM-DD): %w", err)
	}
	to, err := engine.ParseDate(queryTo, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date (expected YYYY-MM-DD): %w", err)
	}
	return from, to, nil
}
