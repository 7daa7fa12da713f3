package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"swingbook/internal/grading"
	"swingbook/internal/ingest"
	"swingbook/internal/trend"
)

// TrendOptions holds flags for the trend command.
type TrendOptions struct {
	*RootOptions
	MinTier string
	Window  int
}

// NewTrendCommand creates the trend command.
func NewTrendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trend <club>",
		Short: "Show a club's A-percentage trend over sessions",
		Long: `Show a club's grading trend across sessions, oldest first, with a
shot-count-weighted average A-percentage. Results are computed fresh from
the ledger on every run.

Example:
  swingbook trend "7 iron"
  swingbook trend driver --window 5 --min-tier valid`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrend(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MinTier, "min-tier", "low_sample_warning",
		"minimum validity tier to include (insufficient_data|low_sample_warning|valid)")
	cmd.Flags().IntVar(&opts.Window, "window", 0,
		"limit to the N most recent session dates (0 = all)")

	return cmd
}

func runTrend(opts *TrendOptions, club string, cmd *cobra.Command) error {
	minTier, err := grading.ParseTier(opts.MinTier)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse --min-tier", err)
	}

	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	result, err := trend.Compute(cmd.Context(), led, ingest.NormalizeClub(club), minTier, opts.Window)
	if err != nil {
		var noData *trend.NoDataError
		if errors.As(err, &noData) {
			return WrapExitError(ExitFailure, "no data", err)
		}
		return WrapExitError(ExitCommandError, "compute trend", err)
	}

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s trend (%d sessions, %d shots)\n", result.Club, result.Sessions, result.TotalShots)
	for _, p := range result.Points {
		fmt.Fprintf(w, "  %s  unit %d  %3d shots  %s  %s\n",
			p.SessionDate, p.UnitID, p.ShotCount, fmtPct(p.APercentage), p.Tier)
	}
	fmt.Fprintf(w, "weighted average: %s\n", fmtPct(result.WeightedAverage))
	return nil
}
