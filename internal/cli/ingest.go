package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swingbook/internal/ingest"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Clubs    []string
	Device   string
	Location string
	Date     string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <csv-file>",
		Short: "Ingest a launch-monitor CSV export",
		Long: `Ingest a launch-monitor CSV export as one immutable session.

Each club's shots are graded against that club's stored template and recorded
as one analysis unit. Clubs without a stored template are skipped and
reported. Re-ingesting the same file creates a new session; nothing is ever
overwritten.

Example:
  swingbook ingest range-2026-08-01.csv
  swingbook ingest range.csv --clubs "7 iron,driver" --location "Range A"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Clubs, "clubs", nil,
		"clubs to analyze (default: every club with a stored template)")
	cmd.Flags().StringVar(&opts.Device, "device", "", "device type (overrides config)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "practice location")
	cmd.Flags().StringVar(&opts.Date, "date", "", "session date, ISO-8601 (default: now)")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := cmd.Context()

	clubs := opts.Clubs
	if len(clubs) == 0 {
		clubs, err = led.ListTemplateClubs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "resolve clubs", err)
		}
	}
	selected, err := ingest.SelectTemplates(ctx, led, clubs)
	if err != nil {
		return WrapExitError(ExitCommandError, "select templates", err)
	}
	if len(selected) == 0 {
		return WrapExitError(ExitFailure,
			"no stored templates for the requested clubs; run 'swingbook templates load' first", nil)
	}

	device := opts.Device
	if device == "" {
		device = opts.cfg.DeviceType
	}

	in := ingest.New(led, opts.log)
	report, err := in.IngestFile(ctx, path, ingest.Options{
		TemplateByClub: selected,
		DeviceType:     device,
		Location:       opts.Location,
		SessionDate:    opts.Date,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "ingest", err)
	}

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "session %d ingested (batch %s)\n", report.SessionID, report.IngestID)
	for _, club := range report.Clubs {
		fmt.Fprintf(w, "  %-16s %3d shots  A:%d B:%d C:%d  %s  %s\n",
			club.Club, club.ShotCount,
			club.Counts.A, club.Counts.B, club.Counts.C,
			fmtPct(club.APercentage), club.Tier)
	}
	if len(report.SkippedClubs) > 0 {
		fmt.Fprintf(w, "skipped (no template): %s\n", strings.Join(report.SkippedClubs, ", "))
	}
	if report.MalformedRows > 0 {
		fmt.Fprintf(w, "skipped %d malformed rows\n", report.MalformedRows)
	}
	return nil
}
