package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"swingbook/internal/ledger"
)

// NewSessionCommand creates the session command group.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect recorded sessions",
	}

	show := &cobra.Command{
		Use:           "show <session-id>",
		Short:         "Show one session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return showSession(rootOpts, id, cmd)
		},
	}

	units := &cobra.Command{
		Use:           "units <session-id>",
		Short:         "List a session's analysis units",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return showUnits(rootOpts, id, cmd)
		},
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List all sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(rootOpts, cmd)
		},
	}

	cmd.AddCommand(show)
	cmd.AddCommand(units)
	cmd.AddCommand(list)
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", arg), err)
	}
	return id, nil
}

func showSession(opts *RootOptions, id int64, cmd *cobra.Command) error {
	led, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer led.Close()

	session, err := led.GetSession(cmd.Context(), id)
	if err != nil {
		if ledger.IsNotFound(err) {
			return WrapExitError(ExitFailure, "session not found", err)
		}
		return WrapExitError(ExitCommandError, "read session", err)
	}

	out := newFormatter(opts, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(session)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "session %d\n", session.ID)
	fmt.Fprintf(w, "  date:       %s\n", session.Date)
	fmt.Fprintf(w, "  source:     %s\n", session.SourceFile)
	if session.DeviceType != nil {
		fmt.Fprintf(w, "  device:     %s\n", *session.DeviceType)
	}
	if session.Location != nil {
		fmt.Fprintf(w, "  location:   %s\n", *session.Location)
	}
	fmt.Fprintf(w, "  batch:      %s\n", session.IngestID)
	fmt.Fprintf(w, "  ingested:   %s\n", session.IngestedAt)
	return nil
}

func showUnits(opts *RootOptions, id int64, cmd *cobra.Command) error {
	led, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := cmd.Context()
	if _, err := led.GetSession(ctx, id); err != nil {
		if ledger.IsNotFound(err) {
			return WrapExitError(ExitFailure, "session not found", err)
		}
		return WrapExitError(ExitCommandError, "read session", err)
	}

	units, err := led.ListUnitsBySession(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "list units", err)
	}

	out := newFormatter(opts, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(units)
	}

	w := cmd.OutOrStdout()
	for _, u := range units {
		fmt.Fprintf(w, "unit %d  %-16s %3d shots  A:%d B:%d C:%d  %s  %s  carry %s\n",
			u.ID, u.Club, u.ShotCount,
			u.ACount, u.BCount, u.CCount,
			fmtPct(u.APercentage), u.Tier, fmtAvg(u.AvgCarry))
	}
	return nil
}

func listSessions(opts *RootOptions, cmd *cobra.Command) error {
	led, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer led.Close()

	sessions, err := led.ListSessions(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "list sessions", err)
	}

	out := newFormatter(opts, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(sessions)
	}
	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "session %d  %s  %s\n", s.ID, s.Date, s.SourceFile)
	}
	return nil
}
