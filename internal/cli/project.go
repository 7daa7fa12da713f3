package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"swingbook/internal/ledger"
	"swingbook/internal/projection"
)

// ProjectOptions holds flags for the project subcommands.
type ProjectOptions struct {
	*RootOptions
	Cache bool
}

// NewProjectCommand creates the project command group.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Emit and manage derived snapshots",
		Long: `Emit derived snapshots of analysis units. Snapshots are regenerable
exports: they can be cached and purged freely, and they can never be
imported back into the ledger.`,
	}

	emit := &cobra.Command{
		Use:           "emit <unit-id>",
		Short:         "Emit a unit's snapshot as canonical JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return emitProjection(opts, id, cmd)
		},
	}
	emit.Flags().BoolVar(&opts.Cache, "cache", false, "also store the snapshot in the projection cache")

	purge := &cobra.Command{
		Use:           "purge",
		Short:         "Drop every cached snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return purgeProjections(opts, cmd)
		},
	}

	cmd.AddCommand(emit)
	cmd.AddCommand(purge)
	return cmd
}

func emitProjection(opts *ProjectOptions, unitID int64, cmd *cobra.Command) error {
	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := cmd.Context()
	snap, err := projection.Generate(ctx, led, unitID)
	if err != nil {
		if ledger.IsNotFound(err) {
			return WrapExitError(ExitFailure, "unit not found", err)
		}
		return WrapExitError(ExitCommandError, "generate snapshot", err)
	}

	body, err := snap.Serialize()
	if err != nil {
		return WrapExitError(ExitCommandError, "serialize snapshot", err)
	}

	if opts.Cache {
		if _, err := projection.Cache(ctx, led, unitID, snap); err != nil {
			return WrapExitError(ExitCommandError, "cache snapshot", err)
		}
	}

	// Snapshot bytes are already canonical JSON; emit them as-is in both
	// formats.
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", body)
	return nil
}

func purgeProjections(opts *ProjectOptions, cmd *cobra.Command) error {
	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	n, err := led.PurgeProjections(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "purge projections", err)
	}

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(map[string]int64{"purged": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached snapshots\n", n)
	return nil
}
