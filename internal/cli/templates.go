package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"swingbook/internal/template"
)

// TemplatesOptions holds flags for the templates subcommands.
type TemplatesOptions struct {
	*RootOptions
	File string
	Club string
}

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage grading templates",
	}

	load := &cobra.Command{
		Use:   "load [definitions-file]",
		Short: "Load template definitions from YAML",
		Long: `Load template definitions from a YAML file, validate them, and insert
each club's template into the ledger keyed by its content hash. Loading the
same definitions twice is a no-op.

Example:
  swingbook templates load templates.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.TemplatesFile
			if len(args) == 1 {
				path = args[0]
			}
			return loadTemplates(opts, path, cmd)
		},
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Club, "club", "", "only templates for this club")

	cmd.AddCommand(load)
	cmd.AddCommand(list)
	return cmd
}

func loadTemplates(opts *TemplatesOptions, path string, cmd *cobra.Command) error {
	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	report, err := template.LoadFile(cmd.Context(), led, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load templates", err)
	}

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(report)
	}

	w := cmd.OutOrStdout()
	for _, hash := range report.Inserted {
		fmt.Fprintf(w, "inserted %s\n", hash)
	}
	for _, hash := range report.Existing {
		fmt.Fprintf(w, "existing %s\n", hash)
	}
	for _, rej := range report.Rejected {
		fmt.Fprintf(w, "rejected %s: %s\n", rej.Club, rej.Reason)
	}
	fmt.Fprintf(w, "%d inserted, %d existing, %d rejected\n",
		len(report.Inserted), len(report.Existing), len(report.Rejected))

	if len(report.Rejected) > 0 {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("%d club definitions rejected", len(report.Rejected)), nil)
	}
	return nil
}

func listTemplates(opts *TemplatesOptions, cmd *cobra.Command) error {
	led, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer led.Close()

	ctx := cmd.Context()
	clubs := []string{opts.Club}
	if opts.Club == "" {
		clubs, err = led.ListTemplateClubs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "list templates", err)
		}
	}

	type row struct {
		Club      string `json:"club"`
		Hash      string `json:"hash"`
		CreatedAt string `json:"created_at"`
	}
	rows := []row{}
	for _, club := range clubs {
		records, err := led.ListTemplatesByClub(ctx, club)
		if err != nil {
			return WrapExitError(ExitCommandError, "list templates", err)
		}
		for _, rec := range records {
			rows = append(rows, row{Club: rec.Club, Hash: rec.Hash, CreatedAt: rec.CreatedAt})
		}
	}

	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	if out.IsJSON() {
		return out.JSON(rows)
	}
	for _, r := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s %s\n", r.Club, r.Hash, r.CreatedAt)
	}
	return nil
}
