// Package cli implements the swingbook command surface. Commands are thin:
// they parse flags, call into the core packages, and format results. No
// invariant lives here.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"swingbook/internal/config"
	"swingbook/internal/ledger"
	"swingbook/pkg/logger"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Database   string
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	cfg *config.Config
	log logger.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the swingbook CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "swingbook",
		Short: "Swingbook - immutable practice session grading",
		Long: `Swingbook ingests launch-monitor CSV exports, grades shots against
content-addressed threshold templates, and keeps every result in an
append-only ledger. History is never edited; re-analysis adds rows.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.Database != "" {
				cfg.DatabasePath = opts.Database
			}
			opts.cfg = cfg

			level := cfg.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			if err := logger.SetLevelString(level); err != nil {
				return err
			}
			opts.log = logger.Default()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config YAML")

	cmd.AddCommand(NewTemplatesCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewTrendCommand(opts))
	cmd.AddCommand(NewProjectCommand(opts))

	return cmd
}

// openLedger opens the configured ledger database.
func openLedger(opts *RootOptions) (*ledger.Ledger, error) {
	led, err := ledger.Open(opts.cfg.DatabasePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open ledger", err)
	}
	return led, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
