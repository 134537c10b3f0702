// Package cli implements the recur command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cyp0633/librecur/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // one of ValidFormats
	ConfigPath string

	config config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// Execute runs the recur command and exits with its exit code on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		os.Exit(GetExitCode(err))
	}
}

// NewRootCommand creates the root command for the recur CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Expand iCalendar recurrence sets",
		Long: `Expand RFC 5545 recurrence sets (RRULE, EXRULE, RDATE and EXDATE)
into the instants they describe, honoring time zones and clock changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|ics|xcal)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")

	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("format") || o.ConfigPath == "" {
		cfg.Format = o.Format
	}
	if !slices.Contains(ValidFormats, cfg.Format) {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats), nil)
	}

	o.config = cfg
	o.logger = newLogger(cmd.ErrOrStderr(), o.Verbose)
	return nil
}

// options returns the effective settings. Commands built without a root
// command (as in tests) fall back to the defaults and the format flag.
func (o *RootOptions) options() (config.Config, *slog.Logger) {
	if o.logger == nil {
		cfg := config.Default()
		if o.Format != "" {
			cfg.Format = o.Format
		}
		return cfg, slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.config, o.logger
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	addSource := false
	if verbose {
		level = slog.LevelDebug
		addSource = true
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
	}))
}
