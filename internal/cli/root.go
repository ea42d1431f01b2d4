package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmodel/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path; empty uses config.Default
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rowmodel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rowmodel",
		Short: "rowmodel - declarative table models",
		Long: `Compile CUE table models, check them against each other, render their
DDL and synchronize a MySQL or SQLite database with them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (default: SQLite rowmodel.db)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDDLCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the --config file, falling back to the default
// configuration, and builds the logger it asks for.
func loadConfig(opts *RootOptions, f *OutputFormatter) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
		}
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
	}
	return cfg, f.Logger(level), nil
}

// loadModels wraps LoadModels with formatted error output.
func loadModels(dir string, f *OutputFormatter) (*LoadResult, error) {
	res, err := LoadModels(dir)
	if err != nil {
		code := ErrCodeGeneric
		if le, ok := err.(*LoadError); ok {
			code = le.Code
		}
		_ = f.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, code+": loading models", err)
	}
	f.VerboseLog("Found %d CUE file(s) and %d model(s) in %s", res.FileCount, len(res.Models), dir)
	return res, nil
}
