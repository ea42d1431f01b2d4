package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmodel/internal/compiler"
	"github.com/roach88/rowmodel/internal/dialect"
	"github.com/roach88/rowmodel/internal/model"
)

// SyncResult holds one report per synchronized model.
type SyncResult struct {
	Reports []dialect.Report `json:"reports"`
}

func (r SyncResult) renderText(w io.Writer) {
	for _, rep := range r.Reports {
		state := "created"
		if rep.Existed {
			state = fmt.Sprintf("rebuilt, %d/%d rows restored", rep.Restored, rep.BackedUp)
		}
		fmt.Fprintf(w, "✓ %s: %s", rep.Table, state)
		if rep.Defaults > 0 {
			fmt.Fprintf(w, ", %d default rows", rep.Defaults)
		}
		if len(rep.Dropped) > 0 {
			fmt.Fprintf(w, ", dropped columns %s", strings.Join(rep.Dropped, ", "))
		}
		fmt.Fprintln(w)
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "sync <models-dir>",
		Short: "Rebuild the configured database's tables from the models",
		Long: `Back up, drop, create and restore every model's table in the configured
database. Rows survive the rebuild; columns no longer declared are dropped.
Models are validated first and nothing is touched when validation fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), rootOpts, args[0], only, cmd)
		},
	}
	cmd.Flags().StringSliceVarP(&only, "model", "m", nil, "synchronize only these models")
	return cmd
}

func runSync(ctx context.Context, opts *RootOptions, dir string, only []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	cfg, logger, err := loadConfig(opts, formatter)
	if err != nil {
		return err
	}
	res, err := loadModels(dir, formatter)
	if err != nil {
		return err
	}
	if v := ValidateModels(res); !v.Valid {
		v.renderText(formatter.GetErrWriter())
		return formatter.Fail(ExitFailure, v.Errors[0].Code, "models are invalid", v.Errors[0])
	}

	selected := compiler.SyncOrder(res.Models)
	if len(only) > 0 {
		want := make(map[string]bool, len(only))
		for _, name := range only {
			if res.Model(name) == nil {
				return formatter.Fail(ExitCommandError, ErrCodeUnknownModel, fmt.Sprintf("unknown model %q", name), nil)
			}
			want[name] = true
		}
		filtered := selected[:0]
		for _, s := range selected {
			if want[s.Table()] {
				filtered = append(filtered, s)
			}
		}
		selected = filtered
	}

	db, err := model.Open(cfg, model.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "opening database", err)
	}
	defer db.Close()

	var result SyncResult
	for _, s := range selected {
		formatter.VerboseLog("Synchronizing %s", s.Table())
		rep, err := db.Sync(ctx, s)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "synchronizing "+s.Table(), err)
		}
		result.Reports = append(result.Reports, rep)
	}
	return formatter.Success(result)
}
