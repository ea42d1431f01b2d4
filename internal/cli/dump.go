package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmodel/internal/model"
	"github.com/roach88/rowmodel/internal/query"
)

// DumpResult is the rows of one model.
type DumpResult struct {
	Model string        `json:"model"`
	Page  *model.Page   `json:"page,omitempty"`
	Rows  *model.Models `json:"rows"`
}

// renderText prints the rows as a JSON array, then the page counts.
func (r DumpResult) renderText(w io.Writer) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(r.Rows)
	if r.Page != nil {
		fmt.Fprintf(w, "%d of %d rows\n", r.Page.Returned, r.Page.Total)
	}
}

type dumpOptions struct {
	search, sort, rng string
	domain, tenant    string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var do dumpOptions
	cmd := &cobra.Command{
		Use:   "dump <models-dir> <model>",
		Short: "Print the rows of one model as JSON",
		Long: `Read the rows of one model from the configured database. Without list
flags every row is printed in primary key order. --search, --sort, --range,
--domain and --tenant switch to the list read path, which also reports the
number of matching rows.

  rowmodel dump ./models users --search name:ada --sort name:desc --range 0,20`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req *query.Request
			flags := cmd.Flags()
			if flags.Changed("search") || flags.Changed("sort") || flags.Changed("range") ||
				flags.Changed("domain") || flags.Changed("tenant") {
				req = &query.Request{Search: do.search, Sort: do.sort, Range: do.rng}
				if flags.Changed("domain") {
					req.Domain = &do.domain
				}
				if flags.Changed("tenant") {
					req.TenantID = &do.tenant
				}
			}
			return runDump(cmd.Context(), rootOpts, args[0], args[1], req, cmd)
		},
	}
	cmd.Flags().StringVarP(&do.search, "search", "s", "", "prefix matches: col:value[,col:value...]")
	cmd.Flags().StringVar(&do.sort, "sort", "", "sort keys: col[:asc|:desc][,...]")
	cmd.Flags().StringVarP(&do.rng, "range", "r", "", "row range: count or start,end")
	cmd.Flags().StringVar(&do.domain, "domain", "", "domain scope")
	cmd.Flags().StringVar(&do.tenant, "tenant", "", "tenant scope")
	return cmd
}

func runDump(ctx context.Context, opts *RootOptions, dir, name string, req *query.Request, cmd *cobra.Command) error {
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
	s := res.Model(name)
	if s == nil {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownModel, fmt.Sprintf("unknown model %q", name), nil)
	}

	db, err := model.Open(cfg, model.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "opening database", err)
	}
	defer db.Close()

	result := DumpResult{Model: name}
	if req == nil {
		result.Rows, err = model.All(ctx, db, s)
	} else {
		var page model.Page
		result.Rows, page, err = model.List(ctx, db, s, req)
		result.Page = &page
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDatabase, "reading "+name, err)
	}
	return formatter.Success(result)
}
