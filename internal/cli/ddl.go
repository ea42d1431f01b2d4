package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmodel/internal/compiler"
	"github.com/roach88/rowmodel/internal/dialect"
)

// DDLResult is the rendered DDL of every model.
type DDLResult struct {
	Type   string     `json:"type"`
	Tables []TableDDL `json:"tables"`
}

// TableDDL is the DDL of one model.
type TableDDL struct {
	Table       string   `json:"table"`
	Fingerprint string   `json:"fingerprint"`
	Statements  []string `json:"statements"`
}

func (r DDLResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "-- %s\n", r.Type)
	for _, t := range r.Tables {
		fmt.Fprintf(w, "\n-- %s %s\n", t.Table, t.Fingerprint)
		for _, stmt := range t.Statements {
			fmt.Fprintf(w, "%s;\n", stmt)
		}
	}
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	var dbType string
	cmd := &cobra.Command{
		Use:   "ddl <models-dir>",
		Short: "Print the CREATE statements of every model",
		Long: `Render the CREATE TABLE and CREATE INDEX statements of every model for one
backend. Referenced tables are listed before the tables referencing them.
The backend defaults to database.type of the configuration.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(rootOpts, dbType, args[0], cmd)
		},
	}
	cmd.Flags().StringVarP(&dbType, "type", "t", "", "database type (mysql|mariadb|sqlite3)")
	return cmd
}

func runDDL(opts *RootOptions, dbType, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if dbType == "" {
		cfg, _, err := loadConfig(opts, formatter)
		if err != nil {
			return err
		}
		dbType = cfg.Database.Type
	}
	driver, err := dialect.Lookup(dbType)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "resolving database type", err)
	}

	res, err := loadModels(dir, formatter)
	if err != nil {
		return err
	}

	result := DDLResult{Type: driver.Name()}
	for _, s := range compiler.SyncOrder(res.Models) {
		stmts, err := driver.CreateStatements(s)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeInvalidModel, "rendering "+s.Table(), err)
		}
		result.Tables = append(result.Tables, TableDDL{Table: s.Table(), Fingerprint: s.Fingerprint(), Statements: stmts})
	}
	return formatter.Success(result)
}
