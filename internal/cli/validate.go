package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmodel/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Models   []string                   `json:"models"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

func (r ValidationResult) renderText(w io.Writer) {
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	if r.Valid {
		fmt.Fprintf(w, "✓ All models valid (%d)\n", len(r.Models))
		return
	}
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, err := range r.Errors {
		fmt.Fprintf(w, "  %s\n", err.Error())
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <models-dir>",
		Short: "Compile and cross-check models",
		Long: `Compile the CUE models in a directory and check them against each other:
primary keys, duplicate tables and foreign key targets. Foreign key cycles
are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, err := loadModels(dir, formatter)
	if err != nil {
		return err
	}

	result := ValidateModels(res)
	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.Error(result.Errors[0].Code, result.Errors[0].Message, result)
		} else {
			result.renderText(formatter.Writer)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return formatter.Success(result)
}

// ValidateModels cross-checks loaded models.
func ValidateModels(res *LoadResult) ValidationResult {
	errs := compiler.Validate(res.Models)
	return ValidationResult{
		Valid:    len(errs) == 0,
		Models:   res.Tables(),
		Errors:   errs,
		Warnings: compiler.AnalyzeCycles(res.Models),
	}
}
