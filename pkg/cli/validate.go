package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/apifile"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
)

// validateResult is the outcome for one definition file.
type validateResult struct {
	Path     string            `json:"path"`
	Valid    bool              `json:"valid"`
	ID       string            `json:"id,omitempty"`
	Error    string            `json:"error,omitempty"`
	Problems []apifile.Problem `json:"problems,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|glob>...",
	Short: "Validate API definition files",
	Long: `Validate YAML or JSON API definition files against the definition schema
without contacting the management API. Patterns may use ** to match
directories recursively.`,
	Example: `  apictl validate petstore.yaml
  apictl validate 'apis/**/*.yaml'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		for _, pattern := range args {
			matches, err := apifile.Glob(pattern)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no files match %s", pattern)
			}
			paths = append(paths, matches...)
		}

		results := make([]validateResult, 0, len(paths))
		failed := 0
		for _, p := range paths {
			r := validateResult{Path: p}
			a, err := apifile.ValidateFile(p)
			if err != nil {
				failed++
				var verr *apifile.ValidationError
				if errors.As(err, &verr) {
					r.Error = "schema validation failed"
					r.Problems = verr.Problems
				} else {
					r.Error = err.Error()
				}
			} else {
				r.Valid = true
				r.ID = a.ID
			}
			results = append(results, r)
		}

		if jsonOutput {
			if err := output.JSON(results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				if r.Valid {
					fmt.Printf("ok    %s (%s)\n", r.Path, r.ID)
					continue
				}
				fmt.Printf("FAIL  %s: %s\n", r.Path, r.Error)
				for _, pr := range r.Problems {
					fmt.Printf("        - %s\n", pr)
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d file(s)", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
