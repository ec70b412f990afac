package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/query"
)

var apiGetJSONPath string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "List and inspect API definitions",
}

var apiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the APIs visible to the caller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var items []types.APISummary
		if flagFile != "" {
			b, _ := openBackend()
			a, err := b.GetAPI(cmd.Context(), "")
			if err != nil {
				return formatError(err)
			}
			items = []types.APISummary{{
				ID:          a.ID,
				Name:        a.Name,
				Version:     a.Version,
				Visibility:  a.Visibility,
				ContextPath: a.Proxy.ContextPath,
			}}
		} else {
			var err error
			items, err = newClient().ListAPIs(cmd.Context())
			if err != nil {
				return formatError(err)
			}
		}

		if jsonOutput {
			return output.JSON(types.APIListResponse{Items: items, Count: len(items), Total: len(items)})
		}
		if len(items) == 0 {
			fmt.Println("No APIs found")
			return nil
		}
		w := output.Table()
		_, _ = fmt.Fprintln(w, "ID\tNAME\tVERSION\tCONTEXT PATH")
		for _, s := range items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Version, s.ContextPath)
		}
		return w.Flush()
	},
}

var apiGetCmd = &cobra.Command{
	Use:   "get [api-id]",
	Short: "Show an API definition",
	Long: `Show an API definition as YAML, or as JSON with --json.

--jsonpath selects parts of the definition with a JSONPath expression over
its JSON form, for example:

  apictl api get my-api --jsonpath '$.proxy.groups[*].endpoints[*].target'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, a, err := loadAPI(cmd.Context(), args)
		if err != nil {
			return err
		}

		if apiGetJSONPath != "" {
			matches, err := query.Select(a, apiGetJSONPath)
			if err != nil {
				return err
			}
			if jsonOutput {
				return output.JSON(matches)
			}
			for _, m := range matches {
				if s, ok := m.(string); ok {
					fmt.Println(s)
					continue
				}
				if err := output.JSON(m); err != nil {
					return err
				}
			}
			return nil
		}

		if jsonOutput {
			return output.JSON(a)
		}
		return output.YAML(a)
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.AddCommand(apiListCmd)
	apiCmd.AddCommand(apiGetCmd)

	apiGetCmd.Flags().StringVar(&apiGetJSONPath, "jsonpath", "", "JSONPath expression selecting what to print")
}
