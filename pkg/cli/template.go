package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/cli/internal/parse"
	"github.com/getmockd/apictl/pkg/console"
	"github.com/getmockd/apictl/pkg/session"
)

var (
	tplKey          string
	tplMediaType    string
	tplStatus       int
	tplBody         string
	tplBodyFile     string
	tplHeaders      []string
	tplRemoveHeader []string
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates", "tpl"},
	Short:   "Manage the response templates of an API",
	Long: `Response templates replace the gateway's error responses. Templates are
grouped by key (the failure, e.g. API_KEY_MISSING) and media type. Run
'apictl template keys' for the well-known keys; any other key can be used
as well.`,
}

// templateRow is one template in list output.
type templateRow struct {
	Key       string            `json:"key"`
	MediaType string            `json:"mediaType"`
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
}

var templateListCmd = &cobra.Command{
	Use:   "list [api-id]",
	Short: "List response templates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, a, err := loadAPI(cmd.Context(), args)
		if err != nil {
			return err
		}
		if tplKey != "" {
			if _, ok := a.ResponseTemplates[tplKey]; !ok {
				return fmt.Errorf("no response templates for key %s", tplKey)
			}
		}

		rows := []templateRow{}
		for key, set := range a.ResponseTemplates {
			if tplKey != "" && key != tplKey {
				continue
			}
			for mt, t := range set {
				rows = append(rows, templateRow{Key: key, MediaType: mt, Status: t.Status, Headers: t.Headers, Body: t.Body})
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Key != rows[j].Key {
				return rows[i].Key < rows[j].Key
			}
			return rows[i].MediaType < rows[j].MediaType
		})

		if jsonOutput {
			return output.JSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No response templates found")
			return nil
		}
		w := output.Table()
		_, _ = fmt.Fprintln(w, "KEY\tMEDIA TYPE\tSTATUS\tHEADERS")
		for _, r := range rows {
			names := make([]string, 0, len(r.Headers))
			for name := range r.Headers {
				names = append(names, name)
			}
			sort.Strings(names)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Key, r.MediaType, r.Status, joinOrDash(names))
		}
		return w.Flush()
	},
}

var templateSetCmd = &cobra.Command{
	Use:   "set [api-id]",
	Short: "Create or update a response template",
	Long: `Create or update the template for --media-type under --key. Only the
flags given are changed; a new template starts with status 400.

Without --key on a terminal, the key is asked for with the well-known keys
as suggestions.`,
	Example: `  apictl template set my-api --key API_KEY_MISSING --status 401 \
    --header 'Content-Type: application/json' --body '{"error":"missing key"}'

  apictl template set my-api --key RATE_LIMIT_TOO_MANY_REQUESTS \
    --media-type application/xml --status 429 --body-file limit.xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplateSet,
}

func runTemplateSet(cmd *cobra.Command, args []string) error {
	b, _, a, err := loadAPI(cmd.Context(), args)
	if err != nil {
		return err
	}
	editor, err := console.NewTemplateEditor(a, console.Params{APIID: a.ID, TemplateKey: tplKey}, editorDeps(b, nil))
	if err != nil {
		return err
	}
	if tplKey == "" {
		if err := promptTemplateKey(editor); err != nil {
			return err
		}
	}

	row, ok := editor.Session().Row(tplMediaType)
	if !ok {
		if editor.IsCreation() {
			// a new key starts with a row for */*; reuse it for the requested type
			if rows := editor.Rows(); len(rows) == 1 && rows[0].MediaType == api.DefaultMediaType {
				editor.DeleteTemplate(api.DefaultMediaType)
			}
		}
		row = editor.AddTemplate(tplMediaType)
	}

	if err := applyTemplateFlags(cmd, row); err != nil {
		_ = editor.Reset()
		return err
	}
	return saveTemplates(cmd, editor)
}

func applyTemplateFlags(cmd *cobra.Command, row *session.TemplateRow) error {
	flags := cmd.Flags()
	if flags.Changed("status") {
		if tplStatus < 100 || tplStatus > 599 {
			return fmt.Errorf("status must be between 100 and 599, got %d", tplStatus)
		}
		row.Status = tplStatus
	}
	switch {
	case flags.Changed("body") && flags.Changed("body-file"):
		return errors.New("--body and --body-file are mutually exclusive")
	case flags.Changed("body"):
		row.Body = tplBody
	case flags.Changed("body-file"):
		data, err := os.ReadFile(tplBodyFile)
		if err != nil {
			return fmt.Errorf("failed to read body file: %w", err)
		}
		row.Body = string(data)
	}
	for _, name := range tplRemoveHeader {
		if row.RemoveHeader(name) == 0 {
			output.Warn("header %s not set", name)
		}
	}
	headers, err := parse.Headers(tplHeaders)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row.RemoveHeader(name)
		row.AddHeader(name, headers[name])
	}
	return nil
}

// promptTemplateKey asks for the key, suggesting the well-known keys.
func promptTemplateKey(editor *console.TemplateEditor) error {
	if !isTerminal() {
		return errors.New("--key is required")
	}
	var key string
	err := huh.NewInput().
		Title("Template key").
		Description("Start typing for suggestions, or enter a custom key").
		Suggestions(editor.SuggestKeys("")).
		Value(&key).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("key is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return err
	}
	editor.Search(strings.TrimSpace(key))
	tplKey = editor.Key()
	return nil
}

func saveTemplates(cmd *cobra.Command, editor *console.TemplateEditor) error {
	updated, err := editor.Save(cmd.Context())
	if err != nil {
		return formatError(err)
	}
	if !jsonOutput {
		return nil
	}
	set := updated.ResponseTemplates[editor.Key()]
	if set == nil {
		set = api.ResponseTemplateSet{}
	}
	return output.JSON(map[string]api.ResponseTemplateSet{editor.Key(): set})
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [api-id]",
	Short: "Delete response templates",
	Long: `Delete the template for --media-type under --key, or every template of
the key when --media-type is not given. A key left without templates is
removed from the API.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tplKey == "" {
			return errors.New("--key is required")
		}
		b, _, a, err := loadAPI(cmd.Context(), args)
		if err != nil {
			return err
		}
		if _, ok := a.ResponseTemplates[tplKey]; !ok {
			return fmt.Errorf("no response templates for key %s", tplKey)
		}
		editor, err := console.NewTemplateEditor(a, console.Params{APIID: a.ID, TemplateKey: tplKey}, editorDeps(b, nil))
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("media-type") {
			if editor.DeleteTemplate(tplMediaType) == 0 {
				return fmt.Errorf("key %s has no template for %s", tplKey, tplMediaType)
			}
		} else {
			for _, r := range editor.Rows() {
				editor.DeleteTemplate(r.MediaType)
			}
		}
		return saveTemplates(cmd, editor)
	},
}

var templateKeysCmd = &cobra.Command{
	Use:   "keys [search]",
	Short: "List the well-known template keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := ""
		if len(args) > 0 {
			q = args[0]
		}
		keys := console.SuggestKeys(api.TemplateKeys(), q)
		if jsonOutput {
			if keys == nil {
				keys = []string{}
			}
			return output.JSON(keys)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd, templateSetCmd, templateDeleteCmd, templateKeysCmd)

	templateListCmd.Flags().StringVarP(&tplKey, "key", "k", "", "Only list this key")
	for _, c := range []*cobra.Command{templateSetCmd, templateDeleteCmd} {
		c.Flags().StringVarP(&tplKey, "key", "k", "", "Template key, e.g. API_KEY_MISSING")
		c.Flags().StringVarP(&tplMediaType, "media-type", "m", api.DefaultMediaType, "Media type the template answers")
	}

	f := templateSetCmd.Flags()
	f.IntVar(&tplStatus, "status", api.DefaultTemplateStatus, "Response status code")
	f.StringVar(&tplBody, "body", "", "Response body")
	f.StringVar(&tplBodyFile, "body-file", "", "Read the response body from a file")
	f.StringArrayVarP(&tplHeaders, "header", "H", nil, "Response header, Name:value (repeatable)")
	f.StringArrayVar(&tplRemoveHeader, "remove-header", nil, "Remove a response header (repeatable)")
}
