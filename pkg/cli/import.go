package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/oasimport"
	"github.com/getmockd/apictl/pkg/session"
)

// importOutput is the JSON output of endpoint import.
type importOutput struct {
	Group     string          `json:"group"`
	Added     int             `json:"added"`
	Updated   int             `json:"updated"`
	Skipped   []string        `json:"skipped,omitempty"`
	Endpoints []*api.Endpoint `json:"endpoints"`
	DryRun    bool            `json:"dryRun,omitempty"`
}

func runEndpointImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := oasimport.LoadFile(ctx, importSpec)
	if err != nil {
		return err
	}
	res := oasimport.Endpoints(doc)
	for _, s := range res.Skipped {
		output.Warn("skipping server %q: not an absolute URL", s)
	}
	if len(res.Endpoints) == 0 {
		return fmt.Errorf("%s declares no usable servers", importSpec)
	}

	b, _, a, err := loadAPI(ctx, args)
	if err != nil {
		return err
	}
	sess, err := session.Open(a, session.Groups(), endpointGroup, api.DefaultGroup(),
		session.WithPublisher(bus), session.WithLogger(logger))
	if err != nil {
		return err
	}
	added, updated := oasimport.Merge(sess.Target(), res.Endpoints)
	out := importOutput{
		Group:     endpointGroup,
		Added:     added,
		Updated:   updated,
		Skipped:   res.Skipped,
		Endpoints: res.Endpoints,
		DryRun:    importDryRun,
	}

	if !importDryRun && added+updated > 0 {
		if _, err := sess.Commit(ctx, b); err != nil {
			return formatError(err)
		}
	}

	if jsonOutput {
		return output.JSON(out)
	}
	verb := "Imported"
	if importDryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d endpoint(s) into group %s from %s (%d added, %d updated)\n",
		verb, len(res.Endpoints), endpointGroup, titleOf(res), added, updated)
	return nil
}

func titleOf(res *oasimport.Result) string {
	if res.Title == "" {
		return importSpec
	}
	if res.Version == "" {
		return res.Title
	}
	return res.Title + " " + res.Version
}
