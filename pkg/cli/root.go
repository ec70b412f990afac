// Package cli implements the apictl command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	flagURL     string
	flagToken   string
	flagContext string
	flagAPIID   string
	flagFile    string
	jsonOutput  bool
	logLevel    string
	logFile     string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apictl",
	Short: "apictl edits the proxy endpoints and response templates of managed APIs",
	Long: `apictl edits API definitions held by a gateway management service or stored
in local definition files.

Endpoints and response templates are edited on a copy of the API and written
back in one update. A concurrent change to the same API is reported as a
conflict instead of being overwritten.

Connection settings come from flags, APICTL_* environment variables, the
current context (see 'apictl context') and .apictlrc.yaml files.`,
	SilenceUsage:      true,
	SilenceErrors:     true, // main prints the error
	PersistentPreRunE: setup,
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	defer closeLogFile()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagURL, "url", "", "Management API base URL")
	pf.StringVar(&flagToken, "token", "", "Bearer token for the management API")
	pf.StringVar(&flagContext, "context", "", "Context to use (overrides the current context)")
	pf.StringVar(&flagAPIID, "api", "", "API ID to edit when no ID argument is given")
	pf.StringVarP(&flagFile, "file", "f", "", "Edit a local API definition file instead of the management API")
	pf.BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFile, "log-file", "", "Also append logs to this file as JSON lines")
}
