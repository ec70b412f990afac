package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/cliconfig"
)

// contextForJSON is a sanitized version of Context for JSON output.
// The token is never printed, only whether one is set.
type contextForJSON struct {
	ManagementURL string `json:"managementUrl"`
	APIID         string `json:"apiId,omitempty"`
	Description   string `json:"description,omitempty"`
	HasToken      bool   `json:"hasToken,omitempty"`
	TLSInsecure   bool   `json:"tlsInsecure,omitempty"`
}

func sanitizeContextForJSON(ctx *cliconfig.Context) *contextForJSON {
	return &contextForJSON{
		ManagementURL: ctx.ManagementURL,
		APIID:         ctx.APIID,
		Description:   ctx.Description,
		HasToken:      ctx.Token != "",
		TLSInsecure:   ctx.TLSInsecure,
	}
}

// effectiveForJSON is the resolved connection configuration.
type effectiveForJSON struct {
	Context       string            `json:"context,omitempty"`
	ManagementURL string            `json:"managementUrl"`
	APIID         string            `json:"apiId,omitempty"`
	HasToken      bool              `json:"hasToken"`
	TLSInsecure   bool              `json:"tlsInsecure"`
	Timeout       string            `json:"timeout"`
	Sources       map[string]string `json:"sources"`
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage contexts (management API connections)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContextShow()
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective connection settings and where they come from",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContextShow()
	},
}

func runContextShow() error {
	if jsonOutput {
		return output.JSON(effectiveForJSON{
			Context:       conn.Context,
			ManagementURL: conn.ManagementURL,
			APIID:         conn.APIID,
			HasToken:      conn.Token != "",
			TLSInsecure:   conn.TLSInsecure,
			Timeout:       conn.Timeout.String(),
			Sources:       conn.Sources,
		})
	}

	if conn.Context != "" {
		fmt.Printf("Current context: %s\n", conn.Context)
	} else {
		fmt.Println("No context applied")
	}
	source := func(key string) string {
		if s, ok := conn.Sources[key]; ok {
			return "  (from " + s + ")"
		}
		return ""
	}
	fmt.Printf("  Management URL: %s%s\n", conn.ManagementURL, source("managementUrl"))
	if conn.APIID != "" {
		fmt.Printf("  API:            %s%s\n", conn.APIID, source("apiId"))
	}
	if conn.Token != "" {
		fmt.Printf("  Token:          set%s\n", source("token"))
	}
	if conn.TLSInsecure {
		fmt.Printf("  TLS verify:     off%s\n", source("tlsInsecure"))
	}
	fmt.Printf("  Timeout:        %s\n", conn.Timeout)
	return nil
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contexts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.LoadContextConfig()
		if err != nil {
			return fmt.Errorf("failed to load context config: %w", err)
		}

		if jsonOutput {
			out := make(map[string]*contextForJSON, len(cfg.Contexts))
			for name, ctx := range cfg.Contexts {
				out[name] = sanitizeContextForJSON(ctx)
			}
			return output.JSON(struct {
				CurrentContext string                     `json:"currentContext"`
				Contexts       map[string]*contextForJSON `json:"contexts"`
			}{cfg.CurrentContext, out})
		}

		w := output.Table()
		_, _ = fmt.Fprintln(w, "CURRENT\tNAME\tMANAGEMENT URL\tDESCRIPTION")
		for _, name := range cfg.Names() {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, ctx.ManagementURL, ctx.Description)
		}
		return w.Flush()
	},
}

var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a different context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := cliconfig.LoadContextConfig()
		if err != nil {
			return fmt.Errorf("failed to load context config: %w", err)
		}
		if err := cfg.SetCurrentContext(name); err != nil {
			return fmt.Errorf("%w\n\nAvailable contexts: %s", err, strings.Join(cfg.Names(), ", "))
		}
		if err := cliconfig.SaveContextConfig(cfg); err != nil {
			return fmt.Errorf("failed to save context config: %w", err)
		}

		fmt.Printf("Switched to context %q\n", name)
		fmt.Printf("  Management URL: %s\n", cfg.Contexts[name].ManagementURL)
		return nil
	},
}

var (
	contextAddURL         string
	contextAddAPIID       string
	contextAddDescription string
	contextAddToken       string
	contextAddTLSInsecure bool
	contextAddUseCurrent  bool
)

var contextAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if len(name) > 64 {
			return errors.New("context name cannot exceed 64 characters")
		}
		if strings.ContainsAny(name, " \t\n/\\") {
			return errors.New("context name cannot contain whitespace or path separators")
		}
		if contextAddURL == "" {
			return errors.New("--management-url is required")
		}

		cfg, err := cliconfig.LoadContextConfig()
		if err != nil {
			return fmt.Errorf("failed to load context config: %w", err)
		}
		err = cfg.AddContext(name, &cliconfig.Context{
			ManagementURL: contextAddURL,
			Token:         contextAddToken,
			APIID:         contextAddAPIID,
			Description:   contextAddDescription,
			TLSInsecure:   contextAddTLSInsecure,
		})
		if err != nil {
			return err
		}
		if contextAddUseCurrent {
			cfg.CurrentContext = name
		}
		if err := cliconfig.SaveContextConfig(cfg); err != nil {
			return fmt.Errorf("failed to save context config: %w", err)
		}

		fmt.Printf("Added context %q\n", name)
		if contextAddUseCurrent {
			fmt.Printf("Switched to context %q\n", name)
		}
		return nil
	},
}

var contextRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a context",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.LoadContextConfig()
		if err != nil {
			return fmt.Errorf("failed to load context config: %w", err)
		}
		if err := cfg.RemoveContext(args[0]); err != nil {
			return err
		}
		if err := cliconfig.SaveContextConfig(cfg); err != nil {
			return fmt.Errorf("failed to save context config: %w", err)
		}
		fmt.Printf("Removed context %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextShowCmd, contextListCmd, contextUseCmd, contextAddCmd, contextRemoveCmd)

	f := contextAddCmd.Flags()
	f.StringVarP(&contextAddURL, "management-url", "u", "", "Management API base URL")
	f.StringVar(&contextAddAPIID, "api", "", "Default API ID")
	f.StringVarP(&contextAddDescription, "description", "d", "", "Context description")
	f.StringVarP(&contextAddToken, "token", "t", "", "Bearer token")
	f.BoolVar(&contextAddTLSInsecure, "tls-insecure", false, "Skip TLS certificate verification")
	f.BoolVar(&contextAddUseCurrent, "use", false, "Switch to the new context")
}
