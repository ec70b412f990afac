package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/api/types"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/cli/internal/parse"
	"github.com/getmockd/apictl/pkg/console"
	"github.com/getmockd/apictl/pkg/query"
	"github.com/getmockd/apictl/pkg/session"
)

var (
	endpointGroup string
	endpointName  string
	listGroup     string
	listWhere     string

	epTarget         string
	epWeight         int
	epBackup         bool
	epTenants        []string
	epHeaders        []string
	epSSL            bool
	epTrustAll       bool
	epProxyType      string
	epProxyHost      string
	epProxyPort      int
	epConnectTimeout int
	epReadTimeout    int
)

var endpointCmd = &cobra.Command{
	Use:     "endpoint",
	Aliases: []string{"endpoints", "ep"},
	Short:   "List, create and edit the proxy endpoints of an API",
}

var endpointListCmd = &cobra.Command{
	Use:   "list [api-id]",
	Short: "List endpoints",
	Long: `List the endpoints of every group, or of one group with --group.

--where keeps the endpoints matching a boolean expression over name, target,
weight, backup, tenants, ssl, trustAll, proxied and headers:

  apictl endpoint list my-api --where 'weight > 1 && ssl'
  apictl endpoint list my-api --where '"eu" in tenants'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEndpointList,
}

// endpointRow is one endpoint in list output.
type endpointRow struct {
	Group string `json:"group"`
	*api.Endpoint
}

func runEndpointList(cmd *cobra.Command, args []string) error {
	_, _, a, err := loadAPI(cmd.Context(), args)
	if err != nil {
		return err
	}

	if listGroup != "" {
		if _, ok := a.Group(listGroup); !ok {
			return fmt.Errorf("group not found: %s", listGroup)
		}
	}

	var rows []endpointRow
	for _, g := range distinct("the API", "group", a.Proxy.Groups) {
		if listGroup != "" && g.Name != listGroup {
			continue
		}
		eps, err := query.FilterEndpoints(distinct("group "+g.Name, "endpoint", g.Endpoints), listWhere)
		if err != nil {
			return err
		}
		for _, e := range eps {
			rows = append(rows, endpointRow{Group: g.Name, Endpoint: e})
		}
	}

	if jsonOutput {
		if rows == nil {
			rows = []endpointRow{}
		}
		return output.JSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("No endpoints found")
		return nil
	}
	w := output.Table()
	_, _ = fmt.Fprintln(w, "GROUP\tNAME\tTARGET\tWEIGHT\tBACKUP\tSSL\tTENANTS")
	for _, r := range rows {
		ssl := false
		if r.SSL != nil {
			ssl = r.SSL.Enabled
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Group, r.Name, r.Target, r.Weight, yesNo(r.Backup), yesNo(ssl), joinOrDash(r.Tenants))
	}
	return w.Flush()
}

// distinct returns the items an edit would address: the first item of every
// name, in container order. Repeated names are reported.
func distinct[T session.Item[T]](container, kind string, items []T) []T {
	ix := session.NewIndex(items)
	for _, name := range ix.Duplicates() {
		output.Warn("%s has more than one %s named %q; only the first is used", container, kind, name)
	}
	out := make([]T, 0, ix.Len())
	for _, k := range ix.Keys() {
		item, _ := ix.Get(k)
		out = append(out, item)
	}
	return out
}

var endpointSetCmd = &cobra.Command{
	Use:   "set [api-id]",
	Short: "Create or update an endpoint",
	Long: `Create or update the endpoint --name in group --group.

Only the flags given are changed. A new endpoint starts from the default
settings (weight 1, keep-alive and compression on, 5s connect timeout).
--trust-all also turns SSL on, and --ssl=false also turns trust-all off.`,
	Example: `  # Add a backend to the default group
  apictl endpoint set my-api --name eu-1 --target https://eu-1.internal

  # Send twice the traffic to it, over TLS without verifying certificates
  apictl endpoint set my-api --name eu-1 --weight 2 --trust-all

  # Edit a local definition file
  apictl -f petstore.yaml endpoint set --name backup --target http://10.0.0.9 --backup`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEndpointSet,
}

func runEndpointSet(cmd *cobra.Command, args []string) error {
	if endpointName == "" {
		return errors.New("--name is required")
	}
	editor, err := openEndpointEditor(cmd, args)
	if err != nil {
		return err
	}
	if err := applyEndpointFlags(cmd, editor); err != nil {
		_ = editor.Reset()
		return err
	}
	return saveEndpoint(cmd, editor)
}

func openEndpointEditor(cmd *cobra.Command, args []string) (*console.EndpointEditor, error) {
	b, tenants, a, err := loadAPI(cmd.Context(), args)
	if err != nil {
		return nil, err
	}
	params := console.Params{APIID: a.ID, Group: endpointGroup, Endpoint: endpointName}
	editor, err := console.NewEndpointEditor(cmd.Context(), a, params, editorDeps(b, tenants))
	if err != nil {
		return nil, formatError(err)
	}
	return editor, nil
}

func applyEndpointFlags(cmd *cobra.Command, editor *console.EndpointEditor) error {
	flags := cmd.Flags()
	ep := editor.Endpoint()

	if flags.Changed("target") {
		ep.Target = epTarget
	}
	if flags.Changed("weight") {
		if epWeight < 0 {
			return fmt.Errorf("weight must not be negative, got %d", epWeight)
		}
		ep.Weight = epWeight
	}
	if flags.Changed("backup") {
		ep.Backup = epBackup
	}
	if flags.Changed("tenant") {
		tenants := parse.SplitTrim(strings.Join(epTenants, ","), ",")
		if err := checkTenants(editor.Tenants(), tenants); err != nil {
			return err
		}
		ep.Tenants = tenants
	}
	if flags.Changed("header") {
		headers, err := parse.Headers(epHeaders)
		if err != nil {
			return err
		}
		ep.Headers = headers
	}
	if flags.Changed("connect-timeout") || flags.Changed("read-timeout") {
		if ep.HTTP == nil {
			ep.HTTP = api.DefaultEndpoint().HTTP
		}
		if flags.Changed("connect-timeout") {
			ep.HTTP.ConnectTimeout = epConnectTimeout
		}
		if flags.Changed("read-timeout") {
			ep.HTTP.ReadTimeout = epReadTimeout
		}
	}
	if flags.Changed("proxy-type") || flags.Changed("proxy-host") || flags.Changed("proxy-port") {
		if ep.Proxy == nil {
			ep.Proxy = &api.HTTPProxy{Type: api.ProxyTypeHTTP}
		}
		ep.Proxy.Enabled = true
		if flags.Changed("proxy-type") {
			pt, err := proxyType(editor, epProxyType)
			if err != nil {
				return err
			}
			ep.Proxy.Type = pt
		}
		if flags.Changed("proxy-host") {
			ep.Proxy.Host = epProxyHost
		}
		if flags.Changed("proxy-port") {
			ep.Proxy.Port = epProxyPort
		}
	}

	// ssl first so --ssl=false --trust-all ends with both on.
	if flags.Changed("ssl") {
		editor.ToggleSSL(epSSL)
	}
	if flags.Changed("trust-all") {
		editor.ToggleTrustAll(epTrustAll)
	}
	return nil
}

func proxyType(editor *console.EndpointEditor, value string) (api.ProxyType, error) {
	var names []string
	for _, c := range editor.ProxyTypes() {
		if string(c.Value) == value {
			return c.Value, nil
		}
		names = append(names, string(c.Value))
	}
	return "", fmt.Errorf("unknown proxy type %q, expected one of %v", value, names)
}

// checkTenants rejects tenants the management API does not know. Nothing is
// checked when no tenants were loaded.
func checkTenants(known []types.Tenant, tenants []string) error {
	if len(known) == 0 {
		return nil
	}
	for _, t := range tenants {
		if !slices.ContainsFunc(known, func(k types.Tenant) bool { return k.ID == t }) {
			return fmt.Errorf("unknown tenant %q", t)
		}
	}
	return nil
}

func saveEndpoint(cmd *cobra.Command, editor *console.EndpointEditor) error {
	name := endpointName
	updated, err := editor.Save(cmd.Context())
	if err != nil {
		return formatError(err)
	}
	if !jsonOutput {
		return nil
	}
	if g, ok := updated.Group(endpointGroup); ok {
		for _, e := range g.Endpoints {
			if e != nil && e.Name == name {
				return output.JSON(endpointRow{Group: g.Name, Endpoint: e})
			}
		}
	}
	return output.JSON(endpointRow{Group: endpointGroup, Endpoint: editor.Endpoint()})
}

var endpointEditCmd = &cobra.Command{
	Use:   "edit [api-id]",
	Short: "Edit an endpoint interactively",
	Long: `Edit the endpoint --name in group --group with an interactive form.
An unknown name creates the endpoint. Aborting the form (Esc or Ctrl+C)
discards the edits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEndpointEdit,
}

func runEndpointEdit(cmd *cobra.Command, args []string) error {
	if !isTerminal() {
		return errors.New("endpoint edit needs an interactive terminal; use 'apictl endpoint set' in scripts")
	}
	if endpointName == "" {
		if err := huh.NewInput().
			Title("Endpoint name").
			Value(&endpointName).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("name is required")
				}
				return nil
			}).
			Run(); err != nil {
			return err
		}
	}

	editor, err := openEndpointEditor(cmd, args)
	if err != nil {
		return err
	}
	ep := editor.Endpoint()

	target := ep.Target
	weight := strconv.Itoa(ep.Weight)
	backup := ep.Backup
	tenants := slices.Clone(ep.Tenants)
	ssl := ep.SSL != nil && ep.SSL.Enabled
	trustAll := ep.SSL != nil && ep.SSL.TrustAll
	useProxy := ep.Proxy != nil && ep.Proxy.Enabled
	pt := string(api.ProxyTypeHTTP)
	if ep.Proxy != nil && ep.Proxy.Type != "" {
		pt = string(ep.Proxy.Type)
	}

	title := "Edit endpoint " + endpointName
	if editor.IsCreation() {
		title = "New endpoint " + endpointName
	}
	fields := []huh.Field{
		huh.NewNote().Title(title).Description("Group " + endpointGroup),
		huh.NewInput().
			Title("Target URL").
			Placeholder("https://backend.internal:8443").
			Value(&target),
		huh.NewInput().
			Title("Weight").
			Value(&weight).
			Validate(func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n < 0 {
					return errors.New("weight must be a non-negative number")
				}
				return nil
			}),
		huh.NewConfirm().Title("Backup endpoint?").Value(&backup),
	}
	if len(editor.Tenants()) > 0 {
		opts := make([]huh.Option[string], 0, len(editor.Tenants()))
		for _, t := range editor.Tenants() {
			opts = append(opts, huh.NewOption(t.Name, t.ID).Selected(slices.Contains(tenants, t.ID)))
		}
		fields = append(fields, huh.NewMultiSelect[string]().
			Title("Tenants").
			Options(opts...).
			Value(&tenants))
	}
	fields = append(fields,
		huh.NewConfirm().Title("Use SSL?").Value(&ssl),
		huh.NewConfirm().Title("Trust all certificates?").Description("Turns SSL on").Value(&trustAll),
	)

	proxyOpts := make([]huh.Option[string], 0, len(editor.ProxyTypes()))
	for _, c := range editor.ProxyTypes() {
		proxyOpts = append(proxyOpts, huh.NewOption(c.Name, string(c.Value)))
	}
	form := huh.NewForm(
		huh.NewGroup(fields...),
		huh.NewGroup(
			huh.NewConfirm().Title("Reach the target through a forward proxy?").Value(&useProxy),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Proxy type").
				Options(proxyOpts...).
				Value(&pt),
		).WithHideFunc(func() bool { return !useProxy }),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			if err := editor.Back(); err != nil {
				return err
			}
			fmt.Println("Edit cancelled")
			return nil
		}
		return err
	}

	ep.Target = target
	ep.Weight, _ = strconv.Atoi(weight)
	ep.Backup = backup
	ep.Tenants = tenants
	if useProxy {
		if ep.Proxy == nil {
			ep.Proxy = &api.HTTPProxy{}
		}
		ep.Proxy.Enabled = true
		ep.Proxy.Type = api.ProxyType(pt)
	} else if ep.Proxy != nil {
		ep.Proxy.Enabled = false
	}
	if (ep.SSL != nil && ep.SSL.Enabled != ssl) || (ep.SSL == nil && ssl) {
		editor.ToggleSSL(ssl)
	}
	if (ep.SSL != nil && ep.SSL.TrustAll) != trustAll {
		editor.ToggleTrustAll(trustAll)
	}
	return saveEndpoint(cmd, editor)
}

var (
	importSpec   string
	importDryRun bool
)

var endpointImportCmd = &cobra.Command{
	Use:   "import [api-id]",
	Short: "Create endpoints from the servers of an OpenAPI document",
	Long: `Create one endpoint per absolute server URL of an OpenAPI 3 document in
group --group, creating the group if needed. Endpoints are named after the
server description. An endpoint that already exists only has its target
updated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEndpointImport,
}

func init() {
	rootCmd.AddCommand(endpointCmd)
	endpointCmd.AddCommand(endpointListCmd, endpointSetCmd, endpointEditCmd, endpointImportCmd)

	endpointListCmd.Flags().StringVarP(&listGroup, "group", "g", "", "Only list this group")
	endpointListCmd.Flags().StringVar(&listWhere, "where", "", "Only list endpoints matching this expression")
	for _, c := range []*cobra.Command{endpointSetCmd, endpointEditCmd, endpointImportCmd} {
		c.Flags().StringVarP(&endpointGroup, "group", "g", "default", "Endpoint group")
	}

	for _, c := range []*cobra.Command{endpointSetCmd, endpointEditCmd} {
		c.Flags().StringVarP(&endpointName, "name", "n", "", "Endpoint name")
	}

	f := endpointSetCmd.Flags()
	f.StringVar(&epTarget, "target", "", "Backend URL")
	f.IntVar(&epWeight, "weight", 1, "Load balancing weight")
	f.BoolVar(&epBackup, "backup", false, "Only use the endpoint when the others are down")
	f.StringSliceVar(&epTenants, "tenant", nil, "Restrict the endpoint to tenants (repeatable, comma separated)")
	f.StringArrayVarP(&epHeaders, "header", "H", nil, "Header added to proxied requests, Name:value (repeatable; replaces all headers)")
	f.BoolVar(&epSSL, "ssl", false, "Use TLS towards the backend")
	f.BoolVar(&epTrustAll, "trust-all", false, "Trust every backend certificate (turns SSL on)")
	f.StringVar(&epProxyType, "proxy-type", "", "Forward proxy type: HTTP, SOCKS4, SOCKS5")
	f.StringVar(&epProxyHost, "proxy-host", "", "Forward proxy host")
	f.IntVar(&epProxyPort, "proxy-port", 0, "Forward proxy port")
	f.IntVar(&epConnectTimeout, "connect-timeout", 0, "Connect timeout in milliseconds")
	f.IntVar(&epReadTimeout, "read-timeout", 0, "Read timeout in milliseconds")

	endpointImportCmd.Flags().StringVar(&importSpec, "openapi", "", "OpenAPI document to import servers from")
	endpointImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show the endpoints without saving them")
	_ = endpointImportCmd.MarkFlagRequired("openapi")
}
