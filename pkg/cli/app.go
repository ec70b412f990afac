package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/apifile"
	"github.com/getmockd/apictl/pkg/cli/internal/output"
	"github.com/getmockd/apictl/pkg/cliconfig"
	"github.com/getmockd/apictl/pkg/console"
	"github.com/getmockd/apictl/pkg/event"
	"github.com/getmockd/apictl/pkg/logging"
	"github.com/getmockd/apictl/pkg/mgmtclient"
	"github.com/getmockd/apictl/pkg/session"
)

// Set by setup before any command runs.
var (
	cfg      *cliconfig.CLIConfig
	contexts *cliconfig.ContextConfig
	conn     *cliconfig.ClientConfig
	logger   = logging.Nop()
	logOut   *os.File
	bus      *event.Bus
)

// setup loads the layered configuration and builds the logger and event bus.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = cliconfig.LoadAll("")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
		cfg.Sources["logLevel"] = cliconfig.SourceFlag
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = logFile
		cfg.Sources["logFile"] = cliconfig.SourceFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JSON && !cmd.Flags().Changed("json") {
		jsonOutput = true
	}

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	}
	if cfg.LogFile != "" {
		closeLogFile()
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logOut = f
		logCfg.File = f
	}
	logger = logging.New(logCfg)

	contexts, err = cliconfig.LoadContextConfig()
	if err != nil {
		output.Warn("ignoring contexts: %v", err)
		contexts = nil
	}
	conn = cliconfig.ResolveClientConfig(cfg, contexts, cliconfig.Flags{
		URL:     flagURL,
		Token:   flagToken,
		Context: flagContext,
		APIID:   flagAPIID,
	})
	if conn.Token != "" {
		if err := cliconfig.CheckToken(conn.Token, time.Now()); err != nil {
			output.Warn("%v", err)
		}
	}

	bus = event.NewBus(event.WithLogger(logger))
	bus.Subscribe(event.TypeAPIChanged, func(e event.Event) {
		if changed, ok := e.(event.APIChangedEvent); ok && changed.API != nil {
			logger.Info("api updated", "api", changed.API.ID, "etag", changed.API.ETag, "event", e.ID())
		}
	})
	bus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", e.EventType(), "id", e.ID(), "at", e.Timestamp())
	})
	return nil
}

func closeLogFile() {
	if logOut != nil {
		_ = logOut.Close()
		logOut = nil
	}
}

// backend is where API definitions are read from and written to.
type backend interface {
	GetAPI(ctx context.Context, id string) (*api.API, error)
	session.Persister
}

// openBackend returns the definition file store when --file is set and the
// management client otherwise. tenants is nil for files.
func openBackend() (b backend, tenants console.TenantSource) {
	if flagFile != "" {
		store := apifile.New(flagFile, apifile.WithLogger(logger))
		logger.Debug("editing definition file", "path", store.Path())
		return store, nil
	}
	client := newClient()
	return client, client
}

func newClient() *mgmtclient.Client {
	return mgmtclient.New(conn.ManagementURL,
		mgmtclient.WithToken(conn.Token),
		mgmtclient.WithTimeout(conn.Timeout),
		mgmtclient.WithInsecureTLS(conn.TLSInsecure),
		mgmtclient.WithLogger(logger),
	)
}

// apiID returns the API named on the command line, falling back to the
// configured API. A definition file may leave it empty.
func apiID(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if conn.APIID != "" {
		return conn.APIID, nil
	}
	if flagFile != "" {
		return "", nil
	}
	return "", errors.New("an API ID is required (argument, --api or APICTL_API)")
}

// loadAPI opens the backend and reads the API the command works on.
func loadAPI(ctx context.Context, args []string) (backend, console.TenantSource, *api.API, error) {
	id, err := apiID(args)
	if err != nil {
		return nil, nil, nil, err
	}
	b, tenants := openBackend()
	a, err := b.GetAPI(ctx, id)
	if err != nil {
		return nil, nil, nil, formatError(err)
	}
	return b, tenants, a, nil
}

// editorDeps wires an editor to the CLI.
func editorDeps(b backend, tenants console.TenantSource) console.Deps {
	return console.Deps{
		Persister: b,
		Navigator: logNavigator{log: logger},
		Notifier:  printNotifier{},
		Tenants:   tenants,
		Publisher: bus,
		Logger:    logger,
	}
}

// printNotifier prints editor messages unless the command emits JSON.
type printNotifier struct{}

func (printNotifier) Show(message string) {
	if !jsonOutput {
		fmt.Println(message)
	}
}

// logNavigator records where the console would go next; a command ends after
// its save.
type logNavigator struct {
	log *slog.Logger
}

func (n logNavigator) Go(state console.State, params console.Params) error {
	n.log.Debug("navigate", "state", state, "api", params.APIID, "group", params.Group, "key", params.TemplateKey)
	return nil
}

// formatError adds a hint to errors the operator can act on.
func formatError(err error) error {
	switch {
	case mgmtclient.IsConnectionError(err):
		return fmt.Errorf("%w\n\nIs the management API reachable at %s? Use --url or 'apictl context' to point elsewhere", err, conn.ManagementURL)
	case errors.Is(err, mgmtclient.ErrConflict), errors.Is(err, apifile.ErrConflict):
		return fmt.Errorf("%w\n\nThe API was changed by someone else. Run the command again to edit the latest version", err)
	case errors.Is(err, session.ErrContainerNotFound):
		return fmt.Errorf("%w\n\nCreate the group first with 'apictl group set'", err)
	}
	return err
}

func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
