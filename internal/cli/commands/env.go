package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/healthmap/healthmap/internal/auth"
	"github.com/healthmap/healthmap/internal/cli/client"
	"github.com/healthmap/healthmap/internal/config"
	"github.com/healthmap/healthmap/internal/logger"
)

// Flags holds the root command's persistent flags
type Flags struct {
	APIURL   string
	Store    string
	Output   string
	LogLevel string
}

// Env is what every command works with: the API client and the session.
// The root command fills it in before any command runs.
type Env struct {
	Flags Flags

	Config *config.Config
	Logger zerolog.Logger
	Client *client.Client
	Auth   *auth.Service
	Guards *auth.Guards
	Nav    *Navigator
	Out    io.Writer
}

// Init loads configuration and builds the session for one CLI invocation
func (e *Env) Init(out, errOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if e.Flags.APIURL != "" {
		cfg.Client.APIURL = e.Flags.APIURL
	}
	if e.Flags.Store != "" {
		if err := config.ValidateStore(e.Flags.Store); err != nil {
			return err
		}
		cfg.Client.Store = e.Flags.Store
	}

	level := e.Flags.LogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	logger.Init(level, cfg.Logging.Format, errOut)

	scope := cfg.Client.SessionScope
	if scope == "" {
		scope = auth.DefaultScope(cfg.Client.APIURL)
	}
	store, err := newStore(cfg.Client, scope)
	if err != nil {
		return err
	}

	return e.Configure(cfg, store, out, errOut, logger.GetLogger())
}

// Configure wires the session around an explicit store; Init and tests share it
func (e *Env) Configure(cfg *config.Config, store auth.Store, out, errOut io.Writer, log zerolog.Logger) error {
	e.Config = cfg
	e.Logger = log
	e.Out = out
	e.Nav = NewNavigator(errOut)

	state := auth.NewState()
	transport, err := auth.NewTransport(cfg.Client.APIURL, nil, store, state, e.Nav, log)
	if err != nil {
		return err
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Client.RequestTimeout,
	}
	e.Client = client.New(cfg.Client.APIURL, httpClient)
	e.Auth = auth.NewService(store, state, e.Client, e.Nav,
		auth.WithLogger(log),
		auth.WithStrictRoleInference(cfg.Client.StrictRoles),
	)
	e.Guards = auth.NewGuards(state, e.Nav)
	return nil
}

func newStore(cfg config.ClientConfig, scope string) (auth.Store, error) {
	switch cfg.Store {
	case config.StoreFile:
		return auth.NewFileStore(cfg.StoreDir, scope)
	case config.StoreMemory:
		return auth.NewMemoryStore(), nil
	default:
		return auth.NewKeyringStore(scope), nil
	}
}
