package app

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"threatkit/internal/config"
	"threatkit/internal/logging"
	"threatkit/internal/mitre"
	"threatkit/internal/storage"
)

// Toolkit holds the shared dependencies of every subcommand
type Toolkit struct {
	config *config.Config
	store  *storage.Store
	mitre  *mitre.Client
}

// Options configures NewToolkit
type Options struct {
	ConfigPath string
	Debug      bool
	// PlainLogs prints "[LEVEL] msg" lines instead of JSON entries
	PlainLogs bool
	// HTTPClient overrides the upstream client (tests)
	HTTPClient *http.Client
	// Store overrides the output store (tests)
	Store *storage.Store
}

// NewToolkit loads configuration and wires the upstream client and output store.
// A .env file, if present, is loaded first so AWS credentials for s3://
// destinations can live there.
func NewToolkit(opts Options) (*Toolkit, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.LogWarn("Ignoring unreadable .env file", map[string]interface{}{"error": err.Error()})
	}

	logging.SetStructured(!opts.PlainLogs)
	logging.SetLogLevel(logging.LogLevelWarn)
	if opts.Debug {
		logging.SetLogLevel(logging.LogLevelDebug)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store := opts.Store
	if store == nil {
		store = storage.New()
	}

	return &Toolkit{
		config: cfg,
		store:  store,
		mitre:  mitre.NewClient(cfg, opts.HTTPClient),
	}, nil
}

// Config returns the loaded configuration
func (t *Toolkit) Config() *config.Config {
	return t.config
}

// Store returns the output store
func (t *Toolkit) Store() *storage.Store {
	return t.store
}

// MITRE returns the ATT&CK client
func (t *Toolkit) MITRE() *mitre.Client {
	return t.mitre
}
