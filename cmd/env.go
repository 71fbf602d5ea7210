// ABOUTME: Per-invocation wiring of config, logging, credentials and client
// ABOUTME: Applies flag overrides on top of the loaded configuration

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/credentials"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/perfbackup"
	"github.com/opsdesk/opsdesk/internal/templates"
)

// env holds everything a command needs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *client.Client
	format output.Format
}

// loadConfig resolves configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(fsys, config.Options{ConfigDir: configDir})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if apiURL != "" {
		cfg.SetAPIURL(apiURL)
	}
	if timeoutSecs != 0 {
		cfg.Timeout = timeoutSecs
	}
	return cfg, nil
}

// newEnv builds the command environment. With requireBackend the
// configuration must describe a reachable backend.
func newEnv(requireBackend bool) (*env, error) {
	format, err := OutputFormat()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if requireBackend {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	log := logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	opts := []client.Option{
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithLogger(log),
	}
	if cfg.AllProxy != "" {
		dial, err := client.NewProxyDialer(fsys, cfg.AllProxy, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithDialContext(dial))
	}

	return &env{
		cfg:    cfg,
		logger: log,
		client: client.New(cfg.APIURL, newStore(cfg), opts...),
		format: format,
	}, nil
}

// newStore picks the credential store for cfg.
func newStore(cfg *config.Config) credentials.Store {
	var store credentials.Store
	if cfg.PersistToken {
		store = credentials.NewFileStore(fsys, cfg.ConfigDir)
	} else {
		store = credentials.NewMemoryStore("")
	}
	if cfg.Token != "" {
		store = credentials.WithOverride(store, cfg.Token)
	}
	return store
}

func (e *env) auth() *auth.Service {
	return auth.NewService(e.client, e.logger)
}

func (e *env) templates() *templates.Client {
	return templates.New(e.client, e.logger)
}

func (e *env) backups() *perfbackup.Client {
	return perfbackup.New(e.client, e.logger)
}
