// ABOUTME: Configuration loader for the opsdesk CLI
// ABOUTME: Resolves settings from env, .env, config.yaml and defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/credentials"
)

// Environment variable names.
const (
	EnvAPIURL       = "OPSDESK_API_URL"
	EnvConfigDir    = "OPSDESK_CONFIG_DIR"
	EnvTimeout      = "OPSDESK_TIMEOUT"
	EnvPersistToken = "OPSDESK_PERSIST_TOKEN"
	EnvToken        = "OPSDESK_TOKEN"
	EnvAllProxy     = "OPSDESK_ALL_PROXY"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// Defaults.
const (
	DefaultAPIURL  = "/api"
	DefaultTimeout = 30
	ConfigFileName = "config.yaml"
	DotEnvFileName = ".env"
)

type Config struct {
	APIURL       string
	ConfigDir    string
	Timeout      int  // seconds
	PersistToken bool // store the token on disk (default: true)
	Token        string
	AllProxy     string // ssh+socks5://user@host:port?private-key=path
	LogLevel     string
	LogFormat    string
}

// File is the shape of config.yaml. Unset fields fall through to defaults.
type File struct {
	APIURL       string `yaml:"api_url"`
	Timeout      int    `yaml:"timeout"`
	PersistToken *bool  `yaml:"persist_token"`
	AllProxy     string `yaml:"all_proxy"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Options control where Load looks for files.
type Options struct {
	// ConfigDir overrides OPSDESK_CONFIG_DIR and the XDG default.
	ConfigDir string
	// DotEnvPath defaults to .env in the working directory.
	DotEnvPath string
}

// RequestTimeout returns the timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load resolves configuration. Precedence: environment, then .env, then
// config.yaml, then defaults. Flags are applied by the caller afterwards.
func Load(fsys afero.Fs, opts Options) (*Config, error) {
	var result *multierror.Error

	dotenvPath := opts.DotEnvPath
	if dotenvPath == "" {
		dotenvPath = DotEnvFileName
	}
	dotenv, err := readDotEnv(fsys, dotenvPath)
	if err != nil {
		result = multierror.Append(result, err)
	}
	env := &lookup{dotenv: dotenv}

	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = env.getEnv(EnvConfigDir, credentials.DefaultConfigDir())
	}

	file, err := readFile(fsys, filepath.Join(configDir, ConfigFileName))
	if err != nil {
		result = multierror.Append(result, err)
	}

	persist := true
	if file.PersistToken != nil {
		persist = *file.PersistToken
	}

	cfg := &Config{
		APIURL:       ensureScheme(env.getEnv(EnvAPIURL, orDefault(file.APIURL, DefaultAPIURL))),
		ConfigDir:    configDir,
		Timeout:      env.getEnvInt(EnvTimeout, orDefaultInt(file.Timeout, DefaultTimeout)),
		PersistToken: env.getEnvBool(EnvPersistToken, persist),
		Token:        env.getEnv(EnvToken, ""),
		AllProxy:     env.getEnv(EnvAllProxy, file.AllProxy),
		LogLevel:     env.getEnv(EnvLogLevel, file.LogLevel),
		LogFormat:    env.getEnv(EnvLogFormat, file.LogFormat),
	}

	result = multierror.Append(result, env.errs...)
	return cfg, result.ErrorOrNil()
}

// SetAPIURL applies a --api-url flag value.
func (c *Config) SetAPIURL(u string) {
	c.APIURL = ensureScheme(u)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Timeout < 1 {
		result = multierror.Append(result, fmt.Errorf("timeout must be a positive number of seconds, got %d", c.Timeout))
	}

	if err := validateAPIURL(c.APIURL); err != nil {
		result = multierror.Append(result, err)
	}

	if c.AllProxy != "" {
		if _, _, _, err := client.ParseProxyURL(c.AllProxy); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", EnvAllProxy, err))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("%s must be one of debug, info, warn, error, got %q", EnvLogLevel, c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("%s must be text or json, got %q", EnvLogFormat, c.LogFormat))
	}

	return result.ErrorOrNil()
}

// validateAPIURL rejects relative base URLs. A browser resolves "/api"
// against its origin; a terminal has no origin to resolve against.
func validateAPIURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("API URL is empty; set --api-url or %s", EnvAPIURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API URL %q is relative; set --api-url or %s to an absolute URL such as https://opsdesk.example.com/api", raw, EnvAPIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API URL %q must use http or https", raw)
	}
	return nil
}

func readDotEnv(fsys afero.Fs, path string) (map[string]string, error) {
	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, nil
}

func readFile(fsys afero.Fs, path string) (File, error) {
	var file File
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return file, nil
}

// lookup reads the process environment first, then values from .env.
type lookup struct {
	dotenv map[string]string
	errs   []error
}

func (l *lookup) get(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value := l.dotenv[key]; value != "" {
		return value, true
	}
	return "", false
}

func (l *lookup) getEnv(key, defaultValue string) string {
	if value, ok := l.get(key); ok {
		return value
	}
	return defaultValue
}

func (l *lookup) getEnvInt(key string, defaultValue int) int {
	value, ok := l.get(key)
	if !ok {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return intVal
}

func (l *lookup) getEnvBool(key string, defaultValue bool) bool {
	value, ok := l.get(key)
	if !ok {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return boolVal
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func orDefaultInt(value, defaultValue int) int {
	if value != 0 {
		return value
	}
	return defaultValue
}

// ensureScheme adds https:// to host-style URLs. Path-only values such as
// "/api" are left relative so Validate can report them.
func ensureScheme(u string) string {
	if u == "" || strings.HasPrefix(u, "/") || strings.Contains(u, "://") {
		return u
	}
	return "https://" + u
}
