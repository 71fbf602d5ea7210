package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLoad_Defaults(t *testing.T) {
	withCleanEnv(t, nil)

	cfg, err := Load(afero.NewMemMapFs(), Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "/api" {
		t.Errorf("Expected default API URL /api, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != "/xdg/opsdesk" {
		t.Errorf("Expected XDG config dir /xdg/opsdesk, got %s", cfg.ConfigDir)
	}
	if cfg.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.Timeout)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.RequestTimeout())
	}
	if !cfg.PersistToken {
		t.Error("Expected PersistToken to default to true")
	}
	if cfg.Token != "" || cfg.AllProxy != "" {
		t.Errorf("Expected no token or proxy, got %q %q", cfg.Token, cfg.AllProxy)
	}
}

func TestLoad_Environment(t *testing.T) {
	withCleanEnv(t, map[string]string{
		"OPSDESK_API_URL":       "https://opsdesk.example.com/api",
		"OPSDESK_CONFIG_DIR":    "/custom",
		"OPSDESK_TIMEOUT":       "5",
		"OPSDESK_PERSIST_TOKEN": "false",
		"OPSDESK_TOKEN":         "static",
		"LOG_LEVEL":             "debug",
		"LOG_FORMAT":            "json",
	})

	cfg, err := Load(afero.NewMemMapFs(), Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "https://opsdesk.example.com/api" {
		t.Errorf("Unexpected API URL %s", cfg.APIURL)
	}
	if cfg.ConfigDir != "/custom" {
		t.Errorf("Expected config dir /custom, got %s", cfg.ConfigDir)
	}
	if cfg.Timeout != 5 {
		t.Errorf("Expected timeout 5, got %d", cfg.Timeout)
	}
	if cfg.PersistToken {
		t.Error("Expected PersistToken false")
	}
	if cfg.Token != "static" {
		t.Errorf("Expected token static, got %s", cfg.Token)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("Unexpected log settings %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Precedence(t *testing.T) {
	withCleanEnv(t, map[string]string{"OPSDESK_TIMEOUT": "7"})

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/work/.env", []byte("OPSDESK_TIMEOUT=9\nOPSDESK_API_URL=https://dotenv.example.com/api\n"), 0600)
	afero.WriteFile(fs, "/cfg/config.yaml", []byte(`
api_url: https://yaml.example.com/api
timeout: 11
persist_token: false
all_proxy: ssh+socks5://jump@bastion:22?private-key=/key
log_format: json
`), 0600)

	cfg, err := Load(fs, Options{ConfigDir: "/cfg", DotEnvPath: "/work/.env"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Timeout != 7 {
		t.Errorf("Expected environment to win with timeout 7, got %d", cfg.Timeout)
	}
	if cfg.APIURL != "https://dotenv.example.com/api" {
		t.Errorf("Expected .env to beat config.yaml, got %s", cfg.APIURL)
	}
	if cfg.PersistToken {
		t.Error("Expected persist_token from config.yaml")
	}
	if cfg.AllProxy != "ssh+socks5://jump@bastion:22?private-key=/key" {
		t.Errorf("Unexpected proxy %s", cfg.AllProxy)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("Expected log format json, got %s", cfg.LogFormat)
	}
}

func TestLoad_DotEnvSetsConfigDir(t *testing.T) {
	withCleanEnv(t, nil)

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/work/.env", []byte("OPSDESK_CONFIG_DIR=/fromdotenv\n"), 0600)
	afero.WriteFile(fs, "/fromdotenv/config.yaml", []byte("timeout: 12\n"), 0600)

	cfg, err := Load(fs, Options{DotEnvPath: "/work/.env"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ConfigDir != "/fromdotenv" || cfg.Timeout != 12 {
		t.Errorf("Expected config dir from .env, got %s timeout %d", cfg.ConfigDir, cfg.Timeout)
	}
}

func TestLoad_InvalidValuesAggregated(t *testing.T) {
	withCleanEnv(t, map[string]string{
		"OPSDESK_TIMEOUT":       "soon",
		"OPSDESK_PERSIST_TOKEN": "maybe",
	})

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg/config.yaml", []byte("timeout: [not, an, int]\n"), 0600)

	cfg, err := Load(fs, Options{ConfigDir: "/cfg"})
	if err == nil {
		t.Fatal("Expected error for invalid values")
	}
	for _, want := range []string{"OPSDESK_TIMEOUT", "OPSDESK_PERSIST_TOKEN", "config.yaml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
	if cfg.Timeout != 30 || !cfg.PersistToken {
		t.Errorf("Expected defaults after invalid values, got %d %v", cfg.Timeout, cfg.PersistToken)
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/api", "/api"},
		{"opsdesk.example.com/api", "https://opsdesk.example.com/api"},
		{"http://localhost:8080/api", "http://localhost:8080/api"},
	}
	for _, tt := range tests {
		if got := ensureScheme(tt.in); got != tt.want {
			t.Errorf("ensureScheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{APIURL: "https://opsdesk.example.com/api", Timeout: 30}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	warning := valid
	warning.LogLevel = "WARNING"
	if err := warning.Validate(); err != nil {
		t.Errorf("Expected warning to be accepted as a log level, got %v", err)
	}

	relative := valid
	relative.APIURL = "/api"
	err := relative.Validate()
	if err == nil || !strings.Contains(err.Error(), "relative") {
		t.Errorf("Expected relative URL error, got %v", err)
	}

	bad := Config{
		APIURL:    "ftp://files.example.com",
		Timeout:   0,
		AllProxy:  "socks5://bastion:22",
		LogLevel:  "verbose",
		LogFormat: "xml",
	}
	err = bad.Validate()
	if err == nil {
		t.Fatal("Expected errors")
	}
	for _, want := range []string{"timeout", "http or https", EnvAllProxy, EnvLogLevel, EnvLogFormat} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected aggregated error to mention %q, got %v", want, err)
		}
	}
}

func TestSetAPIURL(t *testing.T) {
	cfg := &Config{}
	cfg.SetAPIURL("localhost:8080/api")
	if cfg.APIURL != "https://localhost:8080/api" {
		t.Errorf("Unexpected API URL %s", cfg.APIURL)
	}
}
