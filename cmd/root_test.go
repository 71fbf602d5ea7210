// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies flag overrides, output format selection and exit codes

package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/credentials"
	"github.com/opsdesk/opsdesk/internal/output"
)

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	setupCommandTest(t)
	t.Setenv("OPSDESK_API_URL", "https://env.example.com/api")
	t.Setenv("OPSDESK_TIMEOUT", "9")
	apiURL = "flag.example.com/api"
	timeoutSecs = 3

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://flag.example.com/api" {
		t.Errorf("expected flag URL, got %s", cfg.APIURL)
	}
	if cfg.Timeout != 3 {
		t.Errorf("expected flag timeout, got %d", cfg.Timeout)
	}
	if cfg.ConfigDir != testConfigDir {
		t.Errorf("expected --config-dir to apply, got %s", cfg.ConfigDir)
	}
}

func TestLoadConfig_EnvWithoutFlag(t *testing.T) {
	setupCommandTest(t)
	t.Setenv("OPSDESK_API_URL", "https://env.example.com/api")
	apiURL = ""

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://env.example.com/api" {
		t.Errorf("expected env URL, got %s", cfg.APIURL)
	}
}

func TestNewStore(t *testing.T) {
	setupCommandTest(t)

	cfg, _ := loadConfig()
	if _, ok := newStore(cfg).(*credentials.FileStore); !ok {
		t.Error("expected file store by default")
	}

	cfg.PersistToken = false
	store := newStore(cfg)
	store.SetToken("abc")
	if exists, _ := afero.Exists(fsys, testConfigDir+"/token"); exists {
		t.Error("memory store must not write files")
	}

	cfg.Token = "fixed"
	if tok, ok := newStore(cfg).Token(); !ok || tok != "fixed" {
		t.Errorf("expected override token, got %q %v", tok, ok)
	}
}

func TestOutputFormat(t *testing.T) {
	setupCommandTest(t)

	if f, _ := OutputFormat(); f != output.Human {
		t.Errorf("expected human by default, got %v", f)
	}
	yamlOutput = true
	if f, _ := OutputFormat(); f != output.YAML {
		t.Errorf("expected yaml, got %v", f)
	}
}

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestExitCodeFor(t *testing.T) {
	if got := exitCodeFor(&client.APIError{Message: "no", Status: 403}); got != exitRejected {
		t.Errorf("expected exit code 1 for APIError, got %d", got)
	}
	if got := exitCodeFor(errors.New("cannot connect")); got != exitError {
		t.Errorf("expected exit code 2 for other errors, got %d", got)
	}
}

func TestCommandTree(t *testing.T) {
	want := [][]string{
		{"login"}, {"signup"}, {"magic-link"}, {"logout"}, {"whoami"}, {"auth-url"}, {"ping"}, {"overview"},
		{"templates", "list"}, {"templates", "get"}, {"templates", "create"}, {"templates", "update"},
		{"templates", "delete"}, {"templates", "duplicate"}, {"templates", "apply"}, {"templates", "share"},
		{"backups", "list"}, {"backups", "get"}, {"backups", "create"}, {"backups", "update"},
		{"backups", "delete"}, {"backups", "stats"},
	}
	for _, path := range want {
		c, _, err := rootCmd.Find(path)
		if err != nil || c.Name() != path[len(path)-1] {
			t.Errorf("command %v not registered", path)
		}
	}
}
