// ABOUTME: Test helpers for command tests
// ABOUTME: Points commands at a fake backend and an in-memory filesystem

package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/opsdesk/opsdesk/internal/mockapi"
	"github.com/opsdesk/opsdesk/internal/prompt"
)

const testConfigDir = "/cfg"

// setupCommandTest starts a fake backend, points every command at it, and
// restores all package state on cleanup.
func setupCommandTest(t *testing.T) *mockapi.Server {
	t.Helper()

	srv := mockapi.New()
	t.Cleanup(srv.Close)

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "OPSDESK_") || strings.HasPrefix(key, "LOG_") {
			t.Setenv(key, "")
		}
	}
	t.Setenv("LOG_LEVEL", "error")

	origFs, origInteractive, origAsker, origNow := fsys, interactive, asker, now
	t.Cleanup(func() {
		fsys, interactive, asker, now = origFs, origInteractive, origAsker, origNow
		resetFlags()
	})

	resetFlags()
	fsys = afero.NewMemMapFs()
	interactive = func() bool { return false }
	asker = nil
	now = time.Now
	apiURL = srv.BaseURL
	configDir = testConfigDir

	return srv
}

func resetFlags() {
	apiURL, jsonOutput, yamlOutput, configDir, timeoutSecs = "", false, false, "", 0
	authEmail, authPassword, authName, authCompany, ssoDomain = "", "", "", "", ""
	tmplTitle, tmplDescription, tmplCategory, tmplFile = "", "", "", ""
	tmplTags, tmplEmails = nil, nil
	tmplPublic = false
	tmplProjectID, tmplStartDate, tmplPermission, tmplMessage = "", "", "view", ""
	backupName, backupKind, backupTarget, backupSchedule, backupStatus, backupFile = "", "backup", "", "", "", ""
	backupRetention = 0
	backupEnabled = true
}

// storeToken writes a token where the file store looks for it.
func storeToken(t *testing.T, token string) {
	t.Helper()
	if err := afero.WriteFile(fsys, testConfigDir+"/token", []byte(token+"\n"), 0600); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}
}

// run executes a command function and returns its exit code and output.
func run(fn func(ctx context.Context, w io.Writer) int) (int, string) {
	var buf bytes.Buffer
	code := fn(context.Background(), &buf)
	return code, buf.String()
}

type fakeAsker struct {
	password string
	calls    int
}

func (f *fakeAsker) Ask(c *prompt.Credentials, signup bool) error {
	f.calls++
	if c.Password == "" {
		c.Password = f.password
	}
	return nil
}
