// ABOUTME: Test helpers for config tests
// ABOUTME: Provides utilities for environment variable management

package config

import (
	"os"
	"strings"
	"testing"
)

// withCleanEnv clears every OPSDESK_ and LOG_ variable plus XDG_CONFIG_HOME,
// sets the extra values, and restores the original values on cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    withCleanEnv(t, map[string]string{"OPSDESK_TIMEOUT": "5"})
//	}
func withCleanEnv(t *testing.T, extra map[string]string) {
	t.Helper()

	originalEnv := os.Environ()
	for _, kv := range originalEnv {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "OPSDESK_") || strings.HasPrefix(key, "LOG_") || key == "XDG_CONFIG_HOME" {
			os.Unsetenv(key)
		}
	}
	os.Setenv("XDG_CONFIG_HOME", "/xdg")

	for key, value := range extra {
		os.Setenv(key, value)
	}

	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range originalEnv {
			if key, value, ok := strings.Cut(kv, "="); ok {
				os.Setenv(key, value)
			}
		}
	})
}
