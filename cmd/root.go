// ABOUTME: Root command for the opsdesk CLI
// ABOUTME: Handles global flags, output format, and exit codes

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/client"
	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/prompt"
)

// Exit codes
const (
	exitOK       = 0 // success
	exitRejected = 1 // backend rejected the operation
	exitError    = 2 // usage, configuration, or connectivity error
)

var (
	apiURL      string
	jsonOutput  bool
	yamlOutput  bool
	configDir   string
	timeoutSecs int
)

// Replaced in tests.
var (
	fsys  afero.Fs     = afero.NewOsFs()
	asker prompt.Asker = prompt.FormAsker{}

	now = time.Now

	// interactive reports whether prompts may be shown.
	interactive = func() bool { return prompt.IsTerminal(os.Stdin) }
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "opsdesk",
	Short: "CLI for the opsdesk project-management backend",
	Long: `opsdesk is a command-line client for the opsdesk professional-services backend.

It signs in, manages the template library, and inspects performance, caching
and backup settings.

Environment Variables:
  OPSDESK_API_URL        Backend API URL, e.g. https://opsdesk.example.com/api
  OPSDESK_CONFIG_DIR     Directory holding config.yaml and the stored token
  OPSDESK_TIMEOUT        Request timeout in seconds (default: 30)
  OPSDESK_PERSIST_TOKEN  Store the token on disk (default: true)
  OPSDESK_TOKEN          Use this token instead of the stored one
  OPSDESK_ALL_PROXY      ssh+socks5://user@host:port?private-key=/path
  LOG_LEVEL              debug, info, warn, error (default: warn)
  LOG_FORMAT             text, json (default: text)

Exit codes:
  0 - Success
  1 - The backend rejected the operation
  2 - Usage, configuration, or connectivity error`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides OPSDESK_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output YAML instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (overrides OPSDESK_CONFIG_DIR)")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "Request timeout in seconds (overrides OPSDESK_TIMEOUT)")
}

// OutputFormat returns the format selected by --json and --yaml.
func OutputFormat() (output.Format, error) {
	return output.FormatFromFlags(jsonOutput, yamlOutput)
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// runWithSignals runs fn with a context canceled on SIGINT/SIGTERM and exits
// with its code.
func runWithSignals(fn func(ctx context.Context, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := fn(ctx, os.Stdout)
	if exitCode != exitOK {
		os.Exit(exitCode)
	}
}

// fail reports err and maps it to an exit code.
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitCodeFor(err)
}

// writeAccepted reports a write the backend confirmed without returning the
// resource, e.g. a 204. Machine output is {"id": ..., "<verb>": true}.
func writeAccepted(w io.Writer, f output.Format, id, verb, noun string) int {
	v := map[string]any{strings.ToLower(verb): true}
	if id != "" {
		v["id"] = id
	}
	err := output.Write(w, f, v, func() string {
		text := output.Success.Render(verb) + " " + noun
		if id != "" {
			text += " " + id
		}
		return text
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	if _, ok := client.AsAPIError(err); ok {
		return exitRejected
	}
	return exitError
}
