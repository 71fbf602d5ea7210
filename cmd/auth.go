// ABOUTME: Authentication commands: login, signup, magic-link, logout, whoami
// ABOUTME: Also prints browser redirect targets and pings the sign-in page

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/prompt"
)

var (
	authEmail    string
	authPassword string
	authName     string
	authCompany  string
	ssoDomain    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Log in with email and password. Missing values are prompted for when
stdin is a terminal. The token is stored in the config directory unless
OPSDESK_PERSIST_TOKEN=false.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runLogin)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and store the access token",
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runSignup)
	},
}

var magicLinkCmd = &cobra.Command{
	Use:   "magic-link",
	Short: "Email a one-time sign-in link",
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runMagicLink)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runLogout(w) })
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show what the stored token says about you",
	Long:  `Decode the stored token locally. Claims are not verified; the backend remains the authority.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runWhoami(w) })
	},
}

var authURLCmd = &cobra.Command{
	Use:       "auth-url google|sso",
	Short:     "Print a browser sign-in URL",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"google", "sso"},
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runAuthURL(w, args[0]) })
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the backend serves the sign-in page",
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runPing)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, magicLinkCmd, logoutCmd, whoamiCmd, authURLCmd, pingCmd)

	for _, c := range []*cobra.Command{loginCmd, signupCmd, magicLinkCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
	}
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted for when omitted)")
	}
	signupCmd.Flags().StringVar(&authName, "name", "", "Your name")
	signupCmd.Flags().StringVar(&authCompany, "company", "", "Company name")
	authURLCmd.Flags().StringVar(&ssoDomain, "domain", "", "SSO domain")
}

// sessionView is what login and signup print. The token itself is never shown.
type sessionView struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Persisted bool   `json:"persisted"`
}

func newSessionView(s *auth.Session) sessionView {
	v := sessionView{TokenType: s.TokenType, Persisted: s.Persisted}
	if s.User != nil {
		v.Email = s.User.Email
		v.Name = s.User.Name
	}
	return v
}

// promptAsker returns the asker when prompting is possible.
func promptAsker() prompt.Asker {
	if interactive() {
		return asker
	}
	return nil
}

func runLogin(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	creds := prompt.Credentials{Email: authEmail, Password: authPassword}
	if err := prompt.Complete(&creds, false, promptAsker()); err != nil {
		return fail(w, err)
	}
	input := auth.LoginInput{Email: creds.Email, Password: creds.Password}
	if err := prompt.ValidateStruct(input); err != nil {
		return fail(w, err)
	}

	session, err := e.auth().Login(ctx, input)
	if err != nil {
		return fail(w, err)
	}
	return writeSession(w, e.format, "Logged in", newSessionView(session))
}

func runSignup(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	creds := prompt.Credentials{Email: authEmail, Password: authPassword, Name: authName, Company: authCompany}
	if err := prompt.Complete(&creds, true, promptAsker()); err != nil {
		return fail(w, err)
	}
	input := auth.SignupInput{Email: creds.Email, Password: creds.Password, Name: creds.Name, Company: creds.Company}
	if err := prompt.ValidateStruct(input); err != nil {
		return fail(w, err)
	}

	session, err := e.auth().Signup(ctx, input)
	if err != nil {
		return fail(w, err)
	}
	return writeSession(w, e.format, "Account created", newSessionView(session))
}

func writeSession(w io.Writer, f output.Format, headline string, v sessionView) int {
	err := output.Write(w, f, v, func() string {
		text := output.Success.Render(headline)
		if v.Email != "" {
			text += " as " + v.Email
		}
		if !v.Persisted {
			text += "\n" + output.Subtitle.Render("The token was not saved and is only valid for this command. Set OPSDESK_TOKEN to reuse a token.")
		}
		return text
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runMagicLink(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}
	if err := prompt.ValidateVar("email", authEmail, "required,email"); err != nil {
		return fail(w, err)
	}

	resp, err := e.auth().RequestMagicLink(ctx, authEmail)
	if err != nil {
		return fail(w, err)
	}

	err = output.Write(w, e.format, resp, func() string {
		msg := resp.Message
		if msg == "" {
			msg = "Magic link requested"
		}
		return output.Success.Render(msg) + " for " + authEmail
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runLogout(w io.Writer) int {
	e, err := newEnv(false)
	if err != nil {
		return fail(w, err)
	}

	res := e.auth().Logout()
	if !res.Written {
		return fail(w, fmt.Errorf("token not cleared: %s", res.Reason))
	}

	err = output.Write(w, e.format, map[string]bool{"logged_out": true}, func() string {
		return output.Success.Render("Logged out")
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runWhoami(w io.Writer) int {
	e, err := newEnv(false)
	if err != nil {
		return fail(w, err)
	}

	id, err := e.auth().Identity(now())
	if errors.Is(err, auth.ErrNotLoggedIn) {
		fmt.Fprintln(w, "Not logged in. Run 'opsdesk login' first.")
		return exitRejected
	}
	if err != nil {
		return fail(w, err)
	}

	err = output.Write(w, e.format, id, func() string { return formatIdentityHuman(id) })
	if err != nil {
		return fail(w, err)
	}
	if id.Expired {
		return exitRejected
	}
	return exitOK
}

// formatIdentityHuman formats the token identity for human readability
func formatIdentityHuman(id *auth.Identity) string {
	status := "active"
	switch {
	case id.Opaque:
		status = "opaque"
	case id.Expired:
		status = "expired"
	}

	return output.KeyValues(
		[2]string{"Token", id.Token},
		[2]string{"Status", output.Badge(status, statusLevel(status))},
		[2]string{"Subject", id.Subject},
		[2]string{"Email", id.Email},
		[2]string{"Issued", formatTime(id.IssuedAt)},
		[2]string{"Expires", formatTime(id.ExpiresAt)},
	)
}

func statusLevel(status string) output.StatusLevel {
	switch status {
	case "active":
		return output.StatusOK
	case "expired":
		return output.StatusCritical
	default:
		return output.StatusNeutral
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func runAuthURL(w io.Writer, provider string) int {
	e, err := newEnv(false)
	if err != nil {
		return fail(w, err)
	}

	svc := e.auth()
	var target string
	switch provider {
	case "google":
		target = svc.GoogleOAuthURL()
	case "sso":
		target = svc.SSOURL(ssoDomain)
	default:
		return fail(w, fmt.Errorf("unknown provider %q (want google or sso)", provider))
	}

	err = output.Write(w, e.format, map[string]string{"provider": provider, "url": target}, func() string {
		return target
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runPing(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	start := now()
	page := e.auth().SignupLoginPage(ctx)
	elapsed := now().Sub(start)

	if page == nil {
		fmt.Fprintf(w, "Error: backend at %s did not serve the sign-in page\n", e.cfg.APIURL)
		return exitError
	}

	view := map[string]any{
		"backend":    e.cfg.APIURL,
		"title":      page.Title,
		"providers":  page.Providers,
		"latency_ms": elapsed.Milliseconds(),
	}
	err = output.Write(w, e.format, view, func() string {
		return output.KeyValues(
			[2]string{"Backend", e.cfg.APIURL},
			[2]string{"Page", page.Title},
			[2]string{"Providers", strings.Join(page.Providers, ", ")},
			[2]string{"Latency", elapsed.Round(time.Millisecond).String()},
		)
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}
