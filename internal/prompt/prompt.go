// ABOUTME: Interactive credential prompts for login and signup
// ABOUTME: Asks for missing fields with a huh form when stdin is a terminal

package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when input is missing and stdin is not a
// terminal.
var ErrNotInteractive = errors.New("missing input and stdin is not a terminal")

// Credentials is what login and signup collect.
type Credentials struct {
	Email    string
	Password string
	Name     string
	Company  string
}

// Asker fills in missing credential fields.
type Asker interface {
	Ask(c *Credentials, signup bool) error
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Complete asks for any missing email or password. Without an interactive
// asker missing fields are an error naming what is absent.
func Complete(c *Credentials, signup bool, asker Asker) error {
	if c.Email != "" && c.Password != "" {
		return nil
	}
	if asker == nil {
		var missing []string
		if c.Email == "" {
			missing = append(missing, "--email")
		}
		if c.Password == "" {
			missing = append(missing, "--password")
		}
		return fmt.Errorf("%w: provide %v", ErrNotInteractive, missing)
	}
	return asker.Ask(c, signup)
}

// FormAsker prompts with a huh form.
type FormAsker struct{}

// Ask runs the form for the fields still empty.
func (FormAsker) Ask(c *Credentials, signup bool) error {
	var fields []huh.Field
	if c.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&c.Email).
			Validate(func(s string) error { return ValidateVar("email", s, "required,email") }))
	}
	if c.Password == "" {
		minTag := "required"
		if signup {
			minTag = "required,min=8"
		}
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(func(s string) error { return ValidateVar("password", s, minTag) }))
	}
	if signup && c.Name == "" {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Description("Optional").
			Value(&c.Name))
	}

	title := "Log in to opsdesk"
	if signup {
		title = "Create an opsdesk account"
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title(title)).WithTheme(theme())
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

func theme() *huh.Theme {
	t := huh.ThemeBase()

	primary := lipgloss.Color("#7C3AED")
	accent := lipgloss.Color("#8B5CF6")
	muted := lipgloss.Color("#6B7280")
	danger := lipgloss.Color("#EF4444")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true).
		MarginBottom(1)
	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(muted)
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(danger)
	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())

	return t
}
