// ABOUTME: Template library commands
// ABOUTME: List, inspect, create, edit, duplicate, apply and share templates

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/prompt"
	"github.com/opsdesk/opsdesk/internal/templates"
)

var (
	tmplTitle       string
	tmplDescription string
	tmplCategory    string
	tmplTags        []string
	tmplPublic      bool
	tmplFile        string
	tmplProjectID   string
	tmplStartDate   string
	tmplEmails      []string
	tmplPermission  string
	tmplMessage     string
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "tmpl"},
	Short:   "Manage the template and workflow library",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runTemplatesList)
	},
}

var templatesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesGet(ctx, w, args[0]) })
	},
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a template",
	Long: `Create a template from flags, or from a JSON or YAML file with --file.
Flags override values read from the file.

Example:
  opsdesk templates create --title "Website launch" --category marketing --tag web
  opsdesk templates create --file launch.yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runTemplatesCreate)
	},
}

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesUpdate(ctx, w, args[0]) })
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesDelete(ctx, w, args[0]) })
	},
}

var templatesDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesDuplicate(ctx, w, args[0]) })
	},
}

var templatesApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Apply a template to a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesApply(ctx, w, args[0]) })
	},
}

var templatesShareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Share a template with other people",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runTemplatesShare(ctx, w, args[0]) })
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd, templatesGetCmd, templatesCreateCmd, templatesUpdateCmd,
		templatesDeleteCmd, templatesDuplicateCmd, templatesApplyCmd, templatesShareCmd)

	for _, c := range []*cobra.Command{templatesCreateCmd, templatesUpdateCmd} {
		c.Flags().StringVar(&tmplTitle, "title", "", "Template title")
		c.Flags().StringVar(&tmplDescription, "description", "", "Template description")
		c.Flags().StringVar(&tmplCategory, "category", "", "Template category")
		c.Flags().StringSliceVar(&tmplTags, "tag", nil, "Tag (repeatable)")
		c.Flags().StringVarP(&tmplFile, "file", "f", "", "Read the template from a JSON or YAML file")
	}
	templatesCreateCmd.Flags().BoolVar(&tmplPublic, "public", false, "Make the template visible to everyone")

	templatesApplyCmd.Flags().StringVar(&tmplProjectID, "project", "", "Project to apply the template to")
	templatesApplyCmd.Flags().StringVar(&tmplStartDate, "start-date", "", "Project start date (YYYY-MM-DD)")

	templatesShareCmd.Flags().StringSliceVar(&tmplEmails, "email", nil, "Recipient email (repeatable)")
	templatesShareCmd.Flags().StringVar(&tmplPermission, "permission", "view", "Permission to grant: view or edit")
	templatesShareCmd.Flags().StringVar(&tmplMessage, "message", "", "Note to include in the share email")
}

func runTemplatesList(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	items, err := e.templates().List(ctx)
	if err != nil {
		return fail(w, err)
	}

	err = output.Write(w, e.format, items, func() string { return formatTemplatesTable(items) })
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatTemplatesTable renders templates as a table
func formatTemplatesTable(items []templates.Template) string {
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Category,
			strconv.Itoa(len(t.Phases)),
			strings.Join(t.Tags, ", "),
		})
	}
	return output.Table([]string{"ID", "TITLE", "CATEGORY", "PHASES", "TAGS"}, rows, "No templates found.")
}

func runTemplatesGet(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	t, err := e.templates().Get(ctx, id)
	if err != nil {
		return fail(w, err)
	}
	if t == nil {
		fmt.Fprintf(w, "Template %s not found\n", id)
		return exitRejected
	}

	return writeTemplate(w, e.format, t)
}

func writeTemplate(w io.Writer, f output.Format, t *templates.Template) int {
	if err := output.Write(w, f, t, func() string { return formatTemplateHuman(t) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatTemplateHuman formats a template and its phases for human readability
func formatTemplateHuman(t *templates.Template) string {
	var b strings.Builder
	b.WriteString(output.Title.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(output.KeyValues(
		[2]string{"ID", t.ID},
		[2]string{"Category", t.Category},
		[2]string{"Description", t.Description},
		[2]string{"Tags", strings.Join(t.Tags, ", ")},
		[2]string{"Used", usageCount(t.UsageCount)},
	))

	for _, p := range t.Phases {
		fmt.Fprintf(&b, "\n\n%s", output.Label.Render(fmt.Sprintf("Phase %d: %s", p.Order, p.Name)))
		if p.DurationDays > 0 {
			fmt.Fprintf(&b, " (%d days)", p.DurationDays)
		}
		for _, task := range p.Tasks {
			fmt.Fprintf(&b, "\n  - %s", task.Title)
			if task.EstimatedHours > 0 {
				fmt.Fprintf(&b, " [%gh]", task.EstimatedHours)
			}
			if task.Role != "" {
				fmt.Fprintf(&b, " @%s", task.Role)
			}
		}
		for _, d := range p.Decisions {
			fmt.Fprintf(&b, "\n  ? %s", d.Title)
			if len(d.Approvers) > 0 {
				fmt.Fprintf(&b, " (approvers: %s)", strings.Join(d.Approvers, ", "))
			}
		}
	}

	if len(t.Roles) > 0 {
		b.WriteString("\n\n" + output.Label.Render("Roles"))
		for _, r := range t.Roles {
			fmt.Fprintf(&b, "\n  - %s", r.Name)
			if r.AllocationPct > 0 {
				fmt.Fprintf(&b, " %g%%", r.AllocationPct)
			}
		}
	}
	return b.String()
}

func usageCount(n int) string {
	if n == 0 {
		return ""
	}
	if n == 1 {
		return "1 time"
	}
	return fmt.Sprintf("%d times", n)
}

func runTemplatesCreate(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	var input templates.CreateInput
	if tmplFile != "" {
		if err := decodeInputFile(tmplFile, &input); err != nil {
			return fail(w, err)
		}
	}
	if tmplTitle != "" {
		input.Title = tmplTitle
	}
	if tmplDescription != "" {
		input.Description = tmplDescription
	}
	if tmplCategory != "" {
		input.Category = tmplCategory
	}
	if len(tmplTags) > 0 {
		input.Tags = tmplTags
	}
	if tmplPublic {
		input.IsPublic = true
	}
	if err := prompt.ValidateVar("title", input.Title, "required"); err != nil {
		return fail(w, err)
	}

	created, err := e.templates().Create(ctx, input)
	if err != nil {
		return fail(w, err)
	}
	if created == nil {
		return writeAccepted(w, e.format, "", "Created", "template")
	}
	return writeTemplate(w, e.format, created)
}

func runTemplatesUpdate(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	var patch templates.UpdateInput
	if tmplFile != "" {
		if err := decodeInputFile(tmplFile, &patch); err != nil {
			return fail(w, err)
		}
	}
	if tmplTitle != "" {
		patch.Title = &tmplTitle
	}
	if tmplDescription != "" {
		patch.Description = &tmplDescription
	}
	if tmplCategory != "" {
		patch.Category = &tmplCategory
	}
	if len(tmplTags) > 0 {
		patch.Tags = tmplTags
	}

	updated, err := e.templates().Update(ctx, id, patch)
	if err != nil {
		return fail(w, err)
	}
	if updated == nil {
		return writeAccepted(w, e.format, id, "Updated", "template")
	}
	return writeTemplate(w, e.format, updated)
}

func runTemplatesDelete(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	if err := e.templates().Delete(ctx, id); err != nil {
		return fail(w, err)
	}

	return writeAccepted(w, e.format, id, "Deleted", "template")
}

func runTemplatesDuplicate(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	dup, err := e.templates().Duplicate(ctx, id)
	if err != nil {
		return fail(w, err)
	}
	if dup == nil {
		return writeAccepted(w, e.format, id, "Duplicated", "template")
	}
	return writeTemplate(w, e.format, dup)
}

func runTemplatesApply(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	input := templates.ApplyInput{TemplateID: id, ProjectID: tmplProjectID, StartDate: tmplStartDate}
	if tmplStartDate != "" {
		if err := prompt.ValidateVar("start-date", tmplStartDate, "datetime=2006-01-02"); err != nil {
			return fail(w, err)
		}
	}

	res, err := e.templates().Apply(ctx, input)
	if err != nil {
		return fail(w, err)
	}
	if res == nil {
		return writeAccepted(w, e.format, id, "Applied", "template")
	}

	err = output.Write(w, e.format, res, func() string {
		text := output.Success.Render("Applied") + " template " + res.TemplateID
		if res.ProjectID != "" {
			text += " to project " + res.ProjectID
		}
		return text
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

func runTemplatesShare(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	if err := prompt.ValidateVar("email", tmplEmails, "required,dive,email"); err != nil {
		return fail(w, err)
	}
	if err := prompt.ValidateVar("permission", tmplPermission, "oneof=view edit"); err != nil {
		return fail(w, err)
	}

	payload := templates.SharePayload{Emails: tmplEmails, Permission: tmplPermission, Message: tmplMessage}
	res, err := e.templates().Share(ctx, id, payload)
	if err != nil {
		return fail(w, err)
	}
	if res == nil {
		return writeAccepted(w, e.format, id, "Shared", "template")
	}

	err = output.Write(w, e.format, res, func() string {
		return fmt.Sprintf("%s template %s with %s (%s)",
			output.Success.Render("Shared"), res.TemplateID, strings.Join(res.SharedWith, ", "), res.Permission)
	})
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}
