// ABOUTME: Overview command combining the template library and backup status
// ABOUTME: Fetches independent resources concurrently

package cmd

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/perfbackup"
	"github.com/opsdesk/opsdesk/internal/templates"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarise templates and backup settings",
	Long: `Fetch the template library, the backup settings and their statistics in
parallel. Backup data is optional: if it cannot be loaded the overview still
shows the templates.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runOverview)
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}

// overview is the combined result.
type overview struct {
	Templates []templates.Template `json:"templates"`
	Backups   []perfbackup.Record  `json:"backups"`
	Stats     perfbackup.Stats     `json:"stats"`
}

func runOverview(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	var ov overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.templates().List(gctx)
		ov.Templates = items
		return err
	})
	g.Go(func() error {
		ov.Backups = e.backups().List(gctx)
		return nil
	})
	g.Go(func() error {
		ov.Stats = e.backups().Stats(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(w, err)
	}

	err = output.Write(w, e.format, ov, func() string { return formatOverviewHuman(&ov) })
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatOverviewHuman formats the overview for human readability
func formatOverviewHuman(ov *overview) string {
	header := output.KeyValues(
		[2]string{"Templates", strconv.Itoa(len(ov.Templates))},
		[2]string{"Settings", strconv.Itoa(len(ov.Backups))},
		[2]string{"Last backup", ov.Stats.LastBackupAt},
	)
	return output.Panel.Render(header) + "\n\n" +
		output.Title.Render("Templates") + "\n" + formatTemplatesTable(ov.Templates) + "\n\n" +
		output.Title.Render("Performance, caching & backup") + "\n" + formatBackupsTable(ov.Backups)
}
