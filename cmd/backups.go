// ABOUTME: Performance, caching and backup settings commands
// ABOUTME: Reads degrade to empty output; writes report backend errors

package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/output"
	"github.com/opsdesk/opsdesk/internal/perfbackup"
	"github.com/opsdesk/opsdesk/internal/prompt"
)

var (
	backupName      string
	backupKind      string
	backupTarget    string
	backupSchedule  string
	backupStatus    string
	backupRetention int
	backupEnabled   bool
	backupFile      string
)

var backupsCmd = &cobra.Command{
	Use:     "backups",
	Aliases: []string{"backup", "perf"},
	Short:   "Manage performance, caching and backup settings",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runBackupsList)
	},
}

var backupsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runBackupsGet(ctx, w, args[0]) })
	},
}

var backupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a setting",
	Long: `Create a performance, caching or backup setting from flags, or from a JSON
or YAML file with --file. Flags override values read from the file.

Example:
  opsdesk backups create --name nightly --kind backup --schedule "0 2 * * *" --retention-days 14`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int {
			return runBackupsCreate(ctx, w, cmd.Flags().Changed("enabled"))
		})
	},
}

var backupsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int {
			return runBackupsUpdate(ctx, w, args[0], cmd.Flags().Changed("enabled"), cmd.Flags().Changed("retention-days"))
		})
	},
}

var backupsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(func(ctx context.Context, w io.Writer) int { return runBackupsDelete(ctx, w, args[0]) })
	},
}

var backupsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithSignals(runBackupsStats)
	},
}

func init() {
	rootCmd.AddCommand(backupsCmd)
	backupsCmd.AddCommand(backupsListCmd, backupsGetCmd, backupsCreateCmd, backupsUpdateCmd, backupsDeleteCmd, backupsStatsCmd)

	for _, c := range []*cobra.Command{backupsCreateCmd, backupsUpdateCmd} {
		c.Flags().StringVar(&backupName, "name", "", "Setting name")
		c.Flags().StringVar(&backupTarget, "target", "", "What the setting applies to, e.g. a database or bucket")
		c.Flags().StringVar(&backupSchedule, "schedule", "", "Cron schedule")
		c.Flags().IntVar(&backupRetention, "retention-days", 0, "Days to keep backups")
		c.Flags().BoolVar(&backupEnabled, "enabled", true, "Whether the setting is active")
		c.Flags().StringVarP(&backupFile, "file", "f", "", "Read the setting from a JSON or YAML file")
	}
	backupsCreateCmd.Flags().StringVar(&backupKind, "kind", perfbackup.KindBackup, "performance, caching or backup")
	backupsUpdateCmd.Flags().StringVar(&backupStatus, "status", "", "New status")
}

func runBackupsList(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	items := e.backups().List(ctx)
	err = output.Write(w, e.format, items, func() string { return formatBackupsTable(items) })
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatBackupsTable renders settings as a table
func formatBackupsTable(items []perfbackup.Record) string {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{
			r.ID,
			r.Name,
			r.Kind,
			output.StatusBadge(r.Status),
			r.Schedule,
			formatBytes(r.SizeBytes),
		})
	}
	return output.Table([]string{"ID", "NAME", "KIND", "STATUS", "SCHEDULE", "SIZE"}, rows, "No settings found.")
}

func runBackupsGet(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	rec := e.backups().Get(ctx, id)
	if rec == nil {
		fmt.Fprintf(w, "Setting %s not available\n", id)
		return exitRejected
	}
	return writeBackup(w, e.format, rec)
}

func writeBackup(w io.Writer, f output.Format, r *perfbackup.Record) int {
	if err := output.Write(w, f, r, func() string { return formatBackupHuman(r) }); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatBackupHuman formats one setting for human readability
func formatBackupHuman(r *perfbackup.Record) string {
	retention := ""
	if r.RetentionDays > 0 {
		retention = strconv.Itoa(r.RetentionDays) + " days"
	}
	text := output.Title.Render(r.Name) + "\n" + output.KeyValues(
		[2]string{"ID", r.ID},
		[2]string{"Kind", r.Kind},
		[2]string{"Status", output.StatusBadge(r.Status)},
		[2]string{"Enabled", strconv.FormatBool(r.Enabled)},
		[2]string{"Target", r.Target},
		[2]string{"Schedule", r.Schedule},
		[2]string{"Retention", retention},
		[2]string{"Size", formatBytes(r.SizeBytes)},
		[2]string{"Last run", r.LastRunAt},
	)

	keys := make([]string, 0, len(r.Settings))
	for k := range r.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text += fmt.Sprintf("\n  %s = %v", k, r.Settings[k])
	}
	return text
}

func formatBytes(n int64) string {
	if n <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(n))
}

func runBackupsCreate(ctx context.Context, w io.Writer, enabledSet bool) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	var input perfbackup.CreateInput
	if backupFile != "" {
		if err := decodeInputFile(backupFile, &input); err != nil {
			return fail(w, err)
		}
	}
	if backupName != "" {
		input.Name = backupName
	}
	if backupKind != "" && input.Kind == "" {
		input.Kind = backupKind
	}
	if backupTarget != "" {
		input.Target = backupTarget
	}
	if backupSchedule != "" {
		input.Schedule = backupSchedule
	}
	if backupRetention != 0 {
		input.RetentionDays = backupRetention
	}
	if enabledSet || input.Enabled == nil {
		input.Enabled = &backupEnabled
	}

	if err := prompt.ValidateVar("name", input.Name, "required"); err != nil {
		return fail(w, err)
	}
	if err := prompt.ValidateVar("kind", input.Kind, "oneof=performance caching backup"); err != nil {
		return fail(w, err)
	}

	created, err := e.backups().Create(ctx, input)
	if err != nil {
		return fail(w, err)
	}
	if created == nil {
		return writeAccepted(w, e.format, "", "Created", "setting")
	}
	return writeBackup(w, e.format, created)
}

func runBackupsUpdate(ctx context.Context, w io.Writer, id string, enabledSet, retentionSet bool) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	var patch perfbackup.UpdateInput
	if backupFile != "" {
		if err := decodeInputFile(backupFile, &patch); err != nil {
			return fail(w, err)
		}
	}
	if backupName != "" {
		patch.Name = &backupName
	}
	if backupStatus != "" {
		patch.Status = &backupStatus
	}
	if backupTarget != "" {
		patch.Target = &backupTarget
	}
	if backupSchedule != "" {
		patch.Schedule = &backupSchedule
	}
	if retentionSet {
		patch.RetentionDays = &backupRetention
	}
	if enabledSet {
		patch.Enabled = &backupEnabled
	}

	updated, err := e.backups().Update(ctx, id, patch)
	if err != nil {
		return fail(w, err)
	}
	if updated == nil {
		return writeAccepted(w, e.format, id, "Updated", "setting")
	}
	return writeBackup(w, e.format, updated)
}

func runBackupsDelete(ctx context.Context, w io.Writer, id string) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	if err := e.backups().Delete(ctx, id); err != nil {
		return fail(w, err)
	}

	return writeAccepted(w, e.format, id, "Deleted", "setting")
}

func runBackupsStats(ctx context.Context, w io.Writer) int {
	e, err := newEnv(true)
	if err != nil {
		return fail(w, err)
	}

	stats := e.backups().Stats(ctx)
	err = output.Write(w, e.format, stats, func() string { return formatStatsHuman(stats) })
	if err != nil {
		return fail(w, err)
	}
	return exitOK
}

// formatStatsHuman formats collection statistics for human readability
func formatStatsHuman(s perfbackup.Stats) string {
	hitRate := ""
	if s.CacheHitRate > 0 {
		hitRate = fmt.Sprintf("%.1f%%", s.CacheHitRate*100)
	}
	return output.KeyValues(
		[2]string{"Total", strconv.Itoa(s.Total)},
		[2]string{"By kind", formatCounts(s.ByKind)},
		[2]string{"By status", formatCounts(s.ByStatus)},
		[2]string{"Stored", formatBytes(s.TotalSizeBytes)},
		[2]string{"Cache hits", hitRate},
		[2]string{"Last backup", s.LastBackupAt},
	)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	text := ""
	for i, k := range keys {
		if i > 0 {
			text += ", "
		}
		text += fmt.Sprintf("%s %d", k, counts[k])
	}
	return text
}
