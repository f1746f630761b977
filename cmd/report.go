package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the attendance report for a day",
	Long: `Print the attendance report from the local snapshot.
Defaults to today; pass --day for an earlier date and --entity to limit
the report to a single entity.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("day", "", "Day to report on, YYYY-MM-DD (default today)")
	reportCmd.Flags().String("entity", "", "Limit the report to one entity")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	day := mustGetString(cmd, "day")
	if day == "" {
		day = attendance.DayKey(time.Now())
	}
	entity := mustGetString(cmd, "entity")

	kv, err := store.NewFileKV(cfg.Agent.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data directory %s: %w", cfg.Agent.DataDir, err)
	}
	local := store.NewLocal(kv, cfg.Matcher.EmbeddingDim)

	rows := local.Day(day).Report(entity)
	if len(rows) == 0 {
		fmt.Printf("No attendance records for %s\n", day)
		return nil
	}

	fmt.Printf("Attendance for %s\n\n", day)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENTITY\tLOGIN\tLOGOUT\tDURATION\tSTATUS")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Name, row.Entity, row.Login, row.Logout, row.Duration, row.Status)
	}
	return w.Flush()
}
