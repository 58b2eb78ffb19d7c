package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/runner"
)

var (
	historyLimit    int
	historyDetailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show detailed migration history",
	Long: `Show applied migrations with timestamps, execution times and user information.

Examples:
  schemasync history               # Show all migration history
  schemasync history --limit 10    # Show last 10 migrations
  schemasync history --detailed    # Show detailed information
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		m, conn, err := newMigrator(ctx, false)
		if err != nil {
			fmt.Printf("❌ Error connecting to database: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		history, err := m.History(ctx)
		if err != nil {
			fmt.Printf("❌ Error getting migration history: %v\n", err)
			os.Exit(1)
		}

		if len(history) == 0 {
			fmt.Println("📋 No migration history found")
			return
		}

		// newest first
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}
		if historyLimit > 0 && len(history) > historyLimit {
			history = history[:historyLimit]
		}

		showMigrationHistory(history, historyDetailed)
	},
}

func showMigrationHistory(history []runner.Record, detailed bool) {
	fmt.Println("📋 Migration History")
	fmt.Println(strings.Repeat("=", 60))

	if detailed {
		showDetailedHistory(history)
	} else {
		showSummaryHistory(history)
	}
}

func showDetailedHistory(history []runner.Record) {
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	for i, record := range history {
		fmt.Printf("\n%d. ", i+1)
		blue.Printf("%s\n", record.Name)
		cyan.Printf("   📅 Executed: %s\n", record.AppliedAt.Local().Format("2006-01-02 15:04:05"))
		if record.ExecutionTime > 0 {
			cyan.Printf("   ⏱️  Duration: %v\n", record.ExecutionTime)
		}
		if record.ExecutedBy != "" {
			cyan.Printf("   👤 User: %s\n", record.ExecutedBy)
		}
		if len(record.Checksum) >= 8 {
			cyan.Printf("   🔍 Checksum: %s\n", record.Checksum[:8]+"...")
		}
	}
}

func showSummaryHistory(history []runner.Record) {
	blue := color.New(color.FgBlue, color.Bold)

	fmt.Printf("%-4s %-40s %-12s %-12s %s\n", "#", "Migration", "Duration", "User", "Date")
	fmt.Println(strings.Repeat("-", 88))

	total := time.Duration(0)
	for i, record := range history {
		duration := "N/A"
		if record.ExecutionTime > 0 {
			duration = record.ExecutionTime.String()
			total += record.ExecutionTime
		}

		user := record.ExecutedBy
		if user == "" {
			user = "N/A"
		}

		name := record.Name
		if len(name) > 38 {
			name = name[:35] + "..."
		}

		fmt.Printf("%-4d %-40s %-12s %-12s %s\n",
			i+1,
			blue.Sprint(name),
			duration,
			user,
			record.AppliedAt.Local().Format("2006-01-02 15:04"),
		)
	}

	fmt.Println(strings.Repeat("-", 88))
	fmt.Printf("📊 Summary: %d applied\n", len(history))
	if total > 0 {
		fmt.Printf("⏱️  Total execution time: %v\n", total)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Limit number of records to show (0 = all)")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "Show detailed information")
}
