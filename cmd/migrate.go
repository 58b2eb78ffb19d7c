package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dryRunMigrate bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending migrations",
	Long: `Apply every pending migration in chain order.

A failure stops the run. On PostgreSQL the failed step is rolled back; on
SQLite and MySQL it may be partially applied, and --report shows how far it got.

Examples:
  schemasync migrate                      # Apply pending migrations
  schemasync migrate --dry-run            # Print the DDL without applying it
  schemasync migrate --report run.json    # Write a JSON report of the run
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		m, conn, err := newMigrator(ctx, dryRunMigrate)
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}
		defer conn.Close()

		journal, err := m.ToLatest(ctx)
		saveReport(journal, err)
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}

		if dryRunMigrate {
			printPlan(journal)
		}
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRunMigrate, "dry-run", false, "Preview the SQL that would be executed without applying migrations")
	migrateCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON report of the run to this file")
}
