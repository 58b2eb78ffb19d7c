package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	steps      int
	dryRunDown bool
)

func init() {
	downCmd.Flags().IntVarP(&steps, "steps", "s", 1, "Number of migrations to rollback")
	downCmd.Flags().BoolVar(&dryRunDown, "dry-run", false, "Preview the SQL of the most recent rollback without applying it")
	downCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON report of the last rollback to this file")
}

var downCmd = &cobra.Command{
	Use:     "down",
	Aliases: []string{"rollback"},
	Short:   "Rollback migrations",
	Long: `Rollback the most recently applied migration, or several of them.

Examples:
  schemasync down             # Rollback the last migration
  schemasync down --steps=3   # Rollback the last 3 migrations
  schemasync rollback -s 5    # Rollback the last 5 migrations
`,
	Run: func(cmd *cobra.Command, args []string) {
		if steps < 1 {
			fmt.Println("❌ Steps must be at least 1")
			os.Exit(1)
		}
		if dryRunDown && steps > 1 {
			// later steps would plan against a database the earlier ones never touched
			fmt.Println("❌ --dry-run only supports a single step")
			os.Exit(1)
		}

		ctx := context.Background()
		m, conn, err := newMigrator(ctx, dryRunDown)
		if err != nil {
			fmt.Println("❌ Rollback failed:", err)
			os.Exit(1)
		}
		defer conn.Close()

		rolledBack := 0
		for i := 0; i < steps; i++ {
			journal, err := m.Down(ctx)
			if err != nil {
				saveReport(journal, err)
				fmt.Println("❌ Rollback failed:", err)
				os.Exit(1)
			}
			if dryRunDown {
				saveReport(journal, nil)
				printPlan(journal)
				return
			}
			if len(journal.Migrations) == 0 {
				fmt.Printf("⚠️  Only %d migration(s) were applied.\n", rolledBack)
				break
			}
			saveReport(journal, nil)
			rolledBack++
		}

		if rolledBack == 1 {
			fmt.Println("✅ Rolled back 1 migration.")
		} else {
			fmt.Printf("✅ Rolled back %d migrations.\n", rolledBack)
		}
	},
}
