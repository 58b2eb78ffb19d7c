package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dryRunUp bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the next pending migration",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		m, conn, err := newMigrator(ctx, dryRunUp)
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}
		defer conn.Close()

		journal, err := m.Up(ctx)
		saveReport(journal, err)
		if err != nil {
			fmt.Println("❌ Migration failed:", err)
			os.Exit(1)
		}

		if dryRunUp {
			printPlan(journal)
			return
		}
		for _, mig := range journal.Migrations {
			fmt.Println("✅ Applied", mig.Name)
		}
	},
}

func init() {
	upCmd.Flags().BoolVar(&dryRunUp, "dry-run", false, "Preview the SQL without applying it")
	upCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON report of the run to this file")
}
