package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/runner"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		m, conn, err := newMigrator(ctx, false)
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}
		defer conn.Close()

		statuses, err := m.Status(ctx)
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		var applied, modified, pending []runner.MigrationStatus
		for _, s := range statuses {
			switch s.State {
			case runner.StateApplied:
				applied = append(applied, s)
			case runner.StateModified:
				modified = append(modified, s)
			default:
				pending = append(pending, s)
			}
		}

		fmt.Printf("🔌 Dialect: %s\n\n", m.Dialect())

		fmt.Println("✅ Applied migrations:")
		for _, s := range applied {
			fmt.Printf("   - %s (%s)\n", s.Name, s.AppliedAt.Local().Format("2006-01-02 15:04:05"))
		}

		if len(modified) > 0 {
			fmt.Println("\n⚠️  Modified after being applied:")
			for _, s := range modified {
				fmt.Printf("   - %s (%s)\n", s.Name, s.AppliedAt.Local().Format("2006-01-02 15:04:05"))
			}
		}

		fmt.Println("\n🕒 Pending migrations:")
		for _, s := range pending {
			fmt.Println("   -", s.Name)
		}
	},
}
