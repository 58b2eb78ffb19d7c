package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/runner"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `Check if the database is accessible and responsive, and report its dialect.

Examples:
  schemasync health                 # Check default database connection
  schemasync health --timeout 10s   # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkDatabaseHealth(); err != nil {
			fmt.Printf("❌ Database health check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Database is healthy and accessible")
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkDatabaseHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	conn, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	in, err := introspect.New(conn)
	if err != nil {
		return err
	}
	fmt.Printf("🔌 Dialect: %s\n", in.Dialect())

	exists, err := in.TableExists(ctx, runner.TrackingTable)
	if err != nil {
		return fmt.Errorf("failed to check %s table: %w", runner.TrackingTable, err)
	}
	if !exists {
		fmt.Printf("⚠️  Database is accessible but %s table not found\n", runner.TrackingTable)
		fmt.Println("   Run 'schemasync migrate' to create it")
		return nil
	}

	var count int
	if err := conn.Get(ctx, &count, "SELECT COUNT(*) FROM "+in.Dialect().Quote(runner.TrackingTable)); err != nil {
		return fmt.Errorf("failed to count migrations: %w", err)
	}
	fmt.Printf("📊 Found %d applied migrations\n", count)

	return nil
}
