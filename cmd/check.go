package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/diff"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/runner"
	"github.com/ridoystarlord/schemasync/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database schema and migration status",
	Long: `Check the current state of your database schema and migrations.

This command will:
- Verify database connectivity
- Verify the applied history matches the migration chain
- Report pending and modified migrations
- Compare the live schema with the last applied migration

Examples:
  schemasync check                    # Check current state
  schemasync check --timeout 10s      # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkDatabaseSchema(); err != nil {
			fmt.Printf("❌ Schema check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Schema check completed successfully")
	},
}

var checkTimeout time.Duration

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Timeout for schema check")
}

func checkDatabaseSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	m, conn, err := newMigrator(ctx, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	fmt.Printf("🔌 Connected (%s)\n", m.Dialect())

	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	var pending, modified int
	lastApplied := ""
	for _, s := range statuses {
		switch s.State {
		case runner.StatePending:
			pending++
		case runner.StateModified:
			modified++
			fmt.Printf("⚠️  %s was modified after it was applied\n", s.Name)
			lastApplied = s.Name
		case runner.StateApplied:
			lastApplied = s.Name
		}
	}
	fmt.Printf("📊 %d migration(s), %d pending, %d modified\n", len(statuses), pending, modified)

	var expected []schema.TableDefinition
	if lastApplied != "" {
		chain, err := provider().Load()
		if err != nil {
			return err
		}
		for _, mig := range chain {
			if mig.Key == lastApplied {
				expected = mig.Definition
			}
		}
	}

	in, err := introspect.New(conn)
	if err != nil {
		return err
	}
	live, err := in.Snapshot(ctx, runner.TrackingTable)
	if err != nil {
		return err
	}

	drift := diff.Plan(expected, live)
	if len(drift) > 0 {
		fmt.Println("🔍 Live schema differs from the last applied migration:")
		showTextDiff(drift)
	}

	if modified > 0 || len(drift) > 0 {
		return fmt.Errorf("database is not consistent with the migration history")
	}
	if pending > 0 {
		fmt.Println("💡 Run 'schemasync migrate' to apply pending migrations")
	}
	return nil
}
