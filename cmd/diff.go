package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/diff"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/loader"
	"github.com/ridoystarlord/schemasync/runner"
	"github.com/ridoystarlord/schemasync/schema"
)

var diffAgainstMigrations bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between schema and database",
	Long: `Show the operations that would move the database to your declared schema.

By default the schema file is compared with the live database. Only names
are compared there: column types, index columns and trigger bodies are not
read back from the catalog. With --migrations the schema file is compared with
the latest migration instead, which is what 'generate' would write.

Examples:
  schemasync diff                     # Schema file vs live database
  schemasync diff --migrations        # Schema file vs latest migration
  schemasync diff --schema other.yaml # Use a custom schema file
`,
	Run: func(cmd *cobra.Command, args []string) {
		defs, err := loader.LoadDefinitionsFromYAML(cfg.GetString(cfgKeySchemaFile))
		if err != nil {
			fmt.Printf("❌ Error loading schema: %v\n", err)
			os.Exit(1)
		}

		var baseline []schema.TableDefinition
		if diffAgainstMigrations {
			baseline, err = latestDefinition()
		} else {
			baseline, err = liveDefinition(context.Background())
		}
		if err != nil {
			fmt.Printf("❌ Error reading baseline: %v\n", err)
			os.Exit(1)
		}

		ops := diff.Plan(defs, baseline)
		if len(ops) == 0 {
			fmt.Println("✅ No differences found between schema and database")
			return
		}
		showTextDiff(ops)
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffAgainstMigrations, "migrations", false, "Compare with the latest migration instead of the live database")
}

func latestDefinition() ([]schema.TableDefinition, error) {
	if _, err := os.Stat(cfg.GetString(cfgKeyMigrationsDir)); os.IsNotExist(err) {
		return nil, nil
	}
	chain, err := provider().Load()
	if err != nil {
		return nil, err
	}
	head, ok := loader.Head(chain)
	if !ok {
		return nil, nil
	}
	return head.Definition, nil
}

func liveDefinition(ctx context.Context) ([]schema.TableDefinition, error) {
	conn, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	in, err := introspect.New(conn)
	if err != nil {
		return nil, err
	}
	return in.Snapshot(ctx, runner.TrackingTable)
}

func showTextDiff(ops []diff.Operation) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Printf("📝 %d change(s):\n", len(ops))
	fmt.Println(strings.Repeat("-", 50))
	for _, op := range ops {
		switch op.Type {
		case diff.DropTable, diff.DropColumn, diff.DropIndex, diff.DropTrigger:
			red.Printf("  - %s\n", op)
		default:
			green.Printf("  + %s\n", op)
		}
	}
}
