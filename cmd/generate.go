package cmd

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/diff"
	"github.com/ridoystarlord/schemasync/loader"
)

var dryRunGenerate bool

var migrationName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a migration file from the schema file",
	Long: `Write the declared schema as a new migration chained onto the latest one.

Nothing is written when the schema matches the latest migration.

Examples:
  schemasync generate add_users                  # From schema.yaml
  schemasync generate add_users --schema s.yaml  # From a custom schema file
  schemasync generate add_users --dry-run        # Show the changes only
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if !migrationName.MatchString(name) {
			fmt.Println("❌ Migration name may only contain letters, digits and underscores")
			os.Exit(1)
		}

		defs, err := loader.LoadDefinitionsFromYAML(cfg.GetString(cfgKeySchemaFile))
		if err != nil {
			fmt.Println("❌ Loading schema:", err)
			os.Exit(1)
		}

		d, err := offlineDialect()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}
		if result := validatorFor(d).ValidateDefinitions(defs); !result.Valid {
			outputText(result)
			os.Exit(1)
		}

		if dryRunGenerate {
			previous, err := latestDefinition()
			if err != nil {
				fmt.Println("❌ Loading migrations:", err)
				os.Exit(1)
			}
			ops := diff.Plan(defs, previous)
			if len(ops) == 0 {
				fmt.Println("✅ No changes detected.")
				return
			}
			showTextDiff(ops)
			fmt.Println("(Dry run only. No files were written.)")
			return
		}

		key, err := provider().Generate(name, defs, time.Now())
		if err != nil {
			fmt.Println("❌ Writing migration file:", err)
			os.Exit(1)
		}
		if key == "" {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Println("✅ Migration generated:", key+".json")
	},
}

func init() {
	generateCmd.Flags().BoolVar(&dryRunGenerate, "dry-run", false, "Show the changes without writing files")
	generateCmd.Flags().StringVar(&validateDialect, "dialect", "", "Dialect to validate for when no database is configured")
}
