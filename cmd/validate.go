package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/loader"
	"github.com/ridoystarlord/schemasync/schema"
	"github.com/ridoystarlord/schemasync/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the schema file and the migration chain",
	Long: `Validate your schema file and every migration file.

This command checks:
- Table, column, index and trigger naming (identifier rules, dialect length limits)
- Duplicate columns, and index and trigger names duplicated across the schema
- autoIncrement only on primary keys (and only on INTEGER keys for SQLite)
- Literal defaults, onDelete actions, trigger timing and event
- Foreign key references to declared tables and columns
- The migration chain: one root, no missing links, forks or cycles
- Database state (when DATABASE_URL is set): tables that already exist

Examples:
  schemasync validate                     # Validate schema.yaml and migrations/
  schemasync validate --dialect mysql     # Validate offline for MySQL
  schemasync validate --format json       # Output validation results as JSON
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateAll(); err != nil {
			fmt.Printf("❌ Schema validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	validateFormat  string
	validateDialect string
)

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
	validateCmd.Flags().StringVar(&validateDialect, "dialect", "", "Dialect to validate for when no database is configured")
}

// offlineDialect picks the dialect without connecting: the --dialect flag,
// else the scheme of the configured database URL, else postgres, whose
// identifier rules are the strictest.
func offlineDialect() (dialect.Dialect, error) {
	if validateDialect != "" {
		return dialect.Parse(validateDialect)
	}
	if url := cfg.GetString(cfgKeyDatabaseURL); url != "" {
		target, err := database.ParseURL(url)
		if err != nil {
			return 0, err
		}
		return dialect.Resolve(target.Caps)
	}
	return dialect.Postgres, nil
}

func validatorFor(d dialect.Dialect) *validator.Validator {
	return validator.New(d)
}

func validateAll() error {
	d, err := offlineDialect()
	if err != nil {
		return err
	}
	v := validatorFor(d)

	results := map[string]*validator.ValidationResult{}
	valid := true

	schemaFile := cfg.GetString(cfgKeySchemaFile)
	if _, err := os.Stat(schemaFile); err == nil {
		defs, err := loader.LoadDefinitionsFromYAML(schemaFile)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}

		var result *validator.ValidationResult
		if cfg.GetString(cfgKeyDatabaseURL) != "" && validateDialect == "" {
			result, err = validateOnline(defs, v)
			if err != nil {
				return err
			}
		} else {
			result = v.ValidateDefinitions(defs)
		}
		results[schemaFile] = result
		valid = valid && result.Valid
	}

	if _, err := os.Stat(cfg.GetString(cfgKeyMigrationsDir)); err == nil {
		chain, err := provider().Load()
		if err != nil {
			return err
		}
		for _, mig := range chain {
			result := v.ValidateDefinitions(mig.Definition)
			results[mig.Path] = result
			valid = valid && result.Valid
		}
		if validateFormat != "json" {
			fmt.Printf("🔗 Migration chain OK (%d migration(s))\n", len(chain))
		}
	}

	if len(results) == 0 {
		return fmt.Errorf("nothing to validate: neither %s nor %s exists", schemaFile, cfg.GetString(cfgKeyMigrationsDir))
	}

	if validateFormat == "json" {
		if err := outputJSON(results); err != nil {
			return err
		}
	} else {
		sources := make([]string, 0, len(results))
		for source := range results {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Printf("\n📄 %s (%s)\n", source, d)
			outputText(results[source])
		}
	}

	if !valid {
		return fmt.Errorf("validation errors found")
	}
	return nil
}

func validateOnline(defs []schema.TableDefinition, v *validator.Validator) (*validator.ValidationResult, error) {
	ctx := context.Background()
	conn, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	in, err := introspect.New(conn)
	if err != nil {
		return nil, err
	}
	return v.ValidateAgainstDatabase(ctx, defs, in)
}

func outputJSON(results any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Schema validation passed!")
	} else {
		color.Red("❌ Schema validation failed!")
	}

	printFindings("🔴 Errors", result.Errors)
	printFindings("🟡 Warnings", result.Warnings)
	printFindings("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))
}

func printFindings(title string, findings []validator.ValidationError) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(findings))
	for i, f := range findings {
		fmt.Printf("  %d. ", i+1)
		if f.Table != "" {
			fmt.Printf("[%s]", f.Table)
		}
		if f.Column != "" {
			fmt.Printf(".%s", f.Column)
		}
		if f.Index != "" {
			fmt.Printf(" (index: %s)", f.Index)
		}
		if f.Trigger != "" {
			fmt.Printf(" (trigger: %s)", f.Trigger)
		}
		fmt.Printf(": %s\n", f.Message)
	}
}
