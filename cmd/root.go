package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/loader"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/report"
	"github.com/ridoystarlord/schemasync/runner"
	"github.com/ridoystarlord/schemasync/utils"
)

var (
	cfg        *viper.Viper
	configFile string
	reportFile string
)

var rootCmd = &cobra.Command{
	Use:   "schemasync",
	Short: "Declarative schema migrations for SQLite, PostgreSQL and MySQL",
	Long: `schemasync keeps a database in step with a declared schema.

Migrations are JSON files, each holding the full table definitions of one
schema revision and the name of the revision before it. The engine diffs
consecutive revisions and issues the DDL for the connected dialect.

Examples:

  schemasync init
  schemasync generate add_users
  schemasync migrate
  schemasync status
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.LoadEnv(); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
		v, err := loadConfig(cmd, configFile)
		if err != nil {
			return err
		}
		cfg = v
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./schemasync.yaml)")
	flags.String("database-url", "", "Database connection URL (default $DATABASE_URL)")
	flags.String("dir", defaultMigrationsDir, "Migrations directory")
	flags.String("schema", defaultSchemaFile, "Declared schema YAML file")
	flags.String("log-level", defaultLogLevel, "Log level (debug, info, warn, silent)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(healthCmd)
}

func newLogger() logging.Logger {
	level, err := logging.ParseLevel(cfg.GetString(cfgKeyLogLevel))
	if err != nil {
		fmt.Printf("⚠️  %v, using info\n", err)
	}
	return logging.New(os.Stdout, level)
}

func provider() *loader.Provider {
	return loader.NewProvider(cfg.GetString(cfgKeyMigrationsDir))
}

func openDatabase(ctx context.Context) (*database.Conn, error) {
	url := cfg.GetString(cfgKeyDatabaseURL)
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL not set (in .env, environment, config file or --database-url)")
	}
	return database.Open(ctx, url)
}

func newMigrator(ctx context.Context, dryRun bool) (*runner.Migrator, *database.Conn, error) {
	conn, err := openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := runner.New(conn, provider(), runner.Options{DryRun: dryRun, Logger: newLogger()})
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return m, conn, nil
}

// saveReport writes the run journal when --report was given. A failed run
// carries its journal on the MigratorError.
func saveReport(journal *report.Journal, err error) {
	if reportFile == "" {
		return
	}
	var migErr *runner.MigratorError
	if errors.As(err, &migErr) && migErr.Report != nil {
		journal = migErr.Report
	}
	if journal == nil {
		return
	}
	if writeErr := journal.WriteFile(reportFile); writeErr != nil {
		fmt.Println("⚠️  Writing report:", writeErr)
		return
	}
	fmt.Println("📝 Report written to", reportFile)
}

// printPlan prints the statements a dry run recorded.
func printPlan(journal *report.Journal) {
	fmt.Println("\n================ DRY RUN: Migration Preview ================")
	for _, m := range journal.Migrations {
		fmt.Printf("\n-- Migration: %s (%s) --\n", m.Name, m.Direction)
		for _, s := range m.Statements {
			fmt.Println(s.SQL + ";")
		}
	}
	fmt.Println("============================================================")
	fmt.Println("(Dry run only. No migrations were applied.)")
}
