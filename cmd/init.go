package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const schemaTemplate = `# Declared schema. Run 'schemasync generate <name>' after editing.
tables:
  - name: users
    columns:
      - name: id
        sqlType: integer
        primaryKey: true
        autoIncrement: true
      - name: email
        sqlType: varchar(255)
        notNull: true
        unique: true
      - name: status
        sqlType: varchar(32)
        default: active
      - name: created_at
        sqlType: timestamp
        defaultSQL: CURRENT_TIMESTAMP
    indexes:
      - name: idx_users_status
        columns: [status]

  - name: posts
    columns:
      - name: id
        sqlType: integer
        primaryKey: true
        autoIncrement: true
      - name: user_id
        sqlType: integer
        notNull: true
        references:
          table: users
          column: id
          onDelete: CASCADE
      - name: title
        sqlType: text
        notNull: true
    indexes:
      - name: idx_posts_user_id
        columns: [user_id]
`

const configTemplate = `# schemasync configuration. Environment variables (SCHEMASYNC_*, DATABASE_URL)
# and command line flags override these values.
# database_url: sqlite://app.db
migrations_dir: migrations
schema_file: schema.yaml
log_level: info
`

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new schemasync project",
	Long: `Initialize a new schemasync project in the current directory.

This creates:
- schema.yaml with an example schema
- schemasync.yaml with the default configuration
- the migrations directory

Existing files are left alone unless --force is given.

Examples:
  schemasync init            # Create missing project files
  schemasync init --force    # Overwrite schema.yaml and schemasync.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		schemaFile := cfg.GetString(cfgKeySchemaFile)
		if err := writeTemplate(schemaFile, schemaTemplate); err != nil {
			fmt.Println("❌ Error creating", schemaFile+":", err)
			os.Exit(1)
		}
		if err := writeTemplate(configFileName+"."+configFileType, configTemplate); err != nil {
			fmt.Println("❌ Error creating config file:", err)
			os.Exit(1)
		}

		dir := cfg.GetString(cfgKeyMigrationsDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Println("❌ Failed to create migrations directory:", err)
			os.Exit(1)
		}
		fmt.Println("📁 Migrations directory:", dir)
		fmt.Println("📝 Edit", schemaFile, "to define your database schema")
		fmt.Println("🚀 Run 'schemasync generate <name>' to create your first migration")
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

func writeTemplate(path, content string) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("⏭️  %s already exists, skipping\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Println("✅ Created", path)
	return nil
}
