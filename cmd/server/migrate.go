package main

import (
	"fmt"

	"interviewiq-go/pkg/database"
	"interviewiq-go/pkg/log"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	Long: `Create or update the users, chat_records, qa_pairs and interviews tables.

Examples:
  # Migrate the database configured in configs/config.yaml
  interviewiq migrate

  # Migrate a local SQLite file
  INTERVIEWIQ_DATABASE_DRIVER=sqlite interviewiq migrate`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
	return nil
}
