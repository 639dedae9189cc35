package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/config"
	"github.com/Skotchmaster/catalogue/internal/db"
)

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gdb, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(cmd.Context(), gdb); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
