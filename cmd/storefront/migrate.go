package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required to run migrations")
	}
	return db.RunMigrations(cfg.DatabaseDSN, logger)
}
