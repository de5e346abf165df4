// Package cli implements marketctl, the operator command line for the
// marketplace database.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"smartcity/internal/config"
	"smartcity/internal/database"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	DatabaseURL string
	EnvFile     string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "marketctl",
		Short:         "Operate the Durban Smart City marketplace database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "database DSN (overrides DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load if present")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))

	return cmd
}

// connect loads configuration and opens the database the flags point at.
func connect(opts *RootOptions) (*config.Config, *gorm.DB, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if opts.DatabaseURL != "" {
		cfg.DatabaseURL = opts.DatabaseURL
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect failed: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
