package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartcity/internal/domain/notification"
	"smartcity/internal/seed"
	"smartcity/internal/server"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(rootOpts)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := server.Migrate(db); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, offerings and requests from a YAML file",
		Long: `Load demo data from a YAML file. The schema is migrated first.
Users whose email already exists are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(file)
			if err != nil {
				return err
			}

			_, db, err := connect(rootOpts)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := server.Migrate(db); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			res, err := seed.Apply(cmd.Context(), db, f)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded users=%d skipped_users=%d offerings=%d requests=%d\n",
				res.Users, res.SkippedUsers, res.Offerings, res.Requests)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seeds/durban.yaml", "seed file")
	return cmd
}

func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete read notifications older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(rootOpts)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if days == 0 {
				days = cfg.NotificationRetentionDays
			}
			svc := notification.NewCleanupService(notification.NewRepository(db))
			deleted, err := svc.CleanupOldNotifications(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d notifications\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default NOTIFICATION_RETENTION_DAYS)")
	return cmd
}
