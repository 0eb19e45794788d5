package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/soilstab/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run history database migrations",
	Long: `Run history database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  soilstab migrate      # Run all pending migrations
  soilstab migrate 1    # Migrate to version 1
  soilstab migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	m := migrate.New(db, logger)
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d, manual intervention required", current)
	}
	fmt.Fprintf(out, "Current version: %d\n", current)

	if len(args) == 0 {
		count, err := m.Up(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(out, "No migrations to run")
			return nil
		}
		version, _, _ := m.Version(ctx)
		fmt.Fprintf(out, "Migrated to version %d (%d migrations applied)\n", version, count)
		return nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil || target < 0 {
		return fmt.Errorf("invalid version number: %s", args[0])
	}
	if target == current {
		fmt.Fprintln(out, "Already at target version")
		return nil
	}
	if err := m.To(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated to version %d\n", target)
	return nil
}
