package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pte/internal/api"
	"pte/internal/config"
	"pte/internal/db"
	"pte/internal/user"
)

var (
	cleanupWithDB bool
	cleanupDryRun bool
)

// cleanupCmd removes leftover test users from the target service
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete leftover test users from the configured service",
	Long: `The cleanup command removes users created by test runs. Test users are
identified by a 'test@' marker in their email address; real users are never
touched.

By default cleanup goes through the service API. With --with-db it also
deletes matching rows directly from the users table, which catches records
the API no longer serves.

Example usage:
  pte cleanup                   # Delete test users via the API
  pte cleanup --dry-run         # Show what would be deleted
  pte cleanup --with-db         # Also sweep the users table directly`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVar(&cleanupWithDB, "with-db", false, "Also delete matching rows from the users table")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "List matching users without deleting them")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	loader, err := config.Load(configDir, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	resolved, err := loader.Resolved()
	if err != nil {
		return err
	}

	client := api.NewClientFromConfig(resolved)
	ops := user.NewOperations(client)

	fmt.Printf("🌐 Target: %s (%s/%s)\n", resolved.Host, resolved.IDC, resolved.Env)

	if cleanupDryRun {
		list, err := ops.GetAllUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		matched := 0
		for _, u := range list.Users {
			if user.IsTestEmail(u.Email) {
				fmt.Printf("  would delete user %d (%s)\n", u.ID, u.Email)
				matched++
			}
		}
		fmt.Printf("Dry run: %d test user(s) matched\n", matched)
		return nil
	}

	deleted, err := ops.CleanupTestData(cmd.Context())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("🧹 Deleted %d test user(s) via the API\n", deleted)

	if cleanupWithDB {
		dbc, err := db.Open(resolved.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = dbc.Close() }()

		swept, err := user.NewStore(dbc).CleanupTestUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("database sweep failed: %w", err)
		}
		fmt.Printf("🧹 Deleted %d row(s) from the users table\n", swept)
	}

	return nil
}
