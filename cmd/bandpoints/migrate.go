package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/config"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			cfg.DBPath = dbPath
		}

		// New applies pending migrations before returning.
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("unable to run migrations: %w", err)
		}
		defer store.Close()

		slog.Info("Migrations applied", "database", cfg.DBPath)
		return nil
	},
}

// promoteCmd grants a role directly in the database. It exists to bootstrap
// the first head admin, who can then manage roles through the API.
var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant a role to a registered account directly in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		roleName, _ := cmd.Flags().GetString("role")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		role := models.Role(strings.ToLower(roleName))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q (want one of %v)", roleName, models.Roles)
		}

		cfg := config.Load()
		if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
			cfg.DBPath = dbPath
		}

		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		account, err := store.GetAccountByEmail(ctx, auth.NormalizeEmail(email))
		if err != nil {
			return fmt.Errorf("no account for %s: %w", email, err)
		}

		member, _, err := store.EnsureMember(ctx, models.NewMember(account))
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}

		event := &models.AuditEvent{
			ID:       uuid.New().String(),
			ActorID:  "cli",
			TargetID: member.ID,
			Action:   models.AuditRoleChange,
			Detail:   fmt.Sprintf("%s->%s", member.Role, role),
		}
		if err := store.UpdateMemberRole(ctx, member.ID, role, event); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		slog.Info("Role granted", "email", account.Email, "member_id", member.ID, "role", role)
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.AddCommand(migrateCmd)

	promoteCmd.Flags().String("role", string(models.RoleHeadAdmin), "role to grant")
	promoteCmd.Flags().String("db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.AddCommand(promoteCmd)
}
