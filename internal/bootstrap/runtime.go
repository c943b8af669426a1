// Package bootstrap holds startup-time provisioning that runs between
// schema setup and serving, such as creating the development root
// admin account.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"oneiro/internal/config"
	"oneiro/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// EnsureDevRootAdmin provisions user id 1 as a known admin account in
// development. Outside development, or when DEV_BOOTSTRAP_ROOT is off,
// it does nothing.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, db store.Store) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "oneiro_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@oneiro.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	root, err := db.FetchOne(ctx, "SELECT id, is_admin FROM users WHERE id = ?", int64(1))
	if err != nil {
		return err
	}

	if root == nil {
		_, err := db.Execute(ctx,
			`INSERT INTO users (id, username, email, password_hash, is_admin)
			 VALUES (?, ?, ?, ?, ?)`,
			int64(1), username, email, string(hashed), true)
		if err != nil {
			return fmt.Errorf("create root admin: %w", err)
		}
	} else if cfg.DevRootForceCredentials {
		_, err := db.Execute(ctx,
			`UPDATE users SET username = ?, email = ?, password_hash = ?, is_admin = ? WHERE id = ?`,
			username, email, string(hashed), true, int64(1))
		if err != nil {
			return fmt.Errorf("update root admin: %w", err)
		}
	} else if !root.Bool("is_admin") {
		if _, err := db.Execute(ctx,
			"UPDATE users SET is_admin = ? WHERE id = ?", true, int64(1)); err != nil {
			return fmt.Errorf("promote root admin: %w", err)
		}
	}

	// Explicit-id insertion leaves the PostgreSQL sequence behind.
	if db.Kind() == store.KindPostgres {
		_, err := db.Execute(ctx, `
			SELECT setval(
				pg_get_serial_sequence('users', 'id'),
				GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
				true
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to reset users sequence: %w", err)
		}
	}

	return nil
}
