package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					download_date DATETIME,
					registration_date DATETIME,
					loyalty_tier TEXT,
					lifecycle_stage TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_users_reg ON users(registration_date)`,
				`CREATE INDEX idx_users_down ON users(download_date)`,

				`CREATE TABLE IF NOT EXISTS orders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					order_time DATETIME NOT NULL,
					amount REAL NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_orders_user_time ON orders(user_id, order_time)`,

				`CREATE TABLE IF NOT EXISTS app_events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					event_name TEXT NOT NULL,
					event_time DATETIME NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_events_user_time ON app_events(user_id, event_time, event_name)`,

				`CREATE TABLE IF NOT EXISTS lifecycle_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					stage TEXT NOT NULL,
					start_time DATETIME NOT NULL,
					end_time DATETIME,
					FOREIGN KEY (user_id) REFERENCES users(id)
				)`,
				`CREATE INDEX idx_lifecycle_user_end ON lifecycle_history(user_id, end_time)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add segments, automations and admins tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS segments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					rule TEXT,
					filters TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS automations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					trigger_kind TEXT NOT NULL,
					condition_kind TEXT,
					action_type TEXT NOT NULL,
					action_value TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS admins (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					email TEXT UNIQUE NOT NULL,
					password_hash TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Seed default segments, automations and admin",
		Up: func(tx *sql.Tx) error {
			var count int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM segments`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count segments: %w", err)
			}
			if count == 0 {
				segmentSeeds := []struct {
					name, rule, filters string
				}{
					{"High Value Customers", "Order Count > 5", `[{"field":"order_count","op":">","value":5}]`},
					{"Leads (No Orders)", "Order Count = 0", `[{"field":"order_count","op":"=","value":0}]`},
					{"Loyal Gold Members", "Loyalty Tier = Gold", `[{"field":"loyalty_tier","op":"=","value":"Gold"}]`},
				}
				for _, s := range segmentSeeds {
					if _, err := tx.Exec(`INSERT INTO segments (name, rule, filters) VALUES (?, ?, ?)`,
						s.name, s.rule, s.filters); err != nil {
						return fmt.Errorf("failed to seed segment %q: %w", s.name, err)
					}
				}
			}

			if err := tx.QueryRow(`SELECT COUNT(*) FROM automations`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count automations: %w", err)
			}
			if count == 0 {
				automationSeeds := []struct {
					name, trigger, condition, action, value string
				}{
					{"Winback Campaign", "Inactive30", "HighValue", "Email", "We miss you!"},
					{"Welcome Series", "Registration", "NoOrder", "Email", "Welcome aboard!"},
				}
				for _, a := range automationSeeds {
					if _, err := tx.Exec(`INSERT INTO automations (name, trigger_kind, condition_kind, action_type, action_value) VALUES (?, ?, ?, ?, ?)`,
						a.name, a.trigger, a.condition, a.action, a.value); err != nil {
						return fmt.Errorf("failed to seed automation %q: %w", a.name, err)
					}
				}
			}

			if err := tx.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count admins: %w", err)
			}
			if count == 0 {
				if _, err := tx.Exec(`INSERT INTO admins (email, password_hash) VALUES (?, ?)`,
					"admin@local.test", "Admin123!"); err != nil {
					return fmt.Errorf("failed to seed admin: %w", err)
				}
			}

			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
