package postgres

import (
	"context"
	"fmt"
)

// schemaStatements bootstrap the employees table. Every statement is
// idempotent so EnsureSchema can run on each start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS employees (
        email         TEXT PRIMARY KEY,
        email_domain  TEXT NOT NULL,
        name          TEXT NOT NULL,
        password      TEXT NOT NULL,
        birth_date    DATE NOT NULL,
        roles         TEXT[] NOT NULL,
        manager_email TEXT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS employees_email_domain_idx ON employees (email_domain)`,
	`CREATE INDEX IF NOT EXISTS employees_birth_date_idx ON employees (birth_date)`,
	`CREATE INDEX IF NOT EXISTS employees_manager_email_idx ON employees (manager_email)`,
	`CREATE INDEX IF NOT EXISTS employees_roles_idx ON employees USING GIN (roles)`,
}

// EnsureSchema creates the employees table and its indexes when missing.
func EnsureSchema(ctx context.Context, db Queryer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}
