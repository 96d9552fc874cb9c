package postgres

import (
	"context"
	"database/sql"
)

// Schema holds the DDL for the directory tables, suitable for
// ApplyMigrations. Statements are idempotent so they can run at startup.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS staff (
        email         TEXT PRIMARY KEY,
        password_hash TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS employees (
        emp_no     BIGINT PRIMARY KEY,
        birth_date DATE        NOT NULL,
        first_name VARCHAR(14) NOT NULL,
        last_name  VARCHAR(16) NOT NULL,
        gender     VARCHAR(1)  NOT NULL,
        hire_date  DATE        NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_employees_last_first ON employees (last_name, first_name)`,
}

// EnsureSchema applies the directory schema at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return ApplyMigrations(ctx, db, Schema...)
}
