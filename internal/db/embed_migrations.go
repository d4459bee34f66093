package db

import "embed"

// MigrationFS embeds the SQL migrations for the OTP audit tables.
// Applied by cmd/migrate through internal/db/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
