package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations, one directory per driver.
// Used by the migrate runner (cmd/migrate and Open callers that want the schema applied).
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationFS embed.FS
