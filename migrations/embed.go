// Package migrations embeds the SQL migration files applied by
// internal/migrate.
package migrations

import "embed"

// FS holds the embedded .sql migration files, handed to goose.SetBaseFS.
//
//go:embed *.sql
var FS embed.FS
