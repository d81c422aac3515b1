// Package migrations embeds the versioned schema files applied by database.RunMigrations.
package migrations

import "embed"

// FS holds NNNNNN_name.{up,down}.sql files.
//
//go:embed *.sql
var FS embed.FS
