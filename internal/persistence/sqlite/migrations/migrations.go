// Package migrations embeds the SQL files that build the reservation schema.
package migrations

import "embed"

// FS holds every {version}_{description}.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
