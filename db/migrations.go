// Package db embeds the SQL schema migrations.
package db

import "embed"

// Migrations holds the *.up.sql and *.down.sql files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
