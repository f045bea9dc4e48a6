// Package migrations holds the versioned PostgreSQL schema.
package migrations

import "embed"

// FS contains the *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
