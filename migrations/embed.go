// Package migrations embeds the SQL schema migrations so binaries can apply
// them without a checkout. The files use SQL that both PostgreSQL and SQLite
// accept.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
