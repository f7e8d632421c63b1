// Package migrations embeds the SQL schema for the document-store tables.
package migrations

import "embed"

// FS exposes the embedded migration files for goose.
//
//go:embed *.sql
var FS embed.FS
