// Package migrations embeds the SQLite schema for the argo_profiles table
// and the scheduler state tables.
package migrations

import "embed"

// FS holds the numbered migrations; only *.up.sql files are applied.
//
//go:embed *.sql
var FS embed.FS
