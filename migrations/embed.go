// Package migrations embeds the SQL schema for every supported backend.
package migrations

import "embed"

// Postgres holds the users and refresh ledger schema for Postgres.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the refresh ledger schema for the SQLite backend.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
