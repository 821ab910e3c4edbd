// Package db provides embedded database schema and migration files.
package db

import _ "embed"

// Schema contains the PostgreSQL DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SQLiteSchema contains the DDL for the embedded SQLite state store.
//
//go:embed migrations/sqlite/001_client_state.sql
var SQLiteSchema string
