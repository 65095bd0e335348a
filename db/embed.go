// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the customers, items, orders, and discounts
// tables. Statements are idempotent (IF NOT EXISTS) so re-running them on an
// initialized database is safe.
//
//go:embed migrations/001_schema.sql
var Schema string
