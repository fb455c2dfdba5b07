// Package db provides the embedded schema of the result sink.
package db

import _ "embed"

// Schema contains the DDL statements for the run and result tables.
//
//go:embed migrations/001_schema.sql
var Schema string
