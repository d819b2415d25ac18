package database

import "errors"

var (
	// ErrNoPath is returned by Open when no database path is configured.
	ErrNoPath = errors.New("database: path is required")

	// ErrMigrationNotFound is returned when an applied migration has no
	// matching file.
	ErrMigrationNotFound = errors.New("database: migration not found")

	// ErrNoDownMigration is returned when rolling back a migration that has
	// no .down.sql file.
	ErrNoDownMigration = errors.New("database: migration has no down SQL")
)
