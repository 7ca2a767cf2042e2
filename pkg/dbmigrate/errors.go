package dbmigrate

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrFolderNotFound       = errors.New("migration folder not found")
	ErrTableNotFound        = errors.New("migration table not found")
	ErrEmptyLedger          = errors.New("no applied migration recorded")
	ErrFileNotFound         = errors.New("migration file not found")
	ErrEmptyFile            = errors.New("migration file has no SQL statements")
	ErrNoMigrationFiles     = errors.New("no migration files found")
)

// MigrationError wraps a failure that happened while running a single
// migration file. The run stops at the first MigrationError.
type MigrationError struct {
	File string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s: %v", e.File, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
