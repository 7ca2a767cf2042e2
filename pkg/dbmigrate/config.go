package dbmigrate

import "strings"

// DefaultLedgerTable is the ledger table used when none is configured.
const DefaultLedgerTable = "pydbmigration"

// Config хранит настройки для запуска миграций.
// Назначение: передать директорию и таблицу учёта в функции запуска.
// Config holds settings for running migrations.
// Purpose: pass the migrations directory and ledger table into runner functions.
type Config struct {
	MigrationsDir string
	Table         string
}

// NormalizeTableName rewrites "-" to "_" so the name is usable as an SQL identifier.
func NormalizeTableName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func (c Config) table() string {
	if c.Table == "" {
		return DefaultLedgerTable
	}
	return c.Table
}
