package dbmigrate

import (
	"context"
	"fmt"
	"time"
)

// Conn определяет операции, доступные и на соединении, и внутри транзакции.
// Назначение: позволить учёту миграций работать в обоих контекстах.
// Conn defines operations available both on a connection and inside a transaction.
// Purpose: let the ledger run either standalone or within a migration transaction.
type Conn interface {
	Fetch(ctx context.Context, query string, args ...any) ([]Row, error)
	Execute(ctx context.Context, query string, args ...any) error
}

// Gateway определяет возможности БД, нужные движку миграций.
// Назначение: отделить движок от конкретного драйвера и позволить подменять его в тестах.
// Gateway defines the database capabilities the migration engine needs.
// Purpose: decouple the engine from the concrete driver and allow fakes in tests.
type Gateway interface {
	Conn

	// WithTransaction runs fn inside one transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTransaction(ctx context.Context, fn func(Conn) error) error
	Close() error
}

// Row is one result row keyed by column name.
type Row map[string]any

// String returns the named column as a string.
func (r Row) String(column string) (string, error) {
	switch v := r[column].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("column %s: unexpected type %T", column, r[column])
	}
}

// Bool returns the named column as a bool.
func (r Row) Bool(column string) (bool, error) {
	switch v := r[column].(type) {
	case bool:
		return v, nil
	case []byte:
		return string(v) == "t" || string(v) == "true", nil
	case string:
		return v == "t" || v == "true", nil
	default:
		return false, fmt.Errorf("column %s: unexpected type %T", column, r[column])
	}
}

// Time returns the named column as a time.Time.
func (r Row) Time(column string) (time.Time, error) {
	v, ok := r[column].(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("column %s: unexpected type %T", column, r[column])
	}
	return v, nil
}
