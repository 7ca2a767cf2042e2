package dbmigrate

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Ledger reads and mutates the table that records applied migrations.
// Every method takes the Conn to run on, so mutations can join the
// transaction that executes the migration file.
type Ledger struct {
	table   string
	quoted  string
	builder squirrel.StatementBuilderType
}

// NewLedger returns a Ledger for the named table. The name is normalized
// with NormalizeTableName.
func NewLedger(table string) *Ledger {
	table = NormalizeTableName(table)

	return &Ledger{
		table:   table,
		quoted:  pq.QuoteIdentifier(table),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Table returns the normalized table name.
func (l *Ledger) Table() string {
	return l.table
}

// Exists reports whether the ledger table is present in the current schema.
func (l *Ledger) Exists(ctx context.Context, conn Conn) (bool, error) {
	query, args, err := l.builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": l.table}).
		Suffix(") AS present").
		ToSql()
	if err != nil {
		return false, err
	}

	rows, err := conn.Fetch(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", l.table, err)
	}
	if len(rows) == 0 {
		return false, nil
	}

	return rows[0].Bool("present")
}

// Create creates the ledger table and its unique index on name. It is
// idempotent.
func (l *Ledger) Create(ctx context.Context, conn Conn) error {
	createTable := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (date TIMESTAMPTZ NOT NULL DEFAULT NOW(), name TEXT NOT NULL)`,
		l.quoted,
	)
	if err := conn.Execute(ctx, createTable); err != nil {
		return fmt.Errorf("create table %s: %w", l.table, err)
	}

	return l.EnsureUniqueNames(ctx, conn)
}

// EnsureUniqueNames adds the unique index on name to an existing ledger
// table. It fails when the table already holds duplicate names.
func (l *Ledger) EnsureUniqueNames(ctx context.Context, conn Conn) error {
	createIndex := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (name)`,
		pq.QuoteIdentifier(l.table+"_name_key"),
		l.quoted,
	)
	if err := conn.Execute(ctx, createIndex); err != nil {
		return fmt.Errorf("create unique index on %s: %w", l.table, err)
	}

	return nil
}

// AppliedNames returns the recorded names, oldest first.
func (l *Ledger) AppliedNames(ctx context.Context, conn Conn) ([]string, error) {
	query, args, err := l.builder.
		Select("name").
		From(l.quoted).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := conn.Fetch(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name, err := row.String("name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

// Applied returns the recorded migrations with their dates, oldest first.
func (l *Ledger) Applied(ctx context.Context, conn Conn) ([]AppliedMigration, error) {
	query, args, err := l.builder.
		Select("name", "date").
		From(l.quoted).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := conn.Fetch(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		name, err := row.String("name")
		if err != nil {
			return nil, err
		}
		date, err := row.Time("date")
		if err != nil {
			return nil, err
		}
		applied = append(applied, AppliedMigration{Name: name, AppliedAt: date})
	}

	return applied, nil
}

// Latest returns the most recently recorded name. It fails with
// ErrEmptyLedger when nothing is recorded.
func (l *Ledger) Latest(ctx context.Context, conn Conn) (string, error) {
	query, args, err := l.builder.
		Select("name").
		From(l.quoted).
		OrderBy("date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", err
	}

	rows, err := conn.Fetch(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("read latest migration: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w in table %s", ErrEmptyLedger, l.table)
	}

	return rows[0].String("name")
}

// Record inserts a row for name applied at the given time.
func (l *Ledger) Record(ctx context.Context, conn Conn, name string, at time.Time) error {
	query, args, err := l.builder.
		Insert(l.quoted).
		Columns("date", "name").
		Values(at, name).
		ToSql()
	if err != nil {
		return err
	}

	if err := conn.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return nil
}

// Remove deletes the row for name.
func (l *Ledger) Remove(ctx context.Context, conn Conn, name string) error {
	query, args, err := l.builder.
		Delete(l.quoted).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return err
	}

	if err := conn.Execute(ctx, query, args...); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
