package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"code.cloudfoundry.org/lager/v3"
	// Регистрируем драйвер Postgres.
	// Register the Postgres driver.
	_ "github.com/lib/pq"

	"dbmigrate/pkg/dbmigrate"
)

// DriverName is the database/sql driver the gateway opens.
const DriverName = "postgres"

// Gateway реализует dbmigrate.Gateway поверх одного соединения Postgres.
// Gateway implements dbmigrate.Gateway over a single Postgres connection.
type Gateway struct {
	db     *sql.DB
	logger lager.Logger
	conn
}

var _ dbmigrate.Gateway = (*Gateway)(nil)

// Open открывает подключение к Postgres и проверяет его.
// Вход: ctx для отмены, строка DSN, logger.
// Выход: *Gateway или error.
// Назначение: создать единственное соединение на время команды.
// Open opens a Postgres connection and pings it.
// Input: ctx for cancellation, DSN string, logger.
// Output: *Gateway or error.
// Purpose: create the single connection used for the command's lifetime.
func Open(ctx context.Context, dsn string, logger lager.Logger) (*Gateway, error) {
	logger = logger.Session("open")

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		logger.Error(failedToOpenConnection, err)
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		logger.Error(failedToPingConnection, err)
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db, logger), nil
}

// New wraps an already opened database handle.
func New(db *sql.DB, logger lager.Logger) *Gateway {
	return &Gateway{
		db:     db,
		logger: logger,
		conn:   conn{q: db, logger: logger},
	}
}

// WithTransaction выполняет fn в транзакции: commit при nil, иначе rollback.
// Откат выполняется и при панике внутри fn.
// WithTransaction runs fn inside a transaction: commit on nil, rollback otherwise.
// The rollback also happens when fn panics.
func (g *Gateway) WithTransaction(ctx context.Context, fn func(dbmigrate.Conn) error) error {
	logger := g.logger.Session("transaction")

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error(failedToStartTransaction, err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if err := tx.Rollback(); err != nil {
			if !errors.Is(err, sql.ErrTxDone) {
				logger.Error(failedToRollback, err)
			}
			return
		}
		logger.Debug(rolledBack)
	}()

	if err := fn(conn{q: tx, logger: logger}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error(failedToCommit, err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	done = true

	logger.Debug(committed)
	return nil
}

// Close closes the underlying database handle.
func (g *Gateway) Close() error {
	return g.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// conn runs statements on either the database handle or a transaction.
type conn struct {
	q      queryer
	logger lager.Logger
}

func (c conn) Fetch(ctx context.Context, query string, args ...any) ([]dbmigrate.Row, error) {
	c.logger.Debug(fetching, lager.Data{"query": query})

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []dbmigrate.Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(dbmigrate.Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (c conn) Execute(ctx context.Context, query string, args ...any) error {
	c.logger.Debug(executing, lager.Data{"query": query})

	_, err := c.q.ExecContext(ctx, query, args...)
	return err
}
