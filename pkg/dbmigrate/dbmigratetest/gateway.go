// Package dbmigratetest provides an in-memory dbmigrate.Gateway.
//
// The fake understands the statements dbmigrate.Ledger issues against its
// quoted table and keeps the ledger rows in memory. Every other statement,
// including user SQL on other tables, is recorded in Executed.
// Transactions work on a copy of the state that replaces the original only
// on commit.
package dbmigratetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"dbmigrate/pkg/dbmigrate"
)

// Gateway is an in-memory dbmigrate.Gateway.
type Gateway struct {
	// ExecuteFunc, when set, is called before every non-ledger statement.
	// A returned error fails the statement.
	ExecuteFunc func(query string) error

	mu        sync.Mutex
	state     state
	commits   int
	rollbacks int
	closed    bool
}

var _ dbmigrate.Gateway = (*Gateway)(nil)

type state struct {
	table       string
	quoted      string
	tableExists bool
	rows        []dbmigrate.AppliedMigration
	executed    []string
}

func (s state) clone() state {
	return state{
		table:       s.table,
		quoted:      s.quoted,
		tableExists: s.tableExists,
		rows:        append([]dbmigrate.AppliedMigration(nil), s.rows...),
		executed:    append([]string(nil), s.executed...),
	}
}

// NewGateway returns a Gateway for DefaultLedgerTable with no ledger table.
func NewGateway() *Gateway {
	return NewGatewayForTable(dbmigrate.DefaultLedgerTable)
}

// NewGatewayForTable returns a Gateway whose ledger is the named table,
// normalized with dbmigrate.NormalizeTableName. The table does not exist yet.
func NewGatewayForTable(table string) *Gateway {
	table = dbmigrate.NormalizeTableName(table)

	return &Gateway{
		state: state{table: table, quoted: pq.QuoteIdentifier(table)},
	}
}

// Seed creates the ledger table if needed and records name as applied at at.
func (g *Gateway) Seed(name string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.tableExists = true
	g.state.rows = append(g.state.rows, dbmigrate.AppliedMigration{Name: name, AppliedAt: at})
}

// CreateTable creates an empty ledger table.
func (g *Gateway) CreateTable() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.tableExists = true
}

// HasTable reports whether the ledger table exists.
func (g *Gateway) HasTable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.tableExists
}

// AppliedNames returns the ledger names ordered by date, oldest first.
func (g *Gateway) AppliedNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var names []string
	for _, row := range g.state.sorted() {
		names = append(names, row.Name)
	}
	return names
}

// Executed returns the committed non-ledger statements in order.
func (g *Gateway) Executed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.state.executed...)
}

// Commits returns the number of committed transactions.
func (g *Gateway) Commits() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.commits
}

// Rollbacks returns the number of rolled back transactions.
func (g *Gateway) Rollbacks() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.rollbacks
}

// Closed reports whether Close was called.
func (g *Gateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closed
}

func (g *Gateway) Fetch(ctx context.Context, query string, args ...any) ([]dbmigrate.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.fetch(ctx, query, args...)
}

func (g *Gateway) Execute(ctx context.Context, query string, args ...any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.execute(ctx, g.ExecuteFunc, query, args...)
}

func (g *Gateway) WithTransaction(ctx context.Context, fn func(dbmigrate.Conn) error) error {
	g.mu.Lock()
	tx := &txConn{state: g.state.clone(), executeFunc: g.ExecuteFunc}
	g.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			g.mu.Lock()
			g.rollbacks++
			g.mu.Unlock()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = tx.state
	g.commits++
	g.mu.Unlock()
	committed = true

	return nil
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	return nil
}

type txConn struct {
	state       state
	executeFunc func(string) error
}

func (c *txConn) Fetch(ctx context.Context, query string, args ...any) ([]dbmigrate.Row, error) {
	return c.state.fetch(ctx, query, args...)
}

func (c *txConn) Execute(ctx context.Context, query string, args ...any) error {
	return c.state.execute(ctx, c.executeFunc, query, args...)
}

func (s *state) sorted() []dbmigrate.AppliedMigration {
	rows := append([]dbmigrate.AppliedMigration(nil), s.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AppliedAt.Before(rows[j].AppliedAt)
	})
	return rows
}

func (s *state) fetch(ctx context.Context, query string, args ...any) ([]dbmigrate.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.Contains(query, "information_schema.tables"):
		present := len(args) == 1 && args[0] == s.table && s.tableExists
		return []dbmigrate.Row{{"present": present}}, nil
	case !s.onLedger(query, "SELECT name, date FROM", "SELECT name FROM"):
		return nil, fmt.Errorf("unexpected query: %s", query)
	case !s.tableExists:
		return nil, fmt.Errorf("relation %s does not exist", s.quoted)
	case s.onLedger(query, "SELECT name, date FROM"):
		var rows []dbmigrate.Row
		for _, row := range s.sorted() {
			rows = append(rows, dbmigrate.Row{"name": row.Name, "date": row.AppliedAt})
		}
		return rows, nil
	case strings.Contains(query, "DESC"):
		sorted := s.sorted()
		if len(sorted) == 0 {
			return nil, nil
		}
		return []dbmigrate.Row{{"name": sorted[len(sorted)-1].Name}}, nil
	default:
		var rows []dbmigrate.Row
		for _, row := range s.sorted() {
			rows = append(rows, dbmigrate.Row{"name": row.Name})
		}
		return rows, nil
	}
}

func (s *state) execute(ctx context.Context, executeFunc func(string) error, query string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case s.onLedger(query, "CREATE TABLE IF NOT EXISTS"):
		s.tableExists = true
	case strings.HasPrefix(query, "CREATE UNIQUE INDEX IF NOT EXISTS") && strings.Contains(query, " ON "+s.quoted+" "):
		if !s.tableExists {
			return fmt.Errorf("relation %s does not exist", s.quoted)
		}
	case s.onLedger(query, "INSERT INTO"):
		if !s.tableExists {
			return fmt.Errorf("relation %s does not exist", s.quoted)
		}
		if len(args) != 2 {
			return fmt.Errorf("insert expects 2 arguments, got %d", len(args))
		}
		at, _ := args[0].(time.Time)
		name, _ := args[1].(string)
		for _, row := range s.rows {
			if row.Name == name {
				return fmt.Errorf("duplicate key value violates unique constraint: %s", name)
			}
		}
		s.rows = append(s.rows, dbmigrate.AppliedMigration{Name: name, AppliedAt: at})
	case s.onLedger(query, "DELETE FROM"):
		if len(args) != 1 {
			return fmt.Errorf("delete expects 1 argument, got %d", len(args))
		}
		name, _ := args[0].(string)
		kept := s.rows[:0:0]
		for _, row := range s.rows {
			if row.Name != name {
				kept = append(kept, row)
			}
		}
		s.rows = kept
	default:
		if executeFunc != nil {
			if err := executeFunc(query); err != nil {
				return err
			}
		}
		s.executed = append(s.executed, query)
	}

	return nil
}

// onLedger reports whether query starts with one of the verbs followed by the
// quoted ledger table.
func (s *state) onLedger(query string, verbs ...string) bool {
	for _, verb := range verbs {
		if strings.HasPrefix(query, verb+" "+s.quoted+" ") {
			return true
		}
	}
	return false
}
