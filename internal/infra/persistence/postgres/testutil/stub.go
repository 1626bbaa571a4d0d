// Package testutil provides a recording stub database for postgres store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Statement is one recorded exec or query.
type Statement struct {
	Query string
	Args  []any
}

// StubConn records statements issued by the postgres store. Errors and
// result rows are selected by the first configured substring contained in
// the statement text.
type StubConn struct {
	mu sync.Mutex

	Execs   []Statement
	Queries []Statement

	// ExecErrors maps a statement substring to the error its exec returns.
	ExecErrors map[string]error
	// QueryRows maps a statement substring to the rows its query returns.
	QueryRows map[string][][]driver.Value
	// NoRowsAffected makes successful execs report zero affected rows
	// instead of one.
	NoRowsAffected bool
	// FailRowsAffected makes successful execs return a result whose
	// RowsAffected fails.
	FailRowsAffected bool

	FailPing   bool
	FailBegin  bool
	FailCommit bool
	Commits    int
	Rollbacks  int
}

var stubSeq atomic.Int64

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{
		ExecErrors: make(map[string]error),
		QueryRows:  make(map[string][][]driver.Value),
	}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// ExecQueries returns the recorded exec statement texts.
func (c *StubConn) ExecQueries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Execs))
	for i, stmt := range c.Execs {
		out[i] = stmt.Query
	}
	return out
}

// LastExec returns the most recent exec containing substr.
func (c *StubConn) LastExec(substr string) (Statement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.Execs) - 1; i >= 0; i-- {
		if strings.Contains(c.Execs[i].Query, substr) {
			return c.Execs[i], true
		}
	}
	return Statement{}, false
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, Statement{Query: query, Args: values(args)})
	for substr, err := range c.ExecErrors {
		if strings.Contains(query, substr) {
			return nil, err
		}
	}
	if c.FailRowsAffected {
		return brokenResult{}, nil
	}
	if c.NoRowsAffected {
		return driver.RowsAffected(0), nil
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queries = append(c.Queries, Statement{Query: query, Args: values(args)})
	var rows [][]driver.Value
	for substr, configured := range c.QueryRows {
		if strings.Contains(query, substr) {
			rows = configured
			break
		}
	}
	width := 1
	if len(rows) > 0 {
		width = len(rows[0])
	}
	cols := make([]string, width)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	return &stubRows{cols: cols, rows: rows}, nil
}

func values(args []driver.NamedValue) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = arg.Value
	}
	return out
}

type brokenResult struct{}

func (brokenResult) LastInsertId() (int64, error) { return 0, fmt.Errorf("no insert id") }
func (brokenResult) RowsAffected() (int64, error) { return 0, fmt.Errorf("rows affected unavailable") }

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	t.conn.Commits++
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.Rollbacks++
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
