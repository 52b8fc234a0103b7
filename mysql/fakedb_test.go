package mysql

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
	"testing"
)

// fakeServer scripts responses for the statements the engine issues, so
// the orchestration and transaction paths can run without a live MySQL.
// Every statement plus BEGIN/COMMIT/ROLLBACK lands in the event log for
// the test to assert on.
type fakeServer struct {
	mu      sync.Mutex
	handler func(query string, args []driver.Value) (*fakeResult, error)
	log     []string
}

// fakeResult is the scripted answer to one statement. A nil rows slice
// with cols set renders an empty result set; an all-zero value suits
// exec-only statements.
type fakeResult struct {
	cols []string
	rows [][]driver.Value
}

func (s *fakeServer) record(event string) {
	s.mu.Lock()
	s.log = append(s.log, event)
	s.mu.Unlock()
}

func (s *fakeServer) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}

var (
	fakeServersMu sync.Mutex
	fakeServers   = map[string]*fakeServer{}
	fakeSeq       int
)

type fakeDriver struct{}

func (fakeDriver) Open(name string) (driver.Conn, error) {
	fakeServersMu.Lock()
	srv := fakeServers[name]
	fakeServersMu.Unlock()
	if srv == nil {
		return nil, fmt.Errorf("unknown scripted database %q", name)
	}
	return &fakeConn{srv: srv}, nil
}

func init() {
	sql.Register("scripted", fakeDriver{})
}

// newFakeDB opens a database handle backed by the given handler and
// returns the server so the test can inspect the event log.
func newFakeDB(t *testing.T, handler func(query string, args []driver.Value) (*fakeResult, error)) (*sql.DB, *fakeServer) {
	t.Helper()

	fakeServersMu.Lock()
	fakeSeq++
	name := fmt.Sprintf("scripted-%d", fakeSeq)
	srv := &fakeServer{handler: handler}
	fakeServers[name] = srv
	fakeServersMu.Unlock()

	db, err := sql.Open("scripted", name)
	if err != nil {
		t.Fatalf("open scripted database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, srv
}

type fakeConn struct {
	srv *fakeServer
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{srv: c.srv, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.srv.record("BEGIN")
	return &fakeTx{srv: c.srv}, nil
}

type fakeTx struct {
	srv *fakeServer
}

func (tx *fakeTx) Commit() error {
	tx.srv.record("COMMIT")
	return nil
}

func (tx *fakeTx) Rollback() error {
	tx.srv.record("ROLLBACK")
	return nil
}

type fakeStmt struct {
	srv   *fakeServer
	query string
}

func (s *fakeStmt) Close() error { return nil }

// NumInput opts out of the argument-count check; the scripted handlers
// see whatever the engine passes.
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.srv.record(s.query)
	if _, err := s.srv.handler(s.query, args); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.srv.record(s.query)
	res, err := s.srv.handler(s.query, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{cols: res.cols, rows: res.rows}, nil
}

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	next int
}

func (r *fakeRows) Columns() []string { return r.cols }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
