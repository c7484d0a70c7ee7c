// Package testutil provides shared helpers for tests that exercise
// live SQLite databases.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/bindery/engine"
)

var dbSeq atomic.Int64

// MemoryURI returns a bindery connection URI for a fresh named
// in-memory SQLite database. The shared-cache name keeps the database
// alive across the pool's connections, so callers should pair it with
// pooling enabled (an idle connection pins the database).
func MemoryURI(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("sqlite3://file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))
}

// Seed executes DDL/DML statements against an engine, failing the
// test on any error.
func Seed(t *testing.T, e *engine.Engine, stmts ...string) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range stmts {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed statement failed: %v\nstmt: %s", err, stmt)
		}
	}
}
