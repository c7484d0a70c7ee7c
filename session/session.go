// Package session provides scope-bound handles for issuing database
// operations against one engine (plain sessions) or against one of
// several engines chosen per operation through the shard router
// (sharded sessions).
//
// A Session is the per-bind registry value: it is the factory for
// scope-local working sets. Each scope (one logical unit of work, as
// identified by the owner's scope function) gets its own working set
// of pending rows; Reset discards every working set without touching
// the registry entry itself.
package session

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/bindery/engine"
	"github.com/roach88/bindery/query"
	"github.com/roach88/bindery/shard"
)

// EngineResolver resolves a bind key to its engine at call time.
// Implemented by the facade; sharded sessions use it to bind a shard
// ID to a physical connection per operation.
type EngineResolver interface {
	EngineFor(bind string) (*engine.Engine, error)
}

// Session is a handle for issuing operations against one bind.
//
// Sessions are safe for concurrent use; scope-local working sets are
// not shared across scopes by construction. A sharded session only
// exists for the default bind; named binds always get plain
// sessions.
type Session struct {
	bind     string
	engine   *engine.Engine // fixed engine; nil when the bind is unconfigured
	router   *shard.Router  // nil for plain sessions
	resolver EngineResolver
	scopeFn  func() string
	log      *slog.Logger

	mu     sync.Mutex
	scopes map[string]*workingSet
}

type workingSet struct {
	pending []pendingRow
}

type pendingRow struct {
	table string
	row   map[string]any
}

// NewPlain creates a session bound directly to eng. A nil engine is
// valid: operations fail with an ENGINE_UNBOUND ConfigError until the
// bind is configured and the registry entry rebuilt.
func NewPlain(bind string, eng *engine.Engine, scopeFn func() string, log *slog.Logger) *Session {
	return newSession(bind, eng, nil, nil, scopeFn, log)
}

// NewSharded creates a shard-aware session routed through router and
// resolving engines through resolver on every operation.
func NewSharded(bind string, eng *engine.Engine, router *shard.Router, resolver EngineResolver, scopeFn func() string, log *slog.Logger) *Session {
	return newSession(bind, eng, router, resolver, scopeFn, log)
}

func newSession(bind string, eng *engine.Engine, router *shard.Router, resolver EngineResolver, scopeFn func() string, log *slog.Logger) *Session {
	if scopeFn == nil {
		scopeFn = func() string { return "" }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		bind:     bind,
		engine:   eng,
		router:   router,
		resolver: resolver,
		scopeFn:  scopeFn,
		log:      log,
		scopes:   make(map[string]*workingSet),
	}
}

// NewScope returns a fresh scope token for callers that want
// per-request or per-task working sets.
func NewScope() string {
	return uuid.NewString()
}

// Sharded reports whether this session routes through the shard
// router.
func (s *Session) Sharded() bool {
	return s.router != nil
}

// Bind returns the bind key this session serves.
func (s *Session) Bind() string {
	return s.bind
}

// Add queues a row for insertion into table on the next Flush. The
// row joins the current scope's working set.
func (s *Session) Add(table string, row map[string]any) {
	ws := s.scope()
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.pending = append(ws.pending, pendingRow{table: table, row: row})
}

// Pending returns the number of rows queued in the current scope.
func (s *Session) Pending() int {
	ws := s.scope()
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(ws.pending)
}

// Flush writes every pending row of the current scope. For sharded
// sessions the write chooser picks the target shard per row. Rows
// written successfully are removed from the working set; on error the
// remaining rows stay pending.
func (s *Session) Flush(ctx context.Context) error {
	ws := s.scope()
	s.mu.Lock()
	pending := ws.pending
	s.mu.Unlock()

	var flushErr error
	written := 0
	for _, pr := range pending {
		e, err := s.writeEngine(pr.table, pr.row, "")
		if err != nil {
			flushErr = err
			break
		}
		stmt, args := insertSQL(pr.table, pr.row)
		if _, err := e.ExecContext(ctx, stmt, args...); err != nil {
			flushErr = err
			break
		}
		written++
	}

	s.mu.Lock()
	ws.pending = ws.pending[written:]
	s.mu.Unlock()
	return flushErr
}

// Commit flushes the current scope and clears its working set.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	s.Rollback()
	return nil
}

// Rollback discards the current scope's pending rows without writing
// them.
func (s *Session) Rollback() {
	ws := s.scope()
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.pending = nil
}

// Exec runs a raw write statement. Sharded sessions consult the write
// chooser with the statement text as the clause.
func (s *Session) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	e, err := s.writeEngine("", nil, stmt)
	if err != nil {
		return nil, err
	}
	return e.ExecContext(ctx, stmt, args...)
}

// Get fetches the row of table whose pkColumn equals ident, or nil
// when no shard has it. Sharded sessions probe the lookup chooser's
// shards in order and stop at the first hit.
func (s *Session) Get(ctx context.Context, table, pkColumn string, ident any) (map[string]any, error) {
	q := query.New(table).Where(query.Col(table, pkColumn).Eq(ident)).WithLimit(1)

	targets := []shard.ID{shard.Default}
	if s.Sharded() {
		targets = s.router.Lookup(q, []any{ident})
		if len(targets) == 0 {
			targets = []shard.ID{shard.Default}
		}
	}

	stmt, args, err := query.Compile(q)
	if err != nil {
		return nil, err
	}
	for _, id := range targets {
		e, err := s.engineFor(id)
		if err != nil {
			return nil, err
		}
		rows, err := fetchRows(ctx, e, stmt, args)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	return nil, nil
}

// Select executes a query, fanning it out across the shards picked by
// the query chooser and merging the results. An empty chooser result
// falls back to the default shard; a query never targets zero
// shards.
func (s *Session) Select(ctx context.Context, q *query.Query) ([]map[string]any, error) {
	targets := []shard.ID{shard.Default}
	if s.Sharded() {
		targets = dedupe(s.router.Query(q))
		if len(targets) == 0 {
			s.log.Debug("query chooser returned no shards, using default", "table", q.Table)
			targets = []shard.ID{shard.Default}
		}
	}

	stmt, args, err := query.Compile(q)
	if err != nil {
		return nil, err
	}

	var merged []map[string]any
	for _, id := range targets {
		e, err := s.engineFor(id)
		if err != nil {
			return nil, err
		}
		rows, err := fetchRows(ctx, e, stmt, args)
		if err != nil {
			return nil, err
		}
		merged = append(merged, rows...)
	}
	return merged, nil
}

// Reset discards every scope's working set. Registry callers invoke
// this for all cached sessions; the session itself stays valid and
// cached.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = make(map[string]*workingSet)
}

// scope returns the current scope's working set, creating it on first
// use.
func (s *Session) scope() *workingSet {
	token := s.scopeFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.scopes[token]
	if !ok {
		ws = &workingSet{}
		s.scopes[token] = ws
	}
	return ws
}

// writeEngine picks the engine for a write. Plain sessions use their
// fixed engine; sharded sessions ask the write chooser.
func (s *Session) writeEngine(table string, instance map[string]any, clause string) (*engine.Engine, error) {
	if !s.Sharded() {
		return s.fixedEngine()
	}
	return s.engineFor(s.router.Write(table, instance, clause))
}

// engineFor binds a shard ID to a physical engine: the default
// sentinel resolves to this session's own bind, anything else to the
// named bind equal to the shard ID.
func (s *Session) engineFor(id shard.ID) (*engine.Engine, error) {
	if !s.Sharded() {
		return s.fixedEngine()
	}
	bind := s.bind
	if id != shard.Default {
		bind = string(id)
	}
	e, err := s.resolver.EngineFor(bind)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, engine.NewUnboundError(bind)
	}
	return e, nil
}

func (s *Session) fixedEngine() (*engine.Engine, error) {
	if s.engine == nil {
		return nil, engine.NewUnboundError(s.bind)
	}
	return s.engine, nil
}

// insertSQL builds a parameterized INSERT for one row with columns in
// sorted order for deterministic statements.
func insertSQL(table string, row map[string]any) (string, []any) {
	columns := make([]string, 0, len(row))
	for c := range row {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
		args[i] = row[c]
	}

	stmt := "INSERT INTO " + quoteIdent(table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	return stmt, args
}

// fetchRows runs a query on one engine and materializes the rows as
// column-name → value maps.
func fetchRows(ctx context.Context, e *engine.Engine, stmt string, args []any) ([]map[string]any, error) {
	rows, err := e.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func dedupe(ids []shard.ID) []shard.ID {
	var out []shard.ID
	seen := make(map[shard.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// quoteIdent double-quotes a SQL identifier, escaping embedded
// quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
