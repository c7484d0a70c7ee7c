// Package engine manages long-lived connection-pool handles, one per
// configured bind, and the thread-safe registry that creates and
// caches them.
//
// An Engine wraps a single database/sql pool for one URI. URIs take
// the form "driver://dsn", where driver names a registered
// database/sql driver (e.g. sqlite3, postgres, mysql) and dsn is
// passed to the driver verbatim.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/bindery/config"
)

// DefaultBind is the bind key of the default (primary) database.
const DefaultBind = ""

// Engine is a managed connection-pool handle for exactly one URI.
//
// Engines are safe for concurrent use once published; per-use
// connection checkout is delegated to database/sql. Lifecycle is
// owner-managed: the registry that created an Engine disposes it on
// Reset or Close, at which point outstanding references go stale.
type Engine struct {
	bind      string
	driver    string
	dsn       string
	db        *sql.DB
	echo      bool
	opTimeout time.Duration // 0 = unbounded
	log       *slog.Logger
}

// ParseURI splits a "driver://dsn" connection URI.
func ParseURI(uri string) (driver, dsn string, err error) {
	driver, dsn, ok := strings.Cut(uri, "://")
	if !ok || driver == "" {
		return "", "", &ConfigError{
			Code:    ErrCodeInvalidURI,
			Message: fmt.Sprintf("connection URI must be driver://dsn, got %q", uri),
		}
	}
	return driver, dsn, nil
}

// Open creates an Engine for the given bind and URI, applying pool
// options from cfg and verifying connectivity with a ping.
//
// Pooling enabled: PoolSize persistent connections, MaxOverflow
// transient ones on top, connections recycled after PoolRecycle, and
// every operation bounded by PoolTimeout while waiting for a free
// connection. Pooling disabled: one-shot connections, nothing kept
// idle.
func Open(bind, uri string, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	driver, dsn, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectError{Bind: bind, URI: uri, Err: err}
	}

	var opTimeout time.Duration
	if cfg.EnablePool {
		db.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
		db.SetMaxIdleConns(cfg.PoolSize)
		db.SetConnMaxLifetime(cfg.PoolRecycle)
		opTimeout = cfg.PoolTimeout
	} else {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(0)
	}

	e := &Engine{
		bind:      bind,
		driver:    driver,
		dsn:       dsn,
		db:        db,
		echo:      cfg.Echo,
		opTimeout: opTimeout,
		log:       log,
	}

	ctx, cancel := e.opContext(context.Background())
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectError{Bind: bind, URI: uri, Err: err}
	}

	if e.echo {
		e.log.Debug("engine opened", "bind", bind, "driver", driver)
	}
	return e, nil
}

// Bind returns the bind key this engine serves.
func (e *Engine) Bind() string { return e.bind }

// Driver returns the database/sql driver name this engine uses.
func (e *Engine) Driver() string { return e.driver }

// DB exposes the underlying pool for direct use. Prefer the Engine
// methods: they apply echo logging and the pool wait timeout.
func (e *Engine) DB() *sql.DB { return e.db }

// ExecContext executes a statement that returns no rows.
func (e *Engine) ExecContext(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	ctx, cancel := e.opContext(ctx)
	defer cancel()
	if e.echo {
		e.log.Debug("exec", "bind", e.bind, "stmt", stmt)
	}
	return e.db.ExecContext(ctx, stmt, args...)
}

// Rows is a result set whose Close also releases the pool wait
// timeout armed for the query. database/sql closes rows as soon as
// their context is canceled, so the cancel must not fire while the
// caller is still iterating.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
}

// Close closes the rows and releases the query's timeout context.
func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.cancel()
	return err
}

// QueryContext executes a statement that returns rows. Callers own
// the returned rows and must close them; iteration may continue
// after this method returns.
func (e *Engine) QueryContext(ctx context.Context, stmt string, args ...any) (*Rows, error) {
	ctx, cancel := e.opContext(ctx)
	if e.echo {
		e.log.Debug("query", "bind", e.bind, "stmt", stmt)
	}
	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

// PingContext verifies the engine can reach its database.
func (e *Engine) PingContext(ctx context.Context) error {
	ctx, cancel := e.opContext(ctx)
	defer cancel()
	if err := e.db.PingContext(ctx); err != nil {
		return &ConnectError{Bind: e.bind, URI: e.driver + "://" + e.dsn, Err: err}
	}
	return nil
}

// Close disposes the pool. The Engine must not be used afterwards.
func (e *Engine) Close() error {
	if e.echo {
		e.log.Debug("engine closed", "bind", e.bind)
	}
	return e.db.Close()
}

// opContext bounds an operation by the pool wait timeout, when one is
// configured.
func (e *Engine) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.opTimeout)
}
