// Package bindery is a multi-backend database bind/session manager:
// lazy, cached engines keyed by bind, lazy per-bind sessions, optional
// horizontal sharding routed per operation, and reflection of
// table/model metadata from a live schema.
//
//	db := bindery.New(bindery.WithConfig(
//		config.WithURI("sqlite3://file:app.db?cache=shared"),
//		config.WithBind("shard_001", "sqlite3://file:s1.db"),
//	))
//	sess, err := db.Session()
//	rows, err := sess.Select(ctx, query.New("users").
//		Where(query.Col("users", "status").Eq(0)))
//
// The DB owns three independent lock domains (engine registry,
// session registry, reflector cache) and never holds two of their
// locks at once.
package bindery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/bindery/config"
	"github.com/roach88/bindery/engine"
	"github.com/roach88/bindery/schema"
	"github.com/roach88/bindery/session"
	"github.com/roach88/bindery/shard"
)

// DB is the facade owning the engine, session and reflection caches
// for one configuration. Construct with New, adjust with Configure
// before first use, share freely afterwards.
type DB struct {
	cfg *config.Config
	log *slog.Logger

	// Router holds the three shard-routing hooks. Replace individual
	// choosers before the default session is first used; the defaults
	// route everything to the default bind.
	Router *shard.Router

	scopeFn func() string

	engines   *engine.Registry
	reflector *schema.Reflector

	sessionMu sync.Mutex
	sessions  map[string]*session.Session
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithConfig applies configuration options.
func WithConfig(opts ...config.Option) Option {
	return func(db *DB) { db.cfg.Apply(opts...) }
}

// WithLogger sets the structured logger used for echo and routing
// diagnostics. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(db *DB) { db.log = log }
}

// WithScopeFunc sets the function identifying the current session
// scope (one logical unit of work). The default is a single shared
// scope; callers wanting per-request scopes typically combine this
// with session.NewScope tokens carried in their own context.
func WithScopeFunc(fn func() string) Option {
	return func(db *DB) { db.scopeFn = fn }
}

// New creates a DB with the documented defaults, then applies opts.
func New(opts ...Option) *DB {
	db := &DB{
		cfg:      config.Default(),
		log:      slog.Default(),
		Router:   shard.NewRouter(),
		sessions: make(map[string]*session.Session),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.engines = engine.NewRegistry(db.cfg, db.log)
	db.reflector = schema.NewReflector(db.engines)
	return db
}

// Configure merges configuration options into the DB. Already-cached
// engines and sessions are unaffected; configure before first use.
func (db *DB) Configure(opts ...config.Option) {
	db.cfg.Apply(opts...)
}

// Config returns the live configuration.
func (db *DB) Config() *config.Config {
	return db.cfg
}

// Engine returns the engine for the default bind. Equivalent to
// GetEngine(engine.DefaultBind).
func (db *DB) Engine() (*engine.Engine, error) {
	return db.GetEngine(engine.DefaultBind)
}

// GetEngine returns the cached engine for bind, constructing it on
// first access. A nil engine with nil error means the bind has no URI
// configured.
func (db *DB) GetEngine(bind string) (*engine.Engine, error) {
	return db.engines.Get(bind)
}

// EngineFor implements session.EngineResolver: sharded sessions call
// it per operation to bind a shard ID to a physical engine.
func (db *DB) EngineFor(bind string) (*engine.Engine, error) {
	return db.engines.Get(bind)
}

// Session returns the session for the default bind. Equivalent to
// GetSession(engine.DefaultBind).
func (db *DB) Session() (*session.Session, error) {
	return db.GetSession(engine.DefaultBind)
}

// GetSession returns the cached session for bind, constructing it on
// first access. The default bind gets a sharded session when sharding
// is enabled; named binds always get plain sessions. The engine may
// be nil (unconfigured bind): the session is still created and
// resolves or fails per operation.
func (db *DB) GetSession(bind string) (*session.Session, error) {
	key := engine.CanonicalBind(bind)

	db.sessionMu.Lock()
	if s, ok := db.sessions[key]; ok {
		db.sessionMu.Unlock()
		return s, nil
	}
	db.sessionMu.Unlock()

	// Resolve the engine outside the session lock: engine
	// construction may block on the network and takes the engine
	// registry's own lock.
	eng, err := db.engines.Get(key)
	if err != nil {
		return nil, err
	}

	db.sessionMu.Lock()
	defer db.sessionMu.Unlock()
	if s, ok := db.sessions[key]; ok {
		return s, nil
	}

	var s *session.Session
	if key == engine.DefaultBind && db.cfg.EnableShard {
		s = session.NewSharded(key, eng, db.Router, db, db.scopeFn, db.log)
	} else {
		s = session.NewPlain(key, eng, db.scopeFn, db.log)
	}
	db.sessions[key] = s
	return s, nil
}

// ReflectTable reflects the named table through the engine for bind
// (empty bind = default) and returns its cached descriptor.
func (db *DB) ReflectTable(ctx context.Context, table, bind string) (*schema.Table, error) {
	return db.reflector.Table(ctx, table, bind)
}

// ReflectModel reflects the named table and synthesizes a model
// descriptor.
func (db *DB) ReflectModel(ctx context.Context, table, bind string) (*schema.Model, error) {
	return db.reflector.Model(ctx, table, bind)
}

// Reset discards the scope-local working set of every cached session.
// The session cache entries themselves remain valid.
func (db *DB) Reset() {
	db.sessionMu.Lock()
	defer db.sessionMu.Unlock()
	for _, s := range db.sessions {
		s.Reset()
	}
}

// PingAll verifies connectivity of every engine constructed so far.
func (db *DB) PingAll(ctx context.Context) error {
	return db.engines.PingAll(ctx)
}

// Close disposes all engines. Sessions and engine references held by
// callers become invalid.
func (db *DB) Close() error {
	db.sessionMu.Lock()
	db.sessions = make(map[string]*session.Session)
	db.sessionMu.Unlock()
	return db.engines.Close()
}

var _ session.EngineResolver = (*DB)(nil)
