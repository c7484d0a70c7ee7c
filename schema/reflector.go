package schema

import (
	"context"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bindery/engine"
)

// EngineSource resolves a bind key to a live engine. Satisfied by
// *engine.Registry.
type EngineSource interface {
	Get(bind string) (*engine.Engine, error)
}

// Reflector is the memoized, thread-safe table/model metadata
// factory.
//
// One mutex guards the whole check-introspect-cache sequence, so
// introspection for a given (bind, table) pair happens at most once
// per reflector lifetime. Caches are keyed by bind AND table name:
// the same table name reflected against two binds yields two
// independent descriptors. Failed reflections are never cached.
type Reflector struct {
	mu      sync.Mutex
	engines EngineSource
	intro   func(driver string) Introspector
	tables  map[cacheKey]*Table
	models  map[cacheKey]*Model
}

type cacheKey struct {
	bind  string
	table string
}

// NewReflector creates a Reflector resolving engines through source
// and picking introspectors per driver with ForDriver.
func NewReflector(source EngineSource) *Reflector {
	return &Reflector{
		engines: source,
		intro:   ForDriver,
		tables:  make(map[cacheKey]*Table),
		models:  make(map[cacheKey]*Model),
	}
}

// Table reflects the named table through the engine for bind,
// returning the cached descriptor on every call after the first.
func (r *Reflector) Table(ctx context.Context, name, bind string) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(name, bind)
	if t, ok := r.tables[key]; ok {
		return t, nil
	}

	t, err := r.introspect(ctx, key)
	if err != nil {
		return nil, err
	}
	r.tables[key] = t
	return t, nil
}

// Model reflects the named table and synthesizes a model descriptor
// from it, cached independently of Table results.
func (r *Reflector) Model(ctx context.Context, name, bind string) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(name, bind)
	if m, ok := r.models[key]; ok {
		return m, nil
	}

	t, ok := r.tables[key]
	if !ok {
		var err error
		t, err = r.introspect(ctx, key)
		if err != nil {
			return nil, err
		}
		r.tables[key] = t
	}

	m := BuildModel(t)
	r.models[key] = m
	return m, nil
}

// introspect resolves the engine and reads the table's metadata.
// Callers hold r.mu; the engine registry takes its own lock
// internally, never the reverse, so the two domains cannot deadlock.
func (r *Reflector) introspect(ctx context.Context, key cacheKey) (*Table, error) {
	e, err := r.engines.Get(key.bind)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &ReflectError{Code: ErrCodeNoEngine, Table: key.table, Bind: key.bind}
	}
	return r.intro(e.Driver()).Table(ctx, e, key.table)
}

func (r *Reflector) key(name, bind string) cacheKey {
	return cacheKey{
		bind:  engine.CanonicalBind(bind),
		table: norm.NFC.String(name),
	}
}
