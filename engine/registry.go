package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bindery/config"
)

// Registry is the thread-safe, memoized bind-key → Engine factory.
//
// At most one Engine exists per bind key for the lifetime of the
// registry. A single mutex guards the whole check-create-store
// sequence, so concurrent first-time requests for the same bind
// construct exactly one Engine and all callers observe it.
//
// Cache keys are NFC-normalized so that visually identical bind keys
// from different config sources cannot alias into separate engines.
type Registry struct {
	mu      sync.Mutex
	cfg     *config.Config
	log     *slog.Logger
	engines map[string]*Engine
}

// NewRegistry creates an empty registry reading bind URIs and pool
// options from cfg.
func NewRegistry(cfg *config.Config, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		cfg:     cfg,
		log:     log,
		engines: make(map[string]*Engine),
	}
}

// CanonicalBind returns the cache form of a bind key.
func CanonicalBind(bind string) string {
	return norm.NFC.String(bind)
}

// Get returns the Engine for bind, constructing and caching it on
// first access.
//
// Resolution: the default bind ("") uses the configured primary URI;
// any other key is looked up in the bind map and fails with a
// ConfigError (UNKNOWN_BIND) when absent. A bind whose URI is unset
// yields (nil, nil) without caching, so "no database configured"
// stays a valid, repeatedly checkable state.
func (r *Registry) Get(bind string) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := CanonicalBind(bind)
	if e, ok := r.engines[key]; ok {
		return e, nil
	}

	var uri string
	if key == DefaultBind {
		uri = r.cfg.URI
	} else {
		u, ok := r.cfg.Binds[key]
		if !ok {
			return nil, NewUnknownBindError(key)
		}
		uri = u
	}
	if uri == "" {
		return nil, nil
	}

	e, err := Open(key, uri, r.cfg, r.log)
	if err != nil {
		return nil, err
	}
	r.engines[key] = e
	return e, nil
}

// Cached returns the engines constructed so far, in no particular
// order.
func (r *Registry) Cached() []*Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e)
	}
	return out
}

// PingAll pings every cached engine concurrently and returns the
// first failure, if any.
func (r *Registry) PingAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range r.Cached() {
		e := e
		g.Go(func() error { return e.PingContext(ctx) })
	}
	return g.Wait()
}

// Close disposes every cached engine concurrently. The registry is
// left empty; engines can be reconstructed on demand.
func (r *Registry) Close() error {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()

	var g errgroup.Group
	for _, e := range engines {
		g.Go(e.Close)
	}
	return g.Wait()
}

// Reset is the whole-registry reset: dispose and forget every cached
// engine. Outstanding Engine references become invalid.
func (r *Registry) Reset() error {
	return r.Close()
}
