// Package config holds the process-wide configuration for a bindery
// DB: the default connection URI, the named bind map, sharding and
// pooling knobs, and statement echo.
//
// Configuration is assembled with functional options and may be loaded
// from a YAML document validated against an embedded CUE schema.
package config

import "time"

// Config describes one bindery DB instance.
//
// The zero value is not usable directly; call Default() to get a
// config populated with the documented defaults.
type Config struct {
	// URI is the connection URI for the default bind, in the form
	// "driver://dsn" (e.g. "sqlite3://file:app.db?cache=shared").
	// Empty means "no database configured" for the default bind,
	// which is a valid state, not an error.
	URI string

	// Binds maps a named bind key to its connection URI. A bind key
	// must not be the empty string: "" is reserved for the default
	// bind and doubles as the default-shard sentinel.
	Binds map[string]string

	// EnableShard turns the default session into a shard-aware
	// session routed through the Router hooks. Named sessions are
	// never sharded regardless of this setting.
	EnableShard bool

	// EnablePool enables persistent connection pooling. When false,
	// engines run with one-shot connections (no idle connections
	// retained).
	EnablePool bool

	// PoolSize is the number of persistent connections kept per
	// engine when pooling is enabled.
	PoolSize int

	// PoolTimeout bounds how long an operation waits for a free
	// connection before failing.
	PoolTimeout time.Duration

	// PoolRecycle is the maximum age of a connection before it is
	// closed and reopened.
	PoolRecycle time.Duration

	// MaxOverflow is the number of transient connections allowed
	// beyond PoolSize.
	MaxOverflow int

	// Echo enables Debug-level logging of executed statements and
	// pool events.
	Echo bool
}

// Default returns a Config with the documented defaults: no URIs, no
// sharding, pooling disabled, pool size 1, 30s timeout, 60s recycle,
// overflow 10, echo on.
func Default() *Config {
	return &Config{
		PoolSize:    1,
		PoolTimeout: 30 * time.Second,
		PoolRecycle: 60 * time.Second,
		MaxOverflow: 10,
		Echo:        true,
	}
}

// Option mutates a Config. Options are applied in order; later
// options win.
type Option func(*Config)

// WithURI sets the default bind's connection URI.
func WithURI(uri string) Option {
	return func(c *Config) { c.URI = uri }
}

// WithBinds replaces the named bind map.
func WithBinds(binds map[string]string) Option {
	return func(c *Config) { c.Binds = binds }
}

// WithBind adds or replaces a single named bind.
func WithBind(key, uri string) Option {
	return func(c *Config) {
		if c.Binds == nil {
			c.Binds = make(map[string]string)
		}
		c.Binds[key] = uri
	}
}

// WithShard enables or disables sharding for the default session.
func WithShard(enabled bool) Option {
	return func(c *Config) { c.EnableShard = enabled }
}

// WithPool enables pooling with the given size, timeout, recycle and
// overflow settings.
func WithPool(size int, timeout, recycle time.Duration, overflow int) Option {
	return func(c *Config) {
		c.EnablePool = true
		c.PoolSize = size
		c.PoolTimeout = timeout
		c.PoolRecycle = recycle
		c.MaxOverflow = overflow
	}
}

// WithPoolDefaults enables pooling keeping the default pool settings.
func WithPoolDefaults() Option {
	return func(c *Config) { c.EnablePool = true }
}

// WithEcho enables or disables statement echo logging.
func WithEcho(enabled bool) Option {
	return func(c *Config) { c.Echo = enabled }
}

// Apply runs the given options against the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
