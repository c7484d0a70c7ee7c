// Package shard implements the three-hook routing protocol that
// binds a logical session to one of several physical databases per
// operation: a write-target chooser, an identity-lookup chooser, and
// a query-fanout chooser.
//
// Shard IDs are bind keys. The distinguished Default ID (the empty
// string) means "use the default bind's connection", which lets
// shard-aware code degrade to non-sharded behavior transparently,
// and is also why a named bind key must never be the empty string.
package shard

import "github.com/roach88/bindery/query"

// ID identifies one physical database participating in a
// horizontally partitioned dataset. Any non-empty ID is resolved as a
// named bind key.
type ID string

// Default is the reserved shard ID meaning "use the engine for the
// default bind".
const Default ID = ""

// WriteChooser decides which shard an object is persisted to. It is
// called once per flush for each pending row, and for raw write
// statements with an empty table and nil instance.
type WriteChooser func(table string, instance map[string]any, clause string) ID

// LookupChooser returns the shards that might hold the row with the
// given identity. The returned order is a search order: shards are
// probed first to last, stopping at the first hit.
type LookupChooser func(q *query.Query, ident []any) []ID

// QueryChooser returns the shards a query fans out across; results
// from all of them are merged. An empty result means "no shard
// matched" and callers fall back to the default shard rather than
// running against zero shards.
type QueryChooser func(q *query.Query) []ID

// Router bundles the three choosers. Fields are replaceable: assign a
// custom chooser before the owning session is used. The zero-valued
// hooks of NewRouter preserve non-sharded behavior exactly.
type Router struct {
	Write  WriteChooser
	Lookup LookupChooser
	Query  QueryChooser
}

// NewRouter returns a Router whose hooks all route to the default
// shard.
func NewRouter() *Router {
	return &Router{
		Write:  DefaultWriteChooser,
		Lookup: DefaultLookupChooser,
		Query:  DefaultQueryChooser,
	}
}

// DefaultWriteChooser always picks the default shard.
func DefaultWriteChooser(table string, instance map[string]any, clause string) ID {
	return Default
}

// DefaultLookupChooser probes only the default shard.
func DefaultLookupChooser(q *query.Query, ident []any) []ID {
	return []ID{Default}
}

// DefaultQueryChooser fans out to only the default shard.
func DefaultQueryChooser(q *query.Query) []ID {
	return []ID{Default}
}
