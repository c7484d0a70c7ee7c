package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bindery/query"
)

// evenOdd sends even shard-key values to shard_even and odd ones to
// shard_odd.
func evenOdd(v any) ID {
	if v.(int)%2 == 0 {
		return "shard_even"
	}
	return "shard_odd"
}

var allShards = []ID{"shard_even", "shard_odd"}

func TestNewRouter_DefaultsToDefaultShard(t *testing.T) {
	r := NewRouter()

	assert.Equal(t, Default, r.Write("users", map[string]any{"id": 1}, ""))
	assert.Equal(t, []ID{Default}, r.Lookup(query.New("users"), []any{1}))
	assert.Equal(t, []ID{Default}, r.Query(query.New("users")))
}

func TestKeyWriteChooser(t *testing.T) {
	choose := KeyWriteChooser("shard_key", evenOdd)

	assert.Equal(t, ID("shard_even"), choose("users", map[string]any{"shard_key": 4}, ""))
	assert.Equal(t, ID("shard_odd"), choose("users", map[string]any{"shard_key": 3}, ""))

	// No column and no instance both fall back to the default shard.
	assert.Equal(t, Default, choose("users", map[string]any{"name": "x"}, ""))
	assert.Equal(t, Default, choose("", nil, "DELETE FROM users"))
}

func TestKeyQueryChooser(t *testing.T) {
	choose := KeyQueryChooser("shard_key", allShards, evenOdd)
	key := query.Col("users", "shard_key")

	tests := []struct {
		name string
		q    *query.Query
		want []ID
	}{
		{
			name: "equality narrows to one shard",
			q:    query.New("users").Where(key.Eq(4)),
			want: []ID{"shard_even"},
		},
		{
			name: "membership fans out over member shards",
			q:    query.New("users").Where(key.In(1, 2, 3)),
			want: []ID{"shard_odd", "shard_even"},
		},
		{
			name: "duplicate assignments collapse",
			q:    query.New("users").Where(key.In(2, 4, 6)),
			want: []ID{"shard_even"},
		},
		{
			name: "unrelated predicate keeps full fan-out",
			q:    query.New("users").Where(query.Col("users", "name").Eq("bob")),
			want: allShards,
		},
		{
			name: "no criterion keeps full fan-out",
			q:    query.New("users"),
			want: allShards,
		},
		{
			name: "range predicate on key is not narrowing",
			q:    query.New("users").Where(key.Gt(10)),
			want: allShards,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, choose(tt.q))
		})
	}
}

func TestFixedLookupChooser(t *testing.T) {
	choose := FixedLookupChooser("shard_odd", "shard_even")
	got := choose(query.New("users"), []any{7})
	assert.Equal(t, []ID{"shard_odd", "shard_even"}, got)
}
