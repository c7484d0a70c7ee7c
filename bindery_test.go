package bindery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindery"
	"github.com/roach88/bindery/config"
	"github.com/roach88/bindery/engine"
	"github.com/roach88/bindery/internal/testutil"
	"github.com/roach88/bindery/query"
	"github.com/roach88/bindery/shard"
)

func newDB(t *testing.T, opts ...config.Option) *bindery.DB {
	t.Helper()
	opts = append([]config.Option{config.WithPoolDefaults()}, opts...)
	db := bindery.New(bindery.WithConfig(opts...))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_EngineCachedPerBind(t *testing.T) {
	db := newDB(t,
		config.WithURI(testutil.MemoryURI(t)),
		config.WithBind("reports", testutil.MemoryURI(t)),
	)

	def, err := db.Engine()
	require.NoError(t, err)
	again, err := db.GetEngine(engine.DefaultBind)
	require.NoError(t, err)
	assert.Same(t, def, again)

	reports, err := db.GetEngine("reports")
	require.NoError(t, err)
	assert.NotSame(t, def, reports)
}

func TestDB_UnconfiguredURI(t *testing.T) {
	db := newDB(t)

	e, err := db.Engine()
	require.NoError(t, err)
	assert.Nil(t, e)

	// Sessions for an unconfigured bind exist but fail per operation.
	s, err := db.Session()
	require.NoError(t, err)
	_, err = s.Select(context.Background(), query.New("users"))
	require.Error(t, err)

	var cfgErr *engine.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, engine.ErrCodeEngineUnbound, cfgErr.Code)
}

func TestDB_SessionCachedPerBind(t *testing.T) {
	db := newDB(t, config.WithURI(testutil.MemoryURI(t)))

	first, err := db.Session()
	require.NoError(t, err)
	second, err := db.Session()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestDB_ShardingOnlyOnDefaultBind(t *testing.T) {
	db := newDB(t,
		config.WithURI(testutil.MemoryURI(t)),
		config.WithBind("reports", testutil.MemoryURI(t)),
		config.WithShard(true),
	)

	def, err := db.Session()
	require.NoError(t, err)
	assert.True(t, def.Sharded())

	reports, err := db.GetSession("reports")
	require.NoError(t, err)
	assert.False(t, reports.Sharded())
}

func TestDB_ShardingDisabledByDefault(t *testing.T) {
	db := newDB(t, config.WithURI(testutil.MemoryURI(t)))

	s, err := db.Session()
	require.NoError(t, err)
	assert.False(t, s.Sharded())
}

func TestDB_ShardedRoundTrip(t *testing.T) {
	db := newDB(t,
		config.WithURI(testutil.MemoryURI(t)),
		config.WithBind("shard_even", testutil.MemoryURI(t)),
		config.WithBind("shard_odd", testutil.MemoryURI(t)),
		config.WithShard(true),
	)

	assign := func(v any) shard.ID {
		if n, ok := v.(int); ok && n%2 == 0 {
			return "shard_even"
		}
		return "shard_odd"
	}
	db.Router.Write = shard.KeyWriteChooser("shard_key", assign)
	db.Router.Lookup = shard.FixedLookupChooser("shard_even", "shard_odd")
	db.Router.Query = shard.KeyQueryChooser("shard_key", []shard.ID{"shard_even", "shard_odd"}, assign)

	ctx := context.Background()
	ddl := `CREATE TABLE users (id INTEGER PRIMARY KEY, shard_key INTEGER, name TEXT)`
	for _, bind := range []string{engine.DefaultBind, "shard_even", "shard_odd"} {
		e, err := db.GetEngine(bind)
		require.NoError(t, err)
		testutil.Seed(t, e, ddl)
	}

	s, err := db.Session()
	require.NoError(t, err)
	s.Add("users", map[string]any{"id": 1, "shard_key": 1, "name": "ann"})
	s.Add("users", map[string]any{"id": 2, "shard_key": 2, "name": "bob"})
	require.NoError(t, s.Commit(ctx))

	rows, err := s.Select(ctx, query.New("users"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	row, err := s.Get(ctx, "users", "id", 2)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "bob", row["name"])
}

func TestDB_ResetPreservesSessionCache(t *testing.T) {
	db := newDB(t, config.WithURI(testutil.MemoryURI(t)))

	e, err := db.Engine()
	require.NoError(t, err)
	testutil.Seed(t, e, `CREATE TABLE users (id INTEGER PRIMARY KEY)`)

	s, err := db.Session()
	require.NoError(t, err)
	s.Add("users", map[string]any{"id": 1})

	db.Reset()
	assert.Equal(t, 0, s.Pending())

	// Same session instance remains cached and usable.
	again, err := db.Session()
	require.NoError(t, err)
	assert.Same(t, s, again)
	require.NoError(t, again.Flush(context.Background()))
}

func TestDB_ReflectTableAndModel(t *testing.T) {
	db := newDB(t, config.WithURI(testutil.MemoryURI(t)))
	ctx := context.Background()

	e, err := db.Engine()
	require.NoError(t, err)
	testutil.Seed(t, e, `CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER NOT NULL, body TEXT)`)

	tbl, err := db.ReflectTable(ctx, "posts", engine.DefaultBind)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey())

	m, err := db.ReflectModel(ctx, "posts", engine.DefaultBind)
	require.NoError(t, err)
	assert.Same(t, tbl, m.Table)
	assert.Equal(t, "author_id", m.Fields["AuthorID"])
}

func TestDB_PingAllAndClose(t *testing.T) {
	db := newDB(t,
		config.WithURI(testutil.MemoryURI(t)),
		config.WithBind("extra", testutil.MemoryURI(t)),
	)
	ctx := context.Background()

	_, err := db.Engine()
	require.NoError(t, err)
	_, err = db.GetEngine("extra")
	require.NoError(t, err)

	require.NoError(t, db.PingAll(ctx))
	require.NoError(t, db.Close())

	// Engines reconstruct lazily after Close.
	e, err := db.Engine()
	require.NoError(t, err)
	require.NotNil(t, e)
	require.NoError(t, e.PingContext(ctx))
}
