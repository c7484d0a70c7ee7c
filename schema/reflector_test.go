package schema_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bindery/config"
	"github.com/roach88/bindery/engine"
	"github.com/roach88/bindery/internal/testutil"
	"github.com/roach88/bindery/schema"
)

const usersDDL = `CREATE TABLE users (
	id INTEGER NOT NULL PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER,
	plan TEXT NOT NULL DEFAULT 'free'
)`

func newReflector(t *testing.T, opts ...config.Option) (*schema.Reflector, *engine.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.Apply(config.WithPoolDefaults())
	cfg.Apply(opts...)
	reg := engine.NewRegistry(cfg, slog.Default())
	t.Cleanup(func() { reg.Close() })
	return schema.NewReflector(reg), reg
}

func TestReflector_TableMetadata(t *testing.T) {
	r, reg := newReflector(t, config.WithURI(testutil.MemoryURI(t)))
	e, err := reg.Get(engine.DefaultBind)
	require.NoError(t, err)
	testutil.Seed(t, e, usersDDL)

	tbl, err := r.Table(context.Background(), "users", engine.DefaultBind)
	require.NoError(t, err)

	assert.Equal(t, "users", tbl.Name)
	require.Len(t, tbl.Columns, 4)

	id := tbl.Column("id")
	require.NotNil(t, id)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	age := tbl.Column("age")
	require.NotNil(t, age)
	assert.True(t, age.Nullable)

	plan := tbl.Column("plan")
	require.NotNil(t, plan)
	require.NotNil(t, plan.Default)
	assert.Equal(t, "'free'", *plan.Default)

	assert.Equal(t, []string{"id"}, tbl.PrimaryKey())
}

func TestReflector_TableDescriptorJSON(t *testing.T) {
	r, reg := newReflector(t, config.WithURI(testutil.MemoryURI(t)))
	e, err := reg.Get(engine.DefaultBind)
	require.NoError(t, err)
	testutil.Seed(t, e, usersDDL)

	tbl, err := r.Table(context.Background(), "users", engine.DefaultBind)
	require.NoError(t, err)

	data, err := schema.RenderJSON(tbl)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "users_table", data)
}

func TestReflector_CachesPerBindAndTable(t *testing.T) {
	r, reg := newReflector(t,
		config.WithURI(testutil.MemoryURI(t)),
		config.WithBind("analytics", testutil.MemoryURI(t)),
	)
	ctx := context.Background()

	main, err := reg.Get(engine.DefaultBind)
	require.NoError(t, err)
	testutil.Seed(t, main, `CREATE TABLE events (id INTEGER PRIMARY KEY, kind TEXT)`)

	analytics, err := reg.Get("analytics")
	require.NoError(t, err)
	testutil.Seed(t, analytics, `CREATE TABLE events (id INTEGER PRIMARY KEY, kind TEXT, day TEXT)`)

	first, err := r.Table(ctx, "events", engine.DefaultBind)
	require.NoError(t, err)
	again, err := r.Table(ctx, "events", engine.DefaultBind)
	require.NoError(t, err)
	assert.Same(t, first, again)

	// Same table name on another bind reflects independently.
	other, err := r.Table(ctx, "events", "analytics")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Len(t, other.Columns, 3)
}

func TestReflector_FailureNotCached(t *testing.T) {
	r, reg := newReflector(t, config.WithURI(testutil.MemoryURI(t)))
	ctx := context.Background()
	e, err := reg.Get(engine.DefaultBind)
	require.NoError(t, err)

	_, err = r.Table(ctx, "users", engine.DefaultBind)
	require.Error(t, err)

	var refErr *schema.ReflectError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, schema.ErrCodeTableNotFound, refErr.Code)

	// Once the table exists the reflector must see it: the earlier
	// failure was not cached.
	testutil.Seed(t, e, `CREATE TABLE users (id INTEGER PRIMARY KEY)`)
	tbl, err := r.Table(ctx, "users", engine.DefaultBind)
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name)
}

func TestReflector_NoEngine(t *testing.T) {
	r, _ := newReflector(t) // no URI configured

	_, err := r.Table(context.Background(), "users", engine.DefaultBind)
	require.Error(t, err)

	var refErr *schema.ReflectError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, schema.ErrCodeNoEngine, refErr.Code)
}

func TestReflector_ModelCached(t *testing.T) {
	r, reg := newReflector(t, config.WithURI(testutil.MemoryURI(t)))
	ctx := context.Background()
	e, err := reg.Get(engine.DefaultBind)
	require.NoError(t, err)
	testutil.Seed(t, e, `CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, body TEXT)`)

	m, err := r.Model(ctx, "posts", engine.DefaultBind)
	require.NoError(t, err)
	assert.Equal(t, "author_id", m.Fields["AuthorID"])

	again, err := r.Model(ctx, "posts", engine.DefaultBind)
	require.NoError(t, err)
	assert.Same(t, m, again)
}
