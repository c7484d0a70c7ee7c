package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_ColumnLookup(t *testing.T) {
	tbl := &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", PrimaryKey: true},
			{Name: "name"},
		},
	}

	require.NotNil(t, tbl.Column("name"))
	assert.Equal(t, "name", tbl.Column("name").Name)
	assert.Nil(t, tbl.Column("missing"))
}

func TestTable_PrimaryKey(t *testing.T) {
	tbl := &Table{
		Columns: []Column{
			{Name: "tenant_id", PrimaryKey: true},
			{Name: "name"},
			{Name: "seq", PrimaryKey: true},
		},
	}
	assert.Equal(t, []string{"tenant_id", "seq"}, tbl.PrimaryKey())

	assert.Nil(t, (&Table{Columns: []Column{{Name: "a"}}}).PrimaryKey())
}

func TestBuildModel_FieldNames(t *testing.T) {
	tbl := &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id"},
			{Name: "user_id"},
			{Name: "display_name"},
			{Name: "created_at"},
		},
	}

	m := BuildModel(tbl)
	assert.Same(t, tbl, m.Table)
	assert.Equal(t, map[string]string{
		"ID":          "id",
		"UserID":      "user_id",
		"DisplayName": "display_name",
		"CreatedAt":   "created_at",
	}, m.Fields)
}
