// Package schema reverse-engineers table and model metadata from a
// live database: memoized, thread-safe reflection of column metadata
// through an Introspector, and synthesis of model descriptors from
// the reflected tables.
package schema

import (
	"encoding/json"
	"strings"
)

// Column describes one reflected table column. Descriptors are plain
// data, detached from any live schema or connection.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Default    *string `json:"default,omitempty"`
}

// Table is the immutable descriptor of one reflected table.
type Table struct {
	Name    string   `json:"name"`
	Bind    string   `json:"bind"`
	Columns []Column `json:"columns"`
}

// Column returns the named column, or nil when absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// PrimaryKey returns the names of the primary-key columns, in table
// order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// Model is a data-access descriptor synthesized from a reflected
// table: an explicit field-name → column-name mapping built with
// ordinary data structures, no runtime code generation.
type Model struct {
	Table  *Table            `json:"table"`
	Fields map[string]string `json:"fields"`
}

// BuildModel derives a Model from a table descriptor. Field names are
// exported CamelCase forms of the snake_case column names ("user_id"
// → "UserID").
func BuildModel(t *Table) *Model {
	fields := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		fields[fieldName(c.Name)] = c.Name
	}
	return &Model{Table: t, Fields: fields}
}

// fieldName converts a snake_case column name to an exported Go-style
// field name. The "id" fragment keeps its conventional upper-case
// spelling.
func fieldName(column string) string {
	parts := strings.Split(column, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if part == "id" {
			b.WriteString("ID")
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// RenderJSON renders a descriptor as indented JSON with a trailing
// newline. Output is deterministic and suitable for golden-file
// comparison and CLI display.
func RenderJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
