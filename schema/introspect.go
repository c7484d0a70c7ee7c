package schema

import (
	"context"
	"database/sql"
	"strings"

	"github.com/roach88/bindery/engine"
)

// Introspector reads raw column metadata for a single named table
// through a live engine. Implementations must treat the schema as
// read-only.
type Introspector interface {
	Table(ctx context.Context, e *engine.Engine, name string) (*Table, error)
}

// ForDriver picks the introspector for a database/sql driver name:
// the PRAGMA-based one for SQLite, the zero-row-scan generic one for
// everything else.
func ForDriver(driver string) Introspector {
	if strings.HasPrefix(driver, "sqlite") {
		return SQLite{}
	}
	return Generic{}
}

// SQLite introspects via PRAGMA table_info, which yields declared
// types, NOT NULL constraints, defaults and primary-key membership.
type SQLite struct{}

// Table implements Introspector.
func (SQLite) Table(ctx context.Context, e *engine.Engine, name string) (*Table, error) {
	// PRAGMA does not accept placeholders; the identifier is quoted.
	rows, err := e.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(name)+")")
	if err != nil {
		return nil, &ReflectError{Code: ErrCodeIntrospectFailed, Table: name, Bind: e.Bind(), Err: err}
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid     int
			colName string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, &ReflectError{Code: ErrCodeIntrospectFailed, Table: name, Bind: e.Bind(), Err: err}
		}
		col := Column{
			Name:       colName,
			Type:       colType,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		}
		if dflt.Valid {
			v := dflt.String
			col.Default = &v
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReflectError{Code: ErrCodeIntrospectFailed, Table: name, Bind: e.Bind(), Err: err}
	}
	if len(columns) == 0 {
		// table_info returns zero rows for unknown tables.
		return nil, &ReflectError{Code: ErrCodeTableNotFound, Table: name, Bind: e.Bind()}
	}

	return &Table{Name: name, Bind: e.Bind(), Columns: columns}, nil
}

// Generic introspects any SQL backend by selecting zero rows and
// reading driver-reported column types. Primary-key membership is not
// recoverable this way and is left false.
type Generic struct{}

// Table implements Introspector.
func (Generic) Table(ctx context.Context, e *engine.Engine, name string) (*Table, error) {
	rows, err := e.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name)+" LIMIT 0")
	if err != nil {
		return nil, &ReflectError{Code: ErrCodeTableNotFound, Table: name, Bind: e.Bind(), Err: err}
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, &ReflectError{Code: ErrCodeIntrospectFailed, Table: name, Bind: e.Bind(), Err: err}
	}

	columns := make([]Column, 0, len(types))
	for _, ct := range types {
		col := Column{
			Name: ct.Name(),
			Type: ct.DatabaseTypeName(),
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		}
		columns = append(columns, col)
	}

	return &Table{Name: name, Bind: e.Bind(), Columns: columns}, nil
}

// quoteIdent double-quotes a SQL identifier, escaping embedded
// quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
