package query

import (
	"fmt"
	"strings"
)

// sqlOps maps comparison operators to their SQL spelling.
var sqlOps = map[Op]string{
	OpEq: "=",
	OpNe: "<>",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// Compile converts a Query to a parameterized SELECT.
// Returns (sql, args, error).
//
// Values are never interpolated into the statement text; every bound
// value becomes a ? placeholder argument. Column order follows the
// query's projection, so output is deterministic.
func Compile(q *Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if q.Table == "" {
		return "", nil, fmt.Errorf("cannot compile query without a table")
	}

	projection := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = quoteIdent(c)
		}
		projection = strings.Join(cols, ", ")
	}

	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, "SELECT %s FROM %s", projection, quoteIdent(q.Table))

	if q.Criterion != nil {
		where, whereArgs, err := compileExpr(q, q.Criterion)
		if err != nil {
			return "", nil, fmt.Errorf("compile criterion: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		args = append(args, whereArgs...)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

// compileExpr compiles one expression tree node to a SQL fragment and
// its placeholder arguments.
func compileExpr(q *Query, e Expr) (string, []any, error) {
	switch node := e.(type) {
	case *Comparison:
		return compileComparison(q, node)
	case *Connective:
		return compileConnective(q, node)
	case *Column:
		return quoteColumn(node), nil, nil
	case *Param:
		return "?", []any{q.resolveParam(node)}, nil
	case *Tuple:
		parts := make([]string, 0, len(node.Exprs))
		var args []any
		for _, member := range node.Exprs {
			sql, memberArgs, err := compileExpr(q, member)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			args = append(args, memberArgs...)
		}
		return "(" + strings.Join(parts, ", ") + ")", args, nil
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func compileComparison(q *Query, cmp *Comparison) (string, []any, error) {
	if cmp.Op == OpIn {
		if tuple, ok := cmp.Right.(*Tuple); ok && len(tuple.Exprs) == 0 {
			return "1 = 0", nil, nil // membership in the empty set
		}
	}

	left, leftArgs, err := compileExpr(q, cmp.Left)
	if err != nil {
		return "", nil, err
	}
	right, rightArgs, err := compileExpr(q, cmp.Right)
	if err != nil {
		return "", nil, err
	}
	args := append(leftArgs, rightArgs...)

	if cmp.Op == OpIn {
		return fmt.Sprintf("%s IN %s", left, right), args, nil
	}
	sqlOp, ok := sqlOps[cmp.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported comparison operator: %s", cmp.Op)
	}
	return fmt.Sprintf("%s %s %s", left, sqlOp, right), args, nil
}

func compileConnective(q *Query, conn *Connective) (string, []any, error) {
	if len(conn.Exprs) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}
	var joiner string
	switch conn.Op {
	case OpAnd:
		joiner = " AND "
	case OpOr:
		joiner = " OR "
	default:
		return "", nil, fmt.Errorf("unsupported connective operator: %s", conn.Op)
	}

	parts := make([]string, 0, len(conn.Exprs))
	var args []any
	for _, child := range conn.Exprs {
		sql, childArgs, err := compileExpr(q, child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, childArgs...)
	}
	return strings.Join(parts, joiner), args, nil
}

func quoteColumn(c *Column) string {
	if c.Table != "" {
		return quoteIdent(c.Table) + "." + quoteIdent(c.Name)
	}
	return quoteIdent(c.Name)
}

// quoteIdent double-quotes a SQL identifier, escaping embedded
// quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
