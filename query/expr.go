// Package query defines the filter expression tree used by sessions
// and shard choosers, the predicate extractor that recovers
// (column, operator, value) comparisons from it, and a small compiler
// from a Query to parameterized SQL.
package query

// Op identifies a comparison or boolean operator.
type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"
	OpIn Op = "in"

	OpAnd Op = "and"
	OpOr  Op = "or"
)

// Expr is a node in a filter expression tree.
//
// This is a sealed interface - only types in this package implement
// it. The closed node set keeps traversal an exhaustive type switch:
// Column, Param, Tuple, Comparison, Connective.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Column references a table column. Node identity matters: the
// extractor tracks which *Column pointers it has seen, so reuse the
// same node on both sides of an expression when they mean the same
// column.
type Column struct {
	Table string
	Name  string
}

func (*Column) exprNode() {}

// Col creates a column reference.
func Col(table, name string) *Column {
	return &Column{Table: table, Name: name}
}

// Param is a bound parameter. Resolution order at extraction time:
// the query's parameter map (by Key), then the deferred Callable,
// then the literal Value.
type Param struct {
	Key      string
	Value    any
	Callable func() any
}

func (*Param) exprNode() {}

// Bind creates an anonymous literal parameter.
func Bind(v any) *Param {
	return &Param{Value: v}
}

// NamedBind creates a parameter resolvable through the query's
// parameter map.
func NamedBind(key string, v any) *Param {
	return &Param{Key: key, Value: v}
}

// Deferred creates a parameter whose value is produced lazily at
// extraction or compile time.
func Deferred(key string, fn func() any) *Param {
	return &Param{Key: key, Callable: fn}
}

// Tuple is an ordered clause list, used as the right-hand side of IN
// comparisons.
type Tuple struct {
	Exprs []Expr
}

func (*Tuple) exprNode() {}

// Comparison is a binary comparison between two expressions.
type Comparison struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (*Comparison) exprNode() {}

// Connective is a boolean combination (AND/OR) of child expressions.
// The extractor traverses connectives but never interprets them.
type Connective struct {
	Op    Op
	Exprs []Expr
}

func (*Connective) exprNode() {}

// Eq builds "column = value". Non-Expr values are wrapped as literal
// parameters.
func (c *Column) Eq(v any) *Comparison { return c.cmp(OpEq, v) }

// Ne builds "column <> value".
func (c *Column) Ne(v any) *Comparison { return c.cmp(OpNe, v) }

// Lt builds "column < value".
func (c *Column) Lt(v any) *Comparison { return c.cmp(OpLt, v) }

// Le builds "column <= value".
func (c *Column) Le(v any) *Comparison { return c.cmp(OpLe, v) }

// Gt builds "column > value".
func (c *Column) Gt(v any) *Comparison { return c.cmp(OpGt, v) }

// Ge builds "column >= value".
func (c *Column) Ge(v any) *Comparison { return c.cmp(OpGe, v) }

// In builds "column IN (values...)". Each value becomes a parameter
// node inside a Tuple.
func (c *Column) In(values ...any) *Comparison {
	exprs := make([]Expr, len(values))
	for i, v := range values {
		exprs[i] = asExpr(v)
	}
	return &Comparison{Op: OpIn, Left: c, Right: &Tuple{Exprs: exprs}}
}

func (c *Column) cmp(op Op, v any) *Comparison {
	return &Comparison{Op: op, Left: c, Right: asExpr(v)}
}

// And combines expressions conjunctively.
func And(exprs ...Expr) *Connective {
	return &Connective{Op: OpAnd, Exprs: exprs}
}

// Or combines expressions disjunctively.
func Or(exprs ...Expr) *Connective {
	return &Connective{Op: OpOr, Exprs: exprs}
}

func asExpr(v any) Expr {
	if e, ok := v.(Expr); ok {
		return e
	}
	return Bind(v)
}
