package query

// ColumnComparison is one extracted leaf comparison: a column, the
// operator applied to it, and the resolved bound value. For OpIn,
// Value is a []any holding the resolved tuple members.
type ColumnComparison struct {
	Column *Column
	Op     Op
	Value  any
}

// Comparisons walks the query's criterion tree depth-first and
// returns the simple column-versus-bound-value comparisons found
// anywhere in it.
//
// Bound parameters resolve through the query's parameter map, then a
// deferred callable, then the literal value. A comparison is recorded
// only when exactly one side is a column reference and the other a
// resolved bind; "col IN (binds...)" resolves the tuple to a slice of
// values. Boolean connectives are traversed, never evaluated: the
// result is the flat set of leaf comparisons, which callers interpret
// conjunctively for pruning.
//
// The walk is read-only; the query and its tree are never mutated.
func Comparisons(q *Query) []ColumnComparison {
	if q == nil || q.Criterion == nil {
		return nil
	}

	binds := make(map[*Param]any)
	columns := make(map[*Column]bool)
	var out []ColumnComparison

	var visit func(e Expr)
	visit = func(e Expr) {
		switch node := e.(type) {
		case *Param:
			binds[node] = q.resolveParam(node)
		case *Column:
			columns[node] = true
		case *Tuple:
			for _, child := range node.Exprs {
				visit(child)
			}
		case *Connective:
			for _, child := range node.Exprs {
				visit(child)
			}
		case *Comparison:
			// Children first: leaves must be registered before the
			// comparison itself is examined.
			visit(node.Left)
			visit(node.Right)

			left, leftIsCol := node.Left.(*Column)
			right, rightIsCol := node.Right.(*Column)

			switch {
			case node.Op == OpIn && leftIsCol && columns[left]:
				if tuple, ok := node.Right.(*Tuple); ok {
					values := make([]any, 0, len(tuple.Exprs))
					for _, member := range tuple.Exprs {
						if p, ok := member.(*Param); ok {
							values = append(values, binds[p])
						}
					}
					out = append(out, ColumnComparison{Column: left, Op: OpIn, Value: values})
				}
			case leftIsCol && columns[left]:
				if p, ok := node.Right.(*Param); ok {
					out = append(out, ColumnComparison{Column: left, Op: node.Op, Value: binds[p]})
				}
			case rightIsCol && columns[right]:
				if p, ok := node.Left.(*Param); ok {
					out = append(out, ColumnComparison{Column: right, Op: node.Op, Value: binds[p]})
				}
			}
		}
	}
	visit(q.Criterion)

	return out
}
