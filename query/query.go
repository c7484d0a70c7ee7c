package query

// Query is a read query against one logical table: a projection, a
// criterion tree, an explicit parameter map, and a row limit.
//
// Queries are plain data. The extractor and compiler read them
// without mutation, so one Query can be routed and executed against
// several shards concurrently.
type Query struct {
	Table     string
	Columns   []string
	Criterion Expr
	Params    map[string]any
	Limit     int
}

// New creates a query for table selecting the given columns (all
// columns when none are named).
func New(table string, columns ...string) *Query {
	return &Query{Table: table, Columns: columns}
}

// Where adds a criterion; successive calls are ANDed together.
func (q *Query) Where(e Expr) *Query {
	switch {
	case q.Criterion == nil:
		q.Criterion = e
	default:
		q.Criterion = And(q.Criterion, e)
	}
	return q
}

// WithParam sets an explicit parameter value, overriding the literal
// or deferred value of any NamedBind with the same key.
func (q *Query) WithParam(key string, v any) *Query {
	if q.Params == nil {
		q.Params = make(map[string]any)
	}
	q.Params[key] = v
	return q
}

// WithLimit caps the number of rows returned per shard.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// resolveParam produces the effective value of a bound parameter:
// explicit parameter map first, then the deferred callable, then the
// literal value.
func (q *Query) resolveParam(p *Param) any {
	if p.Key != "" && q.Params != nil {
		if v, ok := q.Params[p.Key]; ok {
			return v
		}
	}
	if p.Callable != nil {
		return p.Callable()
	}
	return p.Value
}
