package shard

import "github.com/roach88/bindery/query"

// Assigner maps a shard-key value to the shard holding it.
type Assigner func(value any) ID

// KeyWriteChooser routes writes by the value of the shard-key column
// found on the instance. Rows without the column, and raw statements
// with no instance, go to the default shard.
func KeyWriteChooser(column string, assign Assigner) WriteChooser {
	return func(table string, instance map[string]any, clause string) ID {
		if instance == nil {
			return Default
		}
		v, ok := instance[column]
		if !ok {
			return Default
		}
		return assign(v)
	}
}

// KeyQueryChooser prunes query fan-out using equality and membership
// predicates on the shard-key column.
//
// Each "column = v" comparison contributes assign(v); each
// "column IN (v1..vn)" contributes assign of every member. Leaf
// comparisons are interpreted conjunctively, so any matching
// predicate narrows the fan-out. When the query carries no relevant
// predicate the chooser falls back to all shards.
func KeyQueryChooser(column string, all []ID, assign Assigner) QueryChooser {
	return func(q *query.Query) []ID {
		var ids []ID
		for _, cmp := range query.Comparisons(q) {
			if cmp.Column.Name != column {
				continue
			}
			switch cmp.Op {
			case query.OpEq:
				ids = appendUnique(ids, assign(cmp.Value))
			case query.OpIn:
				values, ok := cmp.Value.([]any)
				if !ok {
					continue
				}
				for _, v := range values {
					ids = appendUnique(ids, assign(v))
				}
			}
		}
		if len(ids) == 0 {
			return all
		}
		return ids
	}
}

// FixedLookupChooser probes the given shards in order for every
// identity lookup.
func FixedLookupChooser(ids ...ID) LookupChooser {
	return func(q *query.Query, ident []any) []ID {
		return ids
	}
}

func appendUnique(ids []ID, id ID) []ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
