package sqlite

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Query implements types.Query. Each Where call adds one AND-group; groups
// are ORed. The first error in a chain sticks until Clear.
type Query struct {
	table   *Table
	groups  []string
	limit   int // -1 means unlimited
	fromEnd bool
	err     error
}

func newQuery(t *Table) *Query {
	return &Query{table: t, limit: -1}
}

// Where adds one AND-group built from criteria. An empty criteria map adds
// nothing.
func (q *Query) Where(criteria types.Criteria) types.Query {
	if q.err != nil {
		return q
	}
	group, err := q.group(criteria)
	if err != nil {
		q.err = err
		return q
	}
	if group != "" {
		q.groups = append(q.groups, group)
	}
	return q
}

// Limit takes the first n rows.
func (q *Query) Limit(n int) types.Query { return q.take(n, false) }

// First takes the n lowest ids.
func (q *Query) First(n int) types.Query { return q.take(n, false) }

// Last takes the n highest ids.
func (q *Query) Last(n int) types.Query { return q.take(n, true) }

func (q *Query) take(n int, fromEnd bool) types.Query {
	if q.err != nil {
		return q
	}
	if n <= 0 {
		q.err = fmt.Errorf("%w: got %d", types.ErrInvalidLimit, n)
		return q
	}
	q.limit = n
	q.fromEnd = fromEnd
	return q
}

// Clear resets the groups, the limit and any recorded error.
func (q *Query) Clear() types.Query {
	q.groups = nil
	q.limit = -1
	q.fromEnd = false
	q.err = nil
	return q
}

// Err returns the first error recorded by the chain.
func (q *Query) Err() error { return q.err }

// SQL returns the SELECT statement the query resolves to.
func (q *Query) SQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	var where string
	if len(q.groups) > 0 {
		parts := make([]string, len(q.groups))
		for i, g := range q.groups {
			parts[i] = "(" + g + ")"
		}
		where = strings.Join(parts, " OR ")
	}
	return selectSQL(q.table.name, where, q.limit, q.fromEnd), nil
}

// Evaluate runs the query and returns the rows in ascending id order.
func (q *Query) Evaluate() (types.Records, error) {
	stmt, err := q.SQL()
	if err != nil {
		return nil, err
	}
	rows, err := q.table.query(stmt)
	if err != nil {
		return nil, err
	}
	if q.fromEnd && q.limit > 0 {
		slices.Reverse(rows)
	}
	sortByID(rows)
	return newRecords(q.table, rows), nil
}

// group renders one criteria map as ANDed conditions, fields in name order.
func (q *Query) group(criteria types.Criteria) (string, error) {
	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	var exprs []string
	for _, name := range names {
		f, ok := q.table.Field(name)
		if !ok {
			return "", fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, q.table.name)
		}
		conds, err := conditions(f, criteria[name])
		if err != nil {
			return "", err
		}
		exprs = append(exprs, conds...)
	}
	return strings.Join(exprs, " AND "), nil
}

// conditions renders the SQL conditions for one field. A Cmp (or a plain
// map keyed by operator names) yields one condition per operator; any other
// value yields an equality test.
func conditions(f types.Field, value any) ([]string, error) {
	cmp, isCmp := asCmp(value)
	if !isCmp {
		if value == nil {
			return []string{f.Name + " IS NULL"}, nil
		}
		lit, err := literal(f, value)
		if err != nil {
			return nil, err
		}
		return []string{f.Name + " = " + lit}, nil
	}

	if !f.Type.Comparable() {
		return nil, fmt.Errorf("%w: field %q is %s", types.ErrUncomparableType, f.Name, f.Type.Name())
	}
	if len(cmp) == 0 {
		return nil, fmt.Errorf("%w: empty comparison on field %q", types.ErrUnknownOperator, f.Name)
	}
	for op := range cmp {
		if _, ok := op.SQL(); !ok {
			return nil, fmt.Errorf("%w: %q on field %q", types.ErrUnknownOperator, op, f.Name)
		}
	}
	var conds []string
	for _, op := range types.Operators {
		v, ok := cmp[op]
		if !ok {
			continue
		}
		if v == nil {
			return nil, types.MismatchError(f.Name, f.Type, v)
		}
		lit, err := literal(f, v)
		if err != nil {
			return nil, err
		}
		sqlOp, _ := op.SQL()
		conds = append(conds, f.Name+" "+sqlOp+" "+lit)
	}
	return conds, nil
}

func asCmp(value any) (types.Cmp, bool) {
	switch v := value.(type) {
	case types.Cmp:
		return v, true
	case map[types.Op]any:
		return types.Cmp(v), true
	case map[string]any:
		cmp := make(types.Cmp, len(v))
		for k, x := range v {
			cmp[types.Op(k)] = x
		}
		return cmp, true
	}
	return nil, false
}

// literal validates a filter value against the field type and renders it.
func literal(f types.Field, value any) (string, error) {
	if !f.Type.ValidAssignment(value) {
		return "", types.MismatchError(f.Name, f.Type, value)
	}
	stored, err := f.Type.Assign(value)
	if err != nil {
		return "", err
	}
	return f.Type.Format(stored), nil
}
