package sqlite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// DML generation. Values are rendered as literals through each field's
// Type.Format, in declared field order.

// assignments renders col=literal for every field present in values.
func assignments(fields []types.Field, values map[string]any) []string {
	sets := make([]string, 0, len(values))
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		sets = append(sets, f.Name+"="+f.Type.Format(v))
	}
	return sets
}

func insertSQL(table string, fields []types.Field, values map[string]any, ts int64) string {
	cols := make([]string, 0, len(fields)+2)
	vals := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		cols = append(cols, f.Name)
		vals = append(vals, f.Type.Format(values[f.Name]))
	}
	stamp := strconv.FormatInt(ts, 10)
	cols = append(cols, types.ColumnCreated, types.ColumnUpdated)
	vals = append(vals, stamp, stamp)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(vals, ", "))
}

func updateSQL(table string, sets []string, ts, id int64) string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = %d", table, setList(sets, ts), id)
}

func batchUpdateSQL(table string, sets []string, ts int64, ids []int64) string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE id IN (%s)", table, setList(sets, ts), idList(ids))
}

func deleteSQL(table string, id int64) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %d", table, id)
}

func batchDeleteSQL(table string, ids []int64) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, idList(ids))
}

// selectSQL renders a SELECT over table. A limit below 1 means unlimited;
// fromEnd takes the limit from the highest ids.
func selectSQL(table, where string, limit int, fromEnd bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if limit > 0 {
		if fromEnd {
			sb.WriteString(" ORDER BY id DESC")
		}
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
	return sb.String()
}

func setList(sets []string, ts int64) string {
	all := make([]string, 0, len(sets)+1)
	all = append(all, sets...)
	all = append(all, types.ColumnUpdated+"="+strconv.FormatInt(ts, 10))
	return strings.Join(all, ", ")
}

func idList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
