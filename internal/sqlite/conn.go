package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// row is one result row keyed by column name, holding canonical storage
// values.
type row map[string]any

// openDB opens the single connection a table uses for its lifetime.
func openDB(config types.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// conn returns the open connection or ErrModelClosed.
func (t *Table) conn() (*sql.DB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("%w: %s", types.ErrModelClosed, t.name)
	}
	return t.db, nil
}

// exec runs one statement.
func (t *Table) exec(stmt string) (sql.Result, error) {
	db, err := t.conn()
	if err != nil {
		return nil, err
	}
	t.log.Debug("exec", "sql", stmt)
	res, err := db.Exec(stmt)
	if err != nil {
		return nil, fmt.Errorf("exec on %s: %w", t.name, err)
	}
	return res, nil
}

// query runs one SELECT and reads every row before returning, so the
// connection is free for the next statement.
func (t *Table) query(stmt string) ([]row, error) {
	db, err := t.conn()
	if err != nil {
		return nil, err
	}
	t.log.Debug("query", "sql", stmt)
	rows, err := db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("query on %s: %w", t.name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	var out []row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.name, err)
		}
		r := make(row, len(cols))
		for i, c := range cols {
			r[c] = normalize(vals[i])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", t.name, err)
	}
	return out, nil
}

// normalize maps driver values onto the canonical storage forms: int64 for
// numbers and booleans, string for text.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	case time.Time:
		return x.UnixMilli()
	default:
		return x
	}
}

// rowID returns the id column of r, or 0 when absent.
func rowID(r row) int64 {
	id, _ := r[types.ColumnID].(int64)
	return id
}

// sortByID orders rows by ascending id unless they already are.
func sortByID(rows []row) {
	cmp := func(a, b row) int {
		x, y := rowID(a), rowID(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	if !slices.IsSortedFunc(rows, cmp) {
		slices.SortStableFunc(rows, cmp)
	}
}

// nextStamp returns the current epoch-millisecond time, forced past prev so
// successive writes to one row always advance updated.
func nextStamp(now time.Time, prev int64) int64 {
	ts := now.UnixMilli()
	if ts <= prev {
		ts = prev + 1
	}
	return ts
}
