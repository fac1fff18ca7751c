package sqlite

import (
	"fmt"
	"iter"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Records implements types.Records over raw result rows. Record handles are
// built on first access and cached; each handle shares its row with the
// collection so batch writes show through.
type Records struct {
	table     *Table
	rows      []row
	handles   []*Record
	destroyed bool
}

func newRecords(t *Table, rows []row) *Records {
	return &Records{table: t, rows: rows, handles: make([]*Record, len(rows))}
}

func (rs *Records) Len() int        { return len(rs.rows) }
func (rs *Records) Destroyed() bool { return rs.destroyed }

// At returns the record at index i. It panics if i is out of range.
func (rs *Records) At(i int) types.Record {
	if rs.handles[i] == nil {
		rec := newRecord(rs.table, rs.rows[i], recordSaved)
		rec.isDestroyed = rs.destroyed
		rs.handles[i] = rec
	}
	return rs.handles[i]
}

// All iterates over the records in order.
func (rs *Records) All() iter.Seq2[int, types.Record] {
	return func(yield func(int, types.Record) bool) {
		for i := range rs.rows {
			if !yield(i, rs.At(i)) {
				return
			}
		}
	}
}

// IDs returns the row ids in order.
func (rs *Records) IDs() []int64 {
	ids := make([]int64, len(rs.rows))
	for i, r := range rs.rows {
		ids[i] = rowID(r)
	}
	return ids
}

// Destroy deletes every row with one statement and marks the collection
// and every member destroyed.
func (rs *Records) Destroy() error {
	if rs.destroyed {
		return fmt.Errorf("%w: %s records are already destroyed", types.ErrIllegalDestroy, rs.table.name)
	}
	if len(rs.rows) > 0 {
		if _, err := rs.table.exec(batchDeleteSQL(rs.table.name, rs.IDs())); err != nil {
			return err
		}
	}
	rs.destroyed = true
	for _, h := range rs.handles {
		if h != nil {
			h.isDestroyed = true
		}
	}
	return nil
}

// Mutate collects one set of writes from fn and applies it to every row with
// one statement and one shared updated stamp. Members destroyed through their
// own handle are left out.
func (rs *Records) Mutate(fn func(s types.Setter) error) error {
	t := rs.table
	if rs.destroyed {
		return fmt.Errorf("%w: %s records are destroyed", types.ErrIllegalMutation, t.name)
	}
	m := newMutator(t, nil)
	if err := fn(m); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	if err := m.checkWrites(); err != nil {
		return err
	}
	rows := rs.live()
	if len(m.writes) == 0 || len(rows) == 0 {
		return nil
	}

	var prev int64
	ids := make([]int64, len(rows))
	for i, r := range rows {
		if ms, _ := r[types.ColumnUpdated].(int64); ms > prev {
			prev = ms
		}
		ids[i] = rowID(r)
	}
	ts := t.stamp(prev)
	if _, err := t.exec(batchUpdateSQL(t.name, assignments(t.fields, m.writes), ts, ids)); err != nil {
		return err
	}
	for _, r := range rows {
		for k, v := range m.writes {
			r[k] = v
		}
		r[types.ColumnUpdated] = ts
	}
	return nil
}

// live returns the rows whose handle has not been destroyed on its own.
func (rs *Records) live() []row {
	rows := make([]row, 0, len(rs.rows))
	for i, r := range rs.rows {
		if h := rs.handles[i]; h != nil && h.isDestroyed {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// MutateEach applies fn to every row independently. Rows fn does not write
// are skipped; each written row gets its own UPDATE and stamp. The first
// failing row stops the walk; rows before it stay written.
func (rs *Records) MutateEach(fn func(m types.Mutator) error) error {
	t := rs.table
	if rs.destroyed {
		return fmt.Errorf("%w: %s records are destroyed", types.ErrIllegalMutation, t.name)
	}
	for _, r := range rs.live() {
		m := newMutator(t, r)
		if err := fn(m); err != nil {
			return fmt.Errorf("%s id %d: %w", t.name, rowID(r), err)
		}
		if m.err != nil {
			return fmt.Errorf("%s id %d: %w", t.name, rowID(r), m.err)
		}
		if len(m.writes) == 0 {
			continue
		}
		if err := t.validate(m.merged()); err != nil {
			return fmt.Errorf("%s id %d: %w", t.name, rowID(r), err)
		}
		prev, _ := r[types.ColumnUpdated].(int64)
		ts := t.stamp(prev)
		if _, err := t.exec(updateSQL(t.name, assignments(t.fields, m.writes), ts, rowID(r))); err != nil {
			return err
		}
		for k, v := range m.writes {
			r[k] = v
		}
		r[types.ColumnUpdated] = ts
	}
	return nil
}
