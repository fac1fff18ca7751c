package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// recordState selects the initial flags of a Record.
type recordState int

const (
	recordNew recordState = iota
	recordSaved
)

// Record implements types.Record. Its values hold canonical storage forms
// for every column, including id, created and updated.
type Record struct {
	table  *Table
	values row

	isNew       bool
	isSaved     bool
	isDestroyed bool
}

func newRecord(t *Table, values row, state recordState) *Record {
	return &Record{
		table:   t,
		values:  values,
		isNew:   state == recordNew,
		isSaved: state == recordSaved,
	}
}

// ID returns the row id, or 0 before the first Save.
func (r *Record) ID() int64 {
	id, _ := r.values[types.ColumnID].(int64)
	return id
}

// Created returns the insert time, or the zero time before the first Save.
func (r *Record) Created() time.Time { return r.stampAt(types.ColumnCreated) }

// Updated returns the time of the last write to storage.
func (r *Record) Updated() time.Time { return r.stampAt(types.ColumnUpdated) }

func (r *Record) stampAt(col string) time.Time {
	ms, ok := r.values[col].(int64)
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (r *Record) updatedMS() int64 {
	ms, _ := r.values[types.ColumnUpdated].(int64)
	return ms
}

func (r *Record) Saved() bool     { return r.isSaved }
func (r *Record) Persisted() bool { return !r.isNew }
func (r *Record) Destroyed() bool { return r.isDestroyed }

// Valid reports whether every required field is set and every set field
// holds a well-formed storage value.
func (r *Record) Valid() bool {
	return r.table.validate(r.values) == nil
}

// Get resolves name through the status flags, the relations and the
// columns, in that order.
func (r *Record) Get(name string) (any, error) {
	switch name {
	case statusSaved:
		return r.Saved(), nil
	case statusPersisted:
		return r.Persisted(), nil
	case statusDestroyed:
		return r.Destroyed(), nil
	case statusValid:
		return r.Valid(), nil
	}

	a, ok := r.table.dispatch[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, r.table.name)
	}
	switch a.kind {
	case accessorHasMany:
		return r.Many(name)
	case accessorBelongsTo:
		parent, err := r.One(name)
		if err != nil || parent == nil {
			return nil, err
		}
		return parent, nil
	default:
		return r.output(a.field), nil
	}
}

func (r *Record) output(f types.Field) any {
	return f.Type.Output(r.values[f.Name], types.FieldRef{Owner: r, Field: f.Name})
}

// column returns the declaration of a declared or reserved column.
func (r *Record) column(name string) (types.Field, error) {
	f, ok := r.table.Field(name)
	if !ok {
		return types.Field{}, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, r.table.name)
	}
	return f, nil
}

// Raw returns the storage value of a column.
func (r *Record) Raw(name string) (any, error) {
	if _, err := r.column(name); err != nil {
		return nil, err
	}
	return r.values[name], nil
}

// IsNull reports whether a column is unset.
func (r *Record) IsNull(name string) (bool, error) {
	v, err := r.Raw(name)
	return v == nil, err
}

func (r *Record) GetString(name string) (string, error)         { return outputAs[string](r, name) }
func (r *Record) GetInt(name string) (int64, error)             { return outputAs[int64](r, name) }
func (r *Record) GetBool(name string) (bool, error)             { return outputAs[bool](r, name) }
func (r *Record) GetTime(name string) (time.Time, error)        { return outputAs[time.Time](r, name) }
func (r *Record) GetEnum(name string) (*types.EnumState, error) { return outputAs[*types.EnumState](r, name) }

// outputAs returns the user-facing value of a column as T. A null column
// yields the zero T.
func outputAs[T any](r *Record, name string) (T, error) {
	var zero T
	f, err := r.column(name)
	if err != nil {
		return zero, err
	}
	v := r.output(f)
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: field %q is %s, read as %T", types.ErrTypeMismatch, name, f.Type.Name(), zero)
	}
	return out, nil
}

// Many follows a has-many relation.
// Returns ErrNotPersisted when the record has no id yet.
func (r *Record) Many(relation string) (types.Query, error) {
	a, ok := r.table.dispatch[relation]
	if !ok || a.kind != accessorHasMany {
		return nil, fmt.Errorf("%w: %q is not a has-many relation of %s", types.ErrUnknownRelation, relation, r.table.name)
	}
	if r.isNew {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrNotPersisted, r.table.name, relation)
	}
	return a.target.Where(types.Criteria{a.fk: r.ID()}), nil
}

// One follows a belongs-to relation. A null foreign key yields nil.
func (r *Record) One(relation string) (types.Record, error) {
	a, ok := r.table.dispatch[relation]
	if !ok || a.kind != accessorBelongsTo {
		return nil, fmt.Errorf("%w: %q is not a belongs-to relation of %s", types.ErrUnknownRelation, relation, r.table.name)
	}
	id, ok := r.values[a.fk].(int64)
	if !ok {
		return nil, nil
	}
	return a.target.Find(id)
}

// Values returns the user-facing value of every column.
func (r *Record) Values() types.Values {
	out := make(types.Values, len(r.table.columns))
	for _, f := range r.table.columns {
		out[f.Name] = r.output(f)
	}
	return out
}

// Set assigns a declared field and marks the record dirty.
// Returns ErrReadOnlyRecord, ErrReadOnlyField, ErrUnknownField or
// ErrTypeMismatch without changing the record.
func (r *Record) Set(name string, value any) error {
	if r.isDestroyed {
		return fmt.Errorf("%w: cannot set %q", types.ErrReadOnlyRecord, name)
	}
	v, err := r.table.assign(name, value)
	if err != nil {
		return err
	}
	r.values[name] = v
	r.isSaved = false
	return nil
}

// Save inserts a new record or updates a persisted one.
// Returns ErrInvalidRecord without touching storage when validation fails.
func (r *Record) Save() error {
	t := r.table
	if r.isDestroyed {
		return fmt.Errorf("%w: cannot save %s id %d", types.ErrReadOnlyRecord, t.name, r.ID())
	}
	if err := t.validate(r.values); err != nil {
		return err
	}

	if r.isNew {
		ts := t.stamp(0)
		res, err := t.exec(insertSQL(t.name, t.fields, r.values, ts))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading %s id: %w", t.name, err)
		}
		r.values[types.ColumnID] = id
		r.values[types.ColumnCreated] = ts
		r.values[types.ColumnUpdated] = ts
		r.isNew = false
		r.isSaved = true
		return nil
	}

	ts := t.stamp(r.updatedMS())
	if _, err := t.exec(updateSQL(t.name, assignments(t.fields, r.values), ts, r.ID())); err != nil {
		return err
	}
	r.values[types.ColumnUpdated] = ts
	r.isSaved = true
	return nil
}

// Mutate runs fn against a copy of the fields and persists the result in one
// UPDATE. The record must be persisted, clean and not destroyed.
func (r *Record) Mutate(fn func(m types.Mutator) error) error {
	t := r.table
	switch {
	case r.isNew:
		return fmt.Errorf("%w: %s record was never saved", types.ErrIllegalMutation, t.name)
	case r.isDestroyed:
		return fmt.Errorf("%w: %s id %d is destroyed", types.ErrIllegalMutation, t.name, r.ID())
	case !r.isSaved:
		return fmt.Errorf("%w: %s id %d has unsaved changes", types.ErrIllegalMutation, t.name, r.ID())
	}

	m := newMutator(t, r.values)
	if err := fn(m); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	merged := m.merged()
	if err := t.validate(merged); err != nil {
		return err
	}

	ts := t.stamp(r.updatedMS())
	if _, err := t.exec(updateSQL(t.name, assignments(t.fields, merged), ts, r.ID())); err != nil {
		return err
	}
	for k, v := range m.writes {
		r.values[k] = v
	}
	r.values[types.ColumnUpdated] = ts
	return nil
}

// Destroy deletes the row. The record must be persisted, clean and not
// already destroyed.
func (r *Record) Destroy() error {
	t := r.table
	switch {
	case r.isNew:
		return fmt.Errorf("%w: %s record was never saved", types.ErrIllegalDestroy, t.name)
	case r.isDestroyed:
		return fmt.Errorf("%w: %s id %d is already destroyed", types.ErrIllegalDestroy, t.name, r.ID())
	case !r.isSaved:
		return fmt.Errorf("%w: %s id %d has unsaved changes", types.ErrIllegalDestroy, t.name, r.ID())
	}
	if _, err := t.exec(deleteSQL(t.name, r.ID())); err != nil {
		return err
	}
	r.isDestroyed = true
	return nil
}
