// Package sqlite implements the Strata models on SQLite.
//
// Each Table owns one connection, opened when the table is constructed and
// released by Close. Records, Records collections and Queries derived from a
// Table issue their statements on that connection, one statement per
// operation, with values rendered as SQL literals.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jinzhu/inflection"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// accessorKind tells Record.Get how to resolve a name.
type accessorKind int

const (
	accessorField accessorKind = iota
	accessorHasMany
	accessorBelongsTo
)

// accessor is one entry of a table's dispatch table.
type accessor struct {
	kind   accessorKind
	field  types.Field // accessorField
	target types.Model // relations
	fk     string      // relations
}

// Status names resolved by Record.Get before the dispatch table.
const (
	statusSaved     = "saved"
	statusPersisted = "persisted"
	statusDestroyed = "destroyed"
	statusValid     = "valid"
)

func isStatusName(name string) bool {
	switch name {
	case statusSaved, statusPersisted, statusDestroyed, statusValid:
		return true
	}
	return false
}

// Table implements types.Model for one SQLite table.
type Table struct {
	mu     sync.Mutex
	closed bool
	db     *sql.DB
	log    *slog.Logger

	name     string
	fields   []types.Field       // declared fields, in order
	columns  []types.Field       // id, declared fields, created, updated
	dispatch map[string]accessor // fields, reserved columns and relations

	now func() time.Time
}

// NewTable opens a connection for config, creates the table if it does not
// exist, and returns the model.
// Returns ErrInvalidField, ErrReservedField, ErrDuplicateField or
// ErrTypeMismatch for a bad field list.
func NewTable(config types.Config, name string, fields ...types.Field) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !types.ValidIdentifier(name) {
		return nil, fmt.Errorf("%w: table name %q", types.ErrInvalidField, name)
	}
	if err := types.ValidateFields(fields); err != nil {
		return nil, err
	}

	t := &Table{
		log:      config.Log().With("table", name),
		name:     name,
		fields:   slices.Clone(fields),
		dispatch: make(map[string]accessor, len(fields)+3),
		now:      time.Now,
	}
	reserved := types.ReservedFields()
	t.columns = append(t.columns, reserved[0])
	t.columns = append(t.columns, t.fields...)
	t.columns = append(t.columns, reserved[1:]...)
	for _, f := range t.columns {
		t.dispatch[f.Name] = accessor{kind: accessorField, field: f}
	}

	db, err := openDB(config)
	if err != nil {
		return nil, err
	}
	t.db = db
	if _, err := t.exec(createTableSQL(name, t.fields)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	t.log.Info("table opened", "fields", len(t.fields))
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Fields returns the declared fields.
func (t *Table) Fields() []types.Field { return slices.Clone(t.fields) }

// Field returns the declaration of a declared or reserved column.
func (t *Table) Field(name string) (types.Field, bool) {
	a, ok := t.dispatch[name]
	if !ok || a.kind != accessorField {
		return types.Field{}, false
	}
	return a.field, true
}

// Close releases the connection. Idempotent.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.db.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.name, err)
	}
	t.log.Info("table closed")
	return nil
}

// New returns an unsaved record with every field at its default.
func (t *Table) New() types.Record {
	values := make(map[string]any, len(t.columns))
	for _, f := range t.columns {
		values[f.Name] = nil
	}
	for _, f := range t.fields {
		if f.Default != nil {
			// Defaults were validated by NewTable.
			v, _ := f.Type.Assign(f.Default)
			values[f.Name] = v
		}
	}
	return newRecord(t, values, recordNew)
}

// Create assigns values to a new record and saves it.
func (t *Table) Create(values types.Values) (types.Record, error) {
	for name := range values {
		if types.IsReserved(name) {
			return nil, fmt.Errorf("%w: %q", types.ErrReadOnlyField, name)
		}
		if a, ok := t.dispatch[name]; !ok || a.kind != accessorField {
			return nil, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, t.name)
		}
	}
	r := t.New()
	for _, f := range t.fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := r.Set(f.Name, v); err != nil {
			return nil, err
		}
	}
	if err := r.Save(); err != nil {
		return nil, err
	}
	return r, nil
}

// Find returns the record with the given id.
func (t *Table) Find(id int64) (types.Record, error) {
	rows, err := t.query(selectSQL(t.name, fmt.Sprintf("id = %d", id), 0, false))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s id %d", types.ErrNotFound, t.name, id)
	}
	return newRecord(t, rows[0], recordSaved), nil
}

// All returns every row in ascending id order.
func (t *Table) All() (types.Records, error) {
	rows, err := t.query(selectSQL(t.name, "", 0, false))
	if err != nil {
		return nil, err
	}
	sortByID(rows)
	return newRecords(t, rows), nil
}

// Where starts a query with one AND-group.
func (t *Table) Where(criteria types.Criteria) types.Query {
	return newQuery(t).Where(criteria)
}

// First starts a query limited to the n lowest ids.
func (t *Table) First(n int) types.Query { return newQuery(t).First(n) }

// Last starts a query limited to the n highest ids.
func (t *Table) Last(n int) types.Query { return newQuery(t).Last(n) }

// Limit starts a query limited to n rows.
func (t *Table) Limit(n int) types.Query { return newQuery(t).Limit(n) }

// HasMany registers a one-to-many relation. The foreign key must be an
// integer column of target. rel.Name defaults to the target table name.
func (t *Table) HasMany(target types.Model, rel types.Relation) error {
	if target == nil {
		return fmt.Errorf("%w: nil target", types.ErrUnknownRelation)
	}
	f, ok := target.Field(rel.ForeignKey)
	if !ok || f.Type != types.Integer || types.IsReserved(rel.ForeignKey) {
		return fmt.Errorf("%w: %s has no integer foreign key %q", types.ErrUnknownRelation, target.Name(), rel.ForeignKey)
	}
	name := rel.Name
	if name == "" {
		name = target.Name()
	}
	return t.addRelation(name, accessor{kind: accessorHasMany, target: target, fk: rel.ForeignKey})
}

// BelongsTo registers a many-to-one relation. The foreign key must be an
// integer column of this table. rel.Name defaults to the singular of the
// target table name.
func (t *Table) BelongsTo(target types.Model, rel types.Relation) error {
	if target == nil {
		return fmt.Errorf("%w: nil target", types.ErrUnknownRelation)
	}
	f, ok := t.Field(rel.ForeignKey)
	if !ok || f.Type != types.Integer || types.IsReserved(rel.ForeignKey) {
		return fmt.Errorf("%w: %s has no integer foreign key %q", types.ErrUnknownRelation, t.name, rel.ForeignKey)
	}
	name := rel.Name
	if name == "" {
		name = inflection.Singular(target.Name())
	}
	return t.addRelation(name, accessor{kind: accessorBelongsTo, target: target, fk: rel.ForeignKey})
}

func (t *Table) addRelation(name string, a accessor) error {
	if !types.ValidIdentifier(name) {
		return fmt.Errorf("%w: relation name %q", types.ErrInvalidField, name)
	}
	if _, taken := t.dispatch[name]; taken || isStatusName(name) {
		return fmt.Errorf("%w: relation %q on %s", types.ErrDuplicateField, name, t.name)
	}
	t.dispatch[name] = a
	return nil
}

// stamp returns the next timestamp for a row last updated at prev.
func (t *Table) stamp(prev int64) int64 {
	return nextStamp(t.now(), prev)
}

// validate reports the first field of values that is required-but-null or
// fails its storage check.
func (t *Table) validate(values map[string]any) error {
	for _, f := range t.fields {
		v := values[f.Name]
		if v == nil {
			if f.Required {
				return fmt.Errorf("%w: field %q is required", types.ErrInvalidRecord, f.Name)
			}
			continue
		}
		if !f.Type.ValidStorage(v) {
			return fmt.Errorf("%w: field %q holds a malformed %s value", types.ErrInvalidRecord, f.Name, f.Type.Name())
		}
	}
	return nil
}

// assign validates a user write to a declared, writable field and returns
// the storage value.
func (t *Table) assign(name string, value any) (any, error) {
	if types.IsReserved(name) {
		return nil, fmt.Errorf("%w: %q", types.ErrReadOnlyField, name)
	}
	a, ok := t.dispatch[name]
	if !ok || a.kind != accessorField {
		return nil, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, t.name)
	}
	if value == nil {
		return nil, nil
	}
	if !a.field.Type.ValidAssignment(value) {
		return nil, types.MismatchError(name, a.field.Type, value)
	}
	return a.field.Type.Assign(value)
}
