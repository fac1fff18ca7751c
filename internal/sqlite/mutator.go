package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// mutator collects writes for Mutate, MutateEach and Records.Mutate. Reads
// see the base row overlaid with pending writes. The first failed write is
// kept so a callback that ignores it still aborts the mutation.
type mutator struct {
	table  *Table
	base   row
	writes row
	err    error
}

func newMutator(t *Table, base row) *mutator {
	return &mutator{table: t, base: base, writes: make(row)}
}

// Get returns the user-facing value of a column. Enum values come back as
// detached handles that cannot transition.
func (m *mutator) Get(name string) (any, error) {
	f, ok := m.table.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, m.table.name)
	}
	v, written := m.writes[name]
	if !written {
		v = m.base[name]
	}
	return f.Type.Output(v, types.FieldRef{}), nil
}

// Set records a validated write.
func (m *mutator) Set(name string, value any) error {
	v, err := m.table.assign(name, value)
	if err != nil {
		if m.err == nil {
			m.err = err
		}
		return err
	}
	m.writes[name] = v
	return nil
}

// merged returns the base overlaid with the writes.
func (m *mutator) merged() row {
	out := make(row, len(m.base)+len(m.writes))
	for k, v := range m.base {
		out[k] = v
	}
	for k, v := range m.writes {
		out[k] = v
	}
	return out
}

// checkWrites rejects writes that null a required field.
func (m *mutator) checkWrites() error {
	for _, f := range m.table.fields {
		v, ok := m.writes[f.Name]
		if ok && v == nil && f.Required {
			return fmt.Errorf("%w: field %q is required", types.ErrInvalidRecord, f.Name)
		}
	}
	return nil
}
