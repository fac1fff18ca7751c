package types

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EnumType is a Type over an ordered list of distinct state names. Values are
// stored as the index of the state and presented as an EnumState.
type EnumType struct {
	states []string
}

// Enum builds an EnumType over the given states.
// Returns ErrDuplicateEnumKey when a state repeats and ErrEmptyEnum when no
// state is given.
func Enum(states ...string) (*EnumType, error) {
	if len(states) == 0 {
		return nil, ErrEmptyEnum
	}
	seen := make(map[string]bool, len(states))
	for _, s := range states {
		if seen[s] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEnumKey, s)
		}
		seen[s] = true
	}
	return &EnumType{states: slices.Clone(states)}, nil
}

// MustEnum is like Enum but panics on error. Intended for package-level
// schema declarations.
func MustEnum(states ...string) *EnumType {
	e, err := Enum(states...)
	if err != nil {
		panic(err)
	}
	return e
}

// States returns a copy of the ordered state names.
func (e *EnumType) States() []string { return slices.Clone(e.states) }

func (e *EnumType) Name() string     { return TypeNameEnum }
func (e *EnumType) SQLType() string  { return "INTEGER" }
func (e *EnumType) Quoted() bool     { return false }
func (e *EnumType) Comparable() bool { return false }

func (e *EnumType) ValidAssignment(v any) bool {
	s, ok := v.(string)
	return ok && slices.Contains(e.states, s)
}

func (e *EnumType) ValidStorage(v any) bool {
	n, ok := v.(int64)
	return ok && n >= 0 && n < int64(len(e.states))
}

func (e *EnumType) Assign(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !e.ValidAssignment(v) {
		return nil, fmt.Errorf("%w: enum expects one of %v, got %v", ErrTypeMismatch, e.states, v)
	}
	return int64(slices.Index(e.states, v.(string))), nil
}

// Output returns an EnumState bound to ref. A null value still yields a
// handle, whose transitions fail.
func (e *EnumType) Output(stored any, ref FieldRef) any {
	if ref.Owner == nil {
		ref.Owner = fixedBinding{value: stored}
	}
	return &EnumState{states: e.states, ref: ref}
}

func (e *EnumType) Format(stored any) string {
	return formatLiteral(stored, false)
}

// FieldRef names one field of one record.
type FieldRef struct {
	Owner Binding
	Field string
}

// Binding is the record surface an EnumState resolves against.
type Binding interface {
	Raw(name string) (any, error)
	Set(name string, value any) error
	Save() error
}

// fixedBinding backs handles produced without an owning record.
type fixedBinding struct {
	value any
}

func (b fixedBinding) Raw(string) (any, error) { return b.value, nil }
func (b fixedBinding) Set(name string, _ any) error {
	return fmt.Errorf("%w: %s is not bound to a record", ErrReadOnlyField, name)
}
func (b fixedBinding) Save() error { return nil }

// EnumState is a handle on one enum field of one record. It holds no copy of
// the value: every call reads the field from the owning record.
type EnumState struct {
	states []string
	ref    FieldRef
}

// index returns the current ordinal, or false when the field is null or
// holds an out-of-range value.
func (s *EnumState) index() (int, bool) {
	raw, err := s.ref.Owner.Raw(s.ref.Field)
	if err != nil || raw == nil {
		return 0, false
	}
	n, ok := raw.(int64)
	if !ok || n < 0 || n >= int64(len(s.states)) {
		return 0, false
	}
	return int(n), true
}

// Value returns the current state name, or "" when unset.
func (s *EnumState) Value() string {
	i, ok := s.index()
	if !ok {
		return ""
	}
	return s.states[i]
}

// IsNull reports whether the field is unset.
func (s *EnumState) IsNull() bool {
	_, ok := s.index()
	return !ok
}

// Is reports whether state is the current value.
func (s *EnumState) Is(state string) bool {
	i, ok := s.index()
	return ok && s.states[i] == state
}

// Flags returns one entry per declared state, true only for the current one.
func (s *EnumState) Flags() map[string]bool {
	i, ok := s.index()
	flags := make(map[string]bool, len(s.states))
	for j, name := range s.states {
		flags[name] = ok && i == j
	}
	return flags
}

// States returns a copy of the ordered state names.
func (s *EnumState) States() []string { return slices.Clone(s.states) }

// Next moves the field to the following state and saves the record when
// save is true.
func (s *EnumState) Next(save bool) error {
	i, ok := s.index()
	if !ok {
		return fmt.Errorf("%w: null %s cannot move to the next state", ErrEnumTransitionBoundary, s.ref.Field)
	}
	if i+1 == len(s.states) {
		return fmt.Errorf("%w: %s is at its ending state %q", ErrEnumTransitionBoundary, s.ref.Field, s.states[i])
	}
	return s.move(s.states[i+1], save)
}

// Previous moves the field to the preceding state and saves the record when
// save is true.
func (s *EnumState) Previous(save bool) error {
	i, ok := s.index()
	if !ok {
		return fmt.Errorf("%w: null %s cannot move to the previous state", ErrEnumTransitionBoundary, s.ref.Field)
	}
	if i == 0 {
		return fmt.Errorf("%w: %s is at its starting state %q", ErrEnumTransitionBoundary, s.ref.Field, s.states[i])
	}
	return s.move(s.states[i-1], save)
}

func (s *EnumState) move(state string, save bool) error {
	if err := s.ref.Owner.Set(s.ref.Field, state); err != nil {
		return err
	}
	if save {
		return s.ref.Owner.Save()
	}
	return nil
}

// String returns the current state name.
func (s *EnumState) String() string { return s.Value() }

// MarshalJSON encodes the state name, or null when unset.
func (s *EnumState) MarshalJSON() ([]byte, error) {
	if s.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value())
}
