package types

import "fmt"

// Reserved column names, implicitly appended to every model.
const (
	ColumnID      = "id"
	ColumnCreated = "created"
	ColumnUpdated = "updated"
)

// Field declares one column of a model.
type Field struct {
	Name     string
	Type     Type
	Required bool
	Unique   bool
	Default  any
}

// Relation declares a has-many or belongs-to association. Name is the
// accessor name on the record; ForeignKey is the integer column holding the
// parent id.
type Relation struct {
	Name       string
	ForeignKey string
}

// Values maps field names to user-facing values.
type Values map[string]any

// IsReserved reports whether name is one of id, created or updated.
func IsReserved(name string) bool {
	return name == ColumnID || name == ColumnCreated || name == ColumnUpdated
}

// ReservedFields returns the implicit columns in the order they appear in
// the table.
func ReservedFields() []Field {
	return []Field{
		{Name: ColumnID, Type: Integer},
		{Name: ColumnCreated, Type: Timestamp, Required: true},
		{Name: ColumnUpdated, Type: Timestamp, Required: true},
	}
}

// ValidateFields checks a field list for empty or unsafe names, missing
// types, reserved or duplicated names, and defaults that fail their type.
func ValidateFields(fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Type == nil || !ValidIdentifier(f.Name) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f.Name)
		}
		if IsReserved(f.Name) {
			return fmt.Errorf("%w: %q", ErrReservedField, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true
		if f.Default != nil && !f.Type.ValidAssignment(f.Default) {
			return MismatchError(f.Name, f.Type, f.Default)
		}
	}
	return nil
}

// ValidIdentifier reports whether name is safe to interpolate into SQL as a
// table or column name: a letter or underscore followed by letters, digits
// or underscores.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
