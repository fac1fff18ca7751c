package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Type describes how one scalar kind is stored, validated and presented.
//
// Storage values use canonical Go forms: int64 for Integer, Timestamp,
// Boolean and Enum, string for String and Text, and nil for SQL NULL.
type Type interface {
	// Name is the registry name ("integer", "string", ...).
	Name() string

	// SQLType is the column type used in generated DDL.
	SQLType() string

	// Quoted reports whether literals are rendered as quoted strings.
	Quoted() bool

	// Comparable reports whether relational operators apply.
	Comparable() bool

	// ValidAssignment reports whether a user-facing value may be assigned.
	// Nil is handled by callers and never reaches this method.
	ValidAssignment(v any) bool

	// ValidStorage reports whether a canonical storage value is well-formed.
	ValidStorage(v any) bool

	// Assign converts a user-facing value into its storage form.
	// Nil passes through. Returns ErrTypeMismatch on invalid input.
	Assign(v any) (any, error)

	// Output converts a storage value into its user-facing form. The ref
	// identifies the owning record and field; only Enum uses it.
	Output(stored any, ref FieldRef) any

	// Format renders a storage value as a SQL literal.
	Format(stored any) string
}

// Registry type names.
const (
	TypeNameInteger   = "integer"
	TypeNameString    = "string"
	TypeNameText      = "text"
	TypeNameTimestamp = "timestamp"
	TypeNameBoolean   = "boolean"
	TypeNameEnum      = "enum"
)

// maxStringLength bounds String values to their VARCHAR(255) column.
const maxStringLength = 255

// scalar is a Type assembled from per-kind validation and coercion funcs.
type scalar struct {
	name       string
	sqlType    string
	quoted     bool
	comparable bool

	assignable func(v any) bool
	storable   func(v any) bool
	assign     func(v any) any
	output     func(stored any) any
}

func (s *scalar) Name() string               { return s.name }
func (s *scalar) SQLType() string            { return s.sqlType }
func (s *scalar) Quoted() bool               { return s.quoted }
func (s *scalar) Comparable() bool           { return s.comparable }
func (s *scalar) ValidAssignment(v any) bool { return s.assignable(v) }
func (s *scalar) ValidStorage(v any) bool    { return s.storable(v) }
func (s *scalar) String() string             { return s.name }

func (s *scalar) Assign(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !s.assignable(v) {
		return nil, fmt.Errorf("%w: %s cannot hold %T", ErrTypeMismatch, s.name, v)
	}
	return s.assign(v), nil
}

func (s *scalar) Output(stored any, _ FieldRef) any {
	if stored == nil {
		return nil
	}
	return s.output(stored)
}

func (s *scalar) Format(stored any) string {
	return formatLiteral(stored, s.quoted)
}

// Built-in scalar types.
var (
	Integer Type = &scalar{
		name:       TypeNameInteger,
		sqlType:    "INTEGER",
		comparable: true,
		assignable: isInteger,
		storable:   isInt64,
		assign:     func(v any) any { n, _ := toInt64(v); return n },
		output:     func(stored any) any { return stored.(int64) },
	}

	String Type = &scalar{
		name:    TypeNameString,
		sqlType: "VARCHAR(255)",
		quoted:  true,
		assignable: func(v any) bool {
			s, ok := v.(string)
			return ok && utf8.RuneCountInString(s) <= maxStringLength
		},
		storable: isString,
		assign:   identity,
		output:   identity,
	}

	Text Type = &scalar{
		name:       TypeNameText,
		sqlType:    "TEXT",
		quoted:     true,
		assignable: isString,
		storable:   isString,
		assign:     identity,
		output:     identity,
	}

	Timestamp Type = &scalar{
		name:       TypeNameTimestamp,
		sqlType:    "INTEGER",
		comparable: true,
		assignable: func(v any) bool {
			if _, ok := v.(time.Time); ok {
				return true
			}
			return isInteger(v)
		},
		storable: isInt64,
		assign: func(v any) any {
			if t, ok := v.(time.Time); ok {
				return t.UnixMilli()
			}
			n, _ := toInt64(v)
			return n
		},
		output: func(stored any) any { return time.UnixMilli(stored.(int64)) },
	}

	Boolean Type = &scalar{
		name:       TypeNameBoolean,
		sqlType:    "BOOLEAN",
		assignable: func(v any) bool { _, ok := v.(bool); return ok },
		storable: func(v any) bool {
			n, ok := v.(int64)
			return ok && (n == 0 || n == 1)
		},
		assign: func(v any) any {
			if v.(bool) {
				return int64(1)
			}
			return int64(0)
		},
		output: func(stored any) any { return stored.(int64) == 1 },
	}
)

// ParseType resolves a registry name to a Type. States are required for
// "enum" and ignored otherwise.
func ParseType(name string, states ...string) (Type, error) {
	switch strings.ToLower(name) {
	case TypeNameInteger:
		return Integer, nil
	case TypeNameString:
		return String, nil
	case TypeNameText:
		return Text, nil
	case TypeNameTimestamp:
		return Timestamp, nil
	case TypeNameBoolean:
		return Boolean, nil
	case TypeNameEnum:
		e, err := Enum(states...)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTypeName, name)
	}
}

// MismatchError reports an invalid assignment to a named field.
func MismatchError(field string, t Type, v any) error {
	return fmt.Errorf("%w: field %q expects %s, got %T", ErrTypeMismatch, field, t.Name(), v)
}

// formatLiteral renders a storage value as a SQL literal. Quoted literals
// double embedded single quotes.
func formatLiteral(v any, quoted bool) string {
	if v == nil {
		return "NULL"
	}
	if quoted {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(v)
}

func identity(v any) any { return v }

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isInt64(v any) bool {
	_, ok := v.(int64)
	return ok
}

func isInteger(v any) bool {
	_, ok := toInt64(v)
	return ok
}

// toInt64 converts any Go integer kind to int64. Unsigned values beyond
// math.MaxInt64 are rejected.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	default:
		return 0, false
	}
}
