package types

import "errors"

// Field and value errors.
var (
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field is read-only")
	ErrInvalidRecord = errors.New("invalid record")
)

// Record lifecycle errors.
var (
	ErrReadOnlyRecord  = errors.New("record is read-only since it has been destroyed")
	ErrIllegalMutation = errors.New("illegal mutation")
	ErrIllegalDestroy  = errors.New("illegal destroy")
	ErrNotPersisted    = errors.New("record has not been persisted")
	ErrNotFound        = errors.New("record not found")
)

// Query errors.
var (
	ErrUncomparableType = errors.New("type does not support comparison")
	ErrUnknownOperator  = errors.New("unknown comparison operator")
	ErrInvalidLimit     = errors.New("limit must be a positive count")
)

// Enum errors.
var (
	ErrDuplicateEnumKey       = errors.New("duplicated enum keys are not allowed")
	ErrEmptyEnum              = errors.New("enum must declare at least one state")
	ErrEnumTransitionBoundary = errors.New("enum state cannot be transitioned")
)

// Schema and model errors.
var (
	ErrInvalidField    = errors.New("invalid field declaration")
	ErrDuplicateField  = errors.New("duplicated field name")
	ErrReservedField   = errors.New("field name is reserved")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrUnknownModel    = errors.New("unknown model")
	ErrModelClosed     = errors.New("model is closed")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrUnknownTypeName = errors.New("unknown type name")
)
