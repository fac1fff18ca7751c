package types

import (
	"iter"
	"time"
)

// Record is a handle on one persisted or pending row.
//
// A Record is New until its first Save, Saved while memory matches storage,
// Dirty after any field write, and Destroyed after Destroy. Records are not
// safe for concurrent use.
type Record interface {
	Binding

	// ID returns the row id, or 0 before the first Save.
	ID() int64
	Created() time.Time
	Updated() time.Time

	// Status flags.
	Saved() bool
	Persisted() bool
	Destroyed() bool
	Valid() bool

	// Get resolves name through status flags, relations and fields, in
	// that order. Returns ErrUnknownField for anything else.
	Get(name string) (any, error)

	// Typed field accessors. A null field yields the zero value.
	GetString(name string) (string, error)
	GetInt(name string) (int64, error)
	GetBool(name string) (bool, error)
	GetTime(name string) (time.Time, error)
	GetEnum(name string) (*EnumState, error)
	IsNull(name string) (bool, error)

	// Many follows a has-many relation. One follows a belongs-to relation
	// and returns nil when the foreign key is null.
	Many(relation string) (Query, error)
	One(relation string) (Record, error)

	// Values returns the user-facing value of every column.
	Values() Values

	// Save inserts a new record or updates a persisted one.
	Save() error

	// Mutate applies fn to a clean saved record and persists the result in
	// one statement. Nothing changes if fn or validation fails.
	Mutate(fn func(m Mutator) error) error

	// Destroy deletes the row of a clean saved record.
	Destroy() error
}

// Records is an ordered collection of rows sharing one destroyed flag.
type Records interface {
	Len() int

	// At returns the record at index i, building it on first access.
	// It panics if i is out of range.
	At(i int) Record

	// All iterates over the records in order.
	All() iter.Seq2[int, Record]

	IDs() []int64
	Destroyed() bool

	// Destroy deletes every row in one statement.
	Destroy() error

	// Mutate applies one set of writes to every row in one statement.
	Mutate(fn func(s Setter) error) error

	// MutateEach applies fn to each row independently; rows fn leaves
	// untouched are not written.
	MutateEach(fn func(m Mutator) error) error
}

// Query accumulates filters and limits and resolves them into Records.
// Where calls are ORed; the criteria within one call are ANDed.
type Query interface {
	Where(criteria Criteria) Query
	Limit(n int) Query
	First(n int) Query
	Last(n int) Query

	// Clear resets every filter, the limit and any recorded error.
	Clear() Query

	// Err returns the first error recorded by the chain.
	Err() error

	// SQL returns the SELECT statement the query resolves to.
	SQL() (string, error)

	// Evaluate runs the query. Results are always in ascending id order.
	Evaluate() (Records, error)
}

// Setter is the write-only view used by Records.Mutate.
type Setter interface {
	Set(name string, value any) error
}

// Mutator is the view passed to Record.Mutate and Records.MutateEach. The
// reserved columns are readable but not writable.
type Mutator interface {
	Setter
	Get(name string) (any, error)
}
