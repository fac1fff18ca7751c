package types

// Model is the entry point for one table: it creates records, runs lookups
// and builds queries, and owns the table's storage connection.
type Model interface {
	// Name returns the table name.
	Name() string

	// Fields returns the declared fields, without the reserved columns.
	Fields() []Field

	// Field returns the declaration for name, including reserved columns.
	Field(name string) (Field, bool)

	// New returns an unsaved record with every field at its default.
	New() Record

	// Create assigns values to a new record, saves it and returns it.
	Create(values Values) (Record, error)

	// Find returns the record with the given id.
	// Returns ErrNotFound if no row has that id.
	Find(id int64) (Record, error)

	// All returns every row in ascending id order.
	All() (Records, error)

	// Where, First, Last and Limit start a Query.
	Where(criteria Criteria) Query
	First(n int) Query
	Last(n int) Query
	Limit(n int) Query

	// HasMany registers a one-to-many relation: target rows whose
	// rel.ForeignKey equals this record's id.
	HasMany(target Model, rel Relation) error

	// BelongsTo registers a many-to-one relation: the target row whose id
	// equals this record's rel.ForeignKey.
	BelongsTo(target Model, rel Relation) error

	// Close releases the storage connection. Idempotent.
	Close() error
}
