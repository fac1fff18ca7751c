// Package types defines the Model, Record, Records and Query interfaces, the
// scalar type registry, field declarations, and the standard errors for the
// Strata object-relational layer.
//
// Backends implement the interfaces; callers declare fields with the
// registered types and work through Model values.
package types
