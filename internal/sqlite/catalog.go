package sqlite

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Catalog is a named set of tables opened together, usually from one schema
// file. Closing the catalog closes every table in it.
type Catalog struct {
	mu     sync.RWMutex
	closed bool
	tables map[string]*Table
	order  []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Add registers t under its table name.
// Returns ErrDuplicateField when the name is taken and ErrModelClosed after
// Close.
func (c *Catalog) Add(t *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return types.ErrModelClosed
	}
	if _, ok := c.tables[t.name]; ok {
		return fmt.Errorf("%w: table %q already in catalog", types.ErrDuplicateField, t.name)
	}
	c.tables[t.name] = t
	c.order = append(c.order, t.name)
	return nil
}

// Model returns the table registered under name.
// Returns ErrUnknownModel if the name is not recognized.
func (c *Catalog) Model(name string) (types.Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, types.ErrModelClosed
	}
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownModel, name)
	}
	return t, nil
}

// Names returns the table names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Close closes every table. Idempotent.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	for _, name := range c.order {
		if err := c.tables[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
