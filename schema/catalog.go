/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"sync"

	"github.com/suparena/rowstore/errors"
)

// Reference is a column of Table that points at another table.
type Reference struct {
	Table  string
	Column string
}

// Catalog is a thread-safe set of table definitions.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
	order  []string
}

// NewCatalog validates the tables and orders them so that referenced tables
// come before the tables referencing them.
func NewCatalog(tables ...Table) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]*Table, len(tables))}

	pending := make([]Table, len(tables))
	copy(pending, tables)
	for len(pending) > 0 {
		var next []Table
		for _, t := range pending {
			if !c.refsSatisfied(t, pending) {
				next = append(next, t)
				continue
			}
			if err := c.Add(t); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("schema: unresolved or cyclic references among %d tables (first: %s)", len(next), next[0].Name)
		}
		pending = next
	}
	return c, nil
}

// refsSatisfied reports whether every referenced table is already present.
// Unknown targets count as satisfied so Add can report them.
func (c *Catalog) refsSatisfied(t Table, pending []Table) bool {
	for _, col := range t.Columns {
		ref := col.References
		if ref == "" || ref == t.Name {
			continue
		}
		if _, ok := c.tables[ref]; ok {
			continue
		}
		for _, p := range pending {
			if p.Name == ref {
				return false
			}
		}
	}
	return true
}

// Add registers one table. Referenced tables must already be present.
func (c *Catalog) Add(t Table) error {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	t.Columns = cols
	t.KeyColumns = append([]string(nil), t.KeyColumns...)

	if err := t.init(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tables == nil {
		c.tables = make(map[string]*Table)
	}
	if _, exists := c.tables[t.Name]; exists {
		return fmt.Errorf("schema: table %q already registered", t.Name)
	}
	for _, fk := range t.ForeignKeys() {
		if fk.References == t.Name {
			continue
		}
		target, ok := c.tables[fk.References]
		if !ok {
			return fmt.Errorf("schema: table %s column %s references unknown table %q", t.Name, fk.Name, fk.References)
		}
		if target.IsRelation() {
			return fmt.Errorf("schema: table %s column %s references relation table %q", t.Name, fk.Name, fk.References)
		}
	}
	if t.IsRelation() {
		for _, fk := range t.ForeignKeys() {
			if fk.References == t.Name {
				return fmt.Errorf("schema: relation table %s cannot reference itself", t.Name)
			}
		}
	}

	c.tables[t.Name] = &t
	c.order = append(c.order, t.Name)
	return nil
}

// Table returns the named table or an invalid-input error.
func (c *Catalog) Table(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[name]
	if !ok {
		return nil, errors.NewValidationError("table", fmt.Sprintf("unknown table %q", name))
	}
	return t, nil
}

// Tables returns every table in dependency order.
func (c *Catalog) Tables() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Table, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tables[name])
	}
	return out
}

// ReferencedBy lists the columns of every table that reference table.
func (c *Catalog) ReferencedBy(table string) []Reference {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var refs []Reference
	for _, name := range c.order {
		for _, fk := range c.tables[name].ForeignKeys() {
			if fk.References == table {
				refs = append(refs, Reference{Table: name, Column: fk.Name})
			}
		}
	}
	return refs
}
