/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"regexp"
)

// TableKind distinguishes tables with a surrogate identity column from join tables.
type TableKind string

const (
	// KindPrimary tables carry an integer identity column assigned by the store.
	KindPrimary TableKind = "primary"
	// KindRelation tables are identified by the full tuple of their key columns.
	KindRelation TableKind = "relation"
)

// ColumnType is the declared type of a column and defines its comparison order.
type ColumnType string

const (
	Integer  ColumnType = "integer"
	Real     ColumnType = "real"
	Text     ColumnType = "text"
	Boolean  ColumnType = "boolean"
	DateTime ColumnType = "datetime"
)

// DefaultIdentityColumn is used when a primary table does not name its identity column.
const DefaultIdentityColumn = "uid"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column describes one data column.
type Column struct {
	Name    string     `yaml:"name"`
	Type    ColumnType `yaml:"type"`
	NotNull bool       `yaml:"not_null"`
	// Default is applied on insert when the column is absent.
	Default any `yaml:"default"`
	// Format names a strfmt format (email, uuid, hostname, ...) checked for text values.
	Format string `yaml:"format"`
	// References names a primary table whose identity this column points at.
	References string `yaml:"references"`
}

// Table describes one storage table.
type Table struct {
	Name           string    `yaml:"name"`
	Kind           TableKind `yaml:"kind"`
	IdentityColumn string    `yaml:"identity"`
	Columns        []Column  `yaml:"columns"`
	KeyColumns     []string  `yaml:"key"`

	index map[string]int
}

// IsRelation reports whether the table is a join table.
func (t *Table) IsRelation() bool {
	return t.Kind == KindRelation
}

// Identity returns the identity column name; empty for relation tables.
func (t *Table) Identity() string {
	if t.IsRelation() {
		return ""
	}
	return t.IdentityColumn
}

// Column looks up a column by name. The identity column of a primary table
// is reported as a NOT NULL integer column.
func (t *Table) Column(name string) (Column, bool) {
	if !t.IsRelation() && name == t.IdentityColumn {
		return Column{Name: name, Type: Integer, NotNull: true}, true
	}
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnNames returns the identity column (if any) followed by the data columns.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	if id := t.Identity(); id != "" {
		names = append(names, id)
	}
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// RowKey returns the columns that identify a row: the identity column or the key tuple.
func (t *Table) RowKey() []string {
	if t.IsRelation() {
		return append([]string(nil), t.KeyColumns...)
	}
	return []string{t.IdentityColumn}
}

// IsKeyColumn reports whether name is part of the row key.
func (t *Table) IsKeyColumn(name string) bool {
	for _, k := range t.RowKey() {
		if k == name {
			return true
		}
	}
	return false
}

// ForeignKeys returns the columns that reference another table.
func (t *Table) ForeignKeys() []Column {
	var fks []Column
	for _, c := range t.Columns {
		if c.References != "" {
			fks = append(fks, c)
		}
	}
	return fks
}

// init validates the definition, fills defaults and builds the column index.
func (t *Table) init() error {
	if !identPattern.MatchString(t.Name) {
		return fmt.Errorf("table name %q is not a valid identifier", t.Name)
	}
	switch t.Kind {
	case "":
		t.Kind = KindPrimary
	case KindPrimary, KindRelation:
	default:
		return fmt.Errorf("table %s: unknown kind %q", t.Name, t.Kind)
	}

	if t.Kind == KindPrimary {
		if t.IdentityColumn == "" {
			t.IdentityColumn = DefaultIdentityColumn
		}
		if !identPattern.MatchString(t.IdentityColumn) {
			return fmt.Errorf("table %s: identity %q is not a valid identifier", t.Name, t.IdentityColumn)
		}
		if len(t.KeyColumns) > 0 {
			return fmt.Errorf("table %s: key columns are only allowed on relation tables", t.Name)
		}
	} else {
		if t.IdentityColumn != "" {
			return fmt.Errorf("table %s: relation tables have no identity column", t.Name)
		}
		if len(t.KeyColumns) == 0 {
			return fmt.Errorf("table %s: relation tables need at least one key column", t.Name)
		}
	}

	t.index = make(map[string]int, len(t.Columns))
	for i := range t.Columns {
		c := &t.Columns[i]
		if !identPattern.MatchString(c.Name) {
			return fmt.Errorf("table %s: column name %q is not a valid identifier", t.Name, c.Name)
		}
		if c.Name == t.IdentityColumn {
			return fmt.Errorf("table %s: column %s collides with the identity column", t.Name, c.Name)
		}
		if _, dup := t.index[c.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		switch c.Type {
		case Integer, Real, Text, Boolean, DateTime:
		default:
			return fmt.Errorf("table %s: column %s has unknown type %q", t.Name, c.Name, c.Type)
		}
		if c.References != "" && c.Type != Integer {
			return fmt.Errorf("table %s: foreign key column %s must be an integer", t.Name, c.Name)
		}
		if c.Format != "" && c.Type != Text {
			return fmt.Errorf("table %s: format is only supported on text column %s", t.Name, c.Name)
		}
		if c.Default != nil {
			v, err := c.Normalize(c.Default)
			if err != nil {
				return fmt.Errorf("table %s: default of column %s: %w", t.Name, c.Name, err)
			}
			c.Default = v
		}
		t.index[c.Name] = i
	}

	seen := make(map[string]bool, len(t.KeyColumns))
	for _, k := range t.KeyColumns {
		i, ok := t.index[k]
		if !ok {
			return fmt.Errorf("table %s: key column %s is not declared", t.Name, k)
		}
		if seen[k] {
			return fmt.Errorf("table %s: key column %s listed twice", t.Name, k)
		}
		seen[k] = true
		t.Columns[i].NotNull = true
	}
	return nil
}
