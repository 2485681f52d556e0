/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuild

import (
	"strings"

	"github.com/suparena/rowstore/schema"
)

// CreateTable renders CREATE TABLE IF NOT EXISTS for t, including its
// row key and foreign keys.
func CreateTable(d Dialect, t *schema.Table, catalog *schema.Catalog) (string, error) {
	defs := make([]string, 0, len(t.Columns)+4)
	if id := t.Identity(); id != "" {
		defs = append(defs, d.IdentityDefinition(id))
	}
	for _, c := range t.Columns {
		def := d.Quote(c.Name) + " " + d.ColumnType(c, t.IsKeyColumn(c.Name))
		if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if t.IsRelation() {
		defs = append(defs, "PRIMARY KEY ("+quoteAll(d, t.KeyColumns)+")")
	}
	for _, fk := range t.ForeignKeys() {
		target, err := catalog.Table(fk.References)
		if err != nil {
			return "", err
		}
		defs = append(defs, "FOREIGN KEY ("+d.Quote(fk.Name)+") REFERENCES "+d.Quote(target.Name)+" ("+d.Quote(target.Identity())+")")
	}

	return "CREATE TABLE IF NOT EXISTS " + d.Quote(t.Name) + " (\n  " + strings.Join(defs, ",\n  ") + "\n)" + d.TableOptions(), nil
}

func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
