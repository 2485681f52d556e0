/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"fmt"
	"strings"

	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// parseAssignments turns column=value arguments into a row, parsing each value
// by the column's type.
func parseAssignments(t *schema.Table, args []string) (storagemodels.Row, error) {
	row := make(storagemodels.Row, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, errors.NewValidationError("argument", fmt.Sprintf("%q is not column=value", arg))
		}
		if _, dup := row[name]; dup {
			return nil, errors.NewValidationError(name, "column given twice")
		}
		c, err := t.ResolveColumn(name)
		if err != nil {
			return nil, err
		}
		v, err := c.Parse(raw)
		if err != nil {
			return nil, errors.NewValidationError(name, err.Error())
		}
		row[name] = v
	}
	return row, nil
}

// parseOrdering parses "column" or "column:desc".
func parseOrdering(s string) (storagemodels.Ordering, error) {
	name, dir, _ := strings.Cut(s, ":")
	o := storagemodels.Ordering{Column: name, Direction: storagemodels.Ascending}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		o.Direction = storagemodels.Descending
	default:
		return o, errors.NewValidationError("order", fmt.Sprintf("unknown direction %q", dir))
	}
	if name == "" {
		return o, errors.NewValidationError("order", "column is required")
	}
	return o, nil
}

// buildQuery assembles a query from the --where, --order, --limit and --offset flags.
func buildQuery(t *schema.Table, where, order []string, limit, offset int) (*storagemodels.QuerySpec, error) {
	filter, err := parseAssignments(t, where)
	if err != nil {
		return nil, err
	}
	q := storagemodels.NewQuery(t.Name).WithLimit(limit, offset)
	for col, v := range filter {
		q.Where(col, v)
	}
	for _, s := range order {
		o, err := parseOrdering(s)
		if err != nil {
			return nil, err
		}
		q.OrderBy(o.Column, o.Direction)
	}
	return q, nil
}
