/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagetest

import (
	"github.com/suparena/rowstore/schema"
)

// Catalog returns the tables the conformance suite runs against:
//
//	person      primary   name, age, score, active, born, email
//	team        primary   label
//	membership  relation  (person, team) -> sorting, role
func Catalog() *schema.Catalog {
	c, err := schema.NewCatalog(
		schema.Table{
			Name: "person",
			Columns: []schema.Column{
				{Name: "name", Type: schema.Text, NotNull: true},
				{Name: "age", Type: schema.Integer},
				{Name: "score", Type: schema.Real},
				{Name: "active", Type: schema.Boolean, Default: true},
				{Name: "born", Type: schema.DateTime},
				{Name: "email", Type: schema.Text, Format: "email"},
			},
		},
		schema.Table{
			Name:           "team",
			IdentityColumn: "team_id",
			Columns: []schema.Column{
				{Name: "label", Type: schema.Text},
			},
		},
		schema.Table{
			Name:       "membership",
			Kind:       schema.KindRelation,
			KeyColumns: []string{"person", "team"},
			Columns: []schema.Column{
				{Name: "person", Type: schema.Integer, References: "person"},
				{Name: "team", Type: schema.Integer, References: "team"},
				{Name: "sorting", Type: schema.Integer, Default: 0},
				{Name: "role", Type: schema.Text},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}
