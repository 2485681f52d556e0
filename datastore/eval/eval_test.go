/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package eval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/datastore/eval"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

func personTable(t *testing.T) *schema.Table {
	t.Helper()
	c, err := schema.NewCatalog(schema.Table{
		Name: "person",
		Columns: []schema.Column{
			{Name: "name", Type: schema.Text},
			{Name: "age", Type: schema.Integer},
		},
	})
	require.NoError(t, err)
	tbl, err := c.Table("person")
	require.NoError(t, err)
	return tbl
}

func TestCompare(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Millisecond)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"nil equals nil", nil, nil, 0},
		{"nil before int", nil, int64(-5), -1},
		{"int after nil", int64(0), nil, 1},
		{"ints", int64(2), int64(10), -1},
		{"int and real", int64(2), 2.0, 0},
		{"real and int", 2.5, int64(2), 1},
		{"bytewise text", "B", "a", -1},
		{"bools", false, true, -1},
		{"times", late, early, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eval.Compare(tt.a, tt.b))
		})
	}
}

func TestMatch(t *testing.T) {
	row := storagemodels.Row{"name": "a", "age": nil}

	assert.True(t, eval.Match(row, nil))
	assert.True(t, eval.Match(row, storagemodels.Predicate{"name": "a"}))
	assert.True(t, eval.Match(row, storagemodels.Predicate{"age": nil}))
	assert.False(t, eval.Match(row, storagemodels.Predicate{"age": int64(1)}))
	assert.False(t, eval.Match(row, storagemodels.Predicate{"name": "a", "age": int64(1)}))
}

func TestSort_NullPlacementAndFallback(t *testing.T) {
	tbl := personTable(t)
	rows := []storagemodels.Row{
		{"uid": int64(3), "name": "c", "age": int64(5)},
		{"uid": int64(1), "name": "a", "age": nil},
		{"uid": int64(2), "name": "b", "age": int64(5)},
		{"uid": int64(4), "name": "d", "age": int64(1)},
	}

	ids := func() []int64 {
		var out []int64
		for _, r := range rows {
			out = append(out, r["uid"].(int64))
		}
		return out
	}

	eval.Sort(tbl, rows, []storagemodels.Ordering{{Column: "age", Direction: storagemodels.Ascending}})
	assert.Equal(t, []int64{1, 4, 2, 3}, ids())

	eval.Sort(tbl, rows, []storagemodels.Ordering{{Column: "age", Direction: storagemodels.Descending}})
	assert.Equal(t, []int64{2, 3, 4, 1}, ids())

	eval.Sort(tbl, rows, nil)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids())
}

func TestApply(t *testing.T) {
	tbl := personTable(t)
	rows := []storagemodels.Row{
		{"uid": int64(1), "name": "a", "age": int64(3)},
		{"uid": int64(2), "name": "a", "age": int64(1)},
		{"uid": int64(3), "name": "b", "age": int64(2)},
		{"uid": int64(4), "name": "a", "age": int64(2)},
	}

	q := storagemodels.NewQuery("person").Where("name", "a").OrderBy("age", storagemodels.Ascending).WithLimit(2, 1)
	got := eval.Apply(tbl, rows, q)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0]["uid"])
	assert.Equal(t, int64(1), got[1]["uid"])

	assert.Empty(t, eval.Apply(tbl, rows, storagemodels.NewQuery("person").WithLimit(0, 10)))
	assert.Equal(t, int64(1), rows[0]["uid"], "input order is preserved")
}

func TestMax(t *testing.T) {
	rows := []storagemodels.Row{{"age": nil}, {"age": int64(7)}, {"age": int64(3)}}

	v, ok := eval.Max(rows, "age")
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = eval.Max(rows[:1], "age")
	assert.False(t, ok)

	_, ok = eval.Max(nil, "age")
	assert.False(t, ok)
}

func TestFirst(t *testing.T) {
	tbl := personTable(t)
	rows := []storagemodels.Row{
		{"uid": int64(9), "name": "x", "age": nil},
		{"uid": int64(4), "name": "x", "age": nil},
		{"uid": int64(2), "name": "y", "age": nil},
	}

	r, ok := eval.First(tbl, rows, storagemodels.Predicate{"name": "x", "age": nil})
	require.True(t, ok)
	assert.Equal(t, int64(4), r["uid"])

	_, ok = eval.First(tbl, rows, storagemodels.Predicate{"name": "z"})
	assert.False(t, ok)
}
