/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package storagetest holds the conformance suite every StoragePort
// implementation runs. Backends call Run from their own tests with a factory
// returning an empty store over Catalog().
package storagetest

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// Factory returns an empty store over catalog. The store is closed by the suite.
type Factory func(t *testing.T, catalog *schema.Catalog) datastore.StoragePort

// Run executes the conformance suite, one fresh store per subtest.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, s datastore.StoragePort)
	}{
		{"AddRowThenQuery", testAddRowThenQuery},
		{"IdentityAssignment", testIdentityAssignment},
		{"ScenarioPersonTable", testScenarioPersonTable},
		{"RemoveWithoutMatches", testRemoveWithoutMatches},
		{"RemoveMatchesNull", testRemoveMatchesNull},
		{"MaxValue", testMaxValue},
		{"ValueObjectRoundTrip", testValueObjectRoundTrip},
		{"ValueObjectNullEquality", testValueObjectNullEquality},
		{"RelationRows", testRelationRows},
		{"UpdateRow", testUpdateRow},
		{"ConstraintViolations", testConstraintViolations},
		{"ForeignKeys", testForeignKeys},
		{"Ordering", testOrdering},
		{"LimitOffsetCount", testLimitOffsetCount},
		{"ValueRoundTrip", testValueRoundTrip},
		{"Stream", testStream},
		{"InvalidInput", testInvalidInput},
		{"CanceledContext", testCanceledContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := factory(t, Catalog())
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, context.Background(), s)
		})
	}
}

func addPerson(t *testing.T, ctx context.Context, s datastore.StoragePort, fields storagemodels.Row) int64 {
	t.Helper()
	id, err := s.AddRow(ctx, "person", fields)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

func addTeam(t *testing.T, ctx context.Context, s datastore.StoragePort, label string) int64 {
	t.Helper()
	id, err := s.AddRow(ctx, "team", storagemodels.Row{"label": label})
	require.NoError(t, err)
	return id
}

func ids(rows []storagemodels.Row, column string) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[column].(int64))
	}
	return out
}

func count(t *testing.T, ctx context.Context, s datastore.StoragePort, q *storagemodels.QuerySpec) int {
	t.Helper()
	n, err := s.GetObjectCountByQuery(ctx, q)
	require.NoError(t, err)
	return n
}

func testAddRowThenQuery(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	id := addPerson(t, ctx, s, storagemodels.Row{"name": "ada", "age": 36})

	rows, err := s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person").Where("name", "ada"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0]["uid"])
	assert.Equal(t, "ada", rows[0]["name"])
	assert.Equal(t, int64(36), rows[0]["age"])
	assert.Equal(t, true, rows[0]["active"], "default applied")
	assert.Nil(t, rows[0]["score"])

	assert.Equal(t, 1, count(t, ctx, s, storagemodels.NewQuery("person").Where("name", "ada")))
	assert.Equal(t, 0, count(t, ctx, s, storagemodels.NewQuery("person").Where("name", "bob")))
}

func testIdentityAssignment(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	a := addPerson(t, ctx, s, storagemodels.Row{"name": "a"})
	b := addPerson(t, ctx, s, storagemodels.Row{"name": "b"})
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)

	require.NoError(t, s.RemoveRow(ctx, "person", storagemodels.Predicate{"uid": b}))
	c := addPerson(t, ctx, s, storagemodels.Row{"name": "c"})
	assert.Greater(t, c, b, "identities are never reused")

	team := addTeam(t, ctx, s, "x")
	assert.Equal(t, int64(1), team, "identities are per table")
}

func testScenarioPersonTable(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	a := addPerson(t, ctx, s, storagemodels.Row{"name": "a", "age": 3})
	b := addPerson(t, ctx, s, storagemodels.Row{"name": "b", "age": 7})
	assert.Equal(t, []int64{1, 2}, []int64{a, b})

	v, ok, err := s.GetMaxValueFromTable(ctx, "person", nil, "age")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	require.NoError(t, s.RemoveRow(ctx, "person", storagemodels.Predicate{"name": "a"}))
	assert.Equal(t, 1, count(t, ctx, s, storagemodels.NewQuery("person")))
}

func testRemoveWithoutMatches(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	addPerson(t, ctx, s, storagemodels.Row{"name": "a"})

	require.NoError(t, s.RemoveRow(ctx, "person", storagemodels.Predicate{"name": "zz"}))
	require.NoError(t, s.RemoveRow(ctx, "membership", storagemodels.Predicate{"person": 99}))
	assert.Equal(t, 1, count(t, ctx, s, storagemodels.NewQuery("person")))
}

func testRemoveMatchesNull(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	addPerson(t, ctx, s, storagemodels.Row{"name": "a"})
	addPerson(t, ctx, s, storagemodels.Row{"name": "b", "age": 4})

	require.NoError(t, s.RemoveRow(ctx, "person", storagemodels.Predicate{"age": nil}))

	rows, err := s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["name"])

	require.NoError(t, s.RemoveRow(ctx, "person", nil))
	assert.Equal(t, 0, count(t, ctx, s, storagemodels.NewQuery("person")))
}

func testMaxValue(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	_, ok, err := s.GetMaxValueFromTable(ctx, "person", nil, "age")
	require.NoError(t, err)
	assert.False(t, ok, "empty table")

	addPerson(t, ctx, s, storagemodels.Row{"name": "a"})
	_, ok, err = s.GetMaxValueFromTable(ctx, "person", nil, "age")
	require.NoError(t, err)
	assert.False(t, ok, "only nulls")

	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	addPerson(t, ctx, s, storagemodels.Row{"name": "b", "age": 10, "score": 1.5, "active": false, "born": late})
	addPerson(t, ctx, s, storagemodels.Row{"name": "B", "age": 30, "score": -2.0, "active": true, "born": early})
	addPerson(t, ctx, s, storagemodels.Row{"name": "c", "age": 20, "score": 0.25, "active": false})

	tests := []struct {
		column string
		where  storagemodels.Predicate
		want   any
	}{
		{"age", nil, int64(30)},
		{"age", storagemodels.Predicate{"active": false}, int64(20)},
		{"uid", nil, int64(4)},
		{"score", nil, 1.5},
		{"name", nil, "c"},
		{"active", nil, true},
		{"active", storagemodels.Predicate{"name": "b"}, false},
		{"born", nil, late},
	}
	for _, tt := range tests {
		v, ok, err := s.GetMaxValueFromTable(ctx, "person", tt.where, tt.column)
		require.NoError(t, err, tt.column)
		assert.True(t, ok, tt.column)
		assert.Equal(t, tt.want, v, tt.column)
	}

	_, ok, err = s.GetMaxValueFromTable(ctx, "person", storagemodels.Predicate{"name": "nobody"}, "age")
	require.NoError(t, err)
	assert.False(t, ok, "no matching row")

	team := addTeam(t, ctx, s, "t")
	require.NoError(t, s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": 2, "team": team, "sorting": 5}))
	require.NoError(t, s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": 3, "team": team, "sorting": 9}))
	v, ok, err := s.GetMaxValueFromTable(ctx, "membership", storagemodels.Predicate{"team": team}, "sorting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(9), v)
}

func testValueObjectRoundTrip(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	vo := storagemodels.ValueObject{Table: "person", Fields: storagemodels.Row{"name": "x", "age": 5}}

	_, found, err := s.GetUIDOfAlreadyPersistedValueObject(ctx, vo)
	require.NoError(t, err)
	assert.False(t, found)

	addPerson(t, ctx, s, storagemodels.Row{"name": "x", "age": 6})
	id := addPerson(t, ctx, s, storagemodels.Row{"name": "x", "age": 5})
	addPerson(t, ctx, s, storagemodels.Row{"name": "x", "age": 5})

	got, found, err := s.GetUIDOfAlreadyPersistedValueObject(ctx, vo)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got, "lowest matching identity")
}

func testValueObjectNullEquality(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	withAge := addPerson(t, ctx, s, storagemodels.Row{"name": "n", "age": 1})
	noAge := addPerson(t, ctx, s, storagemodels.Row{"name": "n"})

	got, found, err := s.GetUIDOfAlreadyPersistedValueObject(ctx, storagemodels.ValueObject{
		Table:  "person",
		Fields: storagemodels.Row{"name": "n", "age": nil},
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, noAge, got)
	assert.NotEqual(t, withAge, got)
}

func testRelationRows(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	p1 := addPerson(t, ctx, s, storagemodels.Row{"name": "p1"})
	p2 := addPerson(t, ctx, s, storagemodels.Row{"name": "p2"})
	team := addTeam(t, ctx, s, "core")

	require.NoError(t, s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": p1, "team": team, "sorting": 1}))
	require.NoError(t, s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": p2, "team": team}))

	err := s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": p1, "team": team, "sorting": 3})
	assert.True(t, errors.IsConstraintViolation(err), "duplicate key: %v", err)
	assert.Equal(t, errors.RuleDuplicateKey, errors.RuleOf(err))

	require.NoError(t, s.UpdateRelationTableRow(ctx, "membership", storagemodels.Row{"person": p1, "team": team, "sorting": 2, "role": "lead"}))
	rows, err := s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("membership").Where("person", p1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["sorting"])
	assert.Equal(t, "lead", rows[0]["role"])
	_, hasUID := rows[0]["uid"]
	assert.False(t, hasUID, "relation rows carry no identity")

	err = s.UpdateRelationTableRow(ctx, "membership", storagemodels.Row{"person": p1, "team": team + 100, "sorting": 2})
	assert.True(t, errors.IsNotFound(err), "missing tuple: %v", err)

	rows, err = s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("membership"))
	require.NoError(t, err)
	assert.Equal(t, []int64{p1, p2}, ids(rows, "person"), "key tuple order")

	require.NoError(t, s.RemoveRow(ctx, "membership", storagemodels.Predicate{"team": team}))
	assert.Equal(t, 0, count(t, ctx, s, storagemodels.NewQuery("membership")))
}

func testUpdateRow(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	id := addPerson(t, ctx, s, storagemodels.Row{"name": "old", "age": 1, "score": 2.5})

	require.NoError(t, s.UpdateRow(ctx, "person", storagemodels.Row{"uid": id, "name": "new", "score": nil}))

	rows, err := s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0]["name"])
	assert.Equal(t, int64(1), rows[0]["age"], "untouched column keeps its value")
	assert.Nil(t, rows[0]["score"])

	require.NoError(t, s.UpdateRow(ctx, "person", storagemodels.Row{"uid": id, "name": "new"}), "unchanged values still match")

	err = s.UpdateRow(ctx, "person", storagemodels.Row{"uid": id + 50, "name": "ghost"})
	assert.True(t, errors.IsNotFound(err), "missing row: %v", err)

	err = s.UpdateRow(ctx, "person", storagemodels.Row{"uid": id, "name": nil})
	assert.Equal(t, errors.RuleNotNull, errors.RuleOf(err))

	err = s.UpdateRow(ctx, "person", storagemodels.Row{"name": "no key"})
	assert.True(t, errors.IsValidationError(err))
}

func testConstraintViolations(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	tests := []struct {
		name   string
		fields storagemodels.Row
		rule   string
	}{
		{"missing not null", storagemodels.Row{"age": 1}, errors.RuleNotNull},
		{"explicit null", storagemodels.Row{"name": nil}, errors.RuleNotNull},
		{"wrong type", storagemodels.Row{"name": "a", "age": "old"}, errors.RuleType},
		{"bad format", storagemodels.Row{"name": "a", "email": "nope"}, errors.RuleFormat},
		{"unknown column", storagemodels.Row{"name": "a", "shoe": 42}, errors.RuleUnknownColumn},
	}
	for _, tt := range tests {
		_, err := s.AddRow(ctx, "person", tt.fields)
		assert.True(t, errors.IsConstraintViolation(err), "%s: %v", tt.name, err)
		assert.Equal(t, tt.rule, errors.RuleOf(err), tt.name)
	}
	assert.Equal(t, 0, count(t, ctx, s, storagemodels.NewQuery("person")), "failed inserts leave no rows")

	err := s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": 1})
	assert.Equal(t, errors.RuleNotNull, errors.RuleOf(err))
}

func testForeignKeys(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	p := addPerson(t, ctx, s, storagemodels.Row{"name": "p"})
	team := addTeam(t, ctx, s, "t")

	err := s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": p, "team": team + 10})
	assert.Equal(t, errors.RuleForeignKey, errors.RuleOf(err), "insert with dangling reference: %v", err)

	require.NoError(t, s.AddRelationRow(ctx, "membership", storagemodels.Row{"person": p, "team": team}))

	err = s.RemoveRow(ctx, "person", storagemodels.Predicate{"uid": p})
	assert.Equal(t, errors.RuleForeignKey, errors.RuleOf(err), "remove of referenced row: %v", err)
	assert.Equal(t, 1, count(t, ctx, s, storagemodels.NewQuery("person")))

	require.NoError(t, s.RemoveRow(ctx, "membership", storagemodels.Predicate{"person": p}))
	require.NoError(t, s.RemoveRow(ctx, "person", storagemodels.Predicate{"uid": p}))
	assert.Equal(t, 0, count(t, ctx, s, storagemodels.NewQuery("person")))
}

func testOrdering(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	addPerson(t, ctx, s, storagemodels.Row{"name": "b", "age": 5})   // 1
	addPerson(t, ctx, s, storagemodels.Row{"name": "a"})             // 2
	addPerson(t, ctx, s, storagemodels.Row{"name": "B", "age": 5})   // 3
	addPerson(t, ctx, s, storagemodels.Row{"name": "c", "age": 1})   // 4
	addPerson(t, ctx, s, storagemodels.Row{"name": "a", "age": nil}) // 5

	tests := []struct {
		name string
		q    *storagemodels.QuerySpec
		want []int64
	}{
		{"unordered falls back to identity", storagemodels.NewQuery("person"), []int64{1, 2, 3, 4, 5}},
		{"nulls first ascending", storagemodels.NewQuery("person").OrderBy("age", storagemodels.Ascending), []int64{2, 5, 4, 1, 3}},
		{"nulls last descending", storagemodels.NewQuery("person").OrderBy("age", storagemodels.Descending), []int64{1, 3, 4, 2, 5}},
		{"bytewise text", storagemodels.NewQuery("person").OrderBy("name", storagemodels.Ascending), []int64{3, 2, 5, 1, 4}},
		{"two keys", storagemodels.NewQuery("person").
			OrderBy("age", storagemodels.Descending).
			OrderBy("name", storagemodels.Descending), []int64{1, 3, 4, 2, 5}},
		{"filtered", storagemodels.NewQuery("person").Where("name", "a").OrderBy("uid", storagemodels.Descending), []int64{5, 2}},
	}
	for _, tt := range tests {
		rows, err := s.GetObjectDataByQuery(ctx, tt.q)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, ids(rows, "uid"), tt.name)
	}
}

func testLimitOffsetCount(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	for i := 0; i < 7; i++ {
		addPerson(t, ctx, s, storagemodels.Row{"name": "p", "age": i})
	}

	tests := []struct {
		limit, offset int
		want          []int64
	}{
		{0, 0, []int64{1, 2, 3, 4, 5, 6, 7}},
		{3, 0, []int64{1, 2, 3}},
		{3, 5, []int64{6, 7}},
		{0, 4, []int64{5, 6, 7}},
		{2, 10, []int64{}},
	}
	for _, tt := range tests {
		q := storagemodels.NewQuery("person").Where("name", "p").WithLimit(tt.limit, tt.offset)
		rows, err := s.GetObjectDataByQuery(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ids(rows, "uid"), "limit %d offset %d", tt.limit, tt.offset)
		assert.Equal(t, len(rows), count(t, ctx, s, q), "count matches data for limit %d offset %d", tt.limit, tt.offset)
	}
}

func testValueRoundTrip(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	born := time.Date(1990, 5, 17, 8, 30, 15, 123456789, time.FixedZone("CEST", 2*3600))
	id := addPerson(t, ctx, s, storagemodels.Row{
		"name":   "Zoë ⚡",
		"age":    int32(-3),
		"score":  3.25,
		"active": false,
		"born":   born,
		"email":  "zoe@example.com",
	})

	rows, err := s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person").Where("uid", id))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, storagemodels.Row{
		"uid":    id,
		"name":   "Zoë ⚡",
		"age":    int64(-3),
		"score":  3.25,
		"active": false,
		"born":   time.Date(1990, 5, 17, 6, 30, 15, 123000000, time.UTC),
		"email":  "zoe@example.com",
	}, rows[0])

	rows, err = s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person").
		Where("born", born).Where("active", false).Where("score", 3.25))
	require.NoError(t, err)
	assert.Len(t, rows, 1, "filters on normalized values")
}

func testStream(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	for i := 0; i < 12; i++ {
		addPerson(t, ctx, s, storagemodels.Row{"name": "s", "age": i % 4})
	}
	q := storagemodels.NewQuery("person").OrderBy("age", storagemodels.Ascending).WithLimit(9, 2)

	want, err := s.GetObjectDataByQuery(ctx, q)
	require.NoError(t, err)

	var progress []storagemodels.StreamProgress
	var got []storagemodels.Row
	var lastIndex int64 = -1
	for res := range s.StreamObjectDataByQuery(ctx, q,
		storagemodels.WithPageSize(4),
		storagemodels.WithBufferSize(1),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) { progress = append(progress, p) }),
	) {
		require.NoError(t, res.Error)
		assert.Equal(t, lastIndex+1, res.Meta.Index)
		lastIndex = res.Meta.Index
		got = append(got, res.Row)
	}
	assert.Equal(t, ids(want, "uid"), ids(got, "uid"))
	require.NotEmpty(t, progress)
	assert.True(t, progress[len(progress)-1].Done)
	assert.Equal(t, int64(9), progress[len(progress)-1].RowsSent)

	var errs []error
	for res := range s.StreamObjectDataByQuery(ctx, storagemodels.NewQuery("nope")) {
		errs = append(errs, res.Error)
	}
	require.Len(t, errs, 1)
	assert.True(t, errors.IsValidationError(errs[0]))
}

func testInvalidInput(t *testing.T, ctx context.Context, s datastore.StoragePort) {
	p := addPerson(t, ctx, s, storagemodels.Row{"name": "p"})
	team := addTeam(t, ctx, s, "t")

	checks := map[string]error{}

	_, err := s.AddRow(ctx, "nope", storagemodels.Row{"name": "a"})
	checks["unknown table"] = err
	_, err = s.AddRow(ctx, "membership", storagemodels.Row{"person": p, "team": team})
	checks["AddRow on relation table"] = err
	checks["AddRelationRow on primary table"] = s.AddRelationRow(ctx, "person", storagemodels.Row{"name": "a"})
	_, err = s.AddRow(ctx, "person", storagemodels.Row{"uid": 77, "name": "a"})
	checks["identity supplied"] = err
	checks["UpdateRelationTableRow without full key"] = s.UpdateRelationTableRow(ctx, "membership", storagemodels.Row{"person": p, "sorting": 1})
	checks["UpdateRow on relation table"] = s.UpdateRow(ctx, "membership", storagemodels.Row{"person": p, "team": team})
	checks["remove by unknown column"] = s.RemoveRow(ctx, "person", storagemodels.Predicate{"shoe": 1})
	_, _, err = s.GetMaxValueFromTable(ctx, "person", nil, "shoe")
	checks["max of unknown column"] = err
	_, err = s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person").WithLimit(-1, 0))
	checks["negative limit"] = err
	_, err = s.GetObjectCountByQuery(ctx, storagemodels.NewQuery("person").OrderBy("shoe", storagemodels.Ascending))
	checks["order by unknown column"] = err
	_, err = s.GetObjectDataByQuery(ctx, nil)
	checks["nil query"] = err
	_, _, err = s.GetUIDOfAlreadyPersistedValueObject(ctx, storagemodels.ValueObject{Table: "person"})
	checks["empty value object"] = err
	_, _, err = s.GetUIDOfAlreadyPersistedValueObject(ctx, storagemodels.ValueObject{Table: "membership", Fields: storagemodels.Row{"person": p}})
	checks["value object on relation table"] = err

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		assert.True(t, errors.IsValidationError(checks[name]), "%s: %v", name, checks[name])
	}
}

func testCanceledContext(t *testing.T, _ context.Context, s datastore.StoragePort) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddRow(ctx, "person", storagemodels.Row{"name": "late"})
	assert.True(t, errors.IsUnavailable(err), "AddRow: %v", err)

	_, err = s.GetObjectDataByQuery(ctx, storagemodels.NewQuery("person"))
	assert.True(t, errors.IsUnavailable(err), "GetObjectDataByQuery: %v", err)
}
