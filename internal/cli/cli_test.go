/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

const cliSchema = `
tables:
  - name: person
    columns:
      - {name: name, type: text, not_null: true}
      - {name: age, type: integer}
      - {name: active, type: boolean, default: true}
  - name: team
    columns:
      - {name: label, type: text}
  - name: membership
    kind: relation
    key: [person, team]
    columns:
      - {name: person, type: integer, references: person}
      - {name: team, type: integer, references: team}
      - {name: sorting, type: integer, default: 0}
`

// setup writes a schema and a config with one sqlite store and returns the config path.
func setup(t *testing.T, migrate bool) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(cliSchema), 0o600))

	cfgPath := filepath.Join(dir, "rowstore.yaml")
	cfg := fmt.Sprintf(`
stores:
  default:
    type: sqlite
    sqlite:
      path: %s
schema:
  file: %s
  migrate_on_start: %t
logging:
  level: error
`, filepath.Join(dir, "cli.db"), schemaPath, migrate)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) ([]map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()

	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines, err
}

func mustRun(t *testing.T, cfgPath string, args ...string) []map[string]any {
	t.Helper()
	lines, err := run(t, cfgPath, args...)
	require.NoError(t, err)
	return lines
}

func TestCLI_RowLifecycle(t *testing.T) {
	cfg := setup(t, true)

	out := mustRun(t, cfg, "add", "person", "name=ada", "age=36")
	require.Len(t, out, 1)
	assert.Equal(t, float64(1), out[0]["uid"])

	mustRun(t, cfg, "add", "person", "name=bob", "age=null", "active=false")
	mustRun(t, cfg, "add", "team", "label=core")
	mustRun(t, cfg, "add-relation", "membership", "person=1", "team=1")
	mustRun(t, cfg, "update-relation", "membership", "person=1", "team=1", "sorting=4")
	mustRun(t, cfg, "update", "person", "uid=2", "age=40")

	rows := mustRun(t, cfg, "query", "person", "--order", "age:desc")
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0]["name"])
	assert.Equal(t, float64(40), rows[0]["age"])
	assert.Equal(t, false, rows[0]["active"])

	rows = mustRun(t, cfg, "query", "membership", "--where", "person=1")
	require.Len(t, rows, 1)
	assert.Equal(t, float64(4), rows[0]["sorting"])

	out = mustRun(t, cfg, "count", "person", "--where", "active=true")
	assert.Equal(t, float64(1), out[0]["count"])

	out = mustRun(t, cfg, "max", "person", "age")
	assert.Equal(t, float64(40), out[0]["max"])
	assert.Equal(t, true, out[0]["found"])

	_, err := run(t, cfg, "remove", "person", "uid=1")
	assert.True(t, errors.IsConstraintViolation(err), "membership still references person 1")

	mustRun(t, cfg, "remove", "membership")
	mustRun(t, cfg, "remove", "person", "uid=1")
	out = mustRun(t, cfg, "count", "person")
	assert.Equal(t, float64(1), out[0]["count"])
}

func TestCLI_QueryPaging(t *testing.T) {
	cfg := setup(t, true)
	for _, name := range []string{"c", "a", "d", "b"} {
		mustRun(t, cfg, "add", "person", "name="+name)
	}

	rows := mustRun(t, cfg, "query", "person", "--order", "name", "--limit", "2", "--offset", "1")
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["name"])
	assert.Equal(t, "c", rows[1]["name"])
}

func TestCLI_Errors(t *testing.T) {
	cfg := setup(t, true)

	_, err := run(t, cfg, "add", "nowhere", "x=1")
	assert.True(t, errors.IsValidationError(err))

	_, err = run(t, cfg, "add", "person", "age=old")
	assert.True(t, errors.IsValidationError(err))

	_, err = run(t, cfg, "update", "person", "uid=9", "age=1")
	assert.True(t, errors.IsNotFound(err))

	_, err = run(t, cfg, "--store", "other", "count", "person")
	assert.ErrorContains(t, err, `store "other"`)
}

func TestCLI_Migrate(t *testing.T) {
	cfg := setup(t, false)

	_, err := run(t, cfg, "add", "person", "name=ada")
	assert.Error(t, err, "tables do not exist yet")

	out := mustRun(t, cfg, "migrate")
	require.Len(t, out, 3)
	assert.Equal(t, "person", out[0]["table"])
	assert.Equal(t, "relation", out[2]["kind"])

	mustRun(t, cfg, "add", "person", "name=ada")
}

func TestCLI_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"version"`)
}

func TestParseAssignments(t *testing.T) {
	c, err := schema.Parse([]byte(cliSchema))
	require.NoError(t, err)
	person, err := c.Table("person")
	require.NoError(t, err)

	row, err := parseAssignments(person, []string{"name=a=b", "age=3", "active=null"})
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Row{"name": "a=b", "age": int64(3), "active": nil}, row)

	_, err = parseAssignments(person, []string{"name"})
	assert.Error(t, err)
	_, err = parseAssignments(person, []string{"age=1", "age=2"})
	assert.Error(t, err)
	_, err = parseAssignments(person, []string{"height=2"})
	assert.Error(t, err)
}

func TestParseOrdering(t *testing.T) {
	o, err := parseOrdering("age:desc")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Ordering{Column: "age", Direction: storagemodels.Descending}, o)

	o, err = parseOrdering("name")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Ascending, o.Direction)

	_, err = parseOrdering("name:sideways")
	assert.Error(t, err)
	_, err = parseOrdering(":desc")
	assert.Error(t, err)
}
