/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: loader_test.go
Description: Unit tests for task file decoding.
*/

package task_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/akaylee-synth/pkg/task"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlFile = `
dsl:
  semantics: arith
  primitives:
    "+": "int -> int -> int"
    one: int
    zero: int
  forbidden:
    - parent: "+"
      arg: 0
      names: [zero]
  constraints:
    - "+ ^zero *"
  constant_types: [int]
  weights:
    "+": 2
tasks:
  - name: succ
    type_request: "int -> int"
    examples:
      - inputs: [1]
        output: 2
      - inputs: [41]
        output: 42
    constants:
      int: [3, 4]
    metadata:
      source: handwritten
`

const jsonFile = `{
  "dsl": {"primitives": {"one": "int", "cons": "int -> list(int) -> list(int)"}},
  "tasks": [
    {"id": "t1", "type_request": "list(int) -> list(int)",
     "examples": [{"inputs": [[1, 2.0]], "output": [1, 1, 2]}]},
    {"type_request": "int"}
  ]
}`

// TestParseYAML tests decoding of the DSL section and tasks
func TestParseYAML(t *testing.T) {
	f, err := task.Parse([]byte(yamlFile), task.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "arith", f.DSL.Semantics)
	syntax, err := f.DSL.Syntax()
	require.NoError(t, err)
	assert.Equal(t, "int -> int -> int", syntax["+"].String())
	assert.True(t, f.DSL.ForbiddenTable().IsForbidden("+", 0, "zero"))
	assert.Equal(t, []string{"+ ^zero *"}, f.DSL.Constraints)
	assert.Equal(t, 2.0, f.DSL.Weights["+"])

	constants, err := f.DSL.Constants()
	require.NoError(t, err)
	require.Len(t, constants, 1)
	assert.True(t, typesys.Equal(typesys.INT, constants[0]))

	require.Len(t, f.Tasks, 1)
	tk := f.Tasks[0]
	assert.Equal(t, "succ", tk.ID)
	assert.Equal(t, "int -> int", tk.TypeRequest.String())
	assert.Equal(t, []any{41}, tk.Examples[1].Inputs)
	assert.Equal(t, 42, tk.Examples[1].Output)
	assert.Equal(t, []any{3, 4}, tk.Constants["int"])
	assert.Equal(t, "handwritten", tk.Metadata["source"])
}

// TestParseJSON tests number normalization and default identifiers
func TestParseJSON(t *testing.T) {
	f, err := task.Parse([]byte(jsonFile), task.FormatJSON)
	require.NoError(t, err)
	require.Len(t, f.Tasks, 2)

	assert.Equal(t, "t1", f.Tasks[0].ID)
	assert.Equal(t, []any{[]any{1, 2}}, f.Tasks[0].Examples[0].Inputs)
	assert.Equal(t, []any{1, 1, 2}, f.Tasks[0].Examples[0].Output)

	assert.Equal(t, "task-1", f.Tasks[1].ID)
	assert.Equal(t, "task-1", f.Tasks[1].Name)
}

// TestParseErrors tests rejection of malformed files
func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad type":       "dsl:\n  primitives:\n    f: \"int ->\"\n",
		"no request":     "tasks:\n  - name: x\n",
		"input mismatch": "tasks:\n  - type_request: \"int -> int\"\n    examples:\n      - inputs: [1, 2]\n        output: 3\n",
		"not yaml":       "tasks: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := task.Parse([]byte(src), task.FormatYAML)
			assert.ErrorIs(t, err, task.ErrInvalidFile)
		})
	}
}

// TestLoad tests extension based format selection
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlFile), 0o644))

	f, err := task.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Tasks, 1)

	_, err = task.Load(filepath.Join(dir, "tasks.txt"))
	assert.ErrorIs(t, err, task.ErrInvalidFile)
}

// TestConstantAssignments tests the cartesian product of constant values
func TestConstantAssignments(t *testing.T) {
	tk := &task.Task{Constants: map[string][]any{"int": {1, 2}, "list(int)": {[]any{}}}}
	got := tk.ConstantAssignments()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0]["int"])
	assert.Equal(t, 2, got[1]["int"])
	assert.Equal(t, []any{}, got[1]["list(int)"])

	assert.Equal(t, []map[string]any{{}}, (&task.Task{}).ConstantAssignments())
}
