package hcl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/internal/config"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const nodesHCL = `
execution {
  mode        = "standalone"
  max_workers = 4
}

data_node "raw" {
  default         = "hello"
  validity_period = "90s"
}

data_node "loud" {}
`

const tasksHCL = `
task "shout" {
  function  = "transform.upper"
  inputs    = ["raw"]
  outputs   = ["loud"]
  skippable = true
}

task "show" {
  function = "print"
  inputs   = ["loud"]
}

scenario "pipeline" {
  tasks = ["shout", "show"]

  sequence "head" {
    tasks = ["shout"]
  }
}
`

func TestLoad_MergesFilesFromDirectory(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	writeFile(t, dir, "nodes.hcl", nodesHCL)
	writeFile(t, dir, "nested/tasks.hcl", tasksHCL)
	writeFile(t, dir, "README.md", "not configuration")

	model, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	require.NotNil(t, model.Execution)
	assert.Equal(t, config.Execution{Mode: config.ModeStandalone, MaxWorkers: 4}, *model.Execution)

	raw, ok := model.DataNode("raw")
	require.True(t, ok)
	require.NotNil(t, raw.Default)
	assert.True(t, raw.Default.RawEquals(cty.StringVal("hello")))
	assert.Equal(t, 90*time.Second, raw.ValidityPeriod)

	loud, ok := model.DataNode("loud")
	require.True(t, ok)
	assert.Nil(t, loud.Default)
	assert.Zero(t, loud.ValidityPeriod)

	shout, ok := model.Task("shout")
	require.True(t, ok)
	assert.Equal(t, &config.Task{
		ID: "shout", Function: "transform.upper",
		Inputs: []string{"raw"}, Outputs: []string{"loud"}, Skippable: true,
	}, shout)
	show, _ := model.Task("show")
	assert.Empty(t, show.Outputs)
	assert.False(t, show.Skippable)

	sc, ok := model.Scenario("pipeline")
	require.True(t, ok)
	assert.Equal(t, []string{"shout", "show"}, sc.Tasks)
	require.Len(t, sc.Sequences, 1)
	assert.Equal(t, &config.Sequence{Name: "head", Tasks: []string{"shout"}}, sc.Sequences[0])
}

func TestLoad_NoExecutionBlock(t *testing.T) {
	ctx, _ := testutil.Context(t)
	path := writeFile(t, t.TempDir(), "tasks.hcl", tasksHCL)

	model, err := NewLoader().Load(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, model.Execution)
	assert.Len(t, model.Tasks, 2)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantMsg string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `task "t" {`},
			wantMsg: "a.hcl",
		},
		{
			name:    "unknown block",
			files:   map[string]string{"a.hcl": `widget "w" {}`},
			wantMsg: "widget",
		},
		{
			name:    "missing function",
			files:   map[string]string{"a.hcl": `task "t" {}`},
			wantMsg: "function",
		},
		{
			name: "task declared twice across files",
			files: map[string]string{
				"a.hcl": `task "t" { function = "print" }`,
				"b.hcl": `task "t" { function = "print" }`,
			},
			wantMsg: "Duplicate \"task\" block",
		},
		{
			name: "two execution blocks",
			files: map[string]string{
				"a.hcl": `execution { mode = "development" }`,
				"b.hcl": `execution { mode = "standalone" }`,
			},
			wantMsg: "Only one \"execution\" block is allowed.",
		},
		{
			name:    "bad validity period",
			files:   map[string]string{"a.hcl": `data_node "d" { validity_period = "soon" }`},
			wantMsg: "Invalid validity period",
		},
		{
			name: "duplicate sequence",
			files: map[string]string{"a.hcl": `
scenario "s" {
  tasks = []
  sequence "x" { tasks = [] }
  sequence "x" { tasks = [] }
}`},
			wantMsg: "declares sequence \"x\" twice",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, dir, name, content)
			}

			_, err := NewLoader().Load(ctx, dir)
			require.Error(t, err)
			assert.True(t, cerrors.ErrLoadConfig.Equal(err))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	ctx, logs := testutil.Context(t)
	dir := t.TempDir()

	_, err := NewLoader().Load(ctx, dir, filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, cerrors.ErrLoadConfig.Equal(err))
	assert.Contains(t, err.Error(), "no .hcl files found")
	assert.Contains(t, logs.String(), "Configuration path does not exist.")
}
