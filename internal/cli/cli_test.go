package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const project = `
data_node "a" { default = "x" }
data_node "b" {}
task "up" {
  function = "transform.upper"
  inputs   = ["a"]
  outputs  = ["b"]
}
scenario "s" { tasks = ["up"] }
`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.hcl")
	require.NoError(t, os.WriteFile(path, []byte(project), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok, "expected *ExitError, got %T", err)
	return exitErr.Code
}

func TestExecute_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "graph")
}

func TestExecute_UsageErrors(t *testing.T) {
	path := writeProject(t)
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"run", "--no-such-flag", path}},
		{name: "no paths", args: []string{"run", "--scenario", "s"}},
		{name: "bad log level", args: []string{"validate", "--log-level", "trace", path}},
		{name: "bad mode", args: []string{"run", "--mode", "cluster", "--scenario", "s", path}},
		{name: "unknown scenario", args: []string{"run", "--scenario", "nope", path}},
		{name: "no target", args: []string{"run", path}},
		{name: "missing project", args: []string{"validate", filepath.Join(t.TempDir(), "nothing")}},
		{name: "jobs without store", args: []string{"jobs"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.Equal(t, ExitUsage, exitCode(t, err), "error: %v", err)
		})
	}
}

func TestExecute_RunThenJobs(t *testing.T) {
	path := writeProject(t)
	store := filepath.Join(t.TempDir(), "records")

	out, err := execute(t, "run", "--scenario", "s", "--store", store, path)
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")

	out, err = execute(t, "jobs", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "up")
	assert.Contains(t, out, "COMPLETED")
}

func TestExecute_RunFailureExitsWithFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
data_node "a" { default = 1 }
data_node "b" {}
task "up" {
  function = "transform.upper"
  inputs   = ["a"]
  outputs  = ["b"]
}
`), 0o600))

	_, err := execute(t, "run", "--task", "up", path)
	assert.Equal(t, ExitFailure, exitCode(t, err))
}

func TestExecute_ValidateAndGraph(t *testing.T) {
	path := writeProject(t)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 data nodes, 1 tasks, 1 scenarios")
	assert.Contains(t, out, "configuration is valid")

	out, err = execute(t, "graph", "--scenario", "s", path)
	require.NoError(t, err)
	assert.Contains(t, out, "generation 1: task up")
}
