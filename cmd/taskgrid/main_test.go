package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/cli"
)

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	invalidHCL := `
		task "t" {
			function = "print"
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{"validate", filePath})

	require.Error(t, err)
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok)
	require.Equal(t, cli.ExitUsage, exitErr.Code)
	require.Contains(t, exitErr.Message, "main.hcl")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{"-h"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
