package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.hcl"))
	touch(t, filepath.Join(root, "nested", "a.hcl"))
	touch(t, filepath.Join(root, "notes.txt"))
	single := filepath.Join(root, "b.hcl")
	gone := filepath.Join(root, "gone.hcl")

	files, missing, err := FindFiles([]string{single, root, gone}, ".hcl")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "a.hcl"),
	}, files)
	require.Equal(t, []string{gone}, missing)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	require.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}
