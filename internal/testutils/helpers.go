package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupDialogDir creates a temporary directory holding the given dialog documents,
// keyed by file name. It returns the absolute path to the directory.
// It fails the test immediately on error.
func SetupDialogDir(t *testing.T, docs map[string]string) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, body := range docs {
		WriteFile(t, absPath, name, body)
	}
	return absPath
}

// WriteFile writes body to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644), "Failed to write %s", name)
	return path
}
