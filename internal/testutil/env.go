// Package testutil provides utilities for testing provisioning in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated data and project directories for each test
// and points the NEXO_* environment at them, so tests never touch a real
// user data directory.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) (dataDir, projectDir string) {
	t.Helper()

	tmpDir := t.TempDir()
	dataDir = filepath.Join(tmpDir, "data")
	projectDir = filepath.Join(tmpDir, "project")

	t.Setenv("NEXO_DATA_DIR", dataDir)
	t.Setenv("NEXO_PROJECT_DIR", projectDir)
	t.Setenv("NEXO_LOG_LEVEL", "error")

	for _, dir := range []string{dataDir, projectDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return dataDir, projectDir
}
