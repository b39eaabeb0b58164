package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func Setup(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()

	for relPath, content := range files {
		fullPath := filepath.Join(root, relPath)

		dir := filepath.Dir(fullPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			tb.Fatalf("creating directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			tb.Fatalf("writing file %s: %v", fullPath, err)
		}
	}

	return root
}

func ReadFile(tb testing.TB, root, relPath string) string {
	tb.Helper()

	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		tb.Fatalf("reading %s: %v", relPath, err)
	}
	return string(data)
}

func Exists(tb testing.TB, root, relPath string) bool {
	tb.Helper()

	_, err := os.Stat(filepath.Join(root, relPath))
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		tb.Fatalf("stat %s: %v", relPath, err)
	}
	return false
}
