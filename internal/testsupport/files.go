package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using
// a repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StubBinary writes an executable shell script named name under dir with
// the provided body and returns its path.
func StubBinary(t testing.TB, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
