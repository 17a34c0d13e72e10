package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile creates path (and its parents) filled with size bytes. A size
// <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	WriteText(t, path, string(bytes.Repeat([]byte{0x42}, int(max(size, 1)))))
}

// WriteText creates path (and its parents) with content.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLines writes one line per element, newline terminated.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()

	WriteText(t, path, strings.Join(lines, "\n")+"\n")
}
