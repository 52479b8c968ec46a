package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]struct{}{"serde 1.0.0": {}, "itoa 0.4.8": {}, "ryu 1.0.5": {}}
	keys := SortedStringKeys(m)
	expected := []string{"itoa 0.4.8", "ryu 1.0.5", "serde 1.0.0"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deps.svg")
	content := []byte("<svg/>")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}

func TestGetHeapAllocMB(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 4<<20)
	buf[0] = 1
	if GetHeapAllocMB() == 0 && buf[0] == 1 {
		t.Fatal("expected a non-zero heap after allocating")
	}
}
