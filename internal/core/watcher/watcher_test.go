// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var manifests = []string{"Cargo.toml", "Cargo.lock"}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, manifests, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"Cargo.[toml"}, nil, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcher_ManifestChanges(t *testing.T) {
	tmpDir := t.TempDir()
	manifest := filepath.Join(tmpDir, "Cargo.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, manifests, []string{"target"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(manifest, []byte("[package]\nname = \"b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, manifest)

	// Sources and build output never trigger a reload.
	if err := os.WriteFile(filepath.Join(tmpDir, "main.rs"), []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Errorf("unexpected change report %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	// New workspace members are picked up.
	member := filepath.Join(tmpDir, "member")
	if err := os.MkdirAll(member, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	lock := filepath.Join(member, "Cargo.lock")
	if err := os.WriteFile(lock, []byte("version = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, lock)
}

func TestWatcher_IdenticalRewriteIsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	lock := filepath.Join(tmpDir, "Cargo.lock")
	content := []byte("version = 3\n")
	if err := os.WriteFile(lock, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, manifests, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(lock, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changed:
		t.Fatalf("identical rewrite reported as change: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(lock, []byte("version = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, lock)
}

func TestWatcher_Filters(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, manifests, []string{"target", ".*"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.matches("/x/Cargo.toml") || !w.matches("Cargo.lock") {
		t.Fatal("expected manifests to match")
	}
	if w.matches("/x/Cargo.toml.bak") || w.matches("main.rs") {
		t.Fatal("expected non-manifests to be ignored")
	}
	if !w.shouldExcludeDir("/x/target") || !w.shouldExcludeDir("/x/.git") {
		t.Fatal("expected target and hidden dirs to be excluded")
	}
	if w.shouldExcludeDir("/x/crates") {
		t.Fatal("expected crates dir to be watched")
	}
}
