package deptree

import (
	"context"
	"crypto/md5"
	"os"
	"path/filepath"
	"testing"

	domainerrors "orbit/internal/core/errors"
)

func TestColorFor_IsContentAddressed(t *testing.T) {
	a := ColorFor("serde 1.0.130")
	b := ColorFor("serde 1.0.130")
	if a != b {
		t.Fatalf("expected stable color, got %v and %v", a, b)
	}

	digest := md5.Sum([]byte("serde 1.0.130"))
	if a.R != digest[0] || a.G != digest[1] || a.B != digest[2] {
		t.Errorf("expected color from md5 digest, got %v", a)
	}
	if a.Hex() != "#"+hexByte(digest[0])+hexByte(digest[1])+hexByte(digest[2]) {
		t.Errorf("unexpected hex %s", a.Hex())
	}
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func TestTree_FindAndNames(t *testing.T) {
	tree, err := Parse("0 r v1\n1 a v1\n2 shared v1\n3 deep v1\n1 b v1\n2 shared v1", Options{})
	if err != nil {
		t.Fatal(err)
	}

	shared, ok := tree.Find("shared 1")
	if !ok {
		t.Fatal("expected to find shared 1")
	}
	// b sorts before a (smaller subtree), so its childless copy comes first in pre-order.
	if shared.ChildCount() != 0 {
		t.Errorf("expected first pre-order occurrence, got node with %d children", shared.ChildCount())
	}

	if _, ok := tree.Find("missing 1"); ok {
		t.Error("expected lookup of unknown name to fail")
	}

	names := tree.Names()
	want := []string{"a 1", "b 1", "deep 1", "r 1", "shared 1"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestWalk_SkipsChildrenWhenFnReturnsFalse(t *testing.T) {
	tree, err := Parse("0 r v1\n1 a v1\n2 x v1\n1 b v1", Options{})
	if err != nil {
		t.Fatal(err)
	}

	var visited []string
	Walk(tree.Root(), func(n *Node, depth int) bool {
		visited = append(visited, n.Name())
		return n.Name() != "a 1"
	})
	if len(visited) != 3 {
		t.Errorf("expected x to be skipped, visited %v", visited)
	}
}

func TestSource_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.txt")
	if err := os.WriteFile(path, []byte("0app v0.1.0\n1log v0.4.20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tree, err := Source{File: path}.Load(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tree.Root().Name() != "app 0.1.0" || tree.Len() != 2 {
		t.Errorf("unexpected tree %v", preorder(tree.Root()))
	}
}

func TestSource_Errors(t *testing.T) {
	_, err := Source{File: filepath.Join(t.TempDir(), "missing.txt")}.Read(context.Background())
	if !domainerrors.IsCode(err, domainerrors.CodeSource) {
		t.Errorf("expected SOURCE_ERROR for missing file, got %v", err)
	}

	_, err = Source{Command: []string{"orbit-test-no-such-binary"}}.Read(context.Background())
	if !domainerrors.IsCode(err, domainerrors.CodeSource) {
		t.Errorf("expected SOURCE_ERROR for missing command, got %v", err)
	}
}
