package cliapp

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"orbit/internal/core/config"
	"orbit/internal/core/ports"
	"orbit/internal/data/history"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand(&bytes.Buffer{})

	want := []string{"build", "history", "render", "version", "view"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
	for _, flag := range []string{"config", "verbose", "dir", "input"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "orbit v"+versionString {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestBuildArgs_AfterDash(t *testing.T) {
	cmd := &cobra.Command{Use: "build"}
	cmd.Flags().Bool("no-build", false, "")
	if err := cmd.Flags().Parse([]string{"--no-build", "ignored", "--", "--release", "-p", "serde"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := buildArgs(cmd, cmd.Flags().Args())
	want := []string{"--release", "-p", "serde"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs = %v, want %v", got, want)
	}
}

func TestBuildArgs_NoDash(t *testing.T) {
	cmd := &cobra.Command{Use: "build"}
	if err := cmd.Flags().Parse([]string{"extra"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := buildArgs(cmd, cmd.Flags().Args()); !reflect.DeepEqual(got, []string{"extra"}) {
		t.Fatalf("buildArgs = %v", got)
	}
}

func TestApplyRenderOptions(t *testing.T) {
	out := config.Output{SVG: "a.svg", DOT: "a.dot"}
	applyRenderOptions(&out, renderOptions{tsv: "edges.tsv"})
	if out.SVG != "" || out.DOT != "" || out.TSV != "edges.tsv" {
		t.Fatalf("flags should replace configured targets: %+v", out)
	}

	out = config.Output{DOT: "a.dot"}
	applyRenderOptions(&out, renderOptions{})
	if out.DOT != "a.dot" || out.SVG != "" {
		t.Fatalf("configured targets should survive without flags: %+v", out)
	}

	out = config.Output{}
	applyRenderOptions(&out, renderOptions{})
	if out.SVG != defaultSVGOutput {
		t.Fatalf("expected default SVG target, got %+v", out)
	}
}

func TestFindSession(t *testing.T) {
	sessions := []ports.Session{
		{ID: "4f1c2a9e-0000-0000-0000-000000000001"},
		{ID: "4f1d7b00-0000-0000-0000-000000000002"},
		{ID: "9a000000-0000-0000-0000-000000000003"},
	}

	s, err := findSession(sessions, "9a")
	if err != nil || s.ID != sessions[2].ID {
		t.Fatalf("prefix lookup failed: %v %+v", err, s)
	}
	if _, err := findSession(sessions, "4f1"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := findSession(sessions, "ff"); err == nil {
		t.Fatal("expected no match error")
	}
	if s, err := findSession(sessions, sessions[0].ID); err != nil || s.ID != sessions[0].ID {
		t.Fatalf("exact lookup failed: %v", err)
	}
}

func TestLineWriter_SplitsLines(t *testing.T) {
	var lines []string
	w := newLineWriter(func(line string) { lines = append(lines, line) })

	_, _ = w.Write([]byte("   Compiling itoa v0.4.8\r\n   Compil"))
	_, _ = w.Write([]byte("ing serde v1.0.130\n\n"))
	_, _ = w.Write([]byte("warning: unused"))
	w.Flush()

	want := []string{"   Compiling itoa v0.4.8", "   Compiling serde v1.0.130", "warning: unused"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

// newCargoProject creates a project dir and isolates the state dir.
func newCargoProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"app\"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tree.txt"), []byte(testListing), 0o644); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRenderCommand_WritesSnapshots(t *testing.T) {
	dir := newCargoProject(t)
	input := filepath.Join(dir, "tree.txt")

	out, err := execute(t, "render", "-C", dir, "-i", input, "--svg", "orbit.svg", "--tsv", "edges.tsv")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "orbit.svg") || !strings.Contains(out, "edges.tsv") {
		t.Fatalf("unexpected output %q", out)
	}

	svg, err := os.ReadFile(filepath.Join(dir, "orbit.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("serde 1.0.130")) {
		t.Fatal("svg missing expected content")
	}
	tsv, err := os.ReadFile(filepath.Join(dir, "edges.tsv"))
	if err != nil {
		t.Fatalf("read tsv: %v", err)
	}
	if !strings.HasPrefix(string(tsv), "Parent\tChild") {
		t.Fatalf("unexpected tsv header: %q", tsv)
	}
}

func TestRenderCommand_Focus(t *testing.T) {
	dir := newCargoProject(t)
	input := filepath.Join(dir, "tree.txt")

	if _, err := execute(t, "render", "-C", dir, "-i", input, "--tsv", "serde.tsv", "--focus", "serde v1.0.130"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := execute(t, "render", "-C", dir, "-i", input, "--focus", "tokio 1.0.0"); err == nil {
		t.Fatal("expected error for a crate outside the tree")
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := newCargoProject(t)

	out, err := execute(t, "history", "-C", dir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "no builds recorded") {
		t.Fatalf("unexpected output %q", out)
	}

	store, err := history.Open(filepath.Join(config.DefaultStateDir(), "history.db"), 0)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := "c0ffee00-1111-2222-3333-444455556666"
	err = store.ApplyBatch([]ports.HistoryRecord{
		{Kind: ports.RecordSessionStart, SessionID: id, At: base, Project: dir, Command: "cargo build --message-format=json"},
		{Kind: ports.RecordEvent, SessionID: id, At: base, EventKind: "started", Crate: "itoa 0.4.8"},
		{Kind: ports.RecordEvent, SessionID: id, At: base.Add(1500 * time.Millisecond), EventKind: "finished", Crate: "itoa 0.4.8"},
		{Kind: ports.RecordSessionEnd, SessionID: id, At: base.Add(2 * time.Second), Success: true},
	})
	_ = store.Close()
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}

	out, err = execute(t, "history", "-C", dir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "c0ffee00") || !strings.Contains(out, "1/1") {
		t.Fatalf("session table missing row: %q", out)
	}

	out, err = execute(t, "history", "-C", dir, "--tsv", "c0ffee")
	if err != nil {
		t.Fatalf("history detail: %v", err)
	}
	if !strings.Contains(out, "itoa 0.4.8\t") || !strings.Contains(out, "1.500") {
		t.Fatalf("duration rows missing: %q", out)
	}
}
