package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLinesExpandsInclude(t *testing.T) {
	dir := t.TempDir()

	inc := filepath.Join(dir, "shared.mbl")
	if err := os.WriteFile(inc, []byte("FN\n++\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.mbl")
	if err := os.WriteFile(main, []byte("}0\n#include shared.mbl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := LoadLines(main)
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}

	var got []string
	for _, l := range lines {
		got = append(got, l.Text)
	}
	want := []string{"}0", "FN", "++"}
	if len(got) != len(want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lines[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadLinesDetectsCycle(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.mbl")
	b := filepath.Join(dir, "b.mbl")
	if err := os.WriteFile(a, []byte("#include b.mbl\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("#include a.mbl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadLines(a); err == nil {
		t.Fatal("expected a circular-include error, got nil")
	}
}
