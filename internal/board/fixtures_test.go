package board

import (
	"os"
	"strings"
	"testing"
)

// readFixtureLines loads a golden .mbl fixture from testdata/ and
// splits it into the line slice Parse expects, dropping comment lines
// the way internal/source's loader would before handing lines to the
// parser.
func readFixtureLines(t *testing.T, name string) []string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.HasPrefix(l, "#") {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func TestFixturePassThrough(t *testing.T) {
	tmpl, err := Parse("MB", readFixtureLines(t, "passthrough.mbl"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v := tmpl.InitialMarbles[0][0]
	if v == nil || *v != 0x42 {
		t.Fatalf("initial marble = %v, want 0x42", v)
	}
}

func TestFixtureBranch(t *testing.T) {
	tmpl, err := Parse("MB", readFixtureLines(t, "branch.mbl"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tmpl.Height != 3 || tmpl.Width != 1 {
		t.Fatalf("got %dx%d, want 1x3", tmpl.Width, tmpl.Height)
	}
	if _, ok := tmpl.Devices[1][0].(Compare); !ok {
		t.Fatalf("row 1 device = %#v, want Compare", tmpl.Devices[1][0])
	}
	if _, ok := tmpl.Devices[2][0].(OutputPort); !ok {
		t.Fatalf("row 2 device = %#v, want OutputPort", tmpl.Devices[2][0])
	}
}

func TestFixtureCallResolvesAcrossBoards(t *testing.T) {
	lines := readFixtureLines(t, "call.mbl")

	var mbLines, fnLines []string
	cur := &mbLines
	for _, l := range lines {
		if strings.HasPrefix(l, ":") {
			cur = &fnLines
			continue
		}
		*cur = append(*cur, l)
	}

	mb, err := Parse("MB", mbLines)
	if err != nil {
		t.Fatalf("parse MB: %v", err)
	}
	fn, err := Parse("FN", fnLines)
	if err != nil {
		t.Fatalf("parse FN: %v", err)
	}

	r := NewRegistry()
	r.Add(mb)
	r.Add(fn)
	if err := ResolveFunctions(r); err != nil {
		t.Fatalf("ResolveFunctions: %v", err)
	}

	if len(mb.CallSites) != 1 || mb.CallSites[0].CalleeName != "FN" {
		t.Fatalf("MB.CallSites = %v, want a single call to FN", mb.CallSites)
	}
}
