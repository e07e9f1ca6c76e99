package runtime

import (
	"bytes"
	"testing"

	"github.com/marbelous-lang/marbelous/internal/board"
)

func mustParse(t *testing.T, name string, lines []string) *board.Template {
	t.Helper()
	tmpl, err := board.Parse(name, lines)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return tmpl
}

// S1: a single cell holding a marble falls off the bottom edge and is
// emitted to stdout.
func TestScenarioPassThrough(t *testing.T) {
	tmpl := mustParse(t, "MB", []string{"42"})
	r := board.NewRegistry()
	r.Add(tmpl)

	var out bytes.Buffer
	e := &Engine{Registry: r, Stdout: &out}
	root := NewInstance(tmpl, 0)
	e.Run(root, 0)

	if got := out.Bytes(); len(got) != 1 || got[0] != 0x42 {
		t.Fatalf("stdout = %x, want [42]", got)
	}
}

// S2: an input port feeds an incrementer that falls off the last row.
func TestScenarioIncrement(t *testing.T) {
	tmpl := mustParse(t, "MB", []string{"}0", "++"})
	r := board.NewRegistry()
	r.Add(tmpl)

	var out bytes.Buffer
	e := &Engine{Registry: r, Stdout: &out}
	root := NewInstance(tmpl, 0)
	root.PopulateInput(0, 65)
	e.Run(root, 0)

	if got := out.Bytes(); len(got) != 1 || got[0] != 0x42 {
		t.Fatalf("stdout = %x, want [42]", got)
	}
	if root.TickCount != 2 {
		t.Fatalf("tick_count = %d, want 2", root.TickCount)
	}
}

// S3: a compare device routes down (true) into an output port, or
// right (false) off the edge of a single-column grid.
func TestScenarioBranch(t *testing.T) {
	r := board.NewRegistry()
	tmpl := mustParse(t, "MB", []string{"}0", "=5", "{0"})
	r.Add(tmpl)

	t.Run("equal", func(t *testing.T) {
		var out bytes.Buffer
		e := &Engine{Registry: r, Stdout: &out}
		root := NewInstance(tmpl, 0)
		root.PopulateInput(0, 5)
		e.Run(root, 0)

		v, ok := root.OutputByPort(0)
		if !ok || v != 5 {
			t.Fatalf("output port 0 = (%d, %v), want (5, true)", v, ok)
		}
		if out.Len() != 0 {
			t.Fatalf("stdout = %x, want empty", out.Bytes())
		}
	})

	t.Run("not-equal-diverts-off-grid", func(t *testing.T) {
		var out bytes.Buffer
		e := &Engine{Registry: r, Stdout: &out}
		root := NewInstance(tmpl, 0)
		root.PopulateInput(0, 7)
		e.Run(root, 0)

		if _, ok := root.OutputByPort(0); ok {
			t.Fatal("output port 0 should be empty, marble was discarded off the right edge")
		}
		if out.Len() != 0 {
			t.Fatalf("stdout = %x, want empty", out.Bytes())
		}
	})
}

// S4: two synchronize devices release together once both inputs have
// arrived, scanned in row-major order.
func TestScenarioSync(t *testing.T) {
	tmpl := mustParse(t, "MB", []string{"}0}1", "&0&0"})
	r := board.NewRegistry()
	r.Add(tmpl)

	var out bytes.Buffer
	e := &Engine{Registry: r, Stdout: &out}
	root := NewInstance(tmpl, 0)
	root.PopulateInput(0, 3)
	root.PopulateInput(1, 4)
	e.Run(root, 0)

	want := []byte{0x03, 0x04}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("stdout = %x, want %x", out.Bytes(), want)
	}
}

// S5: a call site invokes a one-input/one-output callee; the callee's
// template is unchanged after the call completes.
func TestScenarioCall(t *testing.T) {
	r := board.NewRegistry()
	mb := mustParse(t, "MB", []string{"}0", "FN"})
	fn := mustParse(t, "FN", []string{"}0", "++", "{0"})
	r.Add(mb)
	r.Add(fn)
	if err := board.ResolveFunctions(r); err != nil {
		t.Fatalf("ResolveFunctions: %v", err)
	}

	fnMarblesBefore := fn.InitialMarbles[0][0]

	var out bytes.Buffer
	e := &Engine{Registry: r, Stdout: &out}
	root := NewInstance(mb, 0)
	root.PopulateInput(0, 10)
	e.Run(root, 0)

	if got := out.Bytes(); len(got) != 1 || got[0] != 0x0B {
		t.Fatalf("stdout = %x, want [0B]", got)
	}
	if fn.InitialMarbles[0][0] != fnMarblesBefore {
		t.Fatal("FN template was mutated by the call")
	}
}

// S6: a self-recursive callee decrements toward a base case; recursion
// depth tracks the call depth and unwinds cleanly.
func TestScenarioRecursion(t *testing.T) {
	r := board.NewRegistry()
	mb := mustParse(t, "MB", []string{"}0", "FN"})
	fn := mustParse(t, "FN", []string{
		"}0..",
		"=0..",
		"..-1",
		"..FN",
		"{0//",
	})
	r.Add(mb)
	r.Add(fn)
	if err := board.ResolveFunctions(r); err != nil {
		t.Fatalf("ResolveFunctions: %v", err)
	}

	maxDepth := 0
	e := &Engine{
		Registry: r,
		Stdout:   &bytes.Buffer{},
		OnTick: func(inst *Instance, stillRunning bool) {
			if inst.RecursionDepth > maxDepth {
				maxDepth = inst.RecursionDepth
			}
		},
	}
	root := NewInstance(mb, 0)
	root.PopulateInput(0, 3)

	finished := e.Run(root, 10000)
	if !finished {
		t.Fatal("run hit the tick cap instead of terminating")
	}
	if maxDepth != 4 {
		t.Fatalf("max recursion depth observed = %d, want 4", maxDepth)
	}
	if len(root.callStack) != 0 {
		t.Fatal("call stack did not unwind completely")
	}
}
