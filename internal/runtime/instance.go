// Package runtime implements the tick-driven marble propagation engine
// (spec.md §4.3) and the call-stack/return protocol (spec.md §4.4) on
// top of the immutable board templates produced by internal/board.
package runtime

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/marbelous-lang/marbelous/internal/board"
)

// frame is an active callee anchored on its parent's grid, per
// spec.md §3's call_queue description.
type frame struct {
	instance   *Instance
	anchorRow  int
	anchorCol  int
	callerSite board.CallSite
}

// Instance is a mutable board instance: a fresh deep clone of a
// Template, created at call time and owned exclusively by its position
// on a parent's call stack (or, for the root, by the interpreter's main
// frame). See spec.md §3's ownership model.
type Instance struct {
	Template *board.Template

	id uuid.UUID // trace/debug correlation only; no semantic role

	Marbles          [][]*uint8
	TickCount        int
	RecursionDepth   int
	BufferedStdout   bytes.Buffer

	callStack []*frame
}

// NewInstance deep-clones t into a fresh, runnable instance at the
// given recursion depth.
func NewInstance(t *board.Template, recursionDepth int) *Instance {
	marbles := make([][]*uint8, t.Height)
	for y := range marbles {
		marbles[y] = make([]*uint8, t.Width)
		for x, v := range t.InitialMarbles[y] {
			if v != nil {
				cp := *v
				marbles[y][x] = &cp
			}
		}
	}
	return &Instance{
		Template:       t,
		id:             uuid.New(),
		Marbles:        marbles,
		RecursionDepth: recursionDepth,
	}
}

// ID returns the instance's trace-correlation identity.
func (in *Instance) ID() uuid.UUID { return in.id }

// ActiveCallee returns the instance currently on top of the call
// stack, or nil if none is active.
func (in *Instance) ActiveCallee() *Instance {
	if len(in.callStack) == 0 {
		return nil
	}
	return in.callStack[len(in.callStack)-1].instance
}

// pushCallee pushes a freshly constructed callee instance, anchored at
// (row, col) on in's own grid.
func (in *Instance) pushCallee(callee *Instance, site board.CallSite) {
	in.callStack = append(in.callStack, &frame{
		instance:   callee,
		anchorRow:  site.Row,
		anchorCol:  site.Col,
		callerSite: site,
	})
}

// popCallee removes and returns the top-of-stack frame.
func (in *Instance) popCallee() *frame {
	n := len(in.callStack)
	f := in.callStack[n-1]
	in.callStack = in.callStack[:n-1]
	return f
}

// cell returns the marble value at (y, x), or nil if empty.
func (in *Instance) cell(y, x int) *uint8 {
	return in.Marbles[y][x]
}

// outputSum sums (mod 256) every marble currently sitting at the
// coordinates for output port key. The second return reports whether
// at least one coordinate held a marble (spec.md §3's get_output
// semantics).
func (in *Instance) outputSum(key int) (uint8, bool) {
	coords, ok := in.Template.Outputs[key]
	if !ok {
		return 0, false
	}
	sum := 0
	found := false
	for _, c := range coords {
		if v := in.Marbles[c.Row][c.Col]; v != nil {
			sum += int(*v)
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return uint8(sum % 256), true
}

// OutputByPort exposes outputSum for external callers (the CLI driver's
// -r/--return flag reads the main board's port-0 output this way).
func (in *Instance) OutputByPort(port int) (uint8, bool) {
	return in.outputSum(port)
}

// PopulateInput writes marble m into every coordinate of input port n,
// returning how many coordinates were populated.
func (in *Instance) PopulateInput(n int, m uint8) int {
	coords := in.Template.Inputs[n]
	count := 0
	for _, c := range coords {
		v := m
		in.Marbles[c.Row][c.Col] = &v
		count++
	}
	return count
}
