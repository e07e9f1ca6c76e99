package runtime

import (
	"sort"

	"github.com/marbelous-lang/marbelous/internal/board"
)

// harvestCallee implements spec.md §4.4's return protocol: once the
// top-of-stack callee has terminated, its outputs are harvested exactly
// once, deposited into the parent, and the frame is popped.
func (e *Engine) harvestCallee(parent *Instance) {
	f := parent.popCallee()
	callee := f.instance
	t := callee.Template
	anchorRow, anchorCol := f.anchorRow, f.anchorCol

	if v, ok := callee.outputSum(board.PortLeftReturn); ok && anchorCol > 0 {
		parent.depositMerge(anchorRow, anchorCol-1, v)
	}
	if v, ok := callee.outputSum(board.PortRightReturn); ok {
		destCol := anchorCol + t.FunctionWidth
		if destCol < parent.Template.Width {
			parent.depositMerge(anchorRow, destCol, v)
		}
	}

	var ports []int
	for p := range t.Outputs {
		if p >= 0 {
			ports = append(ports, p)
		}
	}
	sort.Ints(ports)
	for _, p := range ports {
		v, ok := callee.outputSum(p)
		if !ok {
			continue
		}
		if anchorRow < parent.Template.Height-1 {
			parent.depositMerge(anchorRow+1, anchorCol+p, v)
		} else {
			e.emit(parent, v)
		}
	}

	parent.BufferedStdout.Write(callee.BufferedStdout.Bytes())
}

// depositMerge writes v into in's current marble grid at (y, x),
// summing modulo 256 with whatever is already there (the commutative
// merge rule of spec.md §4.3, applied here to the one-shot harvest
// deposit rather than a tick's simultaneous arrivals).
func (in *Instance) depositMerge(y, x int, v uint8) {
	if cur := in.Marbles[y][x]; cur != nil {
		sum := uint8((int(*cur) + int(v)) % 256)
		in.Marbles[y][x] = &sum
	} else {
		vv := v
		in.Marbles[y][x] = &vv
	}
}
