package runtime

import "github.com/marbelous-lang/marbelous/internal/board"

// ownTransition implements spec.md §4.3's "own-transition procedure".
func (e *Engine) ownTransition(inst *Instance) bool {
	t := inst.Template

	if len(t.Outputs) > 0 && allOutputsFilled(inst) {
		return false
	}

	next := make([][]*uint8, t.Height)
	for y := range next {
		next[y] = make([]*uint8, t.Width)
	}
	exitNow := false
	hiddenActivity := false

	put := func(y, x int, v uint8) {
		if cur := next[y][x]; cur != nil {
			sum := uint8((int(*cur) + int(v)) % 256)
			next[y][x] = &sum
		} else {
			vv := v
			next[y][x] = &vv
		}
	}

	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			mp := inst.Marbles[y][x]
			if mp == nil {
				continue
			}
			dev := t.Devices[y][x]
			e.applyDevice(inst, y, x, *mp, dev, put, &exitNow, &hiddenActivity)
		}
	}

	for _, site := range t.CallSites {
		e.fireCallSite(inst, site, put, &hiddenActivity)
	}

	changed := !gridsEqual(inst.Marbles, next)
	if !changed && !hiddenActivity {
		return false
	}
	if exitNow {
		return false
	}
	inst.Marbles = next
	inst.TickCount++
	return true
}

// applyDevice implements the per-marble move semantics of spec.md
// §4.3's "Move semantics" and the device table of spec.md §6.2.
func (e *Engine) applyDevice(inst *Instance, y, x int, m uint8, dev board.Device, put func(y, x int, v uint8), exitNow, hiddenActivity *bool) {
	t := inst.Template
	down, left, right := false, false, false
	newY, newX := y, x

	switch d := dev.(type) {
	case nil:
		down = true
	case board.PassThrough:
		down = true
	case board.MirrorRight:
		right = true
	case board.MirrorLeft:
		left = true
	case board.Splitter:
		left, right = true, true
	case board.Trash:
		// consumed
	case board.Arithmetic:
		down = true
		switch d.Op {
		case board.OpIncrement:
			m = m + 1
		case board.OpDecrement:
			m = m - 1
		case board.OpShiftLeft:
			m = m << 1
		case board.OpShiftRight:
			m = m >> 1
		case board.OpBitNot:
			m = ^m
		}
	case board.Exit:
		*exitNow = true
	case board.StdinRead:
		if e.Stdin != nil {
			if b, ok := e.Stdin.TryReadByte(); ok {
				m = b
				down = true
				break
			}
		}
		right = true
	case board.BitExtract:
		m = (m >> uint(d.Bit)) & 1
		down = true
	case board.AddConst:
		m = m + uint8(d.N)
		down = true
	case board.SubConst:
		m = m - uint8(d.N)
		down = true
	case board.Compare:
		var cond bool
		switch d.Op {
		case board.CompareEQ:
			cond = m == uint8(d.N)
		case board.CompareGT:
			cond = m > uint8(d.N)
		case board.CompareLT:
			cond = m < uint8(d.N)
		}
		if cond {
			down = true
		} else {
			right = true
		}
	case board.RandomBounded:
		m = uint8(e.intn(d.N + 1))
		down = true
	case board.RandomMarble:
		m = uint8(e.intn(int(m) + 1))
		down = true
	case board.Portal:
		if peers := portalPeers(t, y, x, d.N); len(peers) > 0 {
			c := peers[e.intn(len(peers))]
			newY, newX = c.Row, c.Col
		}
		down = true
	case board.Sync:
		if syncReleases(inst, y, x, d.N) {
			down = true
		} else {
			put(y, x, m)
			return
		}
	case board.InputPort:
		down = true
	case board.OutputPort:
		put(y, x, m)
		return
	case board.Unrecognized:
		// trash
	default:
		// unreachable for the closed Device set
	}

	if down {
		if newY == t.Height-1 {
			e.emit(inst, m)
			*hiddenActivity = true
		} else {
			put(newY+1, newX, m)
		}
	}
	if right {
		if newX < t.Width-1 {
			put(newY, newX+1, m)
		}
	}
	if left {
		if newX > 0 {
			put(newY, newX-1, m)
		}
	}
}

func (e *Engine) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if e.RNG == nil {
		return 0
	}
	return e.RNG.IntN(n)
}

// portalPeers returns every other cell holding Portal{N} on the same
// board (template-static, since devices never change at runtime).
func portalPeers(t *board.Template, y, x, n int) []board.Coord {
	var out []board.Coord
	for k := 0; k < t.Height; k++ {
		for j := 0; j < t.Width; j++ {
			if k == y && j == x {
				continue
			}
			if p, ok := t.Devices[k][j].(board.Portal); ok && p.N == n {
				out = append(out, board.Coord{Row: k, Col: j})
			}
		}
	}
	return out
}

// syncReleases reports whether every other "&N" cell on the board
// currently holds a marble (spec.md §6.2's Synchronize device).
func syncReleases(inst *Instance, y, x, n int) bool {
	t := inst.Template
	for k := 0; k < t.Height; k++ {
		for j := 0; j < t.Width; j++ {
			if k == y && j == x {
				continue
			}
			if s, ok := t.Devices[k][j].(board.Sync); ok && s.N == n {
				if inst.Marbles[k][j] == nil {
					return false
				}
			}
		}
	}
	return true
}

// fireCallSite implements spec.md §4.3 step 4: push a fresh callee
// instance when every declared input port of the call site is filled
// in the current grid; otherwise preserve whichever input cells are
// filled so they do not fall through a waiting call.
func (e *Engine) fireCallSite(inst *Instance, site board.CallSite, put func(y, x int, v uint8), hiddenActivity *bool) {
	callee := e.Registry.Lookup(site.CalleeName)
	if callee == nil {
		return
	}

	allFilled := true
	for port := range callee.Inputs {
		if inst.Marbles[site.Row][site.Col+port] == nil {
			allFilled = false
			break
		}
	}

	if !allFilled {
		for port := range callee.Inputs {
			if mp := inst.Marbles[site.Row][site.Col+port]; mp != nil {
				put(site.Row, site.Col+port, *mp)
			}
		}
		return
	}

	child := NewInstance(callee, inst.RecursionDepth+1)
	for port := range callee.Inputs {
		child.PopulateInput(port, *inst.Marbles[site.Row][site.Col+port])
	}
	inst.pushCallee(child, site)
	*hiddenActivity = true
}

func allOutputsFilled(inst *Instance) bool {
	for _, coords := range inst.Template.Outputs {
		filled := false
		for _, c := range coords {
			if inst.Marbles[c.Row][c.Col] != nil {
				filled = true
				break
			}
		}
		if !filled {
			return false
		}
	}
	return true
}

func gridsEqual(a, b [][]*uint8) bool {
	for y := range a {
		for x := range a[y] {
			av, bv := a[y][x], b[y][x]
			if (av == nil) != (bv == nil) {
				return false
			}
			if av != nil && *av != *bv {
				return false
			}
		}
	}
	return true
}
