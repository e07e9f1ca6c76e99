package trace

import "github.com/marbelous-lang/marbelous/internal/runtime"

// GridBuffer tracks per-row dirtiness of one instance's marble grid
// across ticks, adapted from the terminal package's vt10x-style dirty
// line tracking: instead of skipping unchanged terminal rows on
// redraw, it skips emitting a trace frame when an own-transition
// produced no visible change in any row. (Callee-delegation ticks never
// reach it: the engine does not call OnTick for them.)
type GridBuffer struct {
	rows       []string
	anydirty   bool
	sequenceID uint64
}

// NewGridBuffer returns an empty buffer; the first Update always
// reports dirty (there is nothing to compare against yet).
func NewGridBuffer() *GridBuffer {
	return &GridBuffer{}
}

// Update recomputes per-row text for inst and reports whether anything
// changed since the last call.
func (g *GridBuffer) Update(inst *runtime.Instance) bool {
	t := inst.Template
	rows := make([]string, t.Height)
	for y := 0; y < t.Height; y++ {
		rows[y] = rowText(inst, y)
	}

	changed := len(rows) != len(g.rows)
	if !changed {
		for y := range rows {
			if rows[y] != g.rows[y] {
				changed = true
				break
			}
		}
	}

	g.rows = rows
	g.anydirty = changed
	if changed {
		g.sequenceID++
	}
	return changed
}

// SequenceID is a monotonic counter bumped on every dirty Update,
// usable to deduplicate frames downstream (e.g. in a slow websocket
// viewer that only wants the latest state).
func (g *GridBuffer) SequenceID() uint64 { return g.sequenceID }

func rowText(inst *runtime.Instance, y int) string {
	t := inst.Template
	s := make([]byte, 0, t.Width*3)
	for x := 0; x < t.Width; x++ {
		if x > 0 {
			s = append(s, ' ')
		}
		s = append(s, cellText(inst, t, y, x)...)
	}
	return string(s)
}
