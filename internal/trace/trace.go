// Package trace renders verbose tick frames (spec.md §6.4): the
// diagnostic side channel the core interpreter never touches directly.
// It is wired in as runtime.Engine.OnTick, and fans frames out to
// whichever Sinks the CLI driver attached (a plain writer, and/or the
// websocket broadcaster behind --serve).
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/marbelous-lang/marbelous/internal/board"
	"github.com/marbelous-lang/marbelous/internal/runtime"
)

// Sink receives one rendered frame for each frame the Recorder emits.
type Sink interface {
	WriteFrame(text string)
}

// WriterSink adapts a plain io.Writer (a file or os.Stderr) into a Sink.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) WriteFrame(text string) {
	io.WriteString(s.W, text)
}

// Recorder renders the instance that performed an own-transition and
// fans the rendering out to its Sinks. The other instances in the call
// chain (its ancestors) are not rendered on that tick. It skips frames
// that changed nothing visible, using a per-instance GridBuffer to
// detect that.
type Recorder struct {
	Sinks []Sink

	buffers map[uuid.UUID]*GridBuffer
}

// OnTick is a runtime.Engine.OnTick-shaped hook. The engine passes only
// the instance that actually ticked, so it renders that instance alone,
// indented by its own RecursionDepth; the rest of the active call chain
// is not rendered.
func (r *Recorder) OnTick(inst *runtime.Instance, stillRunning bool) {
	if r.buffers == nil {
		r.buffers = map[uuid.UUID]*GridBuffer{}
	}
	gb, ok := r.buffers[inst.ID()]
	if !ok {
		gb = NewGridBuffer()
		r.buffers[inst.ID()] = gb
	}
	if !gb.Update(inst) && stillRunning {
		return
	}
	if !stillRunning {
		delete(r.buffers, inst.ID())
	}

	frame := Render(inst)
	for _, s := range r.Sinks {
		s.WriteFrame(frame)
	}
}

// Render formats one instance's current grid: each cell is its marble's
// hex value if occupied, else its device's two-character text, each row
// prefixed by RecursionDepth spaces and terminated with a newline.
func Render(inst *runtime.Instance) string {
	t := inst.Template
	indent := strings.Repeat(" ", inst.RecursionDepth)
	var b strings.Builder
	fmt.Fprintf(&b, "%s-- %s (tick %d) --\n", indent, t.Name, inst.TickCount)
	for y := 0; y < t.Height; y++ {
		b.WriteString(indent)
		for x := 0; x < t.Width; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cellText(inst, t, y, x))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cellText(inst *runtime.Instance, t *board.Template, y, x int) string {
	if v := inst.Marbles[y][x]; v != nil {
		return fmt.Sprintf("%02X", *v)
	}
	if d := t.Devices[y][x]; d != nil {
		return d.Text()
	}
	return ".."
}
