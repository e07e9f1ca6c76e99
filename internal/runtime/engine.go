package runtime

import (
	"io"

	"github.com/marbelous-lang/marbelous/internal/board"
)

// RNG is the seedable pseudo-random source the engine draws on for the
// "?N", "??" and "@N" devices (spec.md §9's "seedable PRNG injected
// into the interpreter context"). IntN returns a uniform value in
// [0, n); n is always >= 1 when the engine calls it.
type RNG interface {
	IntN(n int) int
}

// StdinByteSource is the non-blocking stdin collaborator the "]]"
// device polls (spec.md §5, §6.2). TryReadByte must never block.
type StdinByteSource interface {
	TryReadByte() (b byte, ok bool)
}

// Engine drives the tick-by-tick propagation of one board instance and
// its call stack. It holds no board state itself; all mutable state
// lives on the Instance passed to Tick.
type Engine struct {
	Registry *board.Registry
	RNG      RNG
	Stdin    StdinByteSource
	Stdout   io.Writer
	Verbose  int

	// OnTick, when non-nil, is invoked after every own-transition (not
	// after callee-delegation steps) with the instance that just ticked
	// and whether it is still running. It is the hook internal/trace
	// uses to render verbose frames (spec.md §6.4); the engine itself
	// has no notion of rendering.
	OnTick func(inst *Instance, stillRunning bool)
}

// Run ticks root to completion, optionally stopping early if maxTicks
// is reached (0 = unbounded). It returns true if the board terminated
// on its own, or false if the tick cap was hit first.
func (e *Engine) Run(root *Instance, maxTicks int) bool {
	for maxTicks <= 0 || root.TickCount < maxTicks {
		if !e.Tick(root) {
			return true
		}
	}
	return false
}

// Tick advances inst by one external call, per spec.md §4.3's
// top-level contract: if inst has an active callee, that callee is
// advanced instead (recursively) and inst's own tick_count is left
// untouched; otherwise inst performs its own transition. It returns
// true if inst (or, transitively, the chain it delegated to) is still
// running, false once inst itself has terminated.
func (e *Engine) Tick(inst *Instance) bool {
	if callee := inst.ActiveCallee(); callee != nil {
		if running := e.Tick(callee); !running {
			e.harvestCallee(inst)
		}
		return true
	}
	stillRunning := e.ownTransition(inst)
	if e.OnTick != nil {
		e.OnTick(inst, stillRunning)
	}
	return stillRunning
}

// emit writes one stdout byte, respecting the verbose/non-verbose
// buffering split of spec.md §5.
func (e *Engine) emit(inst *Instance, m uint8) {
	if e.Verbose > 0 {
		inst.BufferedStdout.WriteByte(m)
		return
	}
	if e.Stdout != nil {
		_, _ = e.Stdout.Write([]byte{m})
	}
}
