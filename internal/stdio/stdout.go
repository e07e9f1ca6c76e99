package stdio

import "io"

// Sink is the stdout byte sink the engine writes output marbles to
// (spec.md §5). It is a thin io.Writer wrapper; the verbose-vs-direct
// buffering split described in spec.md §6.4 lives on the engine and on
// runtime.Instance.BufferedStdout, not here — Sink only needs to know
// where bytes ultimately land.
type Sink struct {
	w io.Writer
}

// NewSink wraps w (normally os.Stdout; --stderr affects only the trace).
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}
