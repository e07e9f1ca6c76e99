// Package stdio provides the two I/O collaborators spec.md §1 keeps
// external to the interpreter core: a non-blocking stdin byte source
// and a stdout byte sink, mirroring the corpus's pattern of running
// a terminal in raw mode behind a background reader goroutine feeding
// a buffered channel.
package stdio

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// Source is a non-blocking stdin byte source for the "]]" device
// (spec.md §6.2). TryReadByte never blocks: if no byte has arrived
// since the last poll, it reports ok=false.
type Source struct {
	bytes    chan byte
	restore  func() error
}

// NewSource starts a background reader over f (normally os.Stdin). If f
// is a terminal, it is switched to raw mode so single keystrokes arrive
// without waiting for a newline; if it is not a terminal (piped input,
// tests), bytes are simply read as they come.
func NewSource(f *os.File) *Source {
	s := &Source{bytes: make(chan byte, 4096)}

	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err == nil {
			s.restore = func() error { return term.Restore(fd, old) }
		}
	}

	go s.readLoop(f)
	return s
}

func (s *Source) readLoop(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			close(s.bytes)
			return
		}
		s.bytes <- b
	}
}

// TryReadByte satisfies runtime.StdinByteSource: it returns immediately,
// never blocking the tick loop waiting on a human.
func (s *Source) TryReadByte() (byte, bool) {
	select {
	case b, ok := <-s.bytes:
		return b, ok
	default:
		return 0, false
	}
}

// Close restores the terminal mode, if Source put it into raw mode.
func (s *Source) Close() error {
	if s.restore != nil {
		return s.restore()
	}
	return nil
}
