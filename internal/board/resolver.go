package board

import "strings"

// Registry holds the process-wide set of parsed board templates, keyed
// by name. It is populated once at load time and is read-only for the
// rest of the run (spec.md §3's ownership model).
type Registry struct {
	boards map[string]*Template
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{boards: make(map[string]*Template)}
}

// Add registers a parsed template. Registering a name that is already
// present replaces the earlier template; no error is reported. The
// caller (internal/interp's LoadFile) parses each named board segment
// once.
func (r *Registry) Add(t *Template) {
	r.boards[t.Name] = t
}

// Lookup returns the template for name, or nil if it is not registered.
func (r *Registry) Lookup(name string) *Template {
	return r.boards[name]
}

// All returns every registered template, in no particular order.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.boards))
	for _, t := range r.boards {
		out = append(out, t)
	}
	return out
}

// ResolveFunctions runs the function resolver (spec.md §4.2) over every
// board in the registry. It must be called once, after every board in
// the source file has been parsed and registered, because a call site
// may reference a board defined later in the file.
func ResolveFunctions(r *Registry) error {
	wideNames := make(map[string]string, len(r.boards))
	for _, b := range r.boards {
		reps := (2 * b.FunctionWidth) / len(b.Name)
		wideNames[strings.Repeat(b.Name, reps)] = b.Name
	}

	for _, t := range r.boards {
		if err := resolveBoard(t, wideNames); err != nil {
			return err
		}
	}
	return nil
}

func resolveBoard(t *Template, wideNames map[string]string) error {
	for y := 0; y < t.Height; y++ {
		acc := ""
		accStart := -1
		for x := 0; x < t.Width; x++ {
			d := t.Devices[y][x]
			if acc == "" {
				if !isNonStandard(d) {
					continue
				}
				acc = d.Text()
				accStart = x
			} else if isNonStandard(d) {
				acc += d.Text()
			} else {
				return &ParseError{Board: t.Name, Row: y, Msg: "row ends with unresolved cell sequence: " + acc}
			}

			if callee, ok := wideNames[acc]; ok {
				t.CallSites = append(t.CallSites, CallSite{Row: y, Col: accStart, CalleeName: callee})
				acc = ""
				accStart = -1
			}
		}
		if acc != "" {
			return &ParseError{Board: t.Name, Row: y, Msg: "row ends with unresolved cell sequence: " + acc}
		}
	}
	return nil
}

// isNonStandard reports whether a cell is neither a recognized device,
// nor an initial marble (marbles never reach here, only Devices do),
// nor empty — i.e. a candidate first character of a call-site name.
func isNonStandard(d Device) bool {
	if d == nil {
		return false
	}
	_, unrecognized := d.(Unrecognized)
	return unrecognized
}
