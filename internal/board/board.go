// Package board implements the Marbelous lexical grammar and the
// immutable board template it produces: the parser (§4.1), the
// function resolver (§4.2), and the Device closed set (§6.2).
//
// A Template is built once per named board and never mutated again;
// internal/runtime clones it into a mutable instance for every
// invocation, per the ownership model in spec.md §3.
package board

// Coord is a (row, column) grid position, row 0 at the top.
type Coord struct {
	Row, Col int
}

// CallSite is a recorded (row, leftmost-column, callee-name) function
// invocation location, produced by the resolver (resolver.go).
type CallSite struct {
	Row        int
	Col        int
	CalleeName string
}

// Template is an immutable, fully parsed board: its device grid, its
// initial marbles, its port maps, and its resolved call sites.
//
// Templates are owned by the process-wide Registry (resolver.go) and
// are never mutated after Parse/ResolveFunctions complete.
type Template struct {
	Name   string
	Width  int
	Height int

	// Devices[y][x] is nil for a cell holding an initial marble instead
	// of a device (the two are mutually exclusive per spec.md §4.1).
	Devices [][]Device

	// InitialMarbles[y][x] is nil unless the source cell was a two-hex
	// literal.
	InitialMarbles [][]*uint8

	// Inputs/Outputs map port index (0-based for inputs; 0-based, or the
	// reserved -1/-2 for left/right return, for outputs) to the cells
	// that carry that port.
	Inputs  map[int][]Coord
	Outputs map[int][]Coord

	FunctionWidth int
	CallSites     []CallSite
}

// Reserved output port indices (spec.md §3).
const (
	PortLeftReturn  = -1
	PortRightReturn = -2
)

// newTemplate allocates the width x height grids for a board under
// construction.
func newTemplate(name string, width, height int) *Template {
	devices := make([][]Device, height)
	marbles := make([][]*uint8, height)
	for y := 0; y < height; y++ {
		devices[y] = make([]Device, width)
		marbles[y] = make([]*uint8, width)
	}
	return &Template{
		Name:           name,
		Width:          width,
		Height:         height,
		Devices:        devices,
		InitialMarbles: marbles,
		Inputs:         make(map[int][]Coord),
		Outputs:        make(map[int][]Coord),
		FunctionWidth:  1,
	}
}

// InputPortCount reports how many distinct input ports the template
// declares (used by the CLI to validate the supplied input count).
func (t *Template) InputPortCount() int {
	return len(t.Inputs)
}
