package board

import (
	"strconv"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// Parse turns the textual lines belonging to a single board (the
// leading ":Name" line already consumed by the caller) into a
// Template, implementing the row-tokenization heuristic and cell
// classification rules of spec.md §4.1.
func Parse(name string, lines []string) (*Template, error) {
	rows := make([][]string, 0, len(lines))
	width := 0
	for _, raw := range lines {
		row := tokenizeRow(raw)
		row = stripComment(row)
		rows = append(rows, row)
		if len(row) > width {
			width = len(row)
		}
	}
	height := len(rows)

	t := newTemplate(name, width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var cell string
			if x < len(rows[y]) {
				cell = rows[y][x]
			} else {
				cell = "  "
			}
			if cell == "" {
				cell = "  "
			}
			classifyCell(t, y, x, cell)
		}
	}

	if len(t.Inputs) > 0 {
		t.FunctionWidth = maxInt(t.FunctionWidth, maxKey(t.Inputs)+1)
	}
	if len(t.Outputs) > 0 {
		t.FunctionWidth = maxInt(t.FunctionWidth, maxKeyAbs(t.Outputs)+1)
	}

	if name != "MB" {
		wide := 2 * t.FunctionWidth
		if len(name) == 0 || wide%len(name) != 0 {
			return nil, &ParseError{Board: name, Row: -1, Msg: "name is not a divisor of function width " + strconv.Itoa(t.FunctionWidth)}
		}
	}

	return t, nil
}

// tokenizeRow implements the three-branch heuristic of spec.md §4.1.
func tokenizeRow(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 3 || line[2] != ' ' {
		return splitFixed(line)
	}
	if len(line) < 4 || line[3] != ' ' {
		return strings.Split(line, " ")
	}
	return strings.Split(line, "  ")
}

// splitFixed splits a line into fixed 2-character cells, per spec.md
// §4.1 branch 1. A final odd character is padded with a trailing
// space to form a whole cell.
func splitFixed(line string) []string {
	var out []string
	for i := 0; i < len(line); i += 2 {
		if i+2 <= len(line) {
			out = append(out, line[i:i+2])
		} else {
			out = append(out, line[i:i+1]+" ")
		}
	}
	return out
}

// stripComment implements the comment-stripping rule of spec.md §4.1:
// the first cell starting with '#' terminates the row; a cell
// containing but not starting with '#' is truncated at that '#' and
// also terminates the row.
func stripComment(row []string) []string {
	for i, cell := range row {
		if cell == "" {
			continue
		}
		if cell[0] == '#' {
			return row[:i]
		}
		if idx := strings.IndexByte(cell, '#'); idx >= 0 {
			out := make([]string, i+1)
			copy(out, row[:i])
			out[i] = cell[:idx]
			return out
		}
	}
	return row
}

// classifyCell implements spec.md §4.1's per-cell classification rule.
func classifyCell(t *Template, y, x int, cell string) {
	if len(cell) < 2 {
		cell = cell + " "
	}
	c0, c1 := cell[0], cell[1]

	if isHex(c0) && isHex(c1) {
		v := uint8(hexVal(c0)*16 + hexVal(c1))
		t.InitialMarbles[y][x] = &v
		return
	}

	d := classifyDevice(cell)
	t.Devices[y][x] = d

	switch dd := d.(type) {
	case InputPort:
		coord := Coord{Row: y, Col: x}
		t.Inputs[dd.Port] = append(t.Inputs[dd.Port], coord)
	case OutputPort:
		var key int
		switch dd.Kind {
		case OutputLeftReturn:
			key = PortLeftReturn
		case OutputRightReturn:
			key = PortRightReturn
		default:
			key = dd.Port
		}
		coord := Coord{Row: y, Col: x}
		t.Outputs[key] = append(t.Outputs[key], coord)
	}
}

// classifyDevice maps a two-character cell to its Device, per the
// closed table in spec.md §6.2. Anything not matched here becomes
// Unrecognized, which the tick engine treats exactly like Trash.
func classifyDevice(cell string) Device {
	c0, c1 := cell[0], cell[1]
	switch cell {
	case "  ", "..":
		return PassThrough{}
	case `\\`:
		return MirrorRight{}
	case "//":
		return MirrorLeft{}
	case `/\`:
		return Splitter{}
	case `\/`:
		return Trash{}
	case "++":
		return Arithmetic{Op: OpIncrement}
	case "--":
		return Arithmetic{Op: OpDecrement}
	case "<<":
		return Arithmetic{Op: OpShiftLeft}
	case ">>":
		return Arithmetic{Op: OpShiftRight}
	case "~~":
		return Arithmetic{Op: OpBitNot}
	case "!!":
		return Exit{}
	case "]]":
		return StdinRead{}
	case "??":
		return RandomMarble{}
	}

	switch c0 {
	case '^':
		if n := b36Value(c1); n >= 0 && n <= 7 {
			return BitExtract{Bit: n}
		}
	case '+':
		if n := b36Value(c1); n >= 0 {
			return AddConst{N: n}
		}
	case '-':
		if n := b36Value(c1); n >= 0 {
			return SubConst{N: n}
		}
	case '=':
		if n := b36Value(c1); n >= 0 {
			return Compare{Op: CompareEQ, N: n}
		}
	case '>':
		if n := b36Value(c1); n >= 0 {
			return Compare{Op: CompareGT, N: n}
		}
	case '<':
		if n := b36Value(c1); n >= 0 {
			return Compare{Op: CompareLT, N: n}
		}
	case '?':
		if n := b36Value(c1); n >= 0 {
			return RandomBounded{N: n}
		}
	case '@':
		if n := b36Value(c1); n >= 0 {
			return Portal{N: n}
		}
	case '&':
		if n := b36Value(c1); n >= 0 {
			return Sync{N: n}
		}
	case '}':
		if n := b36Value(c1); n >= 0 {
			return InputPort{Port: n}
		}
	case '{':
		switch c1 {
		case '<':
			return OutputPort{Kind: OutputLeftReturn}
		case '>':
			return OutputPort{Kind: OutputRightReturn}
		default:
			if n := b36Value(c1); n >= 0 {
				return OutputPort{Kind: OutputNumbered, Port: n}
			}
		}
	}

	return Unrecognized{Raw: cell}
}

func isHex(b byte) bool {
	return strings.IndexByte(hexDigits, b) >= 0
}

func hexVal(b byte) int {
	return strings.IndexByte(hexDigits, b)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxKey(m map[int][]Coord) int {
	max := 0
	first := true
	for k := range m {
		if first || k > max {
			max = k
			first = false
		}
	}
	return max
}

// maxKeyAbs mirrors maxKey but for output ports, whose map also
// contains the reserved negative left/right-return keys; those are
// excluded from the function-width computation (spec.md §3 only
// counts numbered ports toward function_width).
func maxKeyAbs(m map[int][]Coord) int {
	max := 0
	first := true
	for k := range m {
		if k < 0 {
			continue
		}
		if first || k > max {
			max = k
			first = false
		}
	}
	return max
}
