// Package interp assembles the explicit interpreter context that
// spec.md's Design Notes §9 asks for in place of package-level globals:
// a board registry, a seedable PRNG, and the load-time Config, wired
// together so a CLI driver never has to touch internal/board or
// internal/runtime internals directly.
package interp

import (
	"math/rand/v2"
	"strings"

	"github.com/marbelous-lang/marbelous/internal/board"
	"github.com/marbelous-lang/marbelous/internal/source"
)

// MainBoardName is the implicit board every source file starts in
// before the first ":name" line (spec.md §6.1).
const MainBoardName = "MB"

// PCG wraps math/rand/v2's PCG source behind the runtime.RNG interface,
// so the engine never depends on math/rand directly.
type PCG struct {
	r *rand.Rand
}

// NewPCG builds a seeded PRNG. Two interpreters built from the same
// seed draw identical sequences, which is what makes --seed useful for
// reproducing a run (spec.md §6.5).
func NewPCG(seed uint64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN satisfies runtime.RNG.
func (p *PCG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return p.r.IntN(n)
}

// Interpreter is the load-time context: a resolved board registry plus
// the PRNG and limits a run needs. The CLI driver constructs one,
// populates it from a source file, and hands Registry/RNG to a fresh
// runtime.Engine per run.
type Interpreter struct {
	Registry *board.Registry
	RNG      *PCG
	Config   *Config
}

// New builds an Interpreter from an optional Config (nil means
// defaults) and an optional explicit seed override (nil means "use the
// config's seed, or the fixed default seed 1").
func New(cfg *Config, seedOverride *uint64) *Interpreter {
	if cfg == nil {
		cfg = &Config{}
	}
	seed := uint64(1)
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	if seedOverride != nil {
		seed = *seedOverride
	}
	return &Interpreter{
		Registry: board.NewRegistry(),
		RNG:      NewPCG(seed),
		Config:   cfg,
	}
}

// LoadFile reads path (expanding #include directives), splits it into
// named board segments per spec.md §6.1, parses each with
// internal/board, and resolves sub-board function calls across the
// whole registry.
func (in *Interpreter) LoadFile(path string) error {
	lines, err := source.LoadLines(path)
	if err != nil {
		return err
	}

	segments := splitBoards(lines)
	for _, seg := range segments {
		tmpl, err := board.Parse(seg.name, seg.lines)
		if err != nil {
			return err
		}
		in.Registry.Add(tmpl)
	}
	return board.ResolveFunctions(in.Registry)
}

type boardSegment struct {
	name  string
	lines []string
}

// splitBoards groups a flat line sequence into per-board segments,
// starting in the implicit MB board and switching boards on a ":name"
// line (spec.md §6.1).
func splitBoards(lines []source.Line) []boardSegment {
	var segs []boardSegment
	cur := boardSegment{name: MainBoardName}
	for _, l := range lines {
		text := l.Text
		if strings.HasPrefix(text, ":") {
			if len(cur.lines) > 0 || cur.name != MainBoardName {
				segs = append(segs, cur)
			}
			cur = boardSegment{name: strings.TrimSpace(text[1:])}
			continue
		}
		cur.lines = append(cur.lines, text)
	}
	segs = append(segs, cur)
	return segs
}
