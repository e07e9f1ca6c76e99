package interp

import (
	"path/filepath"
	"testing"
)

func TestLoadFileSplitsNamedBoards(t *testing.T) {
	path := filepath.Join("..", "board", "testdata", "call.mbl")

	ip := New(nil, nil)
	if err := ip.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	mb := ip.Registry.Lookup(MainBoardName)
	if mb == nil {
		t.Fatal("MB not registered")
	}
	fn := ip.Registry.Lookup("FN")
	if fn == nil {
		t.Fatal("FN not registered")
	}
	if len(mb.CallSites) != 1 || mb.CallSites[0].CalleeName != "FN" {
		t.Fatalf("MB.CallSites = %v, want a single call to FN", mb.CallSites)
	}
}

func TestNewSeedOverrideWinsOverConfig(t *testing.T) {
	seed := uint64(7)
	cfg := &Config{Seed: &seed}
	override := uint64(99)

	ip := New(cfg, &override)
	a := ip.RNG.IntN(1000)

	ref := NewPCG(override)
	b := ref.IntN(1000)

	if a != b {
		t.Fatalf("interpreter did not draw from the override seed: %d != %d", a, b)
	}
}
