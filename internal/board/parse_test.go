package board

import "testing"

func TestParsePassThroughBoard(t *testing.T) {
	tmpl, err := Parse("MB", []string{"42"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tmpl.Width != 1 || tmpl.Height != 1 {
		t.Fatalf("got %dx%d, want 1x1", tmpl.Width, tmpl.Height)
	}
	v := tmpl.InitialMarbles[0][0]
	if v == nil || *v != 0x42 {
		t.Fatalf("initial marble = %v, want 0x42", v)
	}
}

func TestParseDeviceTable(t *testing.T) {
	cases := map[string]Device{
		"}0": InputPort{Port: 0},
		"{0": OutputPort{Kind: OutputNumbered, Port: 0},
		"{<": OutputPort{Kind: OutputLeftReturn},
		"{>": OutputPort{Kind: OutputRightReturn},
		"++": Arithmetic{Op: OpIncrement},
		"--": Arithmetic{Op: OpDecrement},
		"!!": Exit{},
		"]]": StdinRead{},
		"=5": Compare{Op: CompareEQ, N: 5},
		">3": Compare{Op: CompareGT, N: 3},
		"<2": Compare{Op: CompareLT, N: 2},
		"@1": Portal{N: 1},
		"&0": Sync{N: 0},
		"zz": Unrecognized{Raw: "zz"},
	}
	for text, want := range cases {
		tmpl, err := Parse("FN", []string{text, "{0"})
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		got := tmpl.Devices[0][0]
		if got != want {
			t.Errorf("Parse(%q) device = %#v, want %#v", text, got, want)
		}
	}
}

func TestParseNameNotDivisorOfFunctionWidth(t *testing.T) {
	_, err := Parse("ABC", []string{"}0}1{0"})
	if err == nil {
		t.Fatal("expected a ParseError, got nil")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("err = %T, want *ParseError", err)
	}
}

func TestParseComment(t *testing.T) {
	tmpl, err := Parse("MB", []string{"42# trailing comment"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tmpl.Width != 1 {
		t.Fatalf("width = %d, want 1 (comment should be stripped)", tmpl.Width)
	}
}
