package lexical

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestScanner(t *testing.T, tokSrc, input string) *Scanner {
	t.Helper()
	defs := parseTokDefs(t, tokSrc)
	trie, err := BuildTrie(defs)
	if err != nil {
		t.Fatal(err)
	}
	return NewScanner(trie, BuildStateMachines(defs), []rune(input))
}

func kindsOf(toks []Token) []string {
	kinds := make([]string, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestScanner(t *testing.T) {
	tests := []struct {
		caption string
		tokSrc  string
		input   string
		kinds   []string
	}{
		{
			caption: "a single literal rule tokenizes its literal",
			tokSrc:  `PLUS: "+"`,
			input:   "+",
			kinds:   []string{"PLUS", "STREAMEND"},
		},
		{
			caption: "trie arbitration prefers the longest literal",
			tokSrc:  "PLUS: \"+\"\nPLUSPLUS: \"++\"",
			input:   "++",
			kinds:   []string{"PLUSPLUS", "STREAMEND"},
		},
		{
			caption: "a short literal still matches alone",
			tokSrc:  "PLUS: \"+\"\nPLUSPLUS: \"++\"",
			input:   "+",
			kinds:   []string{"PLUS", "STREAMEND"},
		},
		{
			caption: "three pluses split longest-first",
			tokSrc:  "PLUS: \"+\"\nPLUSPLUS: \"++\"",
			input:   "+++",
			kinds:   []string{"PLUSPLUS", "PLUS", "STREAMEND"},
		},
		{
			caption: "the trie wins ties against state machines",
			tokSrc:  "IF: \"if\"\nIDENT: ((0-1), 1, [a-z]); 1",
			input:   "if",
			kinds:   []string{"IF", "STREAMEND"},
		},
		{
			caption: "a longer state machine match beats a literal",
			tokSrc:  "IF: \"if\"\nIDENT: ((0-1), 1, [a-z]); 1",
			input:   "ifx",
			kinds:   []string{"IDENT", "STREAMEND"},
		},
		{
			caption: "earlier state machines win ties against later ones",
			tokSrc:  "ALPHA: ((0-1), 1, [a-z]); 1\nALNUM: ((0-1), 1, [a-z0-9]); 1",
			input:   "abc",
			kinds:   []string{"ALPHA", "STREAMEND"},
		},
		{
			caption: "unrecognized input yields a zero-length stream end",
			tokSrc:  `PLUS: "+"`,
			input:   "+?",
			kinds:   []string{"PLUS", "STREAMEND"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			s := newTestScanner(t, tt.tokSrc, tt.input)
			toks := s.Tokenize()
			if diff := cmp.Diff(tt.kinds, kindsOf(toks)); diff != "" {
				t.Fatalf("unexpected token kinds:\n%v", diff)
			}
		})
	}
}

func TestScanner_calculatorStream(t *testing.T) {
	tokSrc := `
PLUS: "+"
MULT: "*"
NUMBER: ((0-1), 1, [0-9]); 1
WS: ((0-1), 1, [ \n\r\t]); 1
`
	s := newTestScanner(t, tokSrc, "1+2 * 3")
	toks := s.Tokenize()
	want := []string{"NUMBER", "PLUS", "NUMBER", "WS", "MULT", "WS", "NUMBER", "STREAMEND"}
	if diff := cmp.Diff(want, kindsOf(toks)); diff != "" {
		t.Fatalf("unexpected token kinds:\n%v", diff)
	}
	if string(toks[0].Content) != "1" || string(toks[2].Content) != "2" || string(toks[6].Content) != "3" {
		t.Fatalf("unexpected contents: %q %q %q", string(toks[0].Content), string(toks[2].Content), string(toks[6].Content))
	}
	if !s.Exhausted() {
		t.Fatal("the input must be fully consumed")
	}
}

func TestScanner_positions(t *testing.T) {
	tokSrc := `
A: "a"
NL: "\n"
`
	s := newTestScanner(t, tokSrc, "a\naa")
	toks := s.Tokenize()

	wantPos := []struct {
		line int
		col  int
	}{
		{1, 0}, // a
		{1, 1}, // newline
		{2, 0}, // a
		{2, 1}, // a
		{2, 2}, // stream end
	}
	if len(toks) != len(wantPos) {
		t.Fatalf("want %v tokens, got %v", len(wantPos), len(toks))
	}
	for i, want := range wantPos {
		if toks[i].Line != want.line || toks[i].Col != want.col {
			t.Fatalf("token %v: want %v:%v, got %v:%v", i, want.line, want.col, toks[i].Line, toks[i].Col)
		}
	}
}

func TestScanner_streamEndIndistinguishable(t *testing.T) {
	// A dead scan and an exhausted input both yield a zero-length
	// STREAMEND; only the cursor tells them apart.
	s := newTestScanner(t, `PLUS: "+"`, "?")
	tok := s.Next()
	if tok.Kind != KindStreamEnd || len(tok.Content) != 0 {
		t.Fatalf("want a zero-length STREAMEND, got %v %q", tok.Kind, string(tok.Content))
	}
	if s.Exhausted() {
		t.Fatal("the cursor must still sit on the unrecognized input")
	}

	s2 := newTestScanner(t, `PLUS: "+"`, "+")
	s2.Next()
	tok = s2.Next()
	if tok.Kind != KindStreamEnd || len(tok.Content) != 0 {
		t.Fatalf("want a zero-length STREAMEND, got %v %q", tok.Kind, string(tok.Content))
	}
	if !s2.Exhausted() {
		t.Fatal("the input must be exhausted")
	}
}
