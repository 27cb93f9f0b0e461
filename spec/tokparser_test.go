package spec

import (
	"errors"
	"testing"

	verr "github.com/pgen-dev/pgen/error"
)

func mustDecode(t *testing.T, src string) []rune {
	t.Helper()
	cps, err := Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return cps
}

func TestParseTokenGrammar(t *testing.T) {
	t.Run("literal definitions fold into LitDef nodes", func(t *testing.T) {
		root, err := ParseTokenGrammar(mustDecode(t, `
PLUS: "+"
PLUSPLUS: "++"
NEWLINE: "\n"
`))
		if err != nil {
			t.Fatal(err)
		}
		if len(root.Children) != 3 {
			t.Fatalf("want 3 token defs, got %v", len(root.Children))
		}
		wants := []struct {
			name string
			lit  string
		}{
			{"PLUS", "+"},
			{"PLUSPLUS", "++"},
			{"NEWLINE", "\n"},
		}
		for i, want := range wants {
			def := root.Children[i]
			if def.Kind != NodeKindTokenDef {
				t.Fatalf("want a TokenDef, got %v", def.Kind)
			}
			if def.Children[0].Text != want.name {
				t.Fatalf("want %v, got %v", want.name, def.Children[0].Text)
			}
			body := def.Children[1]
			if body.Kind != NodeKindLitDef || string(body.Lit) != want.lit {
				t.Fatalf("want literal %q, got %v %q", want.lit, body.Kind, string(body.Lit))
			}
		}
	})

	t.Run("state machine definitions carry transitions and accepting states", func(t *testing.T) {
		root, err := ParseTokenGrammar(mustDecode(t, `
NUMBER: (0, 1, [-+]) ((0-2), 2, [0-9]); 2
IDENT: (0, 1, [a-z_]) (1, 1, [a-z_0-9]); 1
`))
		if err != nil {
			t.Fatal(err)
		}
		if len(root.Children) != 2 {
			t.Fatalf("want 2 token defs, got %v", len(root.Children))
		}

		num := root.Children[0].Children[1]
		if num.Kind != NodeKindSMDef {
			t.Fatalf("want an SMDef, got %v", num.Kind)
		}
		sm := num.SM
		if len(sm.Transitions) != 2 {
			t.Fatalf("want 2 transitions, got %v", len(sm.Transitions))
		}
		t0 := sm.Transitions[0]
		if len(t0.From) != 1 || t0.From[0] != (IntRange{Lo: 0, Hi: 0}) || t0.To != 1 {
			t.Fatalf("unexpected first transition: %+v", t0)
		}
		if len(t0.Ranges) != 2 || t0.Ranges[0] != (CharRange{Lo: '-', Hi: '-'}) || t0.Ranges[1] != (CharRange{Lo: '+', Hi: '+'}) {
			t.Fatalf("unexpected character class: %+v", t0.Ranges)
		}
		t1 := sm.Transitions[1]
		if t1.From[0] != (IntRange{Lo: 0, Hi: 2}) || t1.To != 2 {
			t.Fatalf("unexpected second transition: %+v", t1)
		}
		if t1.Ranges[0] != (CharRange{Lo: '0', Hi: '9'}) {
			t.Fatalf("unexpected character class: %+v", t1.Ranges)
		}
		if len(sm.Accepting) != 1 || sm.Accepting[0] != (IntRange{Lo: 2, Hi: 2}) {
			t.Fatalf("unexpected accepting states: %+v", sm.Accepting)
		}
	})

	t.Run("inverted character classes", func(t *testing.T) {
		root, err := ParseTokenGrammar(mustDecode(t, `STRCHAR: (0, 0, !["\n]); 0`))
		if err != nil {
			t.Fatal(err)
		}
		sm := root.Children[0].Children[1].SM
		if !sm.Transitions[0].Inverted {
			t.Fatal("the character class must be inverted")
		}
		if sm.Transitions[0].Ranges[0] != (CharRange{Lo: '"', Hi: '"'}) {
			t.Fatalf("unexpected class: %+v", sm.Transitions[0].Ranges)
		}
	})

	t.Run("comments and continuations are whitespace", func(t *testing.T) {
		root, err := ParseTokenGrammar(mustDecode(t, `
// a line comment
PLUS: "+" /* a block
comment */ MINUS: \
"-"
`))
		if err != nil {
			t.Fatal(err)
		}
		if len(root.Children) != 2 {
			t.Fatalf("want 2 token defs, got %v", len(root.Children))
		}
	})

	tests := []struct {
		caption string
		src     string
		synErr  *SyntaxError
	}{
		{
			caption: "duplicate rule names are rejected",
			src:     "PLUS: \"+\"\nPLUS: \"p\"\n",
			synErr:  synErrDupTokenName,
		},
		{
			caption: "identical literal contents are rejected",
			src:     "PLUS: \"+\"\nADD: \"+\"\n",
			synErr:  synErrDupLiteral,
		},
		{
			caption: "STREAMEND is reserved",
			src:     "STREAMEND: \"x\"\n",
			synErr:  synErrReservedToken,
		},
		{
			caption: "STREAMBEGIN is reserved",
			src:     "STREAMBEGIN: \"x\"\n",
			synErr:  synErrReservedToken,
		},
		{
			caption: "a missing colon is a syntax error",
			src:     "PLUS \"+\"\n",
			synErr:  synErrNoTokenColon,
		},
		{
			caption: "a missing body is a syntax error",
			src:     "PLUS:\n",
			synErr:  synErrNoTokenBody,
		},
		{
			caption: "an unclosed literal is a syntax error",
			src:     "PLUS: \"+\n",
			synErr:  synErrUnclosedLiteral,
		},
		{
			caption: "a state machine without accepting states is a syntax error",
			src:     "WS: ((0-1), 1, [ ])",
			synErr:  synErrSMNoAccept,
		},
		{
			caption: "trailing garbage is a syntax error",
			src:     "PLUS: \"+\"\nlowercase",
			synErr:  synErrTokenFileTrash,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := ParseTokenGrammar(mustDecode(t, tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			var specErr *verr.SpecError
			if !errors.As(err, &specErr) {
				t.Fatalf("expected a spec error; got: %T", err)
			}
			if specErr.Cause != tt.synErr {
				t.Fatalf("want: %v, got: %v", tt.synErr, specErr.Cause)
			}
		})
	}
}

func TestParseTokenGrammar_rowTracking(t *testing.T) {
	_, err := ParseTokenGrammar(mustDecode(t, "PLUS: \"+\"\n\n\nPLUS: \"p\"\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	specErr := err.(*verr.SpecError)
	if specErr.Row != 4 {
		t.Fatalf("want row 4, got %v", specErr.Row)
	}
}
