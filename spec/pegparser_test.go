package spec

import (
	"errors"
	"testing"

	verr "github.com/pgen-dev/pgen/error"
)

func mustParsePEG(t *testing.T, src string) *Node {
	t.Helper()
	root, err := ParsePEGGrammar(mustDecode(t, src))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestParsePEGGrammar(t *testing.T) {
	t.Run("a definition is a name, an arrow, and alternatives", func(t *testing.T) {
		root := mustParsePEG(t, `
expr <- term PLUS term / term
`)
		if len(root.Children) != 1 {
			t.Fatalf("want 1 definition, got %v", len(root.Children))
		}
		def := root.Children[0]
		if def.Kind != NodeKindDefinition {
			t.Fatalf("want a Definition, got %v", def.Kind)
		}
		if def.Children[0].Text != "expr" {
			t.Fatalf("want expr, got %v", def.Children[0].Text)
		}
		slash := def.Children[1]
		if slash.Kind != NodeKindSlashExpr || len(slash.Children) != 2 {
			t.Fatalf("want a 2-alternative SlashExpr, got %v with %v children", slash.Kind, len(slash.Children))
		}
		if len(slash.Children[0].Children) != 3 {
			t.Fatalf("want 3 elements in the first alternative, got %v", len(slash.Children[0].Children))
		}
	})

	t.Run("prefixes, suffixes, labels, and groups", func(t *testing.T) {
		root := mustParsePEG(t, `a <- !WS (B / c)*:items &END`)
		body := root.Children[0].Children[1]
		list := body.Children[0]
		if len(list.Children) != 3 {
			t.Fatalf("want 3 mod exprs, got %v", len(list.Children))
		}

		not := list.Children[0]
		if !not.ModOpts.Inverted || not.ModOpts.Rewind {
			t.Fatalf("want an inverted mod expr, got %+v", not.ModOpts)
		}

		starred := list.Children[1]
		if starred.ModOpts.Kleene != KleeneStar {
			t.Fatalf("want a starred mod expr, got %+v", starred.ModOpts)
		}
		if starred.Label() == nil || starred.Label().Text != "items" {
			t.Fatalf("want label items, got %+v", starred.Label())
		}
		group := starred.Children[0]
		if group.Kind != NodeKindBaseExpr || group.Children[0].Kind != NodeKindSlashExpr {
			t.Fatalf("want a grouped SlashExpr, got %v", group.Children[0].Kind)
		}

		and := list.Children[2]
		if !and.ModOpts.Rewind || and.ModOpts.Inverted {
			t.Fatalf("want a rewinding mod expr, got %+v", and.ModOpts)
		}
	})

	t.Run("label position is fixed at child index 1", func(t *testing.T) {
		root := mustParsePEG(t, `a <- B:b <"missing b">`)
		me := root.Children[0].Children[1].Children[0].Children[0]
		if me.Kind != NodeKindModExpr || len(me.Children) != 3 {
			t.Fatalf("want a 3-child ModExpr, got %v with %v children", me.Kind, len(me.Children))
		}
		if me.Children[1].Kind != NodeKindLowerIdent {
			t.Fatalf("the label must sit at child index 1, got %v", me.Children[1].Kind)
		}
		if me.Children[2].Kind != NodeKindErrString || string(me.Children[2].Lit) != "missing b" {
			t.Fatalf("the error handler must sit last, got %v %q", me.Children[2].Kind, string(me.Children[2].Lit))
		}
	})

	t.Run("code expressions balance braces and honor escapes", func(t *testing.T) {
		root := mustParsePEG(t, `a <- {if x \{ y {z} \}}`)
		me := root.Children[0].Children[1].Children[0].Children[0]
		ce := me.Children[0].Children[0]
		if ce.Kind != NodeKindCodeExpr {
			t.Fatalf("want a CodeExpr, got %v", ce.Kind)
		}
		want := "if x { y {z} }"
		if ce.CodeOpts.Content != want {
			t.Fatalf("want %q, got %q", want, ce.CodeOpts.Content)
		}
	})

	t.Run("code expressions record their source line", func(t *testing.T) {
		root := mustParsePEG(t, "\n\nrule_a <- A\n{ act() }\n")
		body := root.Children[0].Children[1].Children[0]
		ce := body.Children[1].Children[0].Children[0]
		if ce.Kind != NodeKindCodeExpr {
			t.Fatalf("want a CodeExpr, got %v", ce.Kind)
		}
		if ce.CodeOpts.Row != 4 {
			t.Fatalf("want row 4, got %v", ce.CodeOpts.Row)
		}
	})

	t.Run("code error handlers are angle wrapped", func(t *testing.T) {
		root := mustParsePEG(t, `a <- B <{ ret = nil }>`)
		me := root.Children[0].Children[1].Children[0].Children[0]
		handler := me.ErrHandler()
		if handler == nil || handler.Kind != NodeKindCodeExpr {
			t.Fatalf("want a CodeExpr handler, got %+v", handler)
		}
		if handler.CodeOpts.Content != " ret = nil " {
			t.Fatalf("unexpected handler content: %q", handler.CodeOpts.Content)
		}
	})

	t.Run("directives take rest-of-line or brace payloads", func(t *testing.T) {
		root := mustParsePEG(t, `
%node PLUS
%extra {depth int}
a <- B
`)
		if len(root.Children) != 3 {
			t.Fatalf("want 3 top-level nodes, got %v", len(root.Children))
		}
		node := root.Children[0]
		if node.Kind != NodeKindDirective || node.Children[0].Text != "node" || node.Text != "PLUS" {
			t.Fatalf("unexpected directive: %+v", node)
		}
		extra := root.Children[1]
		if extra.Children[0].Text != "extra" || extra.Text != "depth int" {
			t.Fatalf("unexpected directive: %+v", extra)
		}
	})

	t.Run("token definitions may live in the grammar file", func(t *testing.T) {
		root := mustParsePEG(t, `
PLUS: "+"
a <- PLUS
`)
		if root.Children[0].Kind != NodeKindTokenDef {
			t.Fatalf("want a TokenDef, got %v", root.Children[0].Kind)
		}
		if root.Children[1].Kind != NodeKindDefinition {
			t.Fatalf("want a Definition, got %v", root.Children[1].Kind)
		}
	})

	t.Run("per-rule field lists", func(t *testing.T) {
		root := mustParsePEG(t, `a (var depth int; var seen bool) <- B`)
		def := root.Children[0]
		if len(def.Children) != 3 || def.Children[2] == nil {
			t.Fatalf("want a field list, got %v children", len(def.Children))
		}
		fl := def.Children[2]
		if len(fl.Children) != 2 || fl.Children[0].Text != "var depth int" || fl.Children[1].Text != "var seen bool" {
			t.Fatalf("unexpected field list: %+v", fl.Children)
		}
	})

	t.Run("a rule reference never swallows the next definition name", func(t *testing.T) {
		root := mustParsePEG(t, `
a <- B
c <- a
`)
		if len(root.Children) != 2 {
			t.Fatalf("want 2 definitions, got %v", len(root.Children))
		}
		aBody := root.Children[0].Children[1].Children[0]
		if len(aBody.Children) != 1 {
			t.Fatalf("rule a must have one element, got %v", len(aBody.Children))
		}
	})

	tests := []struct {
		caption string
		src     string
		synErr  *SyntaxError
		row     int
	}{
		{
			caption: "an unclosed code block fails at end of input",
			src:     "a <- {code",
			synErr:  synErrUnclosedCode,
		},
		{
			caption: "an unclosed group is a syntax error",
			src:     "a <- (B / c",
			synErr:  synErrUnclosedGroup,
		},
		{
			caption: "a label needs a name",
			src:     "a <- B:",
			synErr:  synErrNoLabel,
		},
		{
			caption: "an empty error handler is a syntax error",
			src:     "a <- B <>",
			synErr:  synErrEmptyHandler,
		},
		{
			caption: "stray input is a syntax error with its location",
			src:     "a <- B\n???\n",
			synErr:  synErrGrammarFileTrash,
			row:     2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := ParsePEGGrammar(mustDecode(t, tt.src))
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
			if tt.row != 0 && specErr.Row != tt.row {
				t.Fatalf("want row %v, got %v", tt.row, specErr.Row)
			}
		})
	}
}
