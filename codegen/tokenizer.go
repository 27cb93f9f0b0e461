package codegen

import (
	"fmt"
	"strings"

	"github.com/pgen-dev/pgen/spec"
)

// writeTokenizer emits the token kind enum, the token and tokenizer
// structs, and the Next function translated from the tokenizer IR.
func (g *generator) writeTokenizer(e *emitter) {
	g.writeTokenEnum(e)
	g.writeTokenStruct(e)
	g.writeTokenizerStruct(e)
	g.writeNextToken(e)
	g.writeTokenizeAll(e)
	if g.opts.TokenizerDebug {
		e.w("%s\n", debugTokenizerTmpl)
	}
}

func tokenConstName(kind string) string {
	return "Tok" + kind
}

func (g *generator) writeTokenEnum(e *emitter) {
	names := g.grammar.TokenKinds

	e.w("type TokenKind int\n\n")
	e.w("// The 0th token kind is the beginning of the stream and the 1st is the\n")
	e.w("// end of the stream; the remaining %v are the ones you defined.\n", len(names))
	e.w("const (\n")
	e.w("\tTokStreamBegin TokenKind = iota\n")
	e.w("\tTokStreamEnd\n")
	for _, name := range names {
		e.w("\t%s\n", tokenConstName(name))
	}
	e.w(")\n\n")

	e.w("const numTokenKinds = %v\n\n", len(names)+2)
	e.w("var tokenKindNames = []string{\n")
	e.w("\t\"STREAMBEGIN\",\n")
	e.w("\t\"STREAMEND\",\n")
	for _, name := range names {
		e.w("\t%q,\n", name)
	}
	e.w("}\n\n")
	e.w("func (k TokenKind) String() string {\n\treturn tokenKindNames[k]\n}\n\n")
}

func (g *generator) writeTokenStruct(e *emitter) {
	e.w("type Token struct {\n")
	e.w("\tKind TokenKind\n\n")
	e.w("\t// Content borrows from the tokenizer's code point buffer.\n")
	e.w("\tContent []rune\n")
	e.w("\tLine    int\n")
	e.w("\tCol     int\n")
	g.spliceDirectiveFields(e, "tokenextra")
	e.w("}\n\n")
}

func (g *generator) writeTokenizerStruct(e *emitter) {
	e.w("type Tokenizer struct {\n")
	e.w("\tsrc  []rune\n")
	e.w("\tpos  int\n")
	e.w("\tline int\n")
	e.w("\tcol  int\n")
	e.w("}\n\n")
	e.w("func NewTokenizer(src []rune) *Tokenizer {\n")
	e.w("\treturn &Tokenizer{\n\t\tsrc:  src,\n\t\tline: 1,\n\t}\n")
	e.w("}\n\n")
}

// writeNextToken translates the tokenizer IR into the scan function: the
// trie and every state machine run in lockstep over the remaining code
// points, each tracking its longest accepted length; the longest match
// wins, ties broken trie first, then earlier-defined machines.
func (g *generator) writeNextToken(e *emitter) {
	trie := g.trie
	smauts := g.smauts
	hasTrie := trie.HasRules()

	e.w("func (t *Tokenizer) Next() Token {\n")
	e.w("\tcurrent := t.src[t.pos:]\n\n")

	if hasTrie {
		e.w("\ttrieState := 0\n")
		e.w("\ttrieMunchSize := 0\n")
		e.w("\ttrieTokenKind := TokStreamEnd\n")
	}
	for i := range smauts {
		e.w("\tsmautState%d := 0\n", i)
		e.w("\tsmautMunchSize%d := 0\n", i)
	}
	e.w("\n")

	e.w("\tfor iidx, c := range current {\n")
	e.w("\t\tallDead := true\n\n")

	if hasTrie {
		if !e.unsafe {
			e.w("\t\t// Trie\n")
		}
		e.w("\t\tif trieState != -1 {\n")
		e.w("\t\t\tallDead = false\n")
		g.writeTrieTransitions(e)
		if !e.unsafe {
			e.w("\n\t\t\t// Check accept\n")
		}
		for i, acc := range trie.Accepting {
			els := "} else "
			if i == 0 {
				els = ""
			}
			e.w("\t\t\t%sif trieState == %d {\n", els, acc.State)
			e.w("\t\t\t\ttrieTokenKind = %s\n", tokenConstName(acc.Kind))
			e.w("\t\t\t\ttrieMunchSize = iidx + 1\n")
		}
		if len(trie.Accepting) > 0 {
			e.w("\t\t\t}\n")
		}
		e.w("\t\t}\n\n")
	}

	for i, aut := range smauts {
		if !e.unsafe {
			e.w("\t\t// Transition %s state machine\n", aut.Ident)
		}
		e.w("\t\tif smautState%d != -1 {\n", i)
		e.w("\t\t\tallDead = false\n")
		e.w("\t\t\tswitch {\n")
		for _, trans := range aut.Transitions {
			e.w("\t\t\tcase (%s) &&\n\t\t\t\t(%s):\n",
				stateRangeCheck(fmt.Sprintf("smautState%d", i), trans.From),
				charRangeCheck(trans.Ranges, trans.Inverted))
			e.w("\t\t\t\tsmautState%d = %d\n", i, trans.To)
		}
		e.w("\t\t\tdefault:\n")
		e.w("\t\t\t\tsmautState%d = -1\n", i)
		e.w("\t\t\t}\n")
		if !e.unsafe {
			e.w("\n\t\t\t// Check accept\n")
		}
		e.w("\t\t\tif smautState%d != -1 && (%s) {\n", i, stateRangeCheck(fmt.Sprintf("smautState%d", i), aut.Accepting))
		e.w("\t\t\t\tsmautMunchSize%d = iidx + 1\n", i)
		e.w("\t\t\t}\n")
		e.w("\t\t}\n\n")
	}

	e.w("\t\tif allDead {\n\t\t\tbreak\n\t\t}\n")
	e.w("\t}\n\n")

	if !e.unsafe {
		e.w("\t// Determine what token was accepted, if any.\n")
	}
	e.w("\tkind := TokStreamEnd\n")
	e.w("\tmaxMunch := 0\n")
	for i := len(smauts) - 1; i >= 0; i-- {
		e.w("\tif smautMunchSize%d >= maxMunch {\n", i)
		e.w("\t\tkind = %s\n", tokenConstName(smauts[i].Ident))
		e.w("\t\tmaxMunch = smautMunchSize%d\n", i)
		e.w("\t}\n")
	}
	if hasTrie {
		e.w("\tif trieMunchSize >= maxMunch {\n")
		e.w("\t\tkind = trieTokenKind\n")
		e.w("\t\tmaxMunch = trieMunchSize\n")
		e.w("\t}\n")
	}
	e.w("\n")

	e.w("\ttok := Token{\n")
	e.w("\t\tKind:    kind,\n")
	e.w("\t\tContent: current[:maxMunch],\n")
	e.w("\t\tLine:    t.line,\n")
	e.w("\t\tCol:     t.col,\n")
	e.w("\t}\n")
	g.spliceDirectiveLines(e, "tokenextrainit", "\t")
	e.w("\n")
	e.w("\tfor _, c := range current[:maxMunch] {\n")
	e.w("\t\tif c == '\\n' {\n")
	e.w("\t\t\tt.line++\n")
	e.w("\t\t\tt.col = 0\n")
	e.w("\t\t} else {\n")
	e.w("\t\t\tt.col++\n")
	e.w("\t\t}\n")
	e.w("\t}\n\n")
	e.w("\tt.pos += maxMunch\n")
	e.w("\treturn tok\n")
	e.w("}\n\n")
}

func (g *generator) writeTrieTransitions(e *emitter) {
	trans := g.trie.Transitions
	first := true
	for i := 0; i < len(trans); {
		from := trans[i].From
		els := "} else "
		if first {
			els = ""
			first = false
		}
		e.w("\t\t\t%sif trieState == %d {\n", els, from)
		e.w("\t\t\t\tswitch c {\n")
		for i < len(trans) && trans[i].From == from {
			e.w("\t\t\t\tcase %s:\n\t\t\t\t\ttrieState = %d\n", runeLit(trans[i].C), trans[i].To)
			i++
		}
		e.w("\t\t\t\tdefault:\n\t\t\t\t\ttrieState = -1\n")
		e.w("\t\t\t\t}\n")
	}
	if !first {
		e.w("\t\t\t} else {\n")
		e.w("\t\t\t\ttrieState = -1\n")
		e.w("\t\t\t}\n")
	} else {
		e.w("\t\t\ttrieState = -1\n")
	}
}

func (g *generator) writeTokenizeAll(e *emitter) {
	e.w("// Tokenize scans the whole input. The returned sequence ends with its\n")
	e.w("// only stream end token; a zero-length stream end before the input is\n")
	e.w("// exhausted marks unrecognized input.\n")
	e.w("func Tokenize(src []rune) []Token {\n")
	e.w("\ttokenizer := NewTokenizer(src)\n")
	e.w("\tvar toks []Token\n")
	e.w("\tfor {\n")
	e.w("\t\ttok := tokenizer.Next()\n")
	e.w("\t\ttoks = append(toks, tok)\n")
	e.w("\t\tif tok.Kind == TokStreamEnd {\n")
	e.w("\t\t\treturn toks\n")
	e.w("\t\t}\n")
	e.w("\t}\n")
	e.w("}\n\n")
}

// stateRangeCheck renders the predicate for a state range set. An empty
// set matches every state.
func stateRangeCheck(varName string, ranges []spec.IntRange) string {
	if len(ranges) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		switch {
		case r.Lo == r.Hi:
			parts = append(parts, fmt.Sprintf("%s == %d", varName, r.Lo))
		case r.Lo+1 == r.Hi:
			parts = append(parts, fmt.Sprintf("%s == %d || %s == %d", varName, r.Lo, varName, r.Hi))
		default:
			parts = append(parts, fmt.Sprintf("%s >= %d && %s <= %d", varName, r.Lo, varName, r.Hi))
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ") || (") + ")"
}

// charRangeCheck renders the character predicate of an SM transition.
func charRangeCheck(ranges []spec.CharRange, inverted bool) string {
	if len(ranges) == 0 {
		if inverted {
			return "true"
		}
		return "false"
	}
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		switch {
		case r.Lo == r.Hi:
			parts = append(parts, fmt.Sprintf("c == %s", runeLit(r.Lo)))
		case r.Lo+1 == r.Hi:
			parts = append(parts, fmt.Sprintf("c == %s || c == %s", runeLit(r.Lo), runeLit(r.Hi)))
		default:
			parts = append(parts, fmt.Sprintf("c >= %s && c <= %s", runeLit(r.Lo), runeLit(r.Hi)))
		}
	}
	expr := parts[0]
	if len(parts) > 1 {
		expr = "(" + strings.Join(parts, ") || (") + ")"
	}
	if inverted {
		return "!(" + expr + ")"
	}
	return expr
}
