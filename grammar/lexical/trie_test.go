package lexical

import (
	"testing"

	"github.com/pgen-dev/pgen/spec"
)

func parseTokDefs(t *testing.T, src string) []*spec.Node {
	t.Helper()
	cps, err := spec.Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	root, err := spec.ParseTokenGrammar(cps)
	if err != nil {
		t.Fatal(err)
	}
	return root.Children
}

func TestBuildTrie(t *testing.T) {
	defs := parseTokDefs(t, `
PLUS: "+"
PLUSPLUS: "++"
PLUSEQ: "+="
IF: "if"
`)
	trie, err := BuildTrie(defs)
	if err != nil {
		t.Fatal(err)
	}

	// "+", "++", and "+=" share the "+" prefix state.
	s1, ok := trie.NextState(0, '+')
	if !ok {
		t.Fatal("state 0 must transition on '+'")
	}
	if kind, ok := trie.AcceptKind(s1); !ok || kind != "PLUS" {
		t.Fatalf("want PLUS, got %v", kind)
	}
	s2, ok := trie.NextState(s1, '+')
	if !ok {
		t.Fatal("the PLUS state must transition on '+'")
	}
	if kind, _ := trie.AcceptKind(s2); kind != "PLUSPLUS" {
		t.Fatalf("want PLUSPLUS, got %v", kind)
	}
	s3, ok := trie.NextState(s1, '=')
	if !ok {
		t.Fatal("the PLUS state must transition on '='")
	}
	if kind, _ := trie.AcceptKind(s3); kind != "PLUSEQ" {
		t.Fatalf("want PLUSEQ, got %v", kind)
	}

	// "if" shares nothing.
	si, ok := trie.NextState(0, 'i')
	if !ok {
		t.Fatal("state 0 must transition on 'i'")
	}
	if _, ok := trie.AcceptKind(si); ok {
		t.Fatal("the 'i' state must not accept")
	}
	sf, _ := trie.NextState(si, 'f')
	if kind, _ := trie.AcceptKind(sf); kind != "IF" {
		t.Fatalf("want IF, got %v", kind)
	}

	// 5 states beyond the initial one.
	if trie.NumStates != 6 {
		t.Fatalf("want 6 states, got %v", trie.NumStates)
	}

	// Transitions are grouped by source state for the emitter.
	for i := 1; i < len(trie.Transitions); i++ {
		if trie.Transitions[i].From < trie.Transitions[i-1].From {
			t.Fatalf("transitions must be grouped by source state: %+v", trie.Transitions)
		}
	}
}

func TestBuildStateMachines(t *testing.T) {
	defs := parseTokDefs(t, `
PLUS: "+"
NUMBER: (0, 1, [-+]) ((0-2), 2, [0-9]); 2
WS: ((0-1), 1, [ \n\r\t]); 1
`)
	auts := BuildStateMachines(defs)
	if len(auts) != 2 {
		t.Fatalf("want 2 state machines, got %v", len(auts))
	}
	if auts[0].Ident != "NUMBER" || auts[1].Ident != "WS" {
		t.Fatalf("definition order must be preserved: %v, %v", auts[0].Ident, auts[1].Ident)
	}
	if auts[0].NumStates() != 3 {
		t.Fatalf("want 3 states, got %v", auts[0].NumStates())
	}

	if to, ok := auts[0].NextState(0, '-'); !ok || to != 1 {
		t.Fatalf("want state 1, got %v (%v)", to, ok)
	}
	if to, ok := auts[0].NextState(1, '7'); !ok || to != 2 {
		t.Fatalf("want state 2, got %v (%v)", to, ok)
	}
	if _, ok := auts[0].NextState(1, '-'); ok {
		t.Fatal("a second sign must die")
	}
	if auts[0].Accepts(1) {
		t.Fatal("a bare sign must not accept")
	}
	if !auts[0].Accepts(2) {
		t.Fatal("digits must accept")
	}
}

func TestSMAutomaton_invertedPredicate(t *testing.T) {
	defs := parseTokDefs(t, `STRCHAR: (0, 0, !["]); 0`)
	auts := BuildStateMachines(defs)
	if to, ok := auts[0].NextState(0, 'x'); !ok || to != 0 {
		t.Fatalf("want state 0, got %v (%v)", to, ok)
	}
	if _, ok := auts[0].NextState(0, '"'); ok {
		t.Fatal("the quote must die")
	}
}
