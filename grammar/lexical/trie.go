package lexical

import (
	"sort"

	verr "github.com/pgen-dev/pgen/error"
	"github.com/pgen-dev/pgen/spec"
)

// TrieTransition is one edge of the literal-token automaton.
type TrieTransition struct {
	From int
	C    rune
	To   int
}

// TrieAccept marks a state as accepting a token kind.
type TrieAccept struct {
	State int
	Kind  string
}

// TrieAutomaton is the merged automaton of every literal token rule.
// State 0 is the initial state; the state space is dense.
type TrieAutomaton struct {
	Transitions []TrieTransition
	Accepting   []TrieAccept
	NumStates   int
}

// HasRules reports whether any literal rule was folded in.
func (t *TrieAutomaton) HasRules() bool {
	return len(t.Accepting) > 0
}

// NextState runs one step. The second return value is false when the
// automaton dies.
func (t *TrieAutomaton) NextState(state int, c rune) (int, bool) {
	for _, trans := range t.Transitions {
		if trans.From == state && trans.C == c {
			return trans.To, true
		}
	}
	return 0, false
}

// AcceptKind returns the token kind accepted in state, if any.
func (t *TrieAutomaton) AcceptKind(state int) (string, bool) {
	for _, acc := range t.Accepting {
		if acc.State == state {
			return acc.Kind, true
		}
	}
	return "", false
}

// BuildTrie folds every literal token rule into the trie: starting at
// state 0, each code point either reuses the existing transition or
// allocates a new state. The terminal state accepts the rule's kind.
// Two literals mapping to the same accepting state were already rejected
// by the grammar parser; the invariant is re-asserted here.
func BuildTrie(tokenDefs []*spec.Node) (*TrieAutomaton, error) {
	trie := &TrieAutomaton{
		NumStates: 1,
	}

	for _, def := range tokenDefs {
		body := def.Children[1]
		if body.Kind != spec.NodeKindLitDef {
			continue
		}
		kind := def.Children[0].Text

		state := 0
		for _, c := range body.Lit {
			to, ok := trie.NextState(state, c)
			if !ok {
				to = trie.NumStates
				trie.NumStates++
				trie.Transitions = append(trie.Transitions, TrieTransition{
					From: state,
					C:    c,
					To:   to,
				})
			}
			state = to
		}

		if prev, ok := trie.AcceptKind(state); ok {
			return nil, &verr.SpecError{
				Cause:  semErrDupAccepting,
				Detail: prev + " and " + kind,
				Row:    def.Row,
				Col:    def.Col,
			}
		}
		trie.Accepting = append(trie.Accepting, TrieAccept{
			State: state,
			Kind:  kind,
		})
	}

	// The emitter groups transitions into one branch per source state, so
	// transitions with the same source must be contiguous.
	sort.SliceStable(trie.Transitions, func(i, j int) bool {
		if trie.Transitions[i].From != trie.Transitions[j].From {
			return trie.Transitions[i].From < trie.Transitions[j].From
		}
		return trie.Transitions[i].C < trie.Transitions[j].C
	})

	return trie, nil
}
