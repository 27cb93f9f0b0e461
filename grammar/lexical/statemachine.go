package lexical

import (
	"fmt"

	"github.com/pgen-dev/pgen/spec"
)

type SemanticError struct {
	message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic error: %s", e.message)
}

var semErrDupAccepting = &SemanticError{message: "two literal rules share an accepting state"}

// SMAutomaton is the finite state machine of one regex-like token rule.
// The identifier is the token kind it accepts. States are dense integers
// starting at 0.
type SMAutomaton struct {
	Ident       string
	Transitions []spec.SMTransition
	Accepting   []spec.IntRange
}

// NumStates returns the size of the dense state space.
func (a *SMAutomaton) NumStates() int {
	max := 0
	for _, t := range a.Transitions {
		if t.To > max {
			max = t.To
		}
		for _, r := range t.From {
			if r.Hi > max {
				max = r.Hi
			}
		}
	}
	for _, r := range a.Accepting {
		if r.Hi > max {
			max = r.Hi
		}
	}
	return max + 1
}

// NextState runs one step. The second return value is false when the
// automaton dies. Transitions are tried in definition order; the first
// whose source range holds the state and whose predicate matches wins.
func (a *SMAutomaton) NextState(state int, c rune) (int, bool) {
	for _, t := range a.Transitions {
		if !stateIn(t.From, state) {
			continue
		}
		if charMatches(t.Ranges, c) != t.Inverted {
			return t.To, true
		}
	}
	return 0, false
}

// Accepts reports whether state is accepting.
func (a *SMAutomaton) Accepts(state int) bool {
	return stateIn(a.Accepting, state)
}

func stateIn(ranges []spec.IntRange, state int) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if state >= r.Lo && state <= r.Hi {
			return true
		}
	}
	return false
}

func charMatches(ranges []spec.CharRange, c rune) bool {
	for _, r := range ranges {
		if c >= r.Lo && c <= r.Hi {
			return true
		}
	}
	return false
}

// BuildStateMachines lowers every SM token rule, preserving definition
// order; the order is the tie-breaking order at scan time.
func BuildStateMachines(tokenDefs []*spec.Node) []*SMAutomaton {
	var auts []*SMAutomaton
	for _, def := range tokenDefs {
		body := def.Children[1]
		if body.Kind != spec.NodeKindSMDef {
			continue
		}
		auts = append(auts, &SMAutomaton{
			Ident:       def.Children[0].Text,
			Transitions: body.SM.Transitions,
			Accepting:   body.SM.Accepting,
		})
	}
	return auts
}
