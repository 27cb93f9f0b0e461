package main

import (
	"fmt"

	"github.com/cnf/structhash"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgen-dev/pgen/grammar/lexical"
	"github.com/pgen-dev/pgen/spec"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe <tokenizer-file> [<grammar-file>]",
		Short:   "Print the tokenizer IR and rule list in readable form",
		Example: `  pgen describe calc.tok calc.peg`,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

// irFingerprint is the hashed shape of the compiled IR. Generation is a
// pure function of it and of the PEG rule bodies, so the hash doubles as
// a cheap determinism check across runs.
type irFingerprint struct {
	TokenKinds []string
	Trie       *lexical.TrieAutomaton
	SMs        []*lexical.SMAutomaton
	Rules      []string
}

func runDescribe(cmd *cobra.Command, args []string) error {
	tokPath := args[0]
	var pegPath string
	if len(args) > 1 {
		pegPath = args[1]
	}

	loaded, err := loadGrammars(tokPath, pegPath)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Token kinds")
	kindRows := pterm.TableData{{"kind", "definition"}}
	for _, def := range loaded.grammar.TokenDefs {
		body := "state machine"
		if def.Children[1].Kind == spec.NodeKindLitDef {
			body = fmt.Sprintf("literal %q", string(def.Children[1].Lit))
		}
		kindRows = append(kindRows, []string{def.Children[0].Text, body})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(kindRows).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Trie automaton")
	renderTrie(loaded.trie)

	for _, aut := range loaded.smauts {
		pterm.DefaultSection.Println(fmt.Sprintf("State machine %s", aut.Ident))
		renderSM(aut)
	}

	if rules := loaded.grammar.RuleNames(); len(rules) > 0 {
		pterm.DefaultSection.Println("Rules")
		for _, name := range rules {
			pterm.Println("  " + name)
		}
	}

	hash, err := structhash.Hash(irFingerprint{
		TokenKinds: loaded.grammar.TokenKinds,
		Trie:       loaded.trie,
		SMs:        loaded.smauts,
		Rules:      loaded.grammar.RuleNames(),
	}, 1)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("Fingerprint")
	pterm.Println("  " + hash)

	pterm.Info.Println("A scan that recognizes nothing yields a zero-length STREAMEND token,\n" +
		"indistinguishable from the end of the stream.")
	return nil
}

func renderTrie(trie *lexical.TrieAutomaton) {
	if !trie.HasRules() {
		pterm.Println("  (no literal rules)")
		return
	}
	list := pterm.LeveledList{}
	var walk func(state int, level int)
	walk = func(state, level int) {
		for _, trans := range trie.Transitions {
			if trans.From != state {
				continue
			}
			text := fmt.Sprintf("%q -> state %v", string(trans.C), trans.To)
			if kind, ok := trie.AcceptKind(trans.To); ok {
				text += fmt.Sprintf(" (accepts %v)", kind)
			}
			list = append(list, pterm.LeveledListItem{Level: level, Text: text})
			walk(trans.To, level+1)
		}
	}
	list = append(list, pterm.LeveledListItem{Level: 0, Text: "state 0"})
	walk(0, 1)
	root := pterm.NewTreeFromLeveledList(list)
	_ = pterm.DefaultTree.WithRoot(root).Render()
}

func renderSM(aut *lexical.SMAutomaton) {
	rows := pterm.TableData{{"from", "to", "on"}}
	for _, t := range aut.Transitions {
		on := ""
		if t.Inverted {
			on = "!"
		}
		for i, r := range t.Ranges {
			if i > 0 {
				on += " "
			}
			if r.Lo == r.Hi {
				on += fmt.Sprintf("%q", string(r.Lo))
			} else {
				on += fmt.Sprintf("%q-%q", string(r.Lo), string(r.Hi))
			}
		}
		rows = append(rows, []string{formatRanges(t.From), fmt.Sprintf("%v", t.To), on})
	}
	rows = append(rows, []string{"accepting", formatRanges(aut.Accepting), ""})
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func formatRanges(ranges []spec.IntRange) string {
	out := ""
	for i, r := range ranges {
		if i > 0 {
			out += ", "
		}
		if r.Lo == r.Hi {
			out += fmt.Sprintf("%v", r.Lo)
		} else {
			out += fmt.Sprintf("%v-%v", r.Lo, r.Hi)
		}
	}
	return out
}
