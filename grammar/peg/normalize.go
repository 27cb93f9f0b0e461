// Package peg annotates the grammar AST with the information the emitter
// schedules code from: dense expression identifiers for generated
// temporaries, capture flags, and per-rule label lists.
package peg

import (
	"github.com/pgen-dev/pgen/grammar"
	"github.com/pgen-dev/pgen/spec"
)

// RuleIR is one rule definition ready for emission.
type RuleIR struct {
	Name string
	Body *spec.Node

	// Fields are the verbatim per-rule variable declarations from the
	// definition's field list.
	Fields []string

	// Labels are the deduplicated label identifiers of the rule body,
	// minus the reserved result identifier. Each becomes a variable
	// declared at the top of the generated rule function.
	Labels []string
}

// IR is the normalized PEG intermediate representation.
type IR struct {
	Rules []*RuleIR

	ids      map[*spec.Node]int
	captures map[*spec.Node]bool
	counter  int
}

// ID returns the dense identifier of a sub-expression.
func (ir *IR) ID(node *spec.Node) int {
	return ir.ids[node]
}

// Captures reports whether the enclosing context asks node to produce a
// real AST node rather than the success sentinel.
func (ir *IR) Captures(node *spec.Node) bool {
	return ir.captures[node]
}

// Fresh allocates an identifier beyond the ones assigned to
// sub-expressions; the emitter draws loop and result temporaries from it.
func (ir *IR) Fresh() int {
	id := ir.counter
	ir.counter++
	return id
}

// Normalize computes the PEG IR for every rule of the grammar.
func Normalize(g *grammar.Grammar) *IR {
	ir := &IR{
		ids:      map[*spec.Node]int{},
		captures: map[*spec.Node]bool{},
	}

	for _, def := range g.RuleDefs {
		rule := &RuleIR{
			Name: def.Children[0].Text,
			Body: def.Children[1],
		}
		if len(def.Children) == 3 && def.Children[2] != nil {
			for _, fd := range def.Children[2].Children {
				rule.Fields = append(rule.Fields, fd.Text)
			}
		}

		ir.number(rule.Body)
		// The rule result itself is a capture: a rule returning a node
		// must build one.
		ir.mark(rule.Body, true)
		collectLabels(rule.Body, &rule.Labels)

		ir.Rules = append(ir.Rules, rule)
	}
	return ir
}

func (ir *IR) number(node *spec.Node) {
	ir.ids[node] = ir.counter
	ir.counter++
	for _, child := range node.Children {
		ir.number(child)
	}
}

// mark propagates the capture flag top-down. A ModExpr forwards a capture
// to its base iff it is labeled or the context captures, and it is not
// optional, inverted, or repeated; repetition bodies never capture
// (which of the iterations would be returned?).
func (ir *IR) mark(node *spec.Node, capture bool) {
	ir.captures[node] = capture

	switch node.Kind {
	case spec.NodeKindSlashExpr:
		for _, alt := range node.Children {
			ir.mark(alt, capture)
		}
	case spec.NodeKindModExprList:
		last := len(node.Children) - 1
		for i, child := range node.Children {
			ir.mark(child, capture && i == last)
		}
	case spec.NodeKindModExpr:
		opts := node.ModOpts
		forward := (capture || node.Label() != nil) && !opts.Optional && !opts.Inverted
		if opts.Kleene != spec.KleeneNone {
			forward = false
		}
		ir.mark(node.Children[0], forward)
		if handler := node.ErrHandler(); handler != nil {
			ir.mark(handler, false)
		}
	case spec.NodeKindBaseExpr:
		ir.mark(node.Children[0], capture)
	}
}

func collectLabels(node *spec.Node, labels *[]string) {
	if node.Kind == spec.NodeKindModExpr {
		if label := node.Label(); label != nil && label.Text != "rule" {
			found := false
			for _, l := range *labels {
				if l == label.Text {
					found = true
					break
				}
			}
			if !found {
				*labels = append(*labels, label.Text)
			}
		}
	}
	for _, child := range node.Children {
		collectLabels(child, labels)
	}
}
