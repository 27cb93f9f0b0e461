package grammar

import (
	"github.com/emirpasic/gods/sets/linkedhashset"

	verr "github.com/pgen-dev/pgen/error"
	"github.com/pgen-dev/pgen/spec"
)

// reserved identifiers the generated rule functions declare themselves.
var reservedIdents = []string{"rule", "ret", "ctx"}

// Grammar is the symbol-resolved form of the two grammar files: the
// top-level nodes partitioned in source order, plus the ordered name sets
// the emitter derives enums from.
type Grammar struct {
	Directives []*spec.Node
	TokenDefs  []*spec.Node
	RuleDefs   []*spec.Node

	// TokenKinds are the token kind names in definition order: the
	// tokenizer file's definitions first, then the grammar file's token
	// definitions and %token directives in source order.
	TokenKinds []string

	// NodeKinds are the non-token AST node kind names in definition
	// order: %node directives, then rule names.
	NodeKinds []string
}

// RuleNames returns the rule names in definition order.
func (g *Grammar) RuleNames() []string {
	names := make([]string, len(g.RuleDefs))
	for i, def := range g.RuleDefs {
		names[i] = def.Children[0].Text
	}
	return names
}

// IsTokenKind reports whether name names a token kind.
func (g *Grammar) IsTokenKind(name string) bool {
	for _, k := range g.TokenKinds {
		if k == name {
			return true
		}
	}
	return false
}

// IsNodeKind reports whether name can be used as an AST node kind. Token
// kinds double as node kinds.
func (g *Grammar) IsNodeKind(name string) bool {
	if g.IsTokenKind(name) {
		return true
	}
	for _, k := range g.NodeKinds {
		if k == name {
			return true
		}
	}
	return false
}

// GrammarBuilder builds a Grammar from the token-file AST and the
// (possibly nil) grammar-file AST.
type GrammarBuilder struct {
	TokAST *spec.Node
	PegAST *spec.Node

	errs verr.SpecErrors
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	g := &Grammar{}

	tokKinds := linkedhashset.New()
	nodeKinds := linkedhashset.New()

	appendTokenDef := func(def *spec.Node) {
		id := def.Children[0]
		if tokKinds.Contains(id.Text) {
			b.errorAt(semErrDupTokenName, id.Text, id)
			return
		}
		tokKinds.Add(id.Text)
		g.TokenDefs = append(g.TokenDefs, def)
	}

	if b.TokAST != nil {
		for _, def := range b.TokAST.Children {
			appendTokenDef(def)
		}
	}

	if b.PegAST != nil {
		for _, node := range b.PegAST.Children {
			switch node.Kind {
			case spec.NodeKindDirective:
				g.Directives = append(g.Directives, node)
				switch node.Children[0].Text {
				case "token":
					tokKinds.Add(node.Text)
				case "node":
					if nodeKinds.Contains(node.Text) {
						b.errorAt(semErrDupNodeKind, node.Text, node)
						continue
					}
					nodeKinds.Add(node.Text)
				}
			case spec.NodeKindTokenDef:
				appendTokenDef(node)
			case spec.NodeKindDefinition:
				g.RuleDefs = append(g.RuleDefs, node)
			default:
				b.errorAt(semErrUnknownTopLevel, string(node.Kind), node)
			}
		}
	}

	ruleNames := linkedhashset.New()
	for _, def := range g.RuleDefs {
		id := def.Children[0]
		if id.Text == "prev" || id.Text == "next" {
			b.errorAt(semErrReservedRuleName, id.Text, id)
		}
		if ruleNames.Contains(id.Text) {
			b.errorAt(semErrDupRuleName, id.Text, id)
		}
		ruleNames.Add(id.Text)
		if !nodeKinds.Contains(id.Text) {
			nodeKinds.Add(id.Text)
		}
	}

	b.resolvePrevNext(g.RuleDefs)

	// Token kinds double as node kinds, so the two name spaces must not
	// overlap.
	for _, v := range nodeKinds.Values() {
		if tokKinds.Contains(v) {
			b.errorAt(semErrDupNodeKind, v.(string), nil)
		}
	}

	for _, v := range tokKinds.Values() {
		g.TokenKinds = append(g.TokenKinds, v.(string))
	}
	for _, v := range nodeKinds.Values() {
		g.NodeKinds = append(g.NodeKinds, v.(string))
	}

	for _, def := range g.RuleDefs {
		b.validateRuleBody(g, ruleNames, def)
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return g, nil
}

func (b *GrammarBuilder) errorAt(cause error, detail string, node *spec.Node) {
	e := &verr.SpecError{
		Cause:  cause,
		Detail: detail,
	}
	if node != nil {
		e.Row = node.Row
		e.Col = node.Col
	}
	b.errs = append(b.errs, e)
}

// resolvePrevNext replaces every rule reference spelled prev or next with
// the name of the lexically preceding or following rule.
func (b *GrammarBuilder) resolvePrevNext(defs []*spec.Node) {
	for i, def := range defs {
		var prevName, nextName string
		if i > 0 {
			prevName = defs[i-1].Children[0].Text
		}
		if i < len(defs)-1 {
			nextName = defs[i+1].Children[0].Text
		}
		b.resolveReplace(def.Children[1], prevName, nextName)
	}
}

func (b *GrammarBuilder) resolveReplace(node *spec.Node, prevName, nextName string) {
	if node.Kind == spec.NodeKindLowerIdent {
		if node.Text == "prev" || node.Text == "next" {
			replace := prevName
			direction := "previous"
			if node.Text == "next" {
				replace = nextName
				direction = "next"
			}
			if replace == "" {
				b.errorAt(semErrNoSuchNeighbor, "there is no "+direction+" rule", node)
				return
			}
			node.Text = replace
		}
		return
	}

	// A ModExpr resolves through its base expression only; its label and
	// error handler are not rule references.
	if node.Kind == spec.NodeKindModExpr {
		b.resolveReplace(node.Children[0], prevName, nextName)
		return
	}
	for _, child := range node.Children {
		b.resolveReplace(child, prevName, nextName)
	}
}

// validateRuleBody checks every reference and label in one rule body.
func (b *GrammarBuilder) validateRuleBody(g *Grammar, ruleNames *linkedhashset.Set, def *spec.Node) {
	var walk func(node *spec.Node)
	walk = func(node *spec.Node) {
		switch node.Kind {
		case spec.NodeKindModExpr:
			if label := node.Label(); label != nil {
				if ruleNames.Contains(label.Text) {
					b.errorAt(semErrLabelIsRuleName, label.Text, label)
				}
				for _, reserved := range reservedIdents {
					if label.Text == reserved {
						b.errorAt(semErrLabelIsReserved, label.Text, label)
					}
				}
			}
			walk(node.Children[0])
			return
		case spec.NodeKindBaseExpr:
			child := node.Children[0]
			switch child.Kind {
			case spec.NodeKindUpperIdent:
				if !g.IsTokenKind(child.Text) {
					b.errorAt(semErrUndefinedToken, child.Text, child)
				}
			case spec.NodeKindLowerIdent:
				if !ruleNames.Contains(child.Text) {
					b.errorAt(semErrUndefinedRule, child.Text, child)
				}
			default:
				walk(child)
			}
			return
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(def.Children[1])
}
