package spec

// NodeKind identifies the production a grammar AST node was built from.
type NodeKind string

const (
	NodeKindTokenFile   = NodeKind("TokenFile")
	NodeKindGrammarFile = NodeKind("GrammarFile")
	NodeKindTokenDef    = NodeKind("TokenDef")
	NodeKindLitDef      = NodeKind("LitDef")
	NodeKindSMDef       = NodeKind("SMDef")
	NodeKindDirective   = NodeKind("Directive")
	NodeKindDefinition  = NodeKind("Definition")
	NodeKindFieldList   = NodeKind("FieldList")
	NodeKindFieldDef    = NodeKind("FieldDef")
	NodeKindSlashExpr   = NodeKind("SlashExpr")
	NodeKindModExprList = NodeKind("ModExprList")
	NodeKindModExpr     = NodeKind("ModExpr")
	NodeKindBaseExpr    = NodeKind("BaseExpr")
	NodeKindCodeExpr    = NodeKind("CodeExpr")
	NodeKindErrString   = NodeKind("ErrString")
	NodeKindUpperIdent  = NodeKind("UpperIdent")
	NodeKindLowerIdent  = NodeKind("LowerIdent")
)

// KleeneOp is the repetition suffix of a ModExpr.
type KleeneOp int

const (
	KleeneNone KleeneOp = iota
	KleenePlus
	KleeneStar
)

// ModExprOpts carries the prefix and suffix modifiers of a ModExpr.
type ModExprOpts struct {
	Inverted bool
	Rewind   bool
	Optional bool
	Kleene   KleeneOp
}

// CodeExprOpts carries an embedded action fragment. The content is opaque
// host-language text; Row is the grammar-file line the block begins on.
type CodeExprOpts struct {
	Content string
	Row     int
}

// CharRange is an inclusive code point range. A single character is
// represented as Lo == Hi.
type CharRange struct {
	Lo rune
	Hi rune
}

// IntRange is an inclusive range of state numbers.
type IntRange struct {
	Lo int
	Hi int
}

// SMTransition is one transition of an SMDef: from any state in From, on a
// character matching Ranges (or not matching, when Inverted), go to To.
type SMTransition struct {
	From     []IntRange
	To       int
	Ranges   []CharRange
	Inverted bool
}

// SMOpts is the payload of an SMDef node.
type SMOpts struct {
	Transitions []SMTransition
	Accepting   []IntRange
}

// Node is the uniform grammar AST node. Children are owned by their
// parent. The payload fields are populated depending on Kind:
//
//	UpperIdent, LowerIdent, FieldDef: Text
//	Directive:                        Text (argument payload)
//	LitDef, ErrString:                Lit
//	ModExpr:                          ModOpts
//	CodeExpr:                         CodeOpts
//	SMDef:                            SM
type Node struct {
	Kind     NodeKind
	Children []*Node
	Text     string
	Lit      []rune
	ModOpts  *ModExprOpts
	CodeOpts *CodeExprOpts
	SM       *SMOpts
	Row      int
	Col      int
}

func newNode(kind NodeKind, row, col int) *Node {
	return &Node{
		Kind: kind,
		Row:  row,
		Col:  col,
	}
}

func (n *Node) addChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// Label returns the label child of a ModExpr, or nil. The label position
// is fixed: child index 1 iff the second child is a LowerIdent.
func (n *Node) Label() *Node {
	if n.Kind != NodeKindModExpr || len(n.Children) < 2 {
		return nil
	}
	if n.Children[1].Kind == NodeKindLowerIdent {
		return n.Children[1]
	}
	return nil
}

// ErrHandler returns the inline error handler child of a ModExpr, or nil.
func (n *Node) ErrHandler() *Node {
	if n.Kind != NodeKindModExpr {
		return nil
	}
	idx := 1
	if n.Label() != nil {
		idx = 2
	}
	if len(n.Children) <= idx {
		return nil
	}
	return n.Children[idx]
}
