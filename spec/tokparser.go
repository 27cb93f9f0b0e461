package spec

import (
	"fmt"

	verr "github.com/pgen-dev/pgen/error"
)

// ParseTokenGrammar parses a tokenizer grammar into a TokenFile node whose
// children are TokenDef nodes. The duplicate-name, duplicate-literal, and
// reserved-name invariants are enforced here.
func ParseTokenGrammar(src []rune) (root *Node, retErr error) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		specErr, ok := err.(*verr.SpecError)
		if !ok {
			panic(err)
		}
		root = nil
		retErr = specErr
	}()

	s := newScanCtx(src)
	root = newNode(NodeKindTokenFile, 1, 1)
	for {
		s.skipWS()
		def := parseTokenDef(s)
		if def == nil {
			break
		}
		root.addChild(def)
	}
	s.skipWS()
	if s.hasCurrent() {
		s.raise(synErrTokenFileTrash)
	}

	validateTokenDefs(root.Children)
	return root, nil
}

func parseTokenDef(s *scanCtx) *Node {
	id := s.parseUpperIdent()
	if id == nil {
		return nil
	}

	s.skipWS()
	if !s.hasCurrent() || s.current() != ':' {
		s.raise(synErrNoTokenColon)
	}
	s.next()
	s.skipWS()

	var body *Node
	switch {
	case s.hasCurrent() && s.current() == '"':
		body = parseLitDef(s)
	case s.hasCurrent() && s.current() == '(':
		body = parseSMDef(s)
	default:
		s.raise(synErrNoTokenBody)
	}

	def := newNode(NodeKindTokenDef, id.Row, id.Col)
	def.addChild(id)
	def.addChild(body)
	return def
}

func parseLitDef(s *scanCtx) *Node {
	n := newNode(NodeKindLitDef, s.row, s.col)
	n.Lit = s.parseQuotedString()
	return n
}

// parseSMDef parses a state machine body:
//
//	Transition+ ';' AcceptRanges
//	Transition   ::= '(' StateRanges ',' Int ',' ['!'] CharClass ')'
//	StateRanges  ::= StateRange | '(' StateRange (',' StateRange)* ')'
//	StateRange   ::= Int | Int '-' Int | '(' Int '-' Int ')'
//	CharClass    ::= '[' (Char | Char '-' Char)+ ']' | QuotedString
//	AcceptRanges ::= StateRange (',' StateRange)*
func parseSMDef(s *scanCtx) *Node {
	n := newNode(NodeKindSMDef, s.row, s.col)
	sm := &SMOpts{}

	for s.hasCurrent() && s.current() == '(' {
		sm.Transitions = append(sm.Transitions, parseSMTransition(s))
		s.skipWS()
	}
	if len(sm.Transitions) == 0 {
		s.raise(synErrSMNoTransition)
	}

	if !s.hasCurrent() || s.current() != ';' {
		s.raise(synErrSMNoAccept)
	}
	s.next()
	s.skipWS()

	sm.Accepting = parseStateRangeList(s)
	if len(sm.Accepting) == 0 {
		s.raise(synErrSMNoAccept)
	}

	n.SM = sm
	return n
}

func parseSMTransition(s *scanCtx) SMTransition {
	s.next() // '('
	s.skipWS()

	var t SMTransition
	t.From = parseStateRanges(s)
	s.skipWS()
	if !s.hasCurrent() || s.current() != ',' {
		s.raise(synErrSMUnclosedTrans)
	}
	s.next()
	s.skipWS()

	t.To = s.parseInt()
	if t.To < 0 {
		s.raise(synErrSMNoState)
	}
	s.skipWS()
	if !s.hasCurrent() || s.current() != ',' {
		s.raise(synErrSMUnclosedTrans)
	}
	s.next()
	s.skipWS()

	if s.hasCurrent() && s.current() == '!' {
		t.Inverted = true
		s.next()
		s.skipWS()
	}
	t.Ranges = parseCharClass(s)

	s.skipWS()
	if !s.hasCurrent() || s.current() != ')' {
		s.raise(synErrSMUnclosedTrans)
	}
	s.next()
	return t
}

func parseStateRanges(s *scanCtx) []IntRange {
	if s.hasCurrent() && s.current() == '(' {
		s.next()
		s.skipWS()
		var ranges []IntRange
		for {
			ranges = append(ranges, parseStateRange(s))
			s.skipWS()
			if s.hasCurrent() && s.current() == ',' {
				s.next()
				s.skipWS()
				continue
			}
			break
		}
		if !s.hasCurrent() || s.current() != ')' {
			s.raise(synErrSMUnclosedTrans)
		}
		s.next()
		return ranges
	}
	return []IntRange{parseStateRange(s)}
}

func parseStateRange(s *scanCtx) IntRange {
	if s.hasCurrent() && s.current() == '(' {
		s.next()
		s.skipWS()
		r := parseStateRange(s)
		s.skipWS()
		if !s.hasCurrent() || s.current() != ')' {
			s.raise(synErrSMUnclosedTrans)
		}
		s.next()
		return r
	}
	lo := s.parseInt()
	if lo < 0 {
		s.raise(synErrSMNoState)
	}
	hi := lo
	s.skipWS()
	if s.hasCurrent() && s.current() == '-' {
		s.next()
		s.skipWS()
		hi = s.parseInt()
		if hi < 0 {
			s.raise(synErrSMNoState)
		}
	}
	return IntRange{Lo: lo, Hi: hi}
}

func parseStateRangeList(s *scanCtx) []IntRange {
	var ranges []IntRange
	for {
		if !s.hasCurrent() || (s.current() != '(' && (s.current() < '0' || s.current() > '9')) {
			break
		}
		ranges = append(ranges, parseStateRange(s))
		s.skipWS()
		if s.hasCurrent() && s.current() == ',' {
			s.next()
			s.skipWS()
			continue
		}
		break
	}
	return ranges
}

func parseCharClass(s *scanCtx) []CharRange {
	if !s.hasCurrent() {
		s.raise(synErrSMNoCharClass)
	}
	if s.current() == '"' {
		content := s.parseQuotedString()
		ranges := make([]CharRange, 0, len(content))
		for _, c := range content {
			ranges = append(ranges, CharRange{Lo: c, Hi: c})
		}
		return ranges
	}
	if s.current() != '[' {
		s.raise(synErrSMNoCharClass)
	}
	s.next()

	var ranges []CharRange
	for {
		if !s.hasCurrent() {
			s.raise(synErrSMUnclosedClass)
		}
		if s.current() == ']' {
			s.next()
			break
		}
		lo, ok := s.parseChar()
		if !ok {
			s.raise(synErrSMUnclosedClass)
		}
		hi := lo
		if s.hasCurrent() && s.current() == '-' && !s.isCurrent("-]") {
			s.next()
			if !s.hasCurrent() {
				s.raise(synErrSMUnclosedClass)
			}
			hi, ok = s.parseChar()
			if !ok {
				s.raise(synErrSMUnclosedClass)
			}
		}
		ranges = append(ranges, CharRange{Lo: lo, Hi: hi})
	}
	if len(ranges) == 0 {
		s.raise(synErrSMNoCharClass)
	}
	return ranges
}

// validateTokenDefs enforces the token-file invariants: unique names, no
// reserved names, and pairwise-distinct literal contents.
func validateTokenDefs(defs []*Node) {
	for i, def := range defs {
		id := def.Children[0]
		if id.Text == "STREAMEND" || id.Text == "STREAMBEGIN" {
			panic(&verr.SpecError{
				Cause:  synErrReservedToken,
				Detail: id.Text,
				Row:    id.Row,
				Col:    id.Col,
			})
		}
		for _, other := range defs[:i] {
			otherID := other.Children[0]
			if otherID.Text == id.Text {
				panic(&verr.SpecError{
					Cause:  synErrDupTokenName,
					Detail: id.Text,
					Row:    id.Row,
					Col:    id.Col,
				})
			}
			if def.Children[1].Kind == NodeKindLitDef && other.Children[1].Kind == NodeKindLitDef &&
				string(def.Children[1].Lit) == string(other.Children[1].Lit) {
				panic(&verr.SpecError{
					Cause:  synErrDupLiteral,
					Detail: fmt.Sprintf("%v and %v", otherID.Text, id.Text),
					Row:    id.Row,
					Col:    id.Col,
				})
			}
		}
	}
}
