package spec

import (
	verr "github.com/pgen-dev/pgen/error"
)

// ParsePEGGrammar parses a parser grammar into a GrammarFile node whose
// children are Directive, TokenDef, and Definition nodes in source order.
// On the first unrecoverable failure it returns no AST and the failure
// location.
func ParsePEGGrammar(src []rune) (root *Node, retErr error) {
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
	root = newNode(NodeKindGrammarFile, 1, 1)
	for {
		s.skipWS()
		if !s.hasCurrent() {
			break
		}

		if dir := parseDirective(s); dir != nil {
			root.addChild(dir)
			continue
		}
		if def := parseTokenDef(s); def != nil {
			root.addChild(def)
			continue
		}
		if def := parseDefinition(s); def != nil {
			root.addChild(def)
			continue
		}

		s.raise(synErrGrammarFileTrash)
	}
	return root, nil
}

// parseDirective parses '%' name followed by a payload that is either
// brace delimited or runs to the end of the line.
func parseDirective(s *scanCtx) *Node {
	if !s.hasCurrent() || s.current() != '%' {
		return nil
	}
	row, col := s.row, s.col
	s.next()

	name := s.parseLowerIdent()
	if name == nil {
		s.raise(synErrNoDirectiveName)
	}

	for s.hasCurrent() && (s.current() == ' ' || s.current() == '\t') {
		s.next()
	}

	var payload string
	if s.hasCurrent() && s.current() == '{' {
		payload = parseBalancedBlock(s)
	} else {
		start := s.pos
		for s.hasCurrent() && s.current() != '\n' {
			s.next()
		}
		end := s.pos
		for end > start {
			c := s.src[end-1]
			if c != ' ' && c != '\t' && c != '\r' {
				break
			}
			end--
		}
		payload = string(s.src[start:end])
	}

	dir := newNode(NodeKindDirective, row, col)
	dir.addChild(name)
	dir.Text = payload
	return dir
}

func parseDefinition(s *scanCtx) *Node {
	begin := s.record()

	id := s.parseLowerIdent()
	if id == nil {
		return nil
	}

	s.skipWS()

	var fields *Node
	if s.hasCurrent() && s.current() == '(' {
		fields = parseFieldList(s)
		s.skipWS()
	}

	if !s.isCurrent("<-") {
		s.rewind(begin)
		return nil
	}
	s.advance(2)
	s.skipWS()

	slash := parseSlashExpr(s)
	if slash == nil {
		s.raise(synErrNoAlternative)
	}

	def := newNode(NodeKindDefinition, id.Row, id.Col)
	def.addChild(id)
	def.addChild(slash)
	def.addChild(fields)
	return def
}

// parseFieldList parses the optional per-rule variable declarations:
// '(' decl (';' decl)* ')'. Each declaration is verbatim text emitted at
// the top of the generated rule function.
func parseFieldList(s *scanCtx) *Node {
	fl := newNode(NodeKindFieldList, s.row, s.col)
	s.next() // '('
	start := s.pos
	fieldRow, fieldCol := s.row, s.col
	flush := func(end int) {
		text := trimSpace(s.src[start:end])
		if text != "" {
			fd := newNode(NodeKindFieldDef, fieldRow, fieldCol)
			fd.Text = text
			fl.addChild(fd)
		}
	}
	for {
		if !s.hasCurrent() {
			s.raise(synErrUnclosedFields)
		}
		switch s.current() {
		case ')':
			flush(s.pos)
			s.next()
			return fl
		case ';':
			flush(s.pos)
			s.next()
			start = s.pos
			fieldRow, fieldCol = s.row, s.col
		default:
			s.next()
		}
	}
}

func trimSpace(src []rune) string {
	lo, hi := 0, len(src)
	for lo < hi {
		c := src[lo]
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			break
		}
		lo++
	}
	for hi > lo {
		c := src[hi-1]
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			break
		}
		hi--
	}
	return string(src[lo:hi])
}

func parseSlashExpr(s *scanCtx) *Node {
	first := parseModExprList(s)
	if first == nil {
		return nil
	}

	slash := newNode(NodeKindSlashExpr, first.Row, first.Col)
	slash.addChild(first)

	for {
		mark := s.record()
		s.skipWS()
		if !s.hasCurrent() || s.current() != '/' {
			s.rewind(mark)
			break
		}
		s.next()

		alt := parseModExprList(s)
		if alt == nil {
			s.rewind(mark)
			break
		}
		slash.addChild(alt)
	}
	return slash
}

func parseModExprList(s *scanCtx) *Node {
	begin := s.record()
	list := newNode(NodeKindModExprList, s.row, s.col)
	for {
		s.skipWS()
		me := parseModExpr(s)
		if me == nil {
			break
		}
		list.addChild(me)
	}
	if len(list.Children) == 0 {
		s.rewind(begin)
		return nil
	}
	list.Row = list.Children[0].Row
	list.Col = list.Children[0].Col
	return list
}

func parseModExpr(s *scanCtx) *Node {
	begin := s.record()
	if !s.hasCurrent() {
		return nil
	}

	opts := &ModExprOpts{}
	switch s.current() {
	case '&':
		opts.Rewind = true
		s.next()
		s.skipWS()
	case '!':
		opts.Inverted = true
		s.next()
		s.skipWS()
	}

	base := parseBaseExpr(s)
	if base == nil {
		s.rewind(begin)
		return nil
	}

	me := newNode(NodeKindModExpr, base.Row, base.Col)
	me.ModOpts = opts
	me.addChild(base)

	mark := s.record()
	s.skipWS()
	if s.hasCurrent() {
		switch s.current() {
		case '?':
			opts.Optional = true
			s.next()
			mark = s.record()
		case '+':
			opts.Kleene = KleenePlus
			s.next()
			mark = s.record()
		case '*':
			opts.Kleene = KleeneStar
			s.next()
			mark = s.record()
		default:
			s.rewind(mark)
		}
	}

	s.rewind(mark)
	s.skipWS()
	if s.hasCurrent() && s.current() == ':' {
		s.next()
		s.skipWS()
		label := s.parseLowerIdent()
		if label == nil {
			s.raise(synErrNoLabel)
		}
		me.addChild(label)
		mark = s.record()
	}

	s.rewind(mark)
	s.skipWS()
	if s.hasCurrent() && s.current() == '<' {
		me.addChild(parseErrHandler(s))
		mark = s.record()
	}

	s.rewind(mark)
	return me
}

// parseErrHandler parses '<' (string-literal | CodeExpr) '>'. The angle
// brackets keep an error-handling code block distinct from an action
// block starting the next ModExpr.
func parseErrHandler(s *scanCtx) *Node {
	s.next() // '<'
	s.skipWS()
	if !s.hasCurrent() {
		s.raise(synErrEmptyHandler)
	}

	var handler *Node
	switch s.current() {
	case '"':
		handler = newNode(NodeKindErrString, s.row, s.col)
		handler.Lit = s.parseQuotedString()
	case '{':
		handler = parseCodeExpr(s)
	default:
		s.raise(synErrEmptyHandler)
	}

	s.skipWS()
	if !s.hasCurrent() || s.current() != '>' {
		s.raise(synErrUnclosedHandler)
	}
	s.next()
	return handler
}

func parseBaseExpr(s *scanCtx) *Node {
	begin := s.record()

	if id := s.parseUpperIdent(); id != nil {
		be := newNode(NodeKindBaseExpr, id.Row, id.Col)
		be.addChild(id)
		return be
	}

	if id := s.parseLowerIdent(); id != nil {
		// A rule reference must not swallow the name of the next
		// definition, with or without a field list.
		beforeWS := s.record()
		s.skipWS()
		if s.isCurrent("<-") || startsFieldListArrow(s) {
			s.rewind(begin)
			return nil
		}
		s.rewind(beforeWS)
		be := newNode(NodeKindBaseExpr, id.Row, id.Col)
		be.addChild(id)
		return be
	}

	if s.hasCurrent() && s.current() == '{' {
		ce := parseCodeExpr(s)
		be := newNode(NodeKindBaseExpr, ce.Row, ce.Col)
		be.addChild(ce)
		return be
	}

	if !s.hasCurrent() || s.current() != '(' {
		return nil
	}
	s.next()
	s.skipWS()

	inner := parseSlashExpr(s)
	if inner == nil {
		s.rewind(begin)
		return nil
	}

	s.skipWS()
	if !s.hasCurrent() || s.current() != ')' {
		s.raise(synErrUnclosedGroup)
	}
	s.next()

	be := newNode(NodeKindBaseExpr, inner.Row, inner.Col)
	be.addChild(inner)
	return be
}

// startsFieldListArrow reports whether the cursor sits on a
// parenthesized field list followed by '<-', i.e. the head of the next
// definition rather than a grouped expression.
func startsFieldListArrow(s *scanCtx) bool {
	if !s.hasCurrent() || s.current() != '(' {
		return false
	}
	mark := s.record()
	defer s.rewind(mark)

	depth := 0
	for s.hasCurrent() {
		switch s.current() {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s.next()
				s.skipWS()
				return s.isCurrent("<-")
			}
		}
		s.next()
	}
	return false
}

// parseCodeExpr consumes a brace-delimited host-language fragment. The
// balance counts '{' and '}'; a backslash passes the following character
// through without counting it.
func parseCodeExpr(s *scanCtx) *Node {
	row, col := s.row, s.col
	s.next() // '{'

	balance := 1
	var content []rune
	for {
		if !s.hasCurrent() {
			s.raise(synErrUnclosedCode)
		}
		c := s.current()
		if c == '\\' {
			s.next()
			if !s.hasCurrent() {
				s.raise(synErrUnclosedCode)
			}
			content = append(content, s.current())
			s.next()
			continue
		}
		if c == '{' {
			balance++
		} else if c == '}' {
			balance--
			if balance == 0 {
				s.next()
				break
			}
		}
		content = append(content, c)
		s.next()
	}

	ce := newNode(NodeKindCodeExpr, row, col)
	ce.CodeOpts = &CodeExprOpts{
		Content: string(content),
		Row:     row,
	}
	return ce
}

func parseBalancedBlock(s *scanCtx) string {
	ce := parseCodeExpr(s)
	return ce.CodeOpts.Content
}
