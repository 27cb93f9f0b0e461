package spec

import (
	"fmt"

	verr "github.com/pgen-dev/pgen/error"
)

// scanCtx is the cursor the grammar parsers share. Both parsers work
// directly over the decoded code point slice; there is no token stream in
// between because the lexical shapes they need (brace-balanced code
// blocks, escape pass-through, line continuations) are context dependent.
type scanCtx struct {
	src []rune
	pos int
	row int
	col int
}

// scanMark is a saved cursor for backtracking.
type scanMark struct {
	pos int
	row int
	col int
}

func newScanCtx(src []rune) *scanCtx {
	return &scanCtx{
		src: src,
		row: 1,
		col: 1,
	}
}

func (s *scanCtx) hasCurrent() bool {
	return s.pos < len(s.src)
}

func (s *scanCtx) current() rune {
	return s.src[s.pos]
}

func (s *scanCtx) next() {
	if s.src[s.pos] == '\n' {
		s.row++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

func (s *scanCtx) advance(n int) {
	for i := 0; i < n; i++ {
		s.next()
	}
}

// isCurrent reports whether the unconsumed input begins with lit.
func (s *scanCtx) isCurrent(lit string) bool {
	i := s.pos
	for _, c := range lit {
		if i >= len(s.src) || s.src[i] != c {
			return false
		}
		i++
	}
	return true
}

func (s *scanCtx) record() scanMark {
	return scanMark{
		pos: s.pos,
		row: s.row,
		col: s.col,
	}
}

func (s *scanCtx) rewind(m scanMark) {
	s.pos = m.pos
	s.row = m.row
	s.col = m.col
}

// skipWS consumes spaces, tabs, carriage returns, newlines, backslash-
// newline continuations, line comments, and block comments. Newlines bump
// the row counter used in diagnostics.
func (s *scanCtx) skipWS() {
	for s.hasCurrent() {
		c := s.current()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.next()
		case s.isCurrent("\\\n"):
			s.next()
			s.next()
		case s.isCurrent("//"):
			for s.hasCurrent() && s.current() != '\n' {
				s.next()
			}
		case s.isCurrent("/*"):
			s.advance(2)
			for !s.isCurrent("*/") {
				if !s.hasCurrent() {
					s.raise(synErrUnclosedComment)
				}
				s.next()
			}
			s.advance(2)
		default:
			return
		}
	}
}

// raise aborts parsing with a diagnostic at the current cursor. The
// enclosing Parse* entry point recovers it.
func (s *scanCtx) raise(synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   s.row,
		Col:   s.col,
	})
}

func (s *scanCtx) raiseWithDetail(synErr *SyntaxError, format string, args ...interface{}) {
	panic(&verr.SpecError{
		Cause:  synErr,
		Detail: fmt.Sprintf(format, args...),
		Row:    s.row,
		Col:    s.col,
	})
}

// parseChar reads one possibly escaped character of a literal. The second
// return value is false at EOF.
func (s *scanCtx) parseChar() (rune, bool) {
	if !s.hasCurrent() {
		return 0, false
	}
	if s.current() != '\\' {
		c := s.current()
		s.next()
		return c, true
	}
	s.next()
	if !s.hasCurrent() {
		s.raise(synErrIncompleteEsc)
	}
	c := s.current()
	s.next()
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'b':
		return '\b', true
	case 'v':
		return '\v', true
	case 'a':
		return '\a', true
	case 'f':
		return '\f', true
	case '0':
		return 0, true
	default:
		// \\, \', \", \?, and anything else pass through.
		return c, true
	}
}

// parseQuotedString consumes a double-quoted literal and returns its
// content. The cursor must be on the opening quote.
func (s *scanCtx) parseQuotedString() []rune {
	s.next() // opening quote
	var content []rune
	for {
		if !s.hasCurrent() {
			s.raise(synErrUnclosedLiteral)
		}
		if s.current() == '"' {
			s.next()
			return content
		}
		c, ok := s.parseChar()
		if !ok {
			s.raise(synErrUnclosedLiteral)
		}
		content = append(content, c)
	}
}

// parseUpperIdent consumes [A-Z_]+ or returns nil.
func (s *scanCtx) parseUpperIdent() *Node {
	row, col := s.row, s.col
	start := s.pos
	for s.hasCurrent() {
		c := s.current()
		if (c < 'A' || c > 'Z') && c != '_' {
			break
		}
		s.next()
	}
	if s.pos == start {
		return nil
	}
	n := newNode(NodeKindUpperIdent, row, col)
	n.Text = string(s.src[start:s.pos])
	return n
}

// parseLowerIdent consumes [a-z_]+ or returns nil.
func (s *scanCtx) parseLowerIdent() *Node {
	row, col := s.row, s.col
	start := s.pos
	for s.hasCurrent() {
		c := s.current()
		if (c < 'a' || c > 'z') && c != '_' {
			break
		}
		s.next()
	}
	if s.pos == start {
		return nil
	}
	n := newNode(NodeKindLowerIdent, row, col)
	n.Text = string(s.src[start:s.pos])
	return n
}

// parseInt consumes a decimal integer, or returns -1 leaving the cursor
// untouched.
func (s *scanCtx) parseInt() int {
	start := s.pos
	v := 0
	for s.hasCurrent() {
		c := s.current()
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int(c-'0')
		s.next()
	}
	if s.pos == start {
		return -1
	}
	return v
}
