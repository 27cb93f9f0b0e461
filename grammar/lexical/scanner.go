package lexical

// KindStreamEnd is the reserved kind marking the end of the token stream.
// It is also what a scan yields when no automaton accepts anything at the
// current position, so end of stream is indistinguishable from
// unrecognized input. Generated recognizers share this behavior.
const KindStreamEnd = "STREAMEND"

// KindStreamBegin is the reserved kind preceding all tokens.
const KindStreamBegin = "STREAMBEGIN"

// Token is a scanned token. Content borrows from the scanner's code point
// buffer.
type Token struct {
	Kind    string
	Content []rune
	Line    int
	Col     int
}

// Scanner interprets the tokenizer IR with the same maximal-munch
// arbitration the emitted Tokenizer.Next translation performs: run the trie
// and every state machine in lockstep, keep the longest accepted length
// per automaton, and when all automata have died pick the longest match.
// Ties go to the trie first, then to earlier-defined state machines.
//
// The scanner backs the tokenize REPL and the tokenizer property tests.
// Generated recognizers never call it; their Tokenizer.Next is a
// translation of the same IR.
type Scanner struct {
	trie   *TrieAutomaton
	smauts []*SMAutomaton
	src    []rune
	pos    int
	line   int
	col    int
}

func NewScanner(trie *TrieAutomaton, smauts []*SMAutomaton, src []rune) *Scanner {
	return &Scanner{
		trie:   trie,
		smauts: smauts,
		src:    src,
		line:   1,
		col:    0,
	}
}

// Next scans one token. At end of input, or when every automaton dies
// without accepting, it returns a zero-length STREAMEND token at the
// current position.
func (s *Scanner) Next() Token {
	current := s.src[s.pos:]

	trieState := 0
	trieAlive := s.trie != nil && s.trie.HasRules()
	trieMunch := 0
	trieKind := KindStreamEnd

	smStates := make([]int, len(s.smauts))
	smAlive := make([]bool, len(s.smauts))
	for i := range smAlive {
		smAlive[i] = true
	}
	smMunch := make([]int, len(s.smauts))

	for i, c := range current {
		allDead := true

		if trieAlive {
			to, ok := s.trie.NextState(trieState, c)
			if ok {
				allDead = false
				trieState = to
				if kind, acc := s.trie.AcceptKind(trieState); acc {
					trieKind = kind
					trieMunch = i + 1
				}
			} else {
				trieAlive = false
			}
		}

		for a, aut := range s.smauts {
			if !smAlive[a] {
				continue
			}
			to, ok := aut.NextState(smStates[a], c)
			if !ok {
				smAlive[a] = false
				continue
			}
			allDead = false
			smStates[a] = to
			if aut.Accepts(to) {
				smMunch[a] = i + 1
			}
		}

		if allDead {
			break
		}
	}

	// Arbitration: later machines are considered first and earlier ones
	// overwrite on ties; the trie goes last and wins every tie.
	kind := KindStreamEnd
	maxMunch := 0
	for a := len(s.smauts) - 1; a >= 0; a-- {
		if smMunch[a] >= maxMunch {
			kind = s.smauts[a].Ident
			maxMunch = smMunch[a]
		}
	}
	if trieMunch >= maxMunch {
		kind = trieKind
		maxMunch = trieMunch
	}

	tok := Token{
		Kind:    kind,
		Content: current[:maxMunch],
		Line:    s.line,
		Col:     s.col,
	}

	for _, c := range current[:maxMunch] {
		if c == '\n' {
			s.line++
			s.col = 0
		} else {
			s.col++
		}
	}
	s.pos += maxMunch

	return tok
}

// Exhausted reports whether the scan cursor reached the end of input. A
// STREAMEND token with Exhausted false marks unrecognized input.
func (s *Scanner) Exhausted() bool {
	return s.pos >= len(s.src)
}

// Tokenize scans the whole input. The returned sequence ends with its
// only STREAMEND token.
func (s *Scanner) Tokenize() []Token {
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == KindStreamEnd {
			return toks
		}
	}
}
