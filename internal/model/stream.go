package model

import "slices"

// Stream is an immutable, random-access sequence of tokens.
type Stream struct {
	tokens []Token
}

// NewStream wraps tokens into a Stream. The slice must not be modified
// afterwards.
func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Len returns the number of tokens.
func (s *Stream) Len() int {
	return len(s.tokens)
}

// At returns the token at index i.
func (s *Stream) At(i int) Token {
	return s.tokens[i]
}

// Valid reports whether i is an index into the stream.
func (s *Stream) Valid(i int) bool {
	return i >= 0 && i < len(s.tokens)
}

// Tokens returns a copy of the token slice.
func (s *Stream) Tokens() []Token {
	return slices.Clone(s.tokens)
}

// Text concatenates the text of every token.
func (s *Stream) Text() string {
	size := 0
	for _, tok := range s.tokens {
		size += len(tok.Text)
	}

	buf := make([]byte, 0, size)
	for _, tok := range s.tokens {
		buf = append(buf, tok.Text...)
	}

	return string(buf)
}

// Matcher selects tokens in FindNext and FindPrevious.
type Matcher func(Token) bool

// OfKind matches tokens of any of the given kinds.
func OfKind(kinds ...Kind) Matcher {
	return func(t Token) bool {
		return slices.Contains(kinds, t.Kind)
	}
}

// NotOfKind matches tokens of none of the given kinds.
func NotOfKind(kinds ...Kind) Matcher {
	return func(t Token) bool {
		return !slices.Contains(kinds, t.Kind)
	}
}

// FindOption narrows a search.
type FindOption func(*findConfig)

type findConfig struct {
	bound    int
	hasBound bool
	local    bool
}

// WithBound stops the search at index bound (inclusive).
func WithBound(bound int) FindOption {
	return func(c *findConfig) {
		c.bound = bound
		c.hasBound = true
	}
}

// WithinStatement stops the search at the end (or start) of the statement
// that contains the starting token. Statements nested deeper than the
// starting token, such as the body of a closure passed as an argument, do
// not end the search.
func WithinStatement() FindOption {
	return func(c *findConfig) {
		c.local = true
	}
}

// FindNext returns the index of the first token at or after from that
// matches.
func (s *Stream) FindNext(from int, match Matcher, opts ...FindOption) (int, bool) {
	if from < 0 {
		from = 0
	}

	if from >= len(s.tokens) {
		return -1, false
	}

	cfg := newFindConfig(opts)

	end := len(s.tokens) - 1
	if cfg.hasBound && cfg.bound < end {
		end = cfg.bound
	}

	if cfg.local {
		end = min(end, s.StatementEnd(from))
	}

	for i := from; i <= end; i++ {
		if match(s.tokens[i]) {
			return i, true
		}
	}

	return -1, false
}

// FindPrevious returns the index of the last token at or before from that
// matches.
func (s *Stream) FindPrevious(from int, match Matcher, opts ...FindOption) (int, bool) {
	if from >= len(s.tokens) {
		from = len(s.tokens) - 1
	}

	if from < 0 {
		return -1, false
	}

	cfg := newFindConfig(opts)

	end := 0
	if cfg.hasBound && cfg.bound > end {
		end = cfg.bound
	}

	if cfg.local {
		end = max(end, s.StatementStart(from))
	}

	for i := from; i >= end; i-- {
		if match(s.tokens[i]) {
			return i, true
		}
	}

	return -1, false
}

// StatementEnd returns the index of the token that ends the statement holding
// token i: its `;`, the `}` leaving the enclosing block, or the last token.
func (s *Stream) StatementEnd(i int) int {
	origin := s.tokens[i]
	for j := i + 1; j < len(s.tokens); j++ {
		if endsStatement(origin, s.tokens[j]) {
			return j
		}
	}

	return len(s.tokens) - 1
}

// StatementStart returns the index of the first token of the statement
// holding token i.
func (s *Stream) StatementStart(i int) int {
	origin := s.tokens[i]
	for j := i - 1; j >= 0; j-- {
		if endsStatement(origin, s.tokens[j]) {
			return j + 1
		}
	}

	return 0
}

// LineStart returns the index of the first token on the line of token i.
func (s *Stream) LineStart(i int) int {
	line := s.tokens[i].Line
	for i > 0 && s.tokens[i-1].Line == line {
		i--
	}

	return i
}

// FirstContentOnLine returns the index of the first non-whitespace token on
// the line of token i. A line holding only whitespace yields its first token.
func (s *Stream) FirstContentOnLine(i int) int {
	start := s.LineStart(i)
	line := s.tokens[start].Line

	for j := start; j < len(s.tokens) && s.tokens[j].Line == line; j++ {
		if s.tokens[j].Kind != KindWhitespace {
			return j
		}
	}

	return start
}

func newFindConfig(opts []FindOption) findConfig {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// endsStatement reports whether tok closes the statement that origin is part of.
func endsStatement(origin, tok Token) bool {
	if len(tok.Conditions) < len(origin.Conditions) {
		return true
	}

	if tok.Kind != KindSemicolon {
		return false
	}

	return len(tok.Brackets) <= len(origin.Brackets) && len(tok.Conditions) <= len(origin.Conditions)
}
