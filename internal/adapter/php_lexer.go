package adapter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	m "objindent.dev/pkg/objindent/internal/model"
)

// ErrSyntax is returned when the source cannot be split into tokens.
var ErrSyntax = errors.New("syntax error")

var phpKeywords = map[string]bool{
	"abstract": true, "and": true, "array": true, "as": true, "break": true,
	"callable": true, "case": true, "catch": true, "class": true, "clone": true,
	"const": true, "continue": true, "declare": true, "default": true, "do": true,
	"echo": true, "else": true, "elseif": true, "empty": true, "enddeclare": true,
	"endfor": true, "endforeach": true, "endif": true, "endswitch": true,
	"endwhile": true, "enum": true, "extends": true, "final": true, "finally": true,
	"fn": true, "for": true, "foreach": true, "function": true, "global": true,
	"goto": true, "if": true, "implements": true, "include": true,
	"include_once": true, "instanceof": true, "insteadof": true, "interface": true,
	"isset": true, "list": true, "match": true, "namespace": true, "new": true,
	"or": true, "print": true, "private": true, "protected": true, "public": true,
	"readonly": true, "require": true, "require_once": true, "return": true,
	"static": true, "switch": true, "throw": true, "trait": true, "try": true,
	"unset": true, "use": true, "var": true, "while": true, "xor": true,
	"yield": true,
}

// scopeOwners are the keywords whose curly braces open a condition scope.
var scopeOwners = map[string]bool{
	"class": true, "interface": true, "trait": true, "enum": true,
	"function": true, "if": true, "elseif": true, "else": true, "for": true,
	"foreach": true, "while": true, "do": true, "switch": true, "try": true,
	"catch": true, "finally": true, "match": true, "namespace": true,
	"declare": true,
}

// phpOperators are matched longest first.
var phpOperators = []string{
	"<<=", ">>=", "**=", "...", "<=>", "===", "!==", "??=", "?->",
	"->", "::", "=>", "==", "!=", "<>", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=", "??", "**", "<<", ">>",
}

// phpLexer splits PHP source into tokens and records, for every token, the
// brackets and condition scopes that are open around it.
type phpLexer struct {
	src    []rune
	pos    int
	line   int
	column int
	tokens []m.Token

	brackets   m.Scope
	conditions m.Scope

	// curlies remembers, for every open `{`, whether it opened a condition.
	curlies []bool

	// owner is the pending keyword that will own the next `{`.
	owner      int
	ownerDepth int
}

func newPHPLexer(src []byte) *phpLexer {
	return &phpLexer{
		src:    []rune(string(src)),
		line:   1,
		column: 1,
		owner:  -1,
	}
}

func (l *phpLexer) tokenize() ([]m.Token, error) {
	for l.pos < len(l.src) {
		if err := l.inlineHTML(); err != nil {
			return nil, err
		}

		if err := l.php(); err != nil {
			return nil, err
		}
	}

	return l.tokens, nil
}

// inlineHTML consumes text up to and including the next open tag.
func (l *phpLexer) inlineHTML() error {
	start := l.pos
	for l.pos < len(l.src) && !l.hasPrefix("<?php") && !l.hasPrefix("<?=") {
		l.pos++
	}

	if l.pos > start {
		l.emitSpan(m.KindInlineHTML, start)
	}

	if l.pos >= len(l.src) {
		return nil
	}

	start = l.pos
	if l.hasPrefix("<?=") {
		l.pos += len("<?=")
	} else {
		l.pos += len("<?php")
		// The open tag swallows one blank or line break.
		if l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
			l.pos++
		} else if l.hasPrefix("\r\n") {
			l.pos += 2
		} else if l.pos < len(l.src) && l.src[l.pos] == '\n' {
			l.pos++
		}
	}

	l.emitSpan(m.KindOpenTag, start)

	return nil
}

// php consumes code until a close tag or the end of input.
func (l *phpLexer) php() error {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch {
		case l.hasPrefix("?>"):
			start := l.pos
			l.pos += 2

			if l.hasPrefix("\r\n") {
				l.pos += 2
			} else if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
			}

			l.emitSpan(m.KindCloseTag, start)

			return nil
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.whitespace()
		case l.hasPrefix("/**") && !l.hasPrefix("/**/"):
			if err := l.blockComment(m.KindDocComment); err != nil {
				return err
			}
		case l.hasPrefix("/*"):
			if err := l.blockComment(m.KindComment); err != nil {
				return err
			}
		case l.hasPrefix("#["):
			l.openBracket(2)
		case l.hasPrefix("//") || ch == '#':
			l.lineComment()
		case ch == '\'' || ch == '"' || ch == '`':
			if err := l.quoted(ch); err != nil {
				return err
			}
		case l.hasPrefix("<<<"):
			if err := l.heredoc(); err != nil {
				return err
			}
		case ch == '$' && l.pos+1 < len(l.src) && (isIdentStart(l.src[l.pos+1]) || l.src[l.pos+1] == '$'):
			l.variable()
		case isIdentStart(ch):
			l.identifier()
		case unicode.IsDigit(ch) || (ch == '.' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1])):
			l.number()
		default:
			l.punctuation()
		}
	}

	return nil
}

// whitespace emits one token per line: a line break ends the token.
func (l *phpLexer) whitespace() {
	start := l.pos
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\n' {
			l.pos++
			break
		}

		if ch != ' ' && ch != '\t' && ch != '\r' {
			break
		}

		l.pos++
	}

	l.emitSpan(m.KindWhitespace, start)
}

func (l *phpLexer) lineComment() {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\n' && !l.hasPrefix("?>") {
		l.pos++
	}

	l.emitSpan(m.KindComment, start)
}

func (l *phpLexer) blockComment(kind m.Kind) error {
	start := l.pos
	line := l.line
	l.pos += 2

	for l.pos+1 < len(l.src) {
		if l.src[l.pos] == '*' && l.src[l.pos+1] == '/' {
			l.pos += 2
			l.emitSpan(kind, start)

			return nil
		}

		l.pos++
	}

	return fmt.Errorf("line %d: unterminated comment: %w", line, ErrSyntax)
}

func (l *phpLexer) quoted(quote rune) error {
	start := l.pos
	line := l.line
	l.pos++

	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\\' {
			l.pos += 2
			continue
		}

		l.pos++

		if ch == quote {
			l.emitSpan(m.KindString, start)

			return nil
		}
	}

	return fmt.Errorf("line %d: unterminated string: %w", line, ErrSyntax)
}

// heredoc consumes `<<<ID ... ID` (and the quoted nowdoc form) as one token.
func (l *phpLexer) heredoc() error {
	start := l.pos
	line := l.line
	l.pos += 3

	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}

	quote := rune(0)
	if l.pos < len(l.src) && (l.src[l.pos] == '\'' || l.src[l.pos] == '"') {
		quote = l.src[l.pos]
		l.pos++
	}

	idStart := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	id := string(l.src[idStart:l.pos])
	if id == "" {
		// Not a heredoc after all: `<<<` is never valid otherwise, keep it as an operator.
		l.pos = start + 3
		l.emitSpan(m.KindOperator, start)

		return nil
	}

	if quote != 0 && l.pos < len(l.src) && l.src[l.pos] == quote {
		l.pos++
	}

	for l.pos < len(l.src) {
		// Skip to the start of the next line.
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}

		if l.pos >= len(l.src) {
			break
		}

		l.pos++

		p := l.pos
		for p < len(l.src) && (l.src[p] == ' ' || l.src[p] == '\t') {
			p++
		}

		if l.matchAt(p, id) {
			after := p + len([]rune(id))
			if after >= len(l.src) || !isIdentPart(l.src[after]) {
				l.pos = after
				l.emitSpan(m.KindString, start)

				return nil
			}
		}
	}

	return fmt.Errorf("line %d: unterminated heredoc %s: %w", line, id, ErrSyntax)
}

func (l *phpLexer) variable() {
	start := l.pos
	l.pos++

	for l.pos < len(l.src) && l.src[l.pos] == '$' {
		l.pos++
	}

	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	l.emitSpan(m.KindVariable, start)
}

func (l *phpLexer) identifier() {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}

	word := string(l.src[start:l.pos])
	lower := strings.ToLower(word)

	// After `->`, `?->` and `::` every word is a member name.
	if phpKeywords[lower] && !l.afterAccess() {
		idx := l.emitSpan(m.KindKeyword, start)
		if scopeOwners[lower] {
			l.owner = idx
			l.ownerDepth = len(l.brackets)
		}

		return
	}

	l.emitSpan(m.KindIdentifier, start)
}

func (l *phpLexer) number() {
	start := l.pos
	for l.pos < len(l.src) {
		ch := l.src[l.pos]

		switch {
		case unicode.IsDigit(ch) || unicode.IsLetter(ch) || ch == '_':
			l.pos++
		case ch == '.' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1]):
			l.pos++
		case (ch == '+' || ch == '-') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E') &&
			l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1]) && !l.isHexLiteral(start):
			l.pos++
		default:
			l.emitSpan(m.KindNumber, start)
			return
		}
	}

	l.emitSpan(m.KindNumber, start)
}

func (l *phpLexer) isHexLiteral(start int) bool {
	return l.pos-start >= 2 && l.src[start] == '0' && (l.src[start+1] == 'x' || l.src[start+1] == 'X')
}

func (l *phpLexer) punctuation() {
	ch := l.src[l.pos]

	switch ch {
	case '(', '[':
		l.openBracket(1)
		return
	case ')', ']':
		l.closeBracket()
		return
	case '{':
		l.openCurly()
		return
	case '}':
		l.closeCurly()
		return
	case ';':
		start := l.pos
		l.pos++
		l.emitSpan(m.KindSemicolon, start)

		if l.owner >= 0 && len(l.brackets) <= l.ownerDepth {
			l.owner = -1
		}

		return
	case ',':
		start := l.pos
		l.pos++
		l.emitSpan(m.KindComma, start)

		return
	}

	start := l.pos

	for _, op := range phpOperators {
		if l.hasPrefix(op) {
			l.pos += len(op)

			switch op {
			case "->":
				l.emitSpan(m.KindObjectOperator, start)
			case "?->":
				l.emitSpan(m.KindNullsafeObjectOperator, start)
			case "::":
				l.emitSpan(m.KindDoubleColon, start)
			default:
				l.emitSpan(m.KindOperator, start)
			}

			return
		}
	}

	l.pos++
	l.emitSpan(m.KindOperator, start)
}

func (l *phpLexer) openBracket(width int) {
	kind := m.KindOpenBracket
	if l.src[l.pos] == '(' {
		kind = m.KindOpenParen
	}

	start := l.pos
	l.pos += width
	idx := l.emitSpan(kind, start)
	l.brackets = l.brackets.With(m.ScopeID(idx))
}

func (l *phpLexer) closeBracket() {
	if len(l.brackets) > 0 {
		l.brackets = l.brackets[:len(l.brackets)-1]
	}

	start := l.pos
	l.pos++

	kind := m.KindCloseBracket
	if l.src[start] == ')' {
		kind = m.KindCloseParen
	}

	l.emitSpan(kind, start)
}

// openCurly opens a condition when a pending keyword owns the brace, and a
// plain bracket otherwise (`$obj->{$name}`, `"{$x}"`).
func (l *phpLexer) openCurly() {
	start := l.pos
	l.pos++
	idx := l.emitSpan(m.KindOpenCurly, start)

	if l.owner >= 0 && len(l.brackets) == l.ownerDepth {
		l.conditions = l.conditions.With(m.ScopeID(l.owner))
		l.curlies = append(l.curlies, true)
		l.owner = -1

		return
	}

	l.brackets = l.brackets.With(m.ScopeID(idx))
	l.curlies = append(l.curlies, false)
}

func (l *phpLexer) closeCurly() {
	if n := len(l.curlies); n > 0 {
		condition := l.curlies[n-1]
		l.curlies = l.curlies[:n-1]

		switch {
		case condition && len(l.conditions) > 0:
			l.conditions = l.conditions[:len(l.conditions)-1]
		case !condition && len(l.brackets) > 0:
			l.brackets = l.brackets[:len(l.brackets)-1]
		}
	}

	start := l.pos
	l.pos++
	l.emitSpan(m.KindCloseCurly, start)

	if l.owner >= 0 && len(l.brackets) <= l.ownerDepth {
		l.owner = -1
	}
}

// afterAccess reports whether the previous code token is a member or static
// access operator.
func (l *phpLexer) afterAccess() bool {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		kind := l.tokens[i].Kind
		if kind.IsEmpty() {
			continue
		}

		return kind.IsMemberAccess() || kind == m.KindDoubleColon
	}

	return false
}

// emitSpan appends the token for src[start:l.pos] and advances the line and
// column counters. It returns the index of the new token.
func (l *phpLexer) emitSpan(kind m.Kind, start int) int {
	text := string(l.src[start:l.pos])

	l.tokens = append(l.tokens, m.Token{
		Kind:       kind,
		Text:       text,
		Line:       l.line,
		Column:     l.column,
		Brackets:   l.brackets,
		Conditions: l.conditions,
	})

	for _, ch := range l.src[start:l.pos] {
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}

	return len(l.tokens) - 1
}

func (l *phpLexer) hasPrefix(prefix string) bool {
	return l.matchAt(l.pos, prefix)
}

func (l *phpLexer) matchAt(i int, prefix string) bool {
	for _, ch := range prefix {
		if i >= len(l.src) || l.src[i] != ch {
			return false
		}
		i++
	}

	return true
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '\\' || unicode.IsLetter(ch) || ch >= 0x80
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
