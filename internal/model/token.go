// Package model defines the data structures shared by the checker, the fixer
// and the adapters.
package model

import "slices"

// Kind is the lexical category of a token.
type Kind string

const (
	// KindOpenTag is `<?php` or `<?=` including the whitespace the tag swallows.
	KindOpenTag Kind = "open_tag"
	// KindCloseTag is `?>`.
	KindCloseTag Kind = "close_tag"
	// KindInlineHTML is any text outside of PHP tags.
	KindInlineHTML Kind = "inline_html"
	// KindWhitespace is a run of blanks. A newline always ends a whitespace token.
	KindWhitespace Kind = "whitespace"
	// KindComment is a `//`, `#` or `/* */` comment.
	KindComment Kind = "comment"
	// KindDocComment is a `/** */` comment.
	KindDocComment Kind = "doc_comment"
	// KindVariable is `$name` (or `$$name`).
	KindVariable Kind = "variable"
	// KindIdentifier is a bare name: functions, constants, classes, members.
	KindIdentifier Kind = "identifier"
	// KindKeyword is a reserved word such as `if` or `function`.
	KindKeyword Kind = "keyword"
	// KindObjectOperator is `->`.
	KindObjectOperator Kind = "object_operator"
	// KindNullsafeObjectOperator is `?->`.
	KindNullsafeObjectOperator Kind = "nullsafe_object_operator"
	// KindDoubleColon is `::`, static access.
	KindDoubleColon Kind = "double_colon"
	// KindString is a quoted string, heredoc or nowdoc.
	KindString Kind = "string"
	// KindNumber is an integer or float literal.
	KindNumber Kind = "number"
	// KindSemicolon is `;`.
	KindSemicolon Kind = "semicolon"
	// KindComma is `,`.
	KindComma Kind = "comma"
	// KindOpenParen is `(`.
	KindOpenParen Kind = "open_paren"
	// KindCloseParen is `)`.
	KindCloseParen Kind = "close_paren"
	// KindOpenBracket is `[`.
	KindOpenBracket Kind = "open_bracket"
	// KindCloseBracket is `]`.
	KindCloseBracket Kind = "close_bracket"
	// KindOpenCurly is `{`.
	KindOpenCurly Kind = "open_curly"
	// KindCloseCurly is `}`.
	KindCloseCurly Kind = "close_curly"
	// KindOperator is any other operator or punctuation.
	KindOperator Kind = "operator"
)

// EmptyKinds are the kinds that carry no code.
var EmptyKinds = []Kind{KindWhitespace, KindComment, KindDocComment}

// MemberAccessKinds are the kinds that access a member through a reference.
var MemberAccessKinds = []Kind{KindObjectOperator, KindNullsafeObjectOperator}

// IsEmpty reports whether k carries no code.
func (k Kind) IsEmpty() bool {
	return slices.Contains(EmptyKinds, k)
}

// IsMemberAccess reports whether k is `->` or `?->`.
func (k Kind) IsMemberAccess() bool {
	return slices.Contains(MemberAccessKinds, k)
}

// ScopeID identifies an opened scope by the index of the token that opened it.
type ScopeID int

// Scope is the ordered list of scopes open around a token, outermost first.
type Scope []ScopeID

// Equal compares two scopes by identity of every level.
func (s Scope) Equal(other Scope) bool {
	return slices.Equal(s, other)
}

// With returns a copy of s with id pushed as the innermost scope.
func (s Scope) With(id ScopeID) Scope {
	out := make(Scope, len(s), len(s)+1)
	copy(out, s)

	return append(out, id)
}

// Innermost returns the innermost scope, if any.
func (s Scope) Innermost() (ScopeID, bool) {
	if len(s) == 0 {
		return 0, false
	}

	return s[len(s)-1], true
}

// Signature is the pair of scopes used to decide whether two tokens sit in
// the same lexical position.
type Signature struct {
	Brackets   Scope
	Conditions Scope
}

// Equal compares both halves structurally.
func (s Signature) Equal(other Signature) bool {
	return s.Brackets.Equal(other.Brackets) && s.Conditions.Equal(other.Conditions)
}

// Token is one lexeme of a tokenized file. Tokens are never modified once
// produced.
type Token struct {
	Kind       Kind
	Text       string
	Line       int
	Column     int
	Brackets   Scope
	Conditions Scope
}

// Signature returns the scope signature of the token.
func (t Token) Signature() Signature {
	return Signature{Brackets: t.Brackets, Conditions: t.Conditions}
}

// Width is the length of the token text in characters.
func (t Token) Width() int {
	return len([]rune(t.Text))
}

// EndsLine reports whether the token text ends with a line break.
func (t Token) EndsLine() bool {
	return len(t.Text) > 0 && t.Text[len(t.Text)-1] == '\n'
}
