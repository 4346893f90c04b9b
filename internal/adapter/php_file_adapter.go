package adapter

import (
	"context"

	m "objindent.dev/pkg/objindent/internal/model"
)

// PHPFileAdapter turns PHP source into a token stream so the domain layer can
// run sniffs without knowing how the language is lexed.
type PHPFileAdapter interface {
	// Tokenize splits src into tokens annotated with line, column and the
	// bracket and condition scopes open around each token.
	Tokenize(ctx context.Context, src []byte) (*m.Stream, error)
}

// LocalPHPFileAdapter is the PHPFileAdapter backed by the built-in lexer.
type LocalPHPFileAdapter struct{}

// NewLocalPHPFileAdapter constructs a LocalPHPFileAdapter.
func NewLocalPHPFileAdapter() *LocalPHPFileAdapter {
	return &LocalPHPFileAdapter{}
}

// Tokenize lexes src. Text outside of PHP tags becomes inline HTML tokens.
func (a *LocalPHPFileAdapter) Tokenize(ctx context.Context, src []byte) (*m.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens, err := newPHPLexer(src).tokenize()
	if err != nil {
		return nil, err
	}

	return m.NewStream(tokens), nil
}
