// Package sniffs holds the token-level checks run by the checker.
package sniffs

import (
	"strings"

	m "objindent.dev/pkg/objindent/internal/model"
)

// ObjectOperatorIndentName is the name reported with every violation of
// ObjectOperatorIndent.
const ObjectOperatorIndentName = "ObjectOperatorIndent"

// ContinuationIndent is the extra indentation of a chained call that starts
// its own line.
const ContinuationIndent = 2

const (
	chainStartMessage = "Object operator not indented correctly; expected column %d but found %d"
	indentMessage     = "Object operator not indented correctly; expected %d spaces but found %d"
	lineStartMessage  = "Object operator must be at the start of the line, not the end"
)

// ObjectOperatorIndent checks that object operators starting a line are
// indented two spaces past the statement and that none of them is left at
// the end of a line.
type ObjectOperatorIndent struct{}

// NewObjectOperatorIndent constructs the sniff.
func NewObjectOperatorIndent() *ObjectOperatorIndent {
	return &ObjectOperatorIndent{}
}

// Name implements domain.Sniff.
func (s *ObjectOperatorIndent) Name() string {
	return ObjectOperatorIndentName
}

// Register implements domain.Sniff.
func (s *ObjectOperatorIndent) Register() []m.Kind {
	return m.MemberAccessKinds
}

// Process implements domain.Sniff.
func (s *ObjectOperatorIndent) Process(stream *m.Stream, pos int) []m.Violation {
	if !stream.Valid(pos) || !stream.At(pos).Kind.IsMemberAccess() {
		return nil
	}

	violations := s.checkChainStart(stream, pos)

	return append(violations, s.checkChainIndent(stream, pos)...)
}

// checkChainStart compares an operator that starts a line with the first
// token of the previous code line.
func (s *ObjectOperatorIndent) checkChainStart(stream *m.Stream, pos int) []m.Violation {
	if pos < 2 {
		return nil
	}

	op := stream.At(pos)

	indent := stream.At(pos - 1)
	if indent.Kind != m.KindWhitespace || indent.Column != 1 || indent.Line != op.Line {
		return nil
	}

	previous, ok := stream.FindPrevious(pos-2, m.NotOfKind(m.EmptyKinds...))
	if !ok {
		return nil
	}

	startOfLine := stream.At(stream.FirstContentOnLine(previous))

	additional := ContinuationIndent
	if startOfLine.Kind.IsMemberAccess() {
		additional = 0
	}

	expected := startOfLine.Column + additional
	if op.Column == expected {
		return nil
	}

	return []m.Violation{s.violation(m.CodeIndent, pos, op, chainStartMessage, expected, op.Column)}
}

// checkChainIndent walks every operator of the chain anchored at pos that
// sits in the anchor's scope.
func (s *ObjectOperatorIndent) checkChainIndent(stream *m.Stream, pos int) []m.Violation {
	receiver, ok := stream.FindPrevious(pos-1, m.NotOfKind(m.KindWhitespace))
	if !ok || stream.At(receiver).Kind != m.KindVariable {
		return nil
	}

	required := baseIndent(stream, receiver) + ContinuationIndent
	end := chainEnd(stream, pos)
	access := m.OfKind(m.MemberAccessKinds...)

	if _, chained := stream.FindNext(pos+1, access, m.WithBound(end)); !chained {
		// A single access is no chain, but it must not dangle either.
		return s.checkDangling(stream, pos, required)
	}

	scope := stream.At(pos).Signature()

	var violations []m.Violation

	for next, ok := pos, true; ok; next, ok = stream.FindNext(next+1, access, m.WithBound(end)) {
		if !stream.At(next).Signature().Equal(scope) {
			continue
		}

		if next > pos && anchored(stream, next) {
			// Another variable starts its own chain here.
			break
		}

		violations = append(violations, s.checkIndent(stream, next, required)...)
		violations = append(violations, s.checkDangling(stream, next, required)...)
	}

	return violations
}

// checkIndent verifies the leading whitespace of an operator that starts a line.
func (s *ObjectOperatorIndent) checkIndent(stream *m.Stream, pos, required int) []m.Violation {
	op := stream.At(pos)
	before := stream.At(pos - 1)

	if before.Kind != m.KindWhitespace {
		return nil
	}

	var (
		found int
		fix   m.Edit
	)

	switch {
	case before.Line == op.Line && before.Column == 1:
		found = before.Width()
		fix = m.Replace(pos-1, spaces(required))
	case before.Line != op.Line:
		// The operator sits at column 1; keep the previous line break.
		found = 0
		fix = m.Replace(pos-1, before.Text+spaces(required))
	default:
		return nil
	}

	if found == required {
		return nil
	}

	v := s.violation(m.CodeIndent, pos, op, indentMessage, required, found)
	v.Edits = []m.Edit{fix}

	return []m.Violation{v}
}

// checkDangling reports an operator that is the last code on its line and
// moves it in front of the member it accesses.
func (s *ObjectOperatorIndent) checkDangling(stream *m.Stream, pos, required int) []m.Violation {
	op := stream.At(pos)

	content, ok := stream.FindNext(pos+1, m.NotOfKind(m.KindWhitespace))
	if !ok || stream.At(content).Line == op.Line {
		return nil
	}

	edits := make([]m.Edit, 0, content-pos+1)
	for i := pos + 1; i < content; i++ {
		edits = append(edits, m.Replace(i, ""))
	}

	if !startsLine(stream, pos) {
		if before := stream.At(pos - 1); before.Kind == m.KindWhitespace && before.Line == op.Line {
			edits = append(edits, m.Replace(pos-1, ""))
		}

		edits = append(edits, m.InsertBefore(pos, lineBreak(stream, pos+1, content)+spaces(required)))
	}

	v := s.violation(m.CodeLineStart, pos, op, lineStartMessage)
	v.Edits = edits

	return []m.Violation{v}
}

func (s *ObjectOperatorIndent) violation(code m.Code, pos int, tok m.Token, message string, data ...int) m.Violation {
	return m.Violation{
		Sniff:   ObjectOperatorIndentName,
		Code:    code,
		Pos:     pos,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: message,
		Data:    data,
	}
}

// chainEnd returns the last token a chain starting at pos may reach: the
// first binary operator or comma in the scope of pos, or the statement end.
func chainEnd(stream *m.Stream, pos int) int {
	end := stream.StatementEnd(pos)
	scope := stream.At(pos).Signature()

	for i := pos + 1; i < end; i++ {
		tok := stream.At(i)
		if (tok.Kind == m.KindOperator || tok.Kind == m.KindComma) && tok.Signature().Equal(scope) {
			return i
		}
	}

	return end
}

// anchored reports whether the operator at i directly follows a variable.
func anchored(stream *m.Stream, i int) bool {
	prev, ok := stream.FindPrevious(i-1, m.NotOfKind(m.KindWhitespace))

	return ok && stream.At(prev).Kind == m.KindVariable
}

// lineBreak returns the line ending of the first whitespace token in
// [from, to) that ends a line, "\n" when there is none.
func lineBreak(stream *m.Stream, from, to int) string {
	for i := from; i < to; i++ {
		tok := stream.At(i)
		if tok.Kind != m.KindWhitespace || !tok.EndsLine() {
			continue
		}

		if strings.HasSuffix(tok.Text, "\r\n") {
			return "\r\n"
		}

		return "\n"
	}

	return "\n"
}

// baseIndent is the width of the whitespace that starts the line of token i.
func baseIndent(stream *m.Stream, i int) int {
	first := stream.At(stream.LineStart(i))
	if first.Kind != m.KindWhitespace || first.Line != stream.At(i).Line {
		return 0
	}

	return first.Width()
}

// startsLine reports whether only whitespace precedes token i on its line.
func startsLine(stream *m.Stream, i int) bool {
	return stream.FirstContentOnLine(i) == i
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}
