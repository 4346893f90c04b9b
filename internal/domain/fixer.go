package domain

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	m "objindent.dev/pkg/objindent/internal/model"
)

// DefaultMaxPasses bounds the fix loop.
const DefaultMaxPasses = 50

// FixResult is the outcome of fixing one text.
type FixResult struct {
	Text      string
	Fixed     int
	Passes    int
	Remaining []m.Violation
}

// Changed reports whether any fix was applied.
func (r FixResult) Changed() bool {
	return r.Fixed > 0
}

// Fixer applies the edits carried by violations until the text is stable.
type Fixer struct {
	checker   *Checker
	maxPasses int
}

// NewFixer constructs a Fixer running at most maxPasses passes. A non
// positive value selects DefaultMaxPasses.
func NewFixer(checker *Checker, maxPasses int) *Fixer {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	return &Fixer{checker: checker, maxPasses: maxPasses}
}

// codeOrder makes LineStart fixes run before Indent fixes.
var codeOrder = map[m.Code]int{
	m.CodeLineStart: 0,
	m.CodeIndent:    1,
}

// Apply applies the fixable violations to the stream and returns the new
// text with the number of violations applied. A violation whose edits touch
// a token already edited in this pass is left for the next pass.
func (f *Fixer) Apply(stream *m.Stream, violations []m.Violation) (string, int) {
	fixable := make([]m.Violation, 0, len(violations))
	for _, v := range violations {
		if v.Fixable() {
			fixable = append(fixable, v)
		}
	}

	sort.SliceStable(fixable, func(i, j int) bool {
		if codeOrder[fixable[i].Code] != codeOrder[fixable[j].Code] {
			return codeOrder[fixable[i].Code] < codeOrder[fixable[j].Code]
		}

		return fixable[i].Pos < fixable[j].Pos
	})

	texts := make([]string, stream.Len())
	for i := range texts {
		texts[i] = stream.At(i).Text
	}

	prefixes := make([]string, stream.Len())
	touched := make(map[int]struct{})
	applied := 0

	for _, v := range fixable {
		if !editable(stream, v.Edits, touched) {
			slog.Debug("Deferring fix", "source", v.Source(), "line", v.Line, "column", v.Column)
			continue
		}

		for _, e := range v.Edits {
			switch e.Op {
			case m.EditReplace:
				texts[e.Pos] = e.Text
			case m.EditInsertBefore:
				prefixes[e.Pos] += e.Text
			}

			touched[e.Pos] = struct{}{}
		}

		applied++
	}

	var b strings.Builder
	for i := range texts {
		b.WriteString(prefixes[i])
		b.WriteString(texts[i])
	}

	return b.String(), applied
}

func editable(stream *m.Stream, edits []m.Edit, touched map[int]struct{}) bool {
	for _, e := range edits {
		if !stream.Valid(e.Pos) {
			return false
		}

		if _, ok := touched[e.Pos]; ok {
			return false
		}
	}

	return true
}

// Fix runs check and apply passes over src until no fixable violation is
// left, a pass applies nothing, or the pass limit is reached.
func (f *Fixer) Fix(ctx context.Context, src []byte) (FixResult, error) {
	result := FixResult{Text: string(src)}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		stream, violations, err := f.checker.CheckText(ctx, []byte(result.Text))
		if err != nil {
			return result, err
		}

		if countFixable(violations) == 0 || result.Passes >= f.maxPasses {
			result.Remaining = violations
			return result, nil
		}

		text, applied := f.Apply(stream, violations)
		if applied == 0 {
			result.Remaining = violations
			return result, nil
		}

		result.Text = text
		result.Fixed += applied
		result.Passes++

		slog.Debug("Fix pass", "pass", result.Passes, "applied", applied)
	}
}

func countFixable(violations []m.Violation) int {
	n := 0

	for _, v := range violations {
		if v.Fixable() {
			n++
		}
	}

	return n
}
