package model

import (
	"fmt"
	"strings"
)

// Code names the kind of problem a violation reports.
type Code string

const (
	// CodeIndent reports an object operator at the wrong indentation.
	CodeIndent Code = "Indent"
	// CodeLineStart reports an object operator left at the end of a line.
	CodeLineStart Code = "LineStart"
)

// EditOp is the kind of change an Edit requests.
type EditOp string

const (
	// EditReplace replaces the text of the token at Pos with Text.
	EditReplace EditOp = "replace"
	// EditInsertBefore inserts Text immediately before the token at Pos.
	EditInsertBefore EditOp = "insert_before"
)

// Edit is a proposed, not yet applied, change to a token.
type Edit struct {
	Op   EditOp `yaml:"op"`
	Pos  int    `yaml:"pos"`
	Text string `yaml:"text"`
}

// Replace builds an EditReplace request.
func Replace(pos int, text string) Edit {
	return Edit{Op: EditReplace, Pos: pos, Text: text}
}

// InsertBefore builds an EditInsertBefore request.
func InsertBefore(pos int, text string) Edit {
	return Edit{Op: EditInsertBefore, Pos: pos, Text: text}
}

// Violation is one problem found at a token. Its edits, when present, must be
// applied together.
type Violation struct {
	Sniff   string `yaml:"sniff"`
	Code    Code   `yaml:"code"`
	Pos     int    `yaml:"pos"`
	Line    int    `yaml:"line"`
	Column  int    `yaml:"column"`
	Message string `yaml:"message"`
	Data    []int  `yaml:"data,omitempty"`
	Edits   []Edit `yaml:"edits,omitempty"`
}

// Fixable reports whether the violation carries edits.
func (v Violation) Fixable() bool {
	return len(v.Edits) > 0
}

// Source returns the dotted identifier of the check, e.g.
// "ObjectOperatorIndent.Indent".
func (v Violation) Source() string {
	return v.Sniff + "." + string(v.Code)
}

// String renders the message template with its data.
func (v Violation) String() string {
	if len(v.Data) == 0 || !strings.Contains(v.Message, "%") {
		return v.Message
	}

	args := make([]any, len(v.Data))
	for i, d := range v.Data {
		args[i] = d
	}

	return fmt.Sprintf(v.Message, args...)
}
