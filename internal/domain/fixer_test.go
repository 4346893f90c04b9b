package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "objindent.dev/pkg/objindent/internal/model"
)

func TestFixer_Apply(t *testing.T) {
	stream := tokenize(t, "<?php\n$a;\n")
	fixer := NewFixer(newLocalChecker(), 0)

	variable := 1
	require.Equal(t, "$a", stream.At(variable).Text)

	t.Run("line start fixes go first and conflicts wait", func(t *testing.T) {
		violations := []m.Violation{
			{Code: m.CodeIndent, Pos: 0, Edits: []m.Edit{m.Replace(variable, "$indent")}},
			{Code: m.CodeLineStart, Pos: variable, Edits: []m.Edit{m.Replace(variable, "$lineStart")}},
		}

		text, applied := fixer.Apply(stream, violations)
		assert.Equal(t, 1, applied)
		assert.Equal(t, "<?php\n$lineStart;\n", text)
	})

	t.Run("inserts stack before the token", func(t *testing.T) {
		violations := []m.Violation{
			{Code: m.CodeLineStart, Pos: variable, Edits: []m.Edit{m.InsertBefore(variable, "/* a */")}},
			{Code: m.CodeIndent, Pos: variable + 1, Edits: []m.Edit{m.Replace(variable+1, ";;")}},
		}

		text, applied := fixer.Apply(stream, violations)
		assert.Equal(t, 2, applied)
		assert.Equal(t, "<?php\n/* a */$a;;\n", text)
	})

	t.Run("unfixable and out of range violations are skipped", func(t *testing.T) {
		violations := []m.Violation{
			{Code: m.CodeIndent, Pos: variable},
			{Code: m.CodeIndent, Pos: variable, Edits: []m.Edit{m.Replace(stream.Len(), "x")}},
		}

		text, applied := fixer.Apply(stream, violations)
		assert.Zero(t, applied)
		assert.Equal(t, stream.Text(), text)
	})
}

func TestFixer_Fix(t *testing.T) {
	ctx := context.Background()
	fixer := NewFixer(newLocalChecker(), 0)

	tests := []struct {
		name   string
		src    string
		want   string
		fixed  int
		passes int
	}{
		{
			name: "clean text is untouched",
			src:  "<?php\n$result = $obj\n  ->first()\n  ->second();\n",
			want: "<?php\n$result = $obj\n  ->first()\n  ->second();\n",
		},
		{
			name:   "dangling operator moves down",
			src:    "<?php\n$result = $obj->\n  first();\n",
			want:   "<?php\n$result = $obj\n  ->first();\n",
			fixed:  1,
			passes: 1,
		},
		{
			name:   "dangling operator inside a chain",
			src:    "<?php\n$r = $obj->a()->\n  b();\n",
			want:   "<?php\n$r = $obj->a()\n  ->b();\n",
			fixed:  1,
			passes: 1,
		},
		{
			name:   "indent and line start of one operator in the same pass",
			src:    "<?php\n$r = $obj\n    ->\n  first()\n  ->second();\n",
			want:   "<?php\n$r = $obj\n  ->first()\n  ->second();\n",
			fixed:  2,
			passes: 1,
		},
		{
			name:   "operators at column one",
			src:    "<?php\n$r = $obj\n->a()\n->b();\n",
			want:   "<?php\n$r = $obj\n  ->a()\n  ->b();\n",
			fixed:  2,
			passes: 1,
		},
		{
			name:   "windows line endings are kept",
			src:    "<?php\r\n$r = $obj->a()->\r\n  b();\r\n",
			want:   "<?php\r\n$r = $obj->a()\r\n  ->b();\r\n",
			fixed:  1,
			passes: 1,
		},
		{
			name:   "second chain of a condition keeps its own receiver",
			src:    "<?php\nif ($a->isFoo()\n  && $b->bar()\n      ->baz()) {\n}\n",
			want:   "<?php\nif ($a->isFoo()\n  && $b->bar()\n    ->baz()) {\n}\n",
			fixed:  1,
			passes: 1,
		},
		{
			name:   "second chain of a concatenation keeps its own receiver",
			src:    "<?php\n$m = $x->t('a')\n  . $y->config()\n      ->get('b');\n",
			want:   "<?php\n$m = $x->t('a')\n  . $y->config()\n    ->get('b');\n",
			fixed:  1,
			passes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := fixer.Fix(ctx, []byte(tt.src))
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Text)
			assert.Equal(t, tt.fixed, result.Fixed)
			assert.Equal(t, tt.passes, result.Passes)
			assert.Equal(t, tt.fixed > 0, result.Changed())
			assert.Empty(t, result.Remaining)
		})
	}
}

func TestFixer_FixFixture(t *testing.T) {
	ctx := context.Background()
	fixer := NewFixer(newLocalChecker(), 0)

	src, err := os.ReadFile(filepath.Join("sniffs", "testdata", "fixable.php"))
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("sniffs", "testdata", "fixable.php.fixed"))
	require.NoError(t, err)

	result, err := fixer.Fix(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, string(want), result.Text)
	assert.Equal(t, 3, result.Fixed)
	assert.Empty(t, result.Remaining)

	again, err := fixer.Fix(ctx, []byte(result.Text))
	require.NoError(t, err)
	assert.False(t, again.Changed(), "fixing twice must be a no-op")
	assert.Equal(t, result.Text, again.Text)
}

func TestFixer_FixKeepsUnfixableViolations(t *testing.T) {
	result, err := NewFixer(newLocalChecker(), 0).Fix(context.Background(), []byte("<?php\n$value = $obj\n      ->property;\n"))
	require.NoError(t, err)

	assert.False(t, result.Changed())
	require.Len(t, result.Remaining, 1)
	assert.Equal(t, m.CodeIndent, result.Remaining[0].Code)
}

func TestFixer_MaxPasses(t *testing.T) {
	// Every pass appends a blank after the open tag and finds it again.
	growing := &stubSniff{
		name:  "Growing",
		kinds: []m.Kind{m.KindOpenTag},
		violation: func(stream *m.Stream, pos int) []m.Violation {
			return []m.Violation{{Sniff: "Growing", Code: m.CodeIndent, Pos: pos, Edits: []m.Edit{m.InsertBefore(pos+1, " ")}}}
		},
	}

	fixer := NewFixer(newLocalChecker(WithSniffs(growing)), 3)

	result, err := fixer.Fix(context.Background(), []byte("<?php\n$a;\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Passes)
	assert.Equal(t, 3, result.Fixed)
	assert.Len(t, result.Remaining, 1)
	assert.Equal(t, "<?php\n   $a;\n", result.Text)
}

func TestFixer_StopsWhenNothingApplies(t *testing.T) {
	stuck := &stubSniff{
		name:  "Stuck",
		kinds: []m.Kind{m.KindOpenTag},
		violation: func(stream *m.Stream, pos int) []m.Violation {
			return []m.Violation{{Sniff: "Stuck", Code: m.CodeIndent, Pos: pos, Edits: []m.Edit{m.Replace(stream.Len()+5, "x")}}}
		},
	}

	result, err := NewFixer(newLocalChecker(WithSniffs(stuck)), 0).Fix(context.Background(), []byte("<?php\n$a;\n"))
	require.NoError(t, err)

	assert.Zero(t, result.Passes)
	assert.Len(t, result.Remaining, 1)
}

func TestFixer_Errors(t *testing.T) {
	fixer := NewFixer(newLocalChecker(), 0)

	_, err := fixer.Fix(context.Background(), []byte("<?php\n$a = 'oops;\n"))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = fixer.Fix(ctx, []byte("<?php\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
