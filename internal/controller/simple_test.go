package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "objindent.dev/pkg/objindent/internal/model"
)

func newTestSimpleUI(t *testing.T) (*SimpleUI, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	return NewSimpleUI(cmd, true), &out
}

func sampleSource(path string) m.Source {
	return m.Source{Origin: &m.File{FullPath: m.Path(path), ShortPath: m.Path(path)}}
}

func sampleFileReport() m.FileReport {
	return m.FileReport{
		Source:    sampleSource("src/a.php"),
		Operators: 3,
		Violations: []m.Violation{
			{
				Sniff:   "ObjectOperatorIndent",
				Code:    m.CodeIndent,
				Line:    4,
				Column:  5,
				Message: "Object operator not indented correctly; expected %d spaces but found %d",
				Data:    []int{2, 4},
				Edits:   []m.Edit{m.Replace(3, "  ")},
			},
			{
				Sniff:   "ObjectOperatorIndent",
				Code:    m.CodeIndent,
				Line:    4,
				Column:  5,
				Message: "Object operator not indented correctly; expected column %d but found %d",
				Data:    []int{3, 5},
			},
		},
	}
}

func TestStartMode_String(t *testing.T) {
	assert.Equal(t, "check", ModeCheck.String())
	assert.Equal(t, "fix", ModeFix.String())
	assert.Equal(t, "list", ModeList.String())
	assert.Equal(t, "view", ModeView.String())
	assert.Equal(t, "unknown", StartMode(42).String())
}

func TestNewStartConfig(t *testing.T) {
	assert.Equal(t, ModeCheck, newStartConfig(nil).Mode())
	assert.Equal(t, ModeFix, newStartConfig([]StartOption{WithFixMode()}).Mode())
	assert.Equal(t, ModeView, newStartConfig([]StartOption{WithListMode(), WithViewMode()}).Mode())
}

func TestSimpleUI_DisplayFileReport(t *testing.T) {
	ctx := context.Background()
	ui, out := newTestSimpleUI(t)
	require.NoError(t, ui.Start(ctx, WithCheckMode()))

	ui.DisplayFileReport(ctx, sampleFileReport())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "src/a.php:4:5  ERROR  [x] Object operator not indented correctly; expected 2 spaces but found 4 (ObjectOperatorIndent.Indent)", lines[0])
	assert.Equal(t, "src/a.php:4:5  ERROR  [ ] Object operator not indented correctly; expected column 3 but found 5 (ObjectOperatorIndent.Indent)", lines[1])
}

func TestSimpleUI_DisplayFileReportErrorsAndFixes(t *testing.T) {
	ctx := context.Background()
	ui, out := newTestSimpleUI(t)
	require.NoError(t, ui.Start(ctx, WithFixMode()))

	ui.DisplayFileReport(ctx, m.FileReport{Source: sampleSource("b.php"), Err: "tokenize: syntax error"})
	ui.DisplayFileReport(ctx, m.FileReport{Source: sampleSource("c.php"), Fixed: 2, Passes: 1})
	ui.DisplayFileReport(ctx, m.FileReport{Source: sampleSource("clean.php")})

	assert.Equal(t,
		"b.php  ERROR  tokenize: syntax error\n"+
			"c.php  fixed 2 violation(s) in 1 pass(es)\n",
		out.String())
}

func TestSimpleUI_DisplayConcurrencyInfo(t *testing.T) {
	ctx := context.Background()
	ui, out := newTestSimpleUI(t)
	require.NoError(t, ui.Start(ctx, WithFixMode()))

	ui.DisplayConcurrencyInfo(ctx, 4, 0, 0, 12)

	assert.Equal(t, "Fixing 12 file(s) with 4 worker(s) (shard 0/1)\n", out.String())
}

func TestSimpleUI_DisplayDiff(t *testing.T) {
	ctx := context.Background()
	ui, out := newTestSimpleUI(t)

	diff := "--- a/x.php\n+++ b/x.php\n@@ -1,2 +1,2 @@\n-$a->\n+$a\n context"
	ui.DisplayDiff(ctx, "x.php", diff)
	ui.DisplayDiff(ctx, "y.php", "")

	assert.Equal(t, diff+"\n", out.String())
}

func TestSimpleUI_DisplaySources(t *testing.T) {
	ctx := context.Background()
	ui, out := newTestSimpleUI(t)
	require.NoError(t, ui.Start(ctx, WithListMode()))

	err := ui.DisplaySources(ctx, []m.FileReport{
		{Source: sampleSource("a.php"), Operators: 3},
		{Source: sampleSource("b.module"), Operators: 4},
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "a.php")
	assert.Contains(t, text, "b.module")
	assert.Contains(t, strings.ToUpper(text), "TOTAL FILES 2")
	assert.Contains(t, text, "7")

	t.Run("unreadable files are marked", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithListMode()))

		err := ui.DisplaySources(ctx, []m.FileReport{
			{Source: sampleSource("a.php"), Operators: 3},
			{Source: sampleSource("broken.php"), Err: "tokenize broken.php: unterminated string"},
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "broken.php")
		assert.Contains(t, text, "error")
		assert.Contains(t, strings.ToUpper(text), "TOTAL FILES 2")
	})
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	ctx := context.Background()

	report := m.Report{
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Files: []m.FileReport{
			sampleFileReport(),
			{Source: sampleSource("src/clean.php")},
		},
	}

	t.Run("check mode prints the summary", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithCheckMode()))
		require.NoError(t, ui.DisplayReport(ctx, report))

		text := out.String()
		assert.Contains(t, text, "src/a.php")
		assert.NotContains(t, text, "src/clean.php")
		assert.NotContains(t, text, "Report run-1")
		assert.Contains(t, text, "Found 2 violation(s), 1 fixable automatically")
	})

	t.Run("view mode prints the violations first", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithViewMode()))
		require.NoError(t, ui.DisplayReport(ctx, report))

		text := out.String()
		assert.True(t, strings.HasPrefix(text, "Report run-1 (2026-10-18 09:30:00)\n"))
		assert.Contains(t, text, "src/a.php:4:5  ERROR  [x]")
	})

	t.Run("fix mode verdict", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithFixMode()))

		fixed := m.Report{Files: []m.FileReport{{Source: sampleSource("a.php"), Fixed: 3, Passes: 1}}}
		require.NoError(t, ui.DisplayReport(ctx, fixed))

		assert.Contains(t, out.String(), "All fixable violations fixed (3)")
	})

	t.Run("errors win over violations", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithCheckMode()))

		broken := m.Report{Files: []m.FileReport{sampleFileReport(), {Source: sampleSource("b.php"), Err: "read: denied"}}}
		require.NoError(t, ui.DisplayReport(ctx, broken))

		assert.Contains(t, out.String(), "1 file(s) could not be checked")
		assert.Contains(t, out.String(), "error")
	})

	t.Run("clean run", func(t *testing.T) {
		ui, out := newTestSimpleUI(t)
		require.NoError(t, ui.Start(ctx, WithCheckMode()))
		require.NoError(t, ui.DisplayReport(ctx, m.Report{Files: []m.FileReport{{Source: sampleSource("a.php")}}}))

		assert.Contains(t, out.String(), "No violations found")
	})
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui, out := newTestSimpleUI(t)

	assert.ErrorIs(t, ui.Start(ctx), context.Canceled)
	assert.ErrorIs(t, ui.DisplayReport(ctx, m.Report{}), context.Canceled)
	assert.ErrorIs(t, ui.DisplaySources(ctx, nil), context.Canceled)

	ui.DisplayFileReport(ctx, sampleFileReport())
	ui.DisplayConcurrencyInfo(ctx, 1, 0, 0, 1)
	assert.Empty(t, out.String())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestNewUI_PicksSimpleUIWithoutTerminal(t *testing.T) {
	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	ui := NewUI(cmd, false, nil)
	require.NoError(t, ui.Start(context.Background(), WithListMode()))

	selecting, ok := ui.(*selectingUI)
	require.True(t, ok)
	assert.IsType(t, &SimpleUI{}, selecting.UI)

	ui.DisplayConcurrencyInfo(context.Background(), 1, 0, 0, 2)
	ui.Close(context.Background())
	assert.Equal(t, "Listing 2 file(s) with 1 worker(s) (shard 0/1)\n", out.String())
}

func TestNewUI_PlainOverridesTerminal(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	ui := NewUI(cmd, true, func() bool { return true })
	require.NoError(t, ui.Start(context.Background()))

	assert.IsType(t, &SimpleUI{}, ui.(*selectingUI).UI)

	tty := NewUI(cmd, true, func() bool { return false })
	require.NoError(t, tty.Start(context.Background()))

	assert.IsType(t, &TUI{}, tty.(*selectingUI).UI)
}

func TestSelectingUI_CloseBeforeStart(t *testing.T) {
	ui := NewUI(&cobra.Command{}, false, nil)

	assert.NotPanics(t, func() { ui.Close(context.Background()) })
}
