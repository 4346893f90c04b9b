package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"objindent.dev/pkg/objindent/internal/adapter"
	adaptermocks "objindent.dev/pkg/objindent/internal/adapter/mocks"
	controllermocks "objindent.dev/pkg/objindent/internal/controller/mocks"
	m "objindent.dev/pkg/objindent/internal/model"
)

const (
	cleanPHP    = "<?php\n$a = $obj\n  ->first()\n  ->second();\n"
	danglingPHP = "<?php\n$result = $obj->\n  first();\n"
	fixedPHP    = "<?php\n$result = $obj\n  ->first();\n"
	brokenPHP   = "<?php\n$a = 'oops;\n"
)

var fixedTime = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestWorkflow(ui *controllermocks.MockUI, store adapter.ReportStore, php adapter.PHPFileAdapter) *workflow {
	if store == nil {
		store = adapter.NewReportStore()
	}

	if php == nil {
		php = adapter.NewLocalPHPFileAdapter()
	}

	w := NewWorkflow(adapter.NewLocalSourceFSAdapter(), php, store, ui).(*workflow)
	w.newRunID = func() string { return "run-1" }
	w.now = func() time.Time { return fixedTime }

	return w
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	return root
}

// expectSession sets up the calls every command makes around its output.
func expectSession(ui *controllermocks.MockUI) {
	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Close(mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
}

func TestWorkflow_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("reports violations and saves the report", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP, "b.php": danglingPHP})
		reports := filepath.Join(t.TempDir(), "reports")

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 2, 0, 0, 2).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
		ui.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
			totals := report.Totals()
			return report.RunID == "run-1" &&
				report.CreatedAt.Equal(fixedTime) &&
				totals.Files == 2 && totals.Violations == 1 && totals.Fixable == 1 &&
				strings.HasSuffix(string(report.Files[0].Source.DisplayPath()), "a.php")
		})).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			Reports:    m.Path(reports),
			Threads:    2,
		})
		require.ErrorIs(t, err, ErrViolationsFound)

		saved, err := adapter.NewReportStore().LoadReport(ctx, m.Path(reports))
		require.NoError(t, err)
		assert.Equal(t, "run-1", saved.RunID)
		assert.Equal(t, []string{"ObjectOperatorIndent"}, saved.Sniffs)
		assert.Len(t, saved.Files, 2)
	})

	t.Run("clean tree without report", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP})
		reports := filepath.Join(t.TempDir(), "reports")

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			Reports:    m.Path(reports),
			NoReport:   true,
		})
		require.NoError(t, err)
		assert.NoDirExists(t, reports)
	})

	t.Run("excluded codes are not reported", func(t *testing.T) {
		root := writeTree(t, map[string]string{"b.php": danglingPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			RuleArgs:   RuleArgs{ExcludeCodes: []string{"LineStart"}},
			NoReport:   true,
		})
		require.NoError(t, err)
	})

	t.Run("files that cannot be tokenized fail the run", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP, "broken.php": brokenPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 2).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			NoReport:   true,
		})
		require.ErrorIs(t, err, ErrSourceErrors)
	})

	t.Run("shard keeps a subset", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP, "b.php": danglingPHP, "c.php": cleanPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 1, 2, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.MatchedBy(func(report m.FileReport) bool {
			return strings.HasSuffix(string(report.Source.DisplayPath()), "b.php")
		})).Return().Once()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			Shard:      Shard{Index: 1, Total: 2},
			NoReport:   true,
		})
		require.ErrorIs(t, err, ErrViolationsFound)
	})

	t.Run("invalid shard", func(t *testing.T) {
		ui := controllermocks.NewMockUI(t)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{Shard: Shard{Index: 2, Total: 2}})
		require.Error(t, err)
	})

	t.Run("no sources", func(t *testing.T) {
		ui := controllermocks.NewMockUI(t)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(t.TempDir())}},
		})
		require.ErrorIs(t, err, ErrNoSources)
	})

	t.Run("unknown sniff", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP})
		ui := controllermocks.NewMockUI(t)

		err := newTestWorkflow(ui, nil, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			RuleArgs:   RuleArgs{Sniffs: []string{"Nope"}},
		})
		require.Error(t, err)
	})

	t.Run("save failure", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP})
		saveErr := errors.New("disk full")

		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().SaveReport(mock.Anything, m.Path("reports"), mock.Anything).Return("", saveErr)

		ui := controllermocks.NewMockUI(t)
		ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
		ui.EXPECT().Close(mock.Anything).Return()
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, store, nil).Check(ctx, CheckArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			Reports:    "reports",
		})
		require.ErrorIs(t, err, saveErr)
	})
}

func TestWorkflow_CheckReusesCachedReports(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{"a.php": cleanPHP, "b.php": danglingPHP})
	reports := m.Path(filepath.Join(t.TempDir(), "reports"))
	args := CheckArgs{
		SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
		Reports:    reports,
		UseCache:   true,
	}

	first := controllermocks.NewMockUI(t)
	expectSession(first)
	first.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 2).Return()
	first.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
	first.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

	require.ErrorIs(t, newTestWorkflow(first, nil, nil).Check(ctx, args), ErrViolationsFound)

	// Unchanged files are not tokenized again.
	php := adaptermocks.NewMockPHPFileAdapter(t)

	second := controllermocks.NewMockUI(t)
	expectSession(second)
	second.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 2).Return()
	second.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
	second.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
		return report.Totals().Violations == 1
	})).Return(nil)

	require.ErrorIs(t, newTestWorkflow(second, nil, php).Check(ctx, args), ErrViolationsFound)

	// A changed file is checked again.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.php"), []byte(fixedPHP), 0o644))

	third := controllermocks.NewMockUI(t)
	expectSession(third)
	third.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 2).Return()
	third.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
	third.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, newTestWorkflow(third, nil, nil).Check(ctx, args))

	// Other rules invalidate the cache.
	rules := args
	rules.ExcludeCodes = []string{"Indent"}

	fourth := controllermocks.NewMockUI(t)
	expectSession(fourth)
	fourth.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 0, 2).Return()
	fourth.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
	fourth.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

	tokenizing := adaptermocks.NewMockPHPFileAdapter(t)
	tokenizing.EXPECT().Tokenize(mock.Anything, mock.Anything).RunAndReturn(adapter.NewLocalPHPFileAdapter().Tokenize).Times(2)

	require.NoError(t, newTestWorkflow(fourth, nil, tokenizing).Check(ctx, rules))
}

func TestWorkflow_Fix(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites files", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": cleanPHP, "b.php": danglingPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 2, 0, 1, 2).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return().Times(2)
		ui.EXPECT().DisplayReport(mock.Anything, mock.MatchedBy(func(report m.Report) bool {
			totals := report.Totals()
			return totals.Fixed == 1 && totals.Violations == 0 && report.Files[1].Passes > 0
		})).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Fix(ctx, FixArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			Threads:    2,
		})
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(root, "b.php"))
		require.NoError(t, err)
		assert.Equal(t, fixedPHP, string(got))

		untouched, err := os.ReadFile(filepath.Join(root, "a.php"))
		require.NoError(t, err)
		assert.Equal(t, cleanPHP, string(untouched))
	})

	t.Run("dry run shows a diff", func(t *testing.T) {
		root := writeTree(t, map[string]string{"b.php": danglingPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 1, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return()
		ui.EXPECT().DisplayDiff(mock.Anything, mock.Anything, mock.MatchedBy(func(diff string) bool {
			return strings.Contains(diff, "-$result = $obj->\n") &&
				strings.Contains(diff, "+$result = $obj\n") &&
				strings.Contains(diff, "+  ->first();\n")
		})).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Fix(ctx, FixArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
			DryRun:     true,
		})
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(root, "b.php"))
		require.NoError(t, err)
		assert.Equal(t, danglingPHP, string(got))
	})

	t.Run("unfixable violations remain", func(t *testing.T) {
		root := writeTree(t, map[string]string{"a.php": "<?php\n$value = $obj\n      ->property;\n"})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 1, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.Anything).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Fix(ctx, FixArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
		})
		require.ErrorIs(t, err, ErrViolationsFound)
	})

	t.Run("broken file", func(t *testing.T) {
		root := writeTree(t, map[string]string{"broken.php": brokenPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayConcurrencyInfo(mock.Anything, 1, 0, 1, 1).Return()
		ui.EXPECT().DisplayFileReport(mock.Anything, mock.MatchedBy(func(report m.FileReport) bool {
			return strings.HasPrefix(report.Err, "fix:")
		})).Return()
		ui.EXPECT().DisplayReport(mock.Anything, mock.Anything).Return(nil)

		err := newTestWorkflow(ui, nil, nil).Fix(ctx, FixArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
		})
		require.ErrorIs(t, err, ErrSourceErrors)
	})
}

func TestWorkflow_List(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{"a.php": cleanPHP, "b.php": danglingPHP})

	ui := controllermocks.NewMockUI(t)
	expectSession(ui)
	ui.EXPECT().DisplaySources(mock.Anything, mock.MatchedBy(func(files []m.FileReport) bool {
		return len(files) == 2 && files[0].Operators == 2 && files[1].Operators == 1
	})).Return(nil)

	err := newTestWorkflow(ui, nil, nil).List(ctx, ListArgs{
		SourceArgs: SourceArgs{Paths: []m.Path{m.Path(root)}},
	})
	require.NoError(t, err)

	t.Run("tokenize failure is reported and the listing goes on", func(t *testing.T) {
		tree := writeTree(t, map[string]string{"a.php": cleanPHP, "broken.php": brokenPHP, "c.php": danglingPHP})

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplaySources(mock.Anything, mock.MatchedBy(func(files []m.FileReport) bool {
			return len(files) == 3 &&
				files[0].Err == "" && files[0].Operators == 2 &&
				strings.Contains(files[1].Err, "tokenize") &&
				files[2].Err == "" && files[2].Operators == 1
		})).Return(nil)

		err := newTestWorkflow(ui, nil, nil).List(ctx, ListArgs{
			SourceArgs: SourceArgs{Paths: []m.Path{m.Path(tree)}},
		})
		require.ErrorIs(t, err, ErrSourceErrors)
		assert.Contains(t, err.Error(), "1 file(s)")
	})
}

func TestWorkflow_View(t *testing.T) {
	ctx := context.Background()

	t.Run("shows the last report", func(t *testing.T) {
		saved := m.Report{RunID: "run-9"}

		store := adaptermocks.NewMockReportStore(t)
		store.EXPECT().LoadReport(mock.Anything, m.Path("reports")).Return(saved, nil)

		ui := controllermocks.NewMockUI(t)
		expectSession(ui)
		ui.EXPECT().DisplayReport(mock.Anything, saved).Return(nil)

		require.NoError(t, newTestWorkflow(ui, store, nil).View(ctx, ViewArgs{Reports: "reports"}))
	})

	t.Run("missing report", func(t *testing.T) {
		ui := controllermocks.NewMockUI(t)

		err := newTestWorkflow(ui, nil, nil).View(ctx, ViewArgs{Reports: m.Path(t.TempDir())})
		require.ErrorIs(t, err, adapter.ErrNoReport)
	})
}

func TestUnifiedDiff(t *testing.T) {
	diff, err := unifiedDiff("b.php", danglingPHP, fixedPHP)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(diff, "--- a/b.php\n+++ b/b.php\n"))
	assert.Contains(t, diff, "@@")
}

func TestSameRules(t *testing.T) {
	report := m.Report{Sniffs: SniffNames(), ExcludeCodes: []m.Code{m.CodeLineStart, m.CodeIndent}}

	assert.True(t, sameRules(report, RuleArgs{ExcludeCodes: []string{"Indent", "LineStart"}}))
	assert.False(t, sameRules(report, RuleArgs{ExcludeCodes: []string{"Indent"}}))
	assert.False(t, sameRules(m.Report{Sniffs: []string{"Other"}}, RuleArgs{}))
	assert.True(t, sameRules(m.Report{Sniffs: SniffNames()}, RuleArgs{}))
}
