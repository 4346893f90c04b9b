package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"objindent.dev/pkg/objindent/internal/adapter"
	"objindent.dev/pkg/objindent/internal/controller"
	m "objindent.dev/pkg/objindent/internal/model"
	"objindent.dev/pkg/objindent/pkg"
)

var (
	// ErrViolationsFound is returned when a run leaves violations behind.
	ErrViolationsFound = errors.New("violations found")
	// ErrNoSources is returned when no file matches the given paths.
	ErrNoSources = errors.New("no source files found")
	// ErrSourceErrors is returned when some files could not be checked.
	ErrSourceErrors = errors.New("some files could not be checked")
)

// SourceArgs selects the files of a run.
type SourceArgs struct {
	Paths      []m.Path
	Exclude    []string
	Extensions []string
}

// RuleArgs selects the sniffs of a run.
type RuleArgs struct {
	Sniffs       []string
	ExcludeCodes []string
}

// CheckArgs contains the arguments for checking sources.
type CheckArgs struct {
	SourceArgs
	RuleArgs
	Reports  m.Path
	Threads  int
	Shard    Shard
	NoReport bool
	UseCache bool
}

// FixArgs contains the arguments for fixing sources.
type FixArgs struct {
	SourceArgs
	RuleArgs
	Threads   int
	MaxPasses int
	DryRun    bool
}

// ListArgs contains the arguments for listing sources.
type ListArgs struct {
	SourceArgs
	RuleArgs
}

// ViewArgs contains the arguments for viewing the last report.
type ViewArgs struct {
	Reports m.Path
}

// Workflow runs the objindent commands.
type Workflow interface {
	Check(ctx context.Context, args CheckArgs) error
	Fix(ctx context.Context, args FixArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.PHPFileAdapter
	adapter.ReportStore
	controller.UI
	newRunID func() string
	now      func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	phpAdapter adapter.PHPFileAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		PHPFileAdapter:  phpAdapter,
		ReportStore:     reportStore,
		UI:              ui,
		newRunID:        uuid.NewString,
		now:             time.Now,
	}
}

// Check reports the violations of every selected source.
func (w *workflow) Check(ctx context.Context, args CheckArgs) error {
	if err := args.Shard.Validate(); err != nil {
		return err
	}

	sources, err := w.getSources(ctx, args.SourceArgs)
	if err != nil {
		return err
	}

	checker, err := w.newChecker(args.RuleArgs)
	if err != nil {
		return err
	}

	sources = shardSources(sources, args.Shard)
	threads := normalizeBufferSize(args.Threads)

	if err := w.Start(ctx, controller.WithCheckMode()); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	w.DisplayConcurrencyInfo(ctx, threads, args.Shard.Index, args.Shard.Total, len(sources))

	spill, err := pkg.NewSpill[m.FileReport]("")
	if err != nil {
		return fmt.Errorf("create report buffer: %w", err)
	}

	defer func() {
		if err := spill.Close(); err != nil {
			slog.Error("Failed to close report buffer", "error", err)
		}
	}()

	pending, err := w.reuseCachedReports(ctx, args, sources, spill)
	if err != nil {
		return err
	}

	for report := range checker.StreamReports(ctx, streamSources(ctx, pending, threads), threads) {
		w.DisplayFileReport(ctx, report)

		if err := spill.Append(report); err != nil {
			return fmt.Errorf("buffer report: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	files, err := collectReports(spill)
	if err != nil {
		return fmt.Errorf("collect reports: %w", err)
	}

	report := w.newReport(args.RuleArgs, files)

	if err := w.DisplayReport(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if !args.NoReport {
		if _, err := w.SaveReport(ctx, args.Reports, report); err != nil {
			slog.Error("Failed to save report", "reports", args.Reports, "error", err)
			return fmt.Errorf("save report: %w", err)
		}
	}

	w.Wait(ctx)

	return verdict(report.Totals())
}

// reuseCachedReports copies into spill the reports of the last run whose
// file is unchanged, and returns the sources still to check.
func (w *workflow) reuseCachedReports(ctx context.Context, args CheckArgs, sources []m.Source, spill pkg.Spill[m.FileReport]) ([]m.Source, error) {
	if !args.UseCache || args.Reports == "" {
		return sources, nil
	}

	previous, err := w.LoadReport(ctx, args.Reports)
	if err != nil {
		if !errors.Is(err, adapter.ErrNoReport) {
			slog.Warn("Ignoring unreadable previous report", "reports", args.Reports, "error", err)
		}

		return sources, nil
	}

	if !sameRules(previous, args.RuleArgs) {
		slog.Debug("Previous report used other sniffs, checking everything")
		return sources, nil
	}

	cached := make(map[m.Path]m.FileReport, len(previous.Files))

	for _, file := range previous.Files {
		if file.Source.Origin != nil && file.Err == "" {
			cached[file.Source.Origin.FullPath] = file
		}
	}

	pending := make([]m.Source, 0, len(sources))

	for _, source := range sources {
		hit, ok := cached[source.Origin.FullPath]
		if !ok || hit.Source.Origin.Hash != source.Origin.Hash {
			pending = append(pending, source)
			continue
		}

		hit.Source = source
		w.DisplayFileReport(ctx, hit)

		if err := spill.Append(hit); err != nil {
			return nil, fmt.Errorf("buffer report: %w", err)
		}
	}

	slog.Debug("Reused cached reports", "cached", len(sources)-len(pending), "pending", len(pending))

	return pending, nil
}

// Fix rewrites every selected source until it is stable.
func (w *workflow) Fix(ctx context.Context, args FixArgs) error {
	sources, err := w.getSources(ctx, args.SourceArgs)
	if err != nil {
		return err
	}

	checker, err := w.newChecker(args.RuleArgs)
	if err != nil {
		return err
	}

	fixer := NewFixer(checker, args.MaxPasses)
	threads := normalizeBufferSize(args.Threads)

	if err := w.Start(ctx, controller.WithFixMode()); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	w.DisplayConcurrencyInfo(ctx, threads, 0, 1, len(sources))

	var (
		files   []m.FileReport
		filesMu sync.Mutex
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for _, source := range sources {
		current := source

		group.Go(func() error {
			report := w.fixSource(groupCtx, fixer, current, args.DryRun)

			w.DisplayFileReport(groupCtx, report)

			filesMu.Lock()
			files = append(files, report)
			filesMu.Unlock()

			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	sortReports(files)

	report := w.newReport(args.RuleArgs, files)

	if err := w.DisplayReport(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return verdict(report.Totals())
}

func (w *workflow) fixSource(ctx context.Context, fixer *Fixer, source m.Source, dryRun bool) m.FileReport {
	report := m.FileReport{Source: source}
	path := source.Origin.FullPath

	original, err := w.ReadFile(ctx, path)
	if err != nil {
		slog.Error("Failed to read source", "path", path, "error", err)
		report.Err = fmt.Sprintf("read: %v", err)

		return report
	}

	result, err := fixer.Fix(ctx, original)
	if err != nil {
		slog.Error("Failed to fix source", "path", path, "error", err)
		report.Err = fmt.Sprintf("fix: %v", err)

		return report
	}

	report.Violations = result.Remaining
	report.Fixed = result.Fixed
	report.Passes = result.Passes

	if !result.Changed() {
		return report
	}

	if dryRun {
		diff, err := unifiedDiff(source.DisplayPath(), string(original), result.Text)
		if err != nil {
			report.Err = fmt.Sprintf("diff: %v", err)
			return report
		}

		w.DisplayDiff(ctx, source.DisplayPath(), diff)

		return report
	}

	if err := w.WriteFile(ctx, path, []byte(result.Text)); err != nil {
		slog.Error("Failed to write fixed source", "path", path, "error", err)
		report.Err = fmt.Sprintf("write: %v", err)

		return report
	}

	slog.Debug("Fixed source", "path", path, "fixed", result.Fixed, "passes", result.Passes)

	return report
}

// List shows every selected source with the number of operators it holds.
func (w *workflow) List(ctx context.Context, args ListArgs) error {
	sources, err := w.getSources(ctx, args.SourceArgs)
	if err != nil {
		return err
	}

	checker, err := w.newChecker(args.RuleArgs)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, controller.WithListMode()); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	files := make([]m.FileReport, 0, len(sources))

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		file := m.FileReport{Source: source}

		count, err := checker.CountOperators(ctx, source)
		if err != nil {
			slog.Error("Failed to count operators", "path", source.Origin.FullPath, "error", err)
			file.Err = err.Error()
		}

		file.Operators = count
		files = append(files, file)
	}

	if err := w.DisplaySources(ctx, files); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	if totals := m.SumReports(files); totals.Errors > 0 {
		return fmt.Errorf("%d file(s): %w", totals.Errors, ErrSourceErrors)
	}

	return nil
}

// View shows the last saved report.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(ctx, args.Reports)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	if err := w.DisplayReport(ctx, report); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}

func (w *workflow) getSources(ctx context.Context, args SourceArgs) ([]m.Source, error) {
	sources, err := w.Get(ctx, args.Paths, args.Extensions, args.Exclude...)
	if err != nil {
		slog.Error("Failed to discover sources", "error", err)
		return nil, fmt.Errorf("get sources: %w", err)
	}

	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	return sources, nil
}

func (w *workflow) newChecker(args RuleArgs) (*Checker, error) {
	sniffs, err := ResolveSniffs(args.Sniffs...)
	if err != nil {
		return nil, err
	}

	return NewChecker(w.SourceFSAdapter, w.PHPFileAdapter,
		WithSniffs(sniffs...),
		WithExcludedCodes(toCodes(args.ExcludeCodes)...),
	), nil
}

func (w *workflow) newReport(args RuleArgs, files []m.FileReport) m.Report {
	return m.Report{
		RunID:        w.newRunID(),
		CreatedAt:    w.now().UTC(),
		Sniffs:       ruleNames(args),
		ExcludeCodes: toCodes(args.ExcludeCodes),
		Files:        files,
	}
}

func verdict(totals m.Totals) error {
	if totals.Errors > 0 {
		return fmt.Errorf("%d file(s): %w", totals.Errors, ErrSourceErrors)
	}

	if totals.Violations > 0 {
		return fmt.Errorf("%d violation(s): %w", totals.Violations, ErrViolationsFound)
	}

	return nil
}

func ruleNames(args RuleArgs) []string {
	if len(args.Sniffs) == 0 {
		return SniffNames()
	}

	names := slices.Clone(args.Sniffs)
	sort.Strings(names)

	return names
}

func sameRules(report m.Report, args RuleArgs) bool {
	codes := toCodes(args.ExcludeCodes)
	slices.Sort(codes)

	previous := slices.Clone(report.ExcludeCodes)
	slices.Sort(previous)

	return slices.Equal(report.Sniffs, ruleNames(args)) && slices.Equal(previous, codes)
}

func toCodes(values []string) []m.Code {
	codes := make([]m.Code, 0, len(values))
	for _, v := range values {
		codes = append(codes, m.Code(v))
	}

	return codes
}

func collectReports(spill pkg.Spill[m.FileReport]) ([]m.FileReport, error) {
	files, err := spill.Collect()
	if err != nil {
		return nil, err
	}

	sortReports(files)

	return files, nil
}

func sortReports(files []m.FileReport) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Source.DisplayPath() < files[j].Source.DisplayPath()
	})
}

func unifiedDiff(path m.Path, before, after string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + string(path),
		ToFile:   "b/" + string(path),
		Context:  3,
	})
}
