package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "objindent.dev/pkg/objindent/internal/model"
)

// palette colours the plain text output.
type palette struct {
	err     *color.Color
	warn    *color.Color
	ok      *color.Color
	faint   *color.Color
	added   *color.Color
	removed *color.Color
	hunk    *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		ok:      color.New(color.FgGreen),
		faint:   color.New(color.Faint),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		hunk:    color.New(color.FgCyan),
	}

	for _, c := range []*color.Color{p.err, p.warn, p.ok, p.faint, p.added, p.removed, p.hunk} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}

	return p
}

var modeVerbs = map[StartMode]string{
	ModeCheck: "Checking",
	ModeFix:   "Fixing",
	ModeList:  "Listing",
	ModeView:  "Viewing",
}

// SimpleUI implements UI by printing lines through the cobra command output.
type SimpleUI struct {
	cmd    *cobra.Command
	colors palette
	mu     sync.Mutex
	mode   StartMode
}

// NewSimpleUI creates a new SimpleUI. Colours are disabled when noColor is set.
func NewSimpleUI(cmd *cobra.Command, noColor bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, colors: newPalette(noColor)}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = newStartConfig(options).Mode()

	return nil
}

// Close is a no-op, every line is printed as soon as it is known.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait is a no-op, SimpleUI never blocks.
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplaySources prints the operator count of every source.
func (s *SimpleUI) DisplaySources(ctx context.Context, files []m.FileReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderSourcesTable(files))

	return nil
}

// DisplayConcurrencyInfo shows how the run is split.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int, files int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s %d file(s) with %d worker(s) (shard %d/%d)\n",
		modeVerbs[s.currentMode()], files, threads, shardIndex, max(shardCount, 1))
}

// DisplayFileReport prints the violations of one file as soon as it is done.
func (s *SimpleUI) DisplayFileReport(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writeFileReport(s.out(), s.colors, report)
}

// DisplayDiff prints a unified diff with coloured lines.
func (s *SimpleUI) DisplayDiff(ctx context.Context, _ m.Path, diff string) {
	if ctx.Err() != nil || diff == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writeDiff(s.out(), s.colors, diff)
}

// DisplayReport prints the summary table. In view mode the violations of
// every file are printed first.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.out()

	if s.mode == ModeView {
		_, _ = fmt.Fprintf(out, "Report %s (%s)\n", report.RunID, report.CreatedAt.Format("2006-01-02 15:04:05"))

		for _, file := range report.Files {
			writeFileReport(out, s.colors, file)
		}
	}

	_, _ = fmt.Fprintf(out, "\n%s", renderReportTable(report, s.mode == ModeFix))
	writeVerdict(out, s.colors, report.Totals(), s.mode)

	return nil
}

func (s *SimpleUI) currentMode() StartMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

func (s *SimpleUI) out() io.Writer {
	return s.cmd.OutOrStdout()
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out(), format, args...)
}

// formatViolation renders `path:line:col  ERROR  [x] message (Sniff.Code)`.
// The box is ticked when the violation can be fixed automatically.
func formatViolation(path m.Path, v m.Violation, colors palette) string {
	box := "[ ]"
	if v.Fixable() {
		box = "[x]"
	}

	return fmt.Sprintf("%s:%d:%d  %s  %s %s %s",
		path, v.Line, v.Column, colors.err.Sprint("ERROR"), box, v.String(),
		colors.faint.Sprintf("(%s)", v.Source()))
}

func writeFileReport(out io.Writer, colors palette, report m.FileReport) {
	path := report.Source.DisplayPath()

	if report.Err != "" {
		_, _ = fmt.Fprintf(out, "%s  %s  %s\n", path, colors.err.Sprint("ERROR"), report.Err)
		return
	}

	if report.Fixed > 0 {
		_, _ = fmt.Fprintf(out, "%s  %s\n", path,
			colors.ok.Sprintf("fixed %d violation(s) in %d pass(es)", report.Fixed, report.Passes))
	}

	for _, v := range report.Violations {
		_, _ = fmt.Fprintln(out, formatViolation(path, v, colors))
	}
}

func writeDiff(out io.Writer, colors palette, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, _ = fmt.Fprint(out, colors.faint.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			_, _ = fmt.Fprint(out, colors.hunk.Sprint(line))
		case strings.HasPrefix(line, "+"):
			_, _ = fmt.Fprint(out, colors.added.Sprint(line))
		case strings.HasPrefix(line, "-"):
			_, _ = fmt.Fprint(out, colors.removed.Sprint(line))
		default:
			_, _ = fmt.Fprint(out, line)
		}
	}

	if !strings.HasSuffix(diff, "\n") {
		_, _ = fmt.Fprintln(out)
	}
}

func writeVerdict(out io.Writer, colors palette, totals m.Totals, mode StartMode) {
	switch {
	case totals.Errors > 0:
		_, _ = fmt.Fprintln(out, colors.err.Sprintf("%d file(s) could not be checked", totals.Errors))
	case totals.Violations == 0 && mode == ModeFix:
		_, _ = fmt.Fprintln(out, colors.ok.Sprintf("All fixable violations fixed (%d)", totals.Fixed))
	case totals.Violations == 0:
		_, _ = fmt.Fprintln(out, colors.ok.Sprint("No violations found"))
	default:
		_, _ = fmt.Fprintln(out, colors.warn.Sprintf("Found %d violation(s), %d fixable automatically",
			totals.Violations, totals.Fixable))
	}
}

func renderSourcesTable(files []m.FileReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Operators"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	total := 0

	for _, file := range files {
		operators := fmt.Sprintf("%d", file.Operators)
		if file.Err != "" {
			operators = "error"
		}

		table.Append([]string{string(file.Source.DisplayPath()), operators})

		total += file.Operators
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(files)),
		fmt.Sprintf("%d", total),
	})

	table.Render()

	return tableBuffer.String()
}

// renderReportTable lists the files with violations, errors or fixes.
func renderReportTable(report m.Report, withFixed bool) string {
	var tableBuffer bytes.Buffer

	header := []string{"Path", "Violations", "Fixable"}
	if withFixed {
		header = append(header, "Fixed")
	}

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, file := range report.Files {
		if len(file.Violations) == 0 && file.Err == "" && file.Fixed == 0 {
			continue
		}

		violations := fmt.Sprintf("%d", len(file.Violations))
		if file.Err != "" {
			violations = "error"
		}

		row := []string{string(file.Source.DisplayPath()), violations, fmt.Sprintf("%d", file.Fixable())}
		if withFixed {
			row = append(row, fmt.Sprintf("%d", file.Fixed))
		}

		table.Append(row)
	}

	totals := report.Totals()

	footer := []string{
		fmt.Sprintf("Total Files %d", totals.Files),
		fmt.Sprintf("%d", totals.Violations),
		fmt.Sprintf("%d", totals.Fixable),
	}
	if withFixed {
		footer = append(footer, fmt.Sprintf("%d", totals.Fixed))
	}

	table.SetFooter(footer)
	table.Render()

	return tableBuffer.String()
}
