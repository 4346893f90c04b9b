package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	m "objindent.dev/pkg/objindent/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	hunkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	pathStyle  = lipgloss.NewStyle().Underline(true)
)

// headerLines and footerLines are the rows the pager keeps for itself.
const (
	headerLines = 4
	footerLines = 2
)

// TUI buffers everything it is asked to display and shows it once the run is
// over, paging it with a viewport when it does not fit the terminal.
type TUI struct {
	output  io.Writer
	mu      sync.Mutex
	mode    StartMode
	content strings.Builder
	height  int
	width   int
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	t := &TUI{output: output}

	if f, ok := output.(*os.File); ok {
		if width, height, err := term.GetSize(f.Fd()); err == nil {
			t.width = width
			t.height = height
		}
	}

	return t
}

// Start resets the buffered content.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = newStartConfig(options).Mode()
	t.content.Reset()

	return nil
}

// Close drops anything not shown yet.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.content.Reset()
}

// Wait shows the buffered content and blocks until the pager is closed.
func (t *TUI) Wait(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	t.mu.Lock()
	content := t.content.String()
	title := fmt.Sprintf("objindent %s", t.mode)
	t.content.Reset()
	t.mu.Unlock()

	if content == "" {
		return
	}

	if !t.needsPagination(content) {
		_, _ = fmt.Fprint(t.output, titleStyle.Render(title)+"\n"+content)
		return
	}

	program := tea.NewProgram(newPagerModel(title, content), tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		_, _ = fmt.Fprint(t.output, content)
	}
}

// needsPagination returns true if the content is taller than the terminal.
func (t *TUI) needsPagination(content string) bool {
	if t.height <= 0 {
		return false
	}

	return strings.Count(content, "\n") > t.height-headerLines-footerLines
}

// DisplaySources buffers the operator count of every source.
func (t *TUI) DisplaySources(ctx context.Context, files []m.FileReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.write(renderSourcesTable(files))

	return nil
}

// DisplayConcurrencyInfo buffers how the run is split.
func (t *TUI) DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int, files int) {
	if ctx.Err() != nil {
		return
	}

	t.write(faintStyle.Render(fmt.Sprintf("%d file(s), %d worker(s), shard %d/%d", files, threads, shardIndex, max(shardCount, 1))) + "\n\n")
}

// DisplayFileReport buffers the violations of one file.
func (t *TUI) DisplayFileReport(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil {
		return
	}

	t.write(renderFileReport(report))
}

// DisplayDiff buffers a unified diff.
func (t *TUI) DisplayDiff(ctx context.Context, _ m.Path, diff string) {
	if ctx.Err() != nil || diff == "" {
		return
	}

	t.write(renderDiff(diff))
}

// DisplayReport buffers the summary table.
func (t *TUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	mode := t.mode
	t.mu.Unlock()

	var b strings.Builder

	if mode == ModeView {
		fmt.Fprintf(&b, "Report %s (%s)\n\n", report.RunID, report.CreatedAt.Format("2006-01-02 15:04:05"))

		for _, file := range report.Files {
			b.WriteString(renderFileReport(file))
		}
	}

	b.WriteString("\n")
	b.WriteString(renderReportTable(report, mode == ModeFix))
	b.WriteString(renderVerdict(report.Totals(), mode))
	b.WriteString("\n")

	t.write(b.String())

	return nil
}

func (t *TUI) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.content.WriteString(s)
}

func renderFileReport(report m.FileReport) string {
	if report.Err == "" && report.Fixed == 0 && len(report.Violations) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(pathStyle.Render(string(report.Source.DisplayPath())))
	b.WriteString("\n")

	if report.Err != "" {
		fmt.Fprintf(&b, "  %s %s\n", errorStyle.Render("ERROR"), report.Err)
		return b.String()
	}

	if report.Fixed > 0 {
		fmt.Fprintf(&b, "  %s\n", okStyle.Render(fmt.Sprintf("fixed %d violation(s) in %d pass(es)", report.Fixed, report.Passes)))
	}

	for _, v := range report.Violations {
		box := "[ ]"
		if v.Fixable() {
			box = "[x]"
		}

		fmt.Fprintf(&b, "  %4d:%-3d %s %s %s %s\n",
			v.Line, v.Column, errorStyle.Render("ERROR"), box, v.String(), faintStyle.Render("("+v.Source()+")"))
	}

	b.WriteString("\n")

	return b.String()
}

func renderDiff(diff string) string {
	var b strings.Builder

	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(faintStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(hunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(okStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(errorStyle.UnsetBold().Render(line))
		default:
			b.WriteString(line)
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderVerdict(totals m.Totals, mode StartMode) string {
	switch {
	case totals.Errors > 0:
		return errorStyle.Render(fmt.Sprintf("%d file(s) could not be checked", totals.Errors)) + "\n"
	case totals.Violations == 0 && mode == ModeFix:
		return okStyle.Render(fmt.Sprintf("All fixable violations fixed (%d)", totals.Fixed)) + "\n"
	case totals.Violations == 0:
		return okStyle.Render("No violations found") + "\n"
	default:
		return warnStyle.Render(fmt.Sprintf("Found %d violation(s), %d fixable automatically",
			totals.Violations, totals.Fixable)) + "\n"
	}
}

// pagerModel is the Bubble Tea model scrolling the buffered output.
type pagerModel struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

func newPagerModel(title, content string) pagerModel {
	return pagerModel{title: title, content: content}
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return pm, tea.Quit
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-headerLines-footerLines, 1)

		if !pm.ready {
			pm.viewport = viewport.New(msg.Width, height)
			pm.viewport.SetContent(pm.content)
			pm.ready = true
		} else {
			pm.viewport.Width = msg.Width
			pm.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm pagerModel) View() string {
	if !pm.ready {
		return "\n  Loading..."
	}

	footer := faintStyle.Render(fmt.Sprintf("%3.f%% | ↑/k: up | ↓/j: down | q: quit", pm.viewport.ScrollPercent()*100))

	return titleStyle.Render(pm.title) + "\n" + pm.viewport.View() + "\n" + footer
}
