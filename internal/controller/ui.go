// Package controller provides output adapters for displaying check and fix
// results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "objindent.dev/pkg/objindent/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeCheck StartMode = iota
	ModeFix
	ModeList
	ModeView
)

func (s StartMode) String() string {
	switch s {
	case ModeCheck:
		return "check"
	case ModeFix:
		return "fix"
	case ModeList:
		return "list"
	case ModeView:
		return "view"
	default:
		return "unknown"
	}
}

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// Mode returns the configured mode.
func (c StartConfig) Mode() StartMode {
	return c.mode
}

// WithCheckMode sets the UI to check mode.
func WithCheckMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeCheck
	}
}

// WithFixMode sets the UI to fix mode.
func WithFixMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeFix
	}
}

// WithListMode sets the UI to list mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithViewMode sets the UI to view mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options []StartOption) StartConfig {
	var cfg StartConfig
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines how check and fix results are shown.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplaySources(ctx context.Context, files []m.FileReport) error
	DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int, files int)
	DisplayFileReport(ctx context.Context, report m.FileReport)
	DisplayDiff(ctx context.Context, path m.Path, diff string)
	DisplayReport(ctx context.Context, report m.Report) error
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewUI returns a UI that picks the TUI for terminals and the SimpleUI
// otherwise. The choice is made by Start, once plain can be read from the
// parsed flags.
func NewUI(cmd *cobra.Command, isTTY bool, plain func() bool) UI {
	return &selectingUI{cmd: cmd, isTTY: isTTY, plain: plain}
}

type selectingUI struct {
	cmd   *cobra.Command
	isTTY bool
	plain func() bool
	UI
}

func (s *selectingUI) Start(ctx context.Context, options ...StartOption) error {
	plain := s.plain != nil && s.plain()

	if s.isTTY && !plain {
		s.UI = NewTUI(s.cmd.OutOrStdout())
	} else {
		s.UI = NewSimpleUI(s.cmd, !s.isTTY || plain)
	}

	return s.UI.Start(ctx, options...)
}

func (s *selectingUI) Close(ctx context.Context) {
	if s.UI != nil {
		s.UI.Close(ctx)
	}
}
