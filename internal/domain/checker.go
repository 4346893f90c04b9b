package domain

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"objindent.dev/pkg/objindent/internal/adapter"
	m "objindent.dev/pkg/objindent/internal/model"
)

// CheckerOption configures a Checker.
type CheckerOption func(*checkerConfig)

type checkerConfig struct {
	sniffs       []Sniff
	excludeCodes []m.Code
}

// WithSniffs restricts the checker to the given sniffs.
func WithSniffs(sniffs ...Sniff) CheckerOption {
	return func(c *checkerConfig) {
		c.sniffs = sniffs
	}
}

// WithExcludedCodes drops violations with any of the given codes.
func WithExcludedCodes(codes ...m.Code) CheckerOption {
	return func(c *checkerConfig) {
		c.excludeCodes = codes
	}
}

// Checker runs sniffs over PHP sources.
type Checker struct {
	fs       adapter.SourceFSAdapter
	php      adapter.PHPFileAdapter
	registry *registry
}

// NewChecker constructs a Checker. Without WithSniffs every known sniff runs.
func NewChecker(fs adapter.SourceFSAdapter, php adapter.PHPFileAdapter, opts ...CheckerOption) *Checker {
	var cfg checkerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(cfg.sniffs) == 0 {
		all, _ := ResolveSniffs()
		cfg.sniffs = all
	}

	return &Checker{
		fs:       fs,
		php:      php,
		registry: newRegistry(cfg.sniffs, cfg.excludeCodes),
	}
}

// CheckStream runs the sniffs over an already tokenized stream.
func (c *Checker) CheckStream(stream *m.Stream) []m.Violation {
	return c.registry.run(stream)
}

// CheckText tokenizes src and runs the sniffs over it.
func (c *Checker) CheckText(ctx context.Context, src []byte) (*m.Stream, []m.Violation, error) {
	stream, err := c.php.Tokenize(ctx, src)
	if err != nil {
		return nil, nil, err
	}

	return stream, c.registry.run(stream), nil
}

// CheckSource reads, tokenizes and checks one source file. Failures are
// recorded in the report instead of being returned.
func (c *Checker) CheckSource(ctx context.Context, source m.Source) m.FileReport {
	report := m.FileReport{Source: source}

	if source.Origin == nil {
		report.Err = "source has no origin"
		return report
	}

	src, err := c.fs.ReadFile(ctx, source.Origin.FullPath)
	if err != nil {
		slog.Error("Failed to read source", "path", source.Origin.FullPath, "error", err)
		report.Err = fmt.Sprintf("read: %v", err)

		return report
	}

	stream, violations, err := c.CheckText(ctx, src)
	if err != nil {
		slog.Error("Failed to tokenize source", "path", source.Origin.FullPath, "error", err)
		report.Err = fmt.Sprintf("tokenize: %v", err)

		return report
	}

	report.Violations = violations
	report.Operators = c.registry.countKinds(stream)

	slog.Debug("Checked source", "path", source.Origin.FullPath, "violations", len(violations))

	return report
}

// CountOperators tokenizes a source and counts the tokens the sniffs listen
// for, without running them.
func (c *Checker) CountOperators(ctx context.Context, source m.Source) (int, error) {
	src, err := c.fs.ReadFile(ctx, source.Origin.FullPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", source.Origin.FullPath, err)
	}

	stream, err := c.php.Tokenize(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("tokenize %s: %w", source.Origin.FullPath, err)
	}

	return c.registry.countKinds(stream), nil
}

// StreamReports checks sources with up to threads workers and emits one
// report per source. The channel closes once every source is processed or
// ctx is cancelled.
func (c *Checker) StreamReports(ctx context.Context, sources <-chan m.Source, threads int) <-chan m.FileReport {
	if threads <= 0 {
		threads = 1
	}

	reports := make(chan m.FileReport, threads)

	go func() {
		defer close(reports)

		var group errgroup.Group
		group.SetLimit(threads)

		for source := range sources {
			if ctx.Err() != nil {
				slog.Debug("Check cancelled, draining sources")
				continue
			}

			current := source

			group.Go(func() error {
				report := c.CheckSource(ctx, current)

				select {
				case <-ctx.Done():
					return ctx.Err()
				case reports <- report:
				}

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			slog.Debug("Check workers stopped", "error", err)
		}
	}()

	return reports
}
