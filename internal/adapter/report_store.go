package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "objindent.dev/pkg/objindent/internal/model"
)

// ErrNoReport is returned when the reports directory holds no saved report.
var ErrNoReport = errors.New("no report found")

const latestReportFile = "latest.yaml"

// ReportStore persists check reports.
type ReportStore interface {
	// SaveReport writes the report into dir as report-<run id>.yaml and
	// refreshes latest.yaml.
	SaveReport(ctx context.Context, dir m.Path, report m.Report) (m.Path, error)
	// LoadReport reads latest.yaml from dir.
	LoadReport(ctx context.Context, dir m.Path) (m.Report, error)
}

// YAMLReportStore is the ReportStore writing YAML files.
type YAMLReportStore struct{}

// NewReportStore constructs a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport implements ReportStore.
func (s *YAMLReportStore) SaveReport(ctx context.Context, dir m.Path, report m.Report) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	name := "report.yaml"
	if report.RunID != "" {
		name = "report-" + report.RunID + ".yaml"
	}

	path := filepath.Join(string(dir), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), latestReportFile), data, 0o600); err != nil {
		return "", fmt.Errorf("write latest report: %w", err)
	}

	slog.Debug("Saved report", "path", path, "files", len(report.Files))

	return m.Path(path), nil
}

// LoadReport implements ReportStore.
func (s *YAMLReportStore) LoadReport(ctx context.Context, dir m.Path) (m.Report, error) {
	if err := ctx.Err(); err != nil {
		return m.Report{}, err
	}

	data, err := os.ReadFile(filepath.Join(string(dir), latestReportFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m.Report{}, fmt.Errorf("%s: %w", dir, ErrNoReport)
		}

		return m.Report{}, fmt.Errorf("read report: %w", err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("decode report: %w", err)
	}

	return report, nil
}
