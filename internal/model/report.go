package model

import "time"

// FileReport holds the outcome of checking (or fixing) one source file.
type FileReport struct {
	Source     Source      `yaml:"source"`
	Violations []Violation `yaml:"violations"`
	Operators  int         `yaml:"operators"`
	Fixed      int         `yaml:"fixed,omitempty"`
	Passes     int         `yaml:"passes,omitempty"`
	Err        string      `yaml:"error,omitempty"`
}

// Fixable counts the violations that carry edits.
func (r FileReport) Fixable() int {
	n := 0
	for _, v := range r.Violations {
		if v.Fixable() {
			n++
		}
	}

	return n
}

// Report is the persisted result of one run.
type Report struct {
	RunID        string       `yaml:"run_id"`
	CreatedAt    time.Time    `yaml:"created_at"`
	Sniffs       []string     `yaml:"sniffs,omitempty"`
	ExcludeCodes []Code       `yaml:"exclude_codes,omitempty"`
	Files        []FileReport `yaml:"files"`
}

// Totals summarises a set of file reports.
type Totals struct {
	Files      int
	Violations int
	Fixable    int
	Fixed      int
	Errors     int
}

// Totals sums up the counters of every file in the report.
func (r Report) Totals() Totals {
	return SumReports(r.Files)
}

// SumReports sums up the counters of the given file reports.
func SumReports(files []FileReport) Totals {
	totals := Totals{Files: len(files)}

	for _, f := range files {
		totals.Violations += len(f.Violations)
		totals.Fixable += f.Fixable()
		totals.Fixed += f.Fixed

		if f.Err != "" {
			totals.Errors++
		}
	}

	return totals
}
