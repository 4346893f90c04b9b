// Package domain contains the checking and fixing workflow of objindent.
package domain

import (
	"fmt"
	"slices"
	"sort"

	"objindent.dev/pkg/objindent/internal/domain/sniffs"
	m "objindent.dev/pkg/objindent/internal/model"
)

// Sniff is a check that listens for tokens of some kinds.
type Sniff interface {
	// Name identifies the sniff in reports and on the command line.
	Name() string
	// Register returns the token kinds the sniff wants to process.
	Register() []m.Kind
	// Process inspects the token at pos and returns the violations found
	// there. It must not keep state between calls.
	Process(stream *m.Stream, pos int) []m.Violation
}

var sniffFactories = map[string]func() Sniff{
	sniffs.ObjectOperatorIndentName: func() Sniff { return sniffs.NewObjectOperatorIndent() },
}

// SniffNames lists the known sniffs, sorted.
func SniffNames() []string {
	names := make([]string, 0, len(sniffFactories))
	for name := range sniffFactories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResolveSniffs builds the sniffs with the given names, or every known sniff
// when names is empty.
func ResolveSniffs(names ...string) ([]Sniff, error) {
	if len(names) == 0 {
		names = SniffNames()
	}

	out := make([]Sniff, 0, len(names))

	for _, name := range names {
		factory, ok := sniffFactories[name]
		if !ok {
			return nil, fmt.Errorf("unknown sniff %q (known: %v)", name, SniffNames())
		}

		out = append(out, factory())
	}

	return out, nil
}

// registry dispatches tokens to the sniffs listening for their kind.
type registry struct {
	byKind       map[m.Kind][]Sniff
	excludeCodes []m.Code
}

func newRegistry(list []Sniff, excludeCodes []m.Code) *registry {
	r := &registry{
		byKind:       make(map[m.Kind][]Sniff),
		excludeCodes: excludeCodes,
	}

	for _, s := range list {
		for _, kind := range s.Register() {
			r.byKind[kind] = append(r.byKind[kind], s)
		}
	}

	return r
}

// run processes every token of the stream and returns the violations sorted
// by position, without duplicates.
func (r *registry) run(stream *m.Stream) []m.Violation {
	var violations []m.Violation

	seen := make(map[string]struct{})

	for pos := range stream.Len() {
		for _, s := range r.byKind[stream.At(pos).Kind] {
			for _, v := range s.Process(stream, pos) {
				if slices.Contains(r.excludeCodes, v.Code) {
					continue
				}

				key := fmt.Sprintf("%s|%d|%s|%v", v.Source(), v.Pos, v.Message, v.Data)
				if _, dup := seen[key]; dup {
					continue
				}

				seen[key] = struct{}{}
				violations = append(violations, v)
			}
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Pos < violations[j].Pos
	})

	return violations
}

// countKinds counts the tokens some sniff listens for.
func (r *registry) countKinds(stream *m.Stream) int {
	n := 0

	for pos := range stream.Len() {
		if len(r.byKind[stream.At(pos).Kind]) > 0 {
			n++
		}
	}

	return n
}
