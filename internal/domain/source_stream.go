package domain

import (
	"context"
	"fmt"
	"log/slog"

	m "objindent.dev/pkg/objindent/internal/model"
)

// Shard selects a subset of the sources so several processes can split one
// run. The zero value selects everything.
type Shard struct {
	Index int
	Total int
}

// Enabled reports whether the shard filters anything.
func (s Shard) Enabled() bool {
	return s.Total > 1
}

// Validate rejects an index outside of the shard count.
func (s Shard) Validate() error {
	if s.Total < 0 || (s.Total > 0 && (s.Index < 0 || s.Index >= s.Total)) {
		return fmt.Errorf("invalid shard %d/%d", s.Index, s.Total)
	}

	return nil
}

func (s Shard) String() string {
	return fmt.Sprintf("%d/%d", s.Index, max(s.Total, 1))
}

// shardSources keeps every Total-th source starting at Index. Sources are
// expected sorted so that every process sees the same order.
func shardSources(sources []m.Source, shard Shard) []m.Source {
	if !shard.Enabled() {
		return sources
	}

	out := make([]m.Source, 0, len(sources)/shard.Total+1)

	for i, source := range sources {
		if i%shard.Total == shard.Index {
			out = append(out, source)
		}
	}

	slog.Debug("Sharded sources", "shard", shard.String(), "kept", len(out), "total", len(sources))

	return out
}

// streamSources feeds sources into a channel buffered for threads workers.
// The channel closes when every source is sent or ctx is cancelled.
func streamSources(ctx context.Context, sources []m.Source, threads int) <-chan m.Source {
	ch := make(chan m.Source, normalizeBufferSize(threads))

	go func() {
		defer close(ch)

		for _, source := range sources {
			select {
			case <-ctx.Done():
				slog.Debug("Source streaming cancelled")
				return
			case ch <- source:
			}
		}
	}()

	return ch
}

func normalizeBufferSize(threads int) int {
	if threads <= 0 {
		return 1
	}

	return threads
}
