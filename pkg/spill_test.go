package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type spillRecord struct {
	Path       string
	Violations []int
	Origin     *spillOrigin
}

type spillOrigin struct {
	Hash string
}

func TestSpill(t *testing.T) {
	t.Run("NewSpill in the temp directory", func(t *testing.T) {
		spill, err := NewSpill[int]("")
		require.NoError(t, err)
		require.NotNil(t, spill)
		require.Contains(t, spill.Path(), "objindent-spill-")
		require.FileExists(t, spill.Path())
		require.NoError(t, spill.Close())
	})

	t.Run("NewSpill creates the directory", func(t *testing.T) {
		dir := t.TempDir() + "/nested/spills"

		spill, err := NewSpill[int](dir)
		require.NoError(t, err)
		defer spill.Close()

		require.DirExists(t, dir)
	})

	t.Run("Append and Collect keep insertion order", func(t *testing.T) {
		spill, err := NewSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.AppendBatch([]string{"second", "third"}))
		require.Equal(t, uint64(3), spill.Len())

		items, err := spill.Collect()
		require.NoError(t, err)
		require.Equal(t, []string{"first", "second", "third"}, items)
	})

	t.Run("Range passes indexes", func(t *testing.T) {
		spill, err := NewSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		for i := range 5 {
			require.NoError(t, spill.Append(i*10))
		}

		var indexes []uint64
		err = spill.Range(func(index uint64, item int) error {
			require.Equal(t, int(index)*10, item)
			indexes = append(indexes, index)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 1, 2, 3, 4}, indexes)
	})

	t.Run("Range stops on callback error", func(t *testing.T) {
		spill, err := NewSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))

		stop := errors.New("stop")
		seen := 0
		err = spill.Range(func(_ uint64, _ int) error {
			seen++
			if seen == 2 {
				return stop
			}
			return nil
		})
		require.ErrorIs(t, err, stop)
		require.Equal(t, 2, seen)
	})

	t.Run("structs with pointers", func(t *testing.T) {
		spill, err := NewSpill[spillRecord](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		want := []spillRecord{
			{Path: "a.php", Violations: []int{1, 2}, Origin: &spillOrigin{Hash: "abc"}},
			{Path: "b.php", Violations: []int{3}, Origin: &spillOrigin{Hash: "def"}},
		}
		require.NoError(t, spill.AppendBatch(want))

		items, err := spill.Collect()
		require.NoError(t, err)
		require.Equal(t, want, items)
	})

	t.Run("empty spill collects nothing", func(t *testing.T) {
		spill, err := NewSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		items, err := spill.Collect()
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("Close removes the file and is idempotent", func(t *testing.T) {
		spill, err := NewSpill[int](t.TempDir())
		require.NoError(t, err)

		require.NoError(t, spill.Append(1))
		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())

		_, statErr := os.Stat(spill.Path())
		require.True(t, os.IsNotExist(statErr))

		require.ErrorIs(t, spill.Append(2), ErrSpillClosed)
		require.ErrorIs(t, spill.Range(func(uint64, int) error { return nil }), ErrSpillClosed)

		_, err = spill.Collect()
		require.ErrorIs(t, err, ErrSpillClosed)
	})
}

// BenchmarkAppend measures the performance of appending items.
func BenchmarkAppend(b *testing.B) {
	spill, err := NewSpill[int](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create spill: %v", err)
	}
	defer spill.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = spill.Append(i)
	}
}

// BenchmarkCollect measures decoding a spill of 1000 records.
func BenchmarkCollect(b *testing.B) {
	spill, err := NewSpill[spillRecord](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create spill: %v", err)
	}
	defer spill.Close()

	for i := 0; i < 1000; i++ {
		_ = spill.Append(spillRecord{Path: "file.php", Violations: []int{i}, Origin: &spillOrigin{Hash: "h"}})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = spill.Collect()
	}
}

// FuzzStringAppend fuzzes string append operations.
func FuzzStringAppend(f *testing.F) {
	f.Add("")
	f.Add("<?php\n$obj->first();\n")
	f.Add("x")

	f.Fuzz(func(t *testing.T, data string) {
		spill, err := NewSpill[string](t.TempDir())
		if err != nil {
			t.Skipf("setup failed: %v", err)
		}
		defer spill.Close()

		if err := spill.Append(data); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		items, err := spill.Collect()
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		if len(items) != 1 || items[0] != data {
			t.Fatalf("value mismatch: expected %q, got %q", data, items)
		}
	})
}
