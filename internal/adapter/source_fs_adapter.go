// Package adapter contains the infrastructure adapters used by the objindent
// domain: filesystem access, PHP tokenization and report persistence.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "objindent.dev/pkg/objindent/internal/model"
)

// DefaultExtensions are the file extensions checked when none are configured.
var DefaultExtensions = []string{"php", "inc", "module", "install", "theme"}

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning user projects. It hides direct `os` access so the
// workflow logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Get resolves path patterns (`./...`, directories, single files) into
	// sources with the given extensions, skipping paths matching any exclude
	// regular expression. Results are sorted by path.
	Get(ctx context.Context, paths []m.Path, extensions []string, exclude ...string) ([]m.Source, error)

	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile replaces the content of an existing file, keeping its mode.
	WriteFile(ctx context.Context, path m.Path, content []byte) error

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type into the domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the SourceFSAdapter backed by the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Get resolves the given path patterns into sources.
func (a *LocalSourceFSAdapter) Get(ctx context.Context, paths []m.Path, extensions []string, exclude ...string) ([]m.Source, error) {
	excludes, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	if len(paths) == 0 {
		paths = []m.Path{"./..."}
	}

	seen := make(map[string]struct{})

	var sources []m.Source

	for _, pattern := range paths {
		root, recursive := splitPattern(string(pattern))

		err := a.Walk(ctx, m.Path(root), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if path != root && isHiddenOrVendor(info.Name()) {
					return filepath.SkipDir
				}

				return nil
			}

			if !hasExtension(path, extensions) || matchesAny(excludes, path) {
				return nil
			}

			if _, ok := seen[path]; ok {
				return nil
			}

			seen[path] = struct{}{}

			source, err := a.buildSource(ctx, root, path)
			if err != nil {
				return err
			}

			sources = append(sources, source)

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", pattern, err)
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Origin.FullPath < sources[j].Origin.FullPath
	})

	slog.Debug("Discovered sources", "patterns", len(paths), "count", len(sources))

	return sources, nil
}

func (a *LocalSourceFSAdapter) buildSource(ctx context.Context, root, path string) (m.Source, error) {
	hash, err := a.HashFile(ctx, m.Path(path))
	if err != nil {
		return m.Source{}, err
	}

	short := path
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		if rel, err := filepath.Rel(root, path); err == nil {
			short = filepath.Join(filepath.Clean(root), rel)
		}
	}

	return m.Source{
		Origin: &m.File{
			FullPath:  m.Path(path),
			ShortPath: m.Path(filepath.ToSlash(short)),
			Hash:      hash,
		},
	}, nil
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(ctx context.Context, root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// WriteFile replaces the content of path, keeping its permissions.
func (a *LocalSourceFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(string(path)); err == nil {
		perm = info.Mode().Perm()
	}

	return os.WriteFile(string(path), content, perm)
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(ctx context.Context, path m.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.Stat(string(path))
}

// splitPattern turns `dir/...` into (dir, true) and anything else into (path, false).
func splitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}

	if trimmed, ok := strings.CutSuffix(pattern, "/..."); ok {
		if trimmed == "" {
			trimmed = "/"
		}

		return trimmed, true
	}

	return pattern, false
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}

func matchesAny(res []*regexp.Regexp, path string) bool {
	slashed := filepath.ToSlash(path)
	for _, re := range res {
		if re.MatchString(slashed) {
			return true
		}
	}

	return false
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}

	for _, want := range extensions {
		if strings.EqualFold(strings.TrimPrefix(want, "."), ext) {
			return true
		}
	}

	return false
}

func isHiddenOrVendor(name string) bool {
	return name == "vendor" || name == "node_modules" || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}
