// Package discovery finds the Markdown files a batch run will process.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrPathNotFound is returned when the root path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotMarkdown is returned when the root is a file without a Markdown extension.
	ErrNotMarkdown = errors.New("not a markdown file")
)

// DefaultExtensions are matched when Options.Extensions is empty.
var DefaultExtensions = []string{".md", ".markdown"}

var ignoredDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".idea":         true,
	".vscode":       true,
	".obsidian":     true,
	".trash":        true,
	"dist":          true,
	"target":        true,
	".next":         true,
	".nuxt":         true,
	".pytest_cache": true,
	".mypy_cache":   true,
}

// Options controls a scan.
type Options struct {
	Recursive     bool
	Extensions    []string
	IncludeHidden bool
	// MaxFileSize skips larger files; zero disables the limit.
	MaxFileSize int64
	// Filter, when set, must return true for a file to be kept.
	Filter func(absPath string) bool
}

// Candidate is a Markdown file selected for processing.
type Candidate struct {
	Path    string // absolute
	RelPath string // relative to the scan root, slash separated
	Size    int64
}

// Skipped records a file or directory left out of the scan.
type Skipped struct {
	Path   string
	Reason string
}

// Result holds the outcome of a scan.
type Result struct {
	Root    string
	Files   []Candidate
	Skipped []Skipped
}

// Scan lists Markdown files under root in lexical path order. root may be a
// single file. A missing root yields ErrPathNotFound and no candidates.
func Scan(root string, opts Options) (*Result, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	exts := normalizeExtensions(opts.Extensions)
	result := &Result{Root: absPath, Files: []Candidate{}}

	if !info.IsDir() {
		if !exts[strings.ToLower(filepath.Ext(absPath))] {
			return nil, fmt.Errorf("%w: %s", ErrNotMarkdown, root)
		}
		result.Root = filepath.Dir(absPath)
		result.add(absPath, info.Size(), opts)
		return result, nil
	}

	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absPath {
				return fmt.Errorf("walk error at %s: %w", path, err)
			}
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == absPath {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if !opts.Recursive || ignoredDirs[name] {
				return filepath.SkipDir
			}
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			return nil
		}
		result.add(path, fi.Size(), opts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	return result, nil
}

func (r *Result) add(path string, size int64, opts Options) {
	if opts.MaxFileSize > 0 && size > opts.MaxFileSize {
		r.Skipped = append(r.Skipped, Skipped{
			Path:   path,
			Reason: fmt.Sprintf("file too large (%d bytes)", size),
		})
		return
	}
	if opts.Filter != nil && !opts.Filter(path) {
		return
	}
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	r.Files = append(r.Files, Candidate{
		Path:    path,
		RelPath: filepath.ToSlash(rel),
		Size:    size,
	})
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = true
	}
	return out
}
