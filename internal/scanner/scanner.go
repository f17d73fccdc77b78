// Package scanner discovers program description files under a directory
// tree. It respects .ebpfignore files with gitignore-style patterns, which
// lets a corpus directory exclude fixtures that are known-bad or still being
// written.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes one discovered program file.
type FileInfo struct {
	Path     string // relative to the scan root, slash-separated
	FullPath string // absolute
	Size     int64
}

// Options configures a Scanner.
type Options struct {
	// Extensions lists the file extensions to pick up, with the dot.
	Extensions []string
	// SkipHidden skips dot-files and dot-directories.
	SkipHidden bool
	// IgnoreFileName names the per-directory ignore file.
	IgnoreFileName string
	// ExcludeDirs lists directory names that are never descended into.
	ExcludeDirs []string
}

// DefaultOptions returns options tuned for program corpora: YAML files,
// hidden entries skipped, .ebpfignore honored.
func DefaultOptions() Options {
	return Options{
		Extensions:     []string{".yaml", ".yml"},
		SkipHidden:     true,
		IgnoreFileName: ".ebpfignore",
		ExcludeDirs:    []string{"vendor", "node_modules", ".git"},
	}
}

// Scanner walks directory trees for program files.
type Scanner struct {
	opts Options
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every matching program file, in walk order.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root: %w", err)
	}

	patterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			return nil
		}
		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if s.isExcludedDir(info.Name()) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil {
				patterns = append(patterns, nested...)
			}
			return nil
		}

		if !s.hasWantedExtension(path) {
			return nil
		}
		if ignored(relPath, patterns) {
			return nil
		}

		files = append(files, FileInfo{
			Path:     relPath,
			FullPath: path,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func (s *Scanner) hasWantedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range s.opts.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (s *Scanner) isExcludedDir(name string) bool {
	for _, d := range s.opts.ExcludeDirs {
		if name == d {
			return true
		}
	}
	return false
}

// loadIgnorePatterns reads the directory's ignore file, if any.
func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, sc.Err()
}

// ignored applies the patterns in order; a later negation pattern overrides
// an earlier match, as in gitignore.
func ignored(relPath string, patterns []IgnorePattern) bool {
	skip := false
	for _, p := range patterns {
		if p.Match(relPath) {
			skip = !p.IsNegation()
		}
	}
	return skip
}

// Scan walks root with the default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
