package walker

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExcludeDirs are directory names pruned from every walk. Directories
// whose name starts with "." are always pruned as well.
var DefaultExcludeDirs = []string{"node_modules"}

// Options controls which files Walk reports.
type Options struct {
	// ExcludeDirs lists directory names that are never descended into.
	// Nil means DefaultExcludeDirs.
	ExcludeDirs []string
	// MatchSuffixes selects files whose name contains or ends with any entry.
	// Glob-like entries such as "**/*.md" are reduced to ".md". Empty matches all.
	MatchSuffixes []string
	// Exclude holds doublestar globs matched against the slash-separated relative path.
	Exclude []string
	// Logger receives warnings about unreadable directories. Nil uses log.Default().
	Logger *log.Logger
}

// WalkFunc is called with the slash-separated path of each matching file,
// relative to the walk root. Returning an error stops the walk.
type WalkFunc func(relPath string) error

// Walk traverses root in lexical order and calls fn for every regular file that
// passes the options. Unreadable subdirectories are logged and skipped; only a
// failure to read root itself, or an error from fn, is returned.
func Walk(root string, opts Options, fn WalkFunc) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("walker: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("walker: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("walker: %s is not a directory", root)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	excludeDirs := opts.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}
	suffixes := normalizeSuffixes(opts.MatchSuffixes)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("walker: reading %s: %w", root, walkErr)
			}
			logger.Printf("walker: skipping %s: %v", path, walkErr)
			return nil
		}

		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name(), excludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks are not followed, so a checkout can never loop the walk.
		if !d.Type().IsRegular() {
			return nil
		}

		if !MatchesSuffix(d.Name(), suffixes) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if MatchesExclude(rel, opts.Exclude) {
			return nil
		}

		return fn(rel)
	})
}

// Collect returns every file Walk would report, in walk order.
func Collect(root string, opts Options) ([]string, error) {
	var files []string
	err := Walk(root, opts, func(rel string) error {
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// MatchesSuffix reports whether name contains or ends with any of the suffixes.
// An empty suffix list matches every name.
func MatchesSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	for _, s := range suffixes {
		if s == "" {
			continue
		}
		if strings.Contains(name, s) || strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// NormalizePattern reduces a glob-like pattern to the literal fragment used for
// suffix matching: "**/*.yaml" becomes ".yaml".
func NormalizePattern(pattern string) string {
	p := strings.Replace(pattern, "**/", "", 1)
	return strings.Replace(p, "*", "", 1)
}

func normalizeSuffixes(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if n := NormalizePattern(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func shouldExcludeDir(name string, excluded []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range excluded {
		if name == ex {
			return true
		}
	}
	return false
}
