package links

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolved is an Occurrence paired with the filesystem path it points at.
type Resolved struct {
	Occurrence
	Path   string `json:"resolvedPath"` // Absolute and clean.
	Exists bool   `json:"exists"`
}

// StripFragment removes a "#section" suffix from target.
func StripFragment(target string) string {
	if i := strings.Index(target, "#"); i >= 0 {
		return target[:i]
	}
	return target
}

// Resolve computes the path a link target refers to. sourceDir is the absolute
// directory of the document holding the link. Targets starting with "/" are
// anchored at repoRoot and can never resolve outside it. Resolve does not touch
// the filesystem.
func Resolve(sourceDir, repoRoot, target string) string {
	t := StripFragment(target)
	if strings.HasPrefix(t, "/") {
		return filepath.Join(repoRoot, filepath.FromSlash(filepath.Clean("/"+strings.TrimLeft(t, "/"))))
	}
	return filepath.Join(sourceDir, filepath.FromSlash(t))
}

// Variants lists the spellings probed for a broken target, in order: as
// written, with ".md" appended, with a trailing ".md" removed, and the first
// two again under "docs/". Targets climbing out with ".." get no docs/
// variants. The fragment is removed first and duplicates are dropped.
func Variants(target string) []string {
	t := StripFragment(target)
	candidates := []string{t, t + ".md"}
	if strings.HasSuffix(t, ".md") {
		candidates = append(candidates, strings.TrimSuffix(t, ".md"))
	}
	if !strings.HasPrefix(t, "..") {
		candidates = append(candidates, "docs/"+t, "docs/"+t+".md")
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Resolver checks link occurrences against the filesystem.
type Resolver struct {
	// Exists reports whether a file or directory is present at path.
	Exists func(path string) bool
}

// NewResolver returns a Resolver backed by os.Stat.
func NewResolver() *Resolver {
	return &Resolver{Exists: statExists}
}

func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Check resolves occ, found in the document at the slash path sourceFile under
// repoRoot. When the literal target is missing every variant is tried before
// the link is reported as broken; Path then holds the literal resolution.
func (r *Resolver) Check(repoRoot, sourceFile string, occ Occurrence) Resolved {
	exists := r.Exists
	if exists == nil {
		exists = statExists
	}

	sourceDir := filepath.Join(repoRoot, filepath.FromSlash(filepathDir(sourceFile)))
	base := Resolve(sourceDir, repoRoot, occ.Target)
	if exists(base) {
		return Resolved{Occurrence: occ, Path: base, Exists: true}
	}

	target := StripFragment(occ.Target)
	rooted := strings.HasPrefix(target, "/")
	for _, v := range Variants(strings.TrimLeft(target, "/")) {
		if rooted {
			v = "/" + v
		}
		if p := Resolve(sourceDir, repoRoot, v); exists(p) {
			return Resolved{Occurrence: occ, Path: p, Exists: true}
		}
	}
	return Resolved{Occurrence: occ, Path: base, Exists: false}
}

// Within reports whether path lies inside root (or is root).
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func filepathDir(slashPath string) string {
	if i := strings.LastIndex(slashPath, "/"); i >= 0 {
		return slashPath[:i]
	}
	return "."
}
