package linkfix

import (
	"path"
	"strings"
)

// knownMappings send links whose text contains a canonical phrase to the
// phrase's canonical location, before any fuzzy search. Checked in order.
var knownMappings = []struct {
	Phrase string
	Target string // Slash path from the repository root; trailing "/" means a directory.
}{
	{"Architecture Diagrams", "architecture/"},
	{"API Specifications", "docs/api-specs.md"},
	{"Implementation Guides", "docs/implementation/"},
	{"Testing Resources", "tests/"},
	{"Developer Guide", "docs/DEVELOPER_GUIDE.md"},
	{"Contributing", "CONTRIBUTING.md"},
}

// KnownMapping returns the canonical target for link text, if any.
func KnownMapping(linkText string) (string, bool) {
	for _, m := range knownMappings {
		if strings.Contains(linkText, m.Phrase) {
			return m.Target, true
		}
	}
	return "", false
}

// BestCandidate picks the repository file that a broken target most likely
// meant. files are slash paths relative to the repository root. A file is a
// candidate when its lowercased name contains the target's lowercased base
// name without extension. Preference: exact base name (case-insensitive),
// then any path containing "docs/", then the lexicographically smallest
// path. exclude is never returned.
func BestCandidate(files []string, target, exclude string) string {
	base := strings.ToLower(path.Base(strings.TrimSuffix(target, "/")))
	key := strings.TrimSuffix(base, path.Ext(base))
	if key == "" || key == "." || key == ".." || key == "/" {
		return ""
	}

	var exact, docs, first string
	for _, f := range files {
		if f == exclude {
			continue
		}
		name := strings.ToLower(path.Base(f))
		if !strings.Contains(name, key) {
			continue
		}
		if name == base && (exact == "" || f < exact) {
			exact = f
		}
		if strings.Contains(f, "docs/") && (docs == "" || f < docs) {
			docs = f
		}
		if first == "" || f < first {
			first = f
		}
	}

	switch {
	case exact != "":
		return exact
	case docs != "":
		return docs
	default:
		return first
	}
}

// ExactCandidate returns the lexicographically smallest file whose base name
// equals target's, ignoring case. Images are only ever repaired this way.
func ExactCandidate(files []string, target string) string {
	base := strings.ToLower(path.Base(target))
	if base == "" || base == "." || base == "/" {
		return ""
	}
	var best string
	for _, f := range files {
		if strings.ToLower(path.Base(f)) == base && (best == "" || f < best) {
			best = f
		}
	}
	return best
}

// Suggest lists places a human might look for a link that could not be repaired.
func Suggest(linkText, target string) []string {
	text := strings.ToLower(linkText)
	var out []string
	if strings.Contains(text, "api") || strings.Contains(target, "api") {
		out = append(out, "docs/api-specs.md", "architecture/api-*.md")
	}
	if strings.Contains(text, "architecture") || strings.Contains(text, "diagram") {
		out = append(out, "architecture/", "docs/architecture/", "diagrams/")
	}
	if strings.Contains(text, "guide") || strings.Contains(text, "documentation") {
		out = append(out, "docs/", "guides/", "README.md")
	}
	if strings.Contains(text, "test") || strings.Contains(target, "test") {
		out = append(out, "tests/", "test/", "__tests__/")
	}
	if len(out) == 0 {
		return []string{"Check docs/ or create the missing file"}
	}
	return out
}
