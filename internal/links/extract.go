// Package links extracts inline links from markdown documents and resolves
// them against a repository working copy.
package links

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	linkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	// linkedImagePattern matches "[![alt](img)](target)"; group 1 is the alt
	// text, group 2 the outer target.
	linkedImagePattern = regexp.MustCompile(`\[!\[([^\]]*)\]\([^)]+\)\]\(([^)]+)\)`)
	schemePattern      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
)

// Occurrence is one inline link found in a markdown file.
type Occurrence struct {
	Repo       string `json:"repo,omitempty"`
	SourceFile string `json:"sourceFile"` // Slash path relative to the repository root.
	Line       int    `json:"lineNumber"`
	// Text is the link text. For a linked image it is the image's alt text.
	Text string `json:"linkText"`
	// RawTarget is everything between the parentheses exactly as written.
	RawTarget string `json:"rawTarget"`
	// Target is the path portion used for resolution. A trailing "title" and
	// surrounding angle brackets are removed.
	Target string `json:"target"`

	// Column is the byte offset of Raw within its line.
	Column int `json:"-"`
	// TargetColumn is the byte offset of RawTarget within its line.
	TargetColumn int `json:"-"`
	// Raw is the full "[text](target)" substring exactly as written.
	Raw string `json:"-"`
}

// Extract returns the inline, non-image links in content in document order.
// Line numbers are 1-based. A linked image "[![alt](img)](target)" yields one
// link to target; the image itself is left to ExtractImages. External URLs,
// other URI schemes and same-page anchors are omitted.
func Extract(content string) []Occurrence {
	var out []Occurrence
	forEachLine(content, func(lineNum int, line string) {
		linked := linkedImagePattern.FindAllStringSubmatchIndex(line, -1)
		next := 0
		for _, m := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
			for next < len(linked) && linked[next][1] <= m[0] {
				if occ, ok := newOccurrence(line, lineNum, linked[next]); ok {
					out = append(out, occ)
				}
				next++
			}
			if overlaps(m, linked) {
				continue
			}
			if m[0] > 0 && line[m[0]-1] == '!' {
				continue
			}
			if strings.HasPrefix(line[m[2]:m[3]], "![") {
				continue
			}
			if occ, ok := newOccurrence(line, lineNum, m); ok {
				out = append(out, occ)
			}
		}
		for ; next < len(linked); next++ {
			if occ, ok := newOccurrence(line, lineNum, linked[next]); ok {
				out = append(out, occ)
			}
		}
	})
	return out
}

func overlaps(m []int, spans [][]int) bool {
	for _, sp := range spans {
		if m[0] < sp[1] && sp[0] < m[1] {
			return true
		}
	}
	return false
}

// ExtractImages returns the image links ("![alt](target)") in content with
// the same filtering as Extract. Text holds the alt text.
func ExtractImages(content string) []Occurrence {
	var out []Occurrence
	forEachLine(content, func(lineNum int, line string) {
		for _, m := range imagePattern.FindAllStringSubmatchIndex(line, -1) {
			if occ, ok := newOccurrence(line, lineNum, m); ok {
				out = append(out, occ)
			}
		}
	})
	return out
}

// ScanFile reads the markdown file at rel (slash path under root) and returns
// its links and images with SourceFile set.
func ScanFile(root, rel string) (links, images []Occurrence, err error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	content := string(data)
	links = Extract(content)
	for i := range links {
		links[i].SourceFile = rel
	}
	images = ExtractImages(content)
	for i := range images {
		images[i].SourceFile = rel
	}
	return links, images, nil
}

// IsLocal reports whether target is a link into the repository rather than
// an external URL, another URI scheme (mailto:, tel:, ...) or an in-page
// anchor.
func IsLocal(target string) bool {
	t := strings.TrimSpace(target)
	if t == "" {
		return false
	}
	return !strings.HasPrefix(t, "#") &&
		!strings.HasPrefix(t, "//") &&
		!schemePattern.MatchString(t)
}

func newOccurrence(line string, lineNum int, m []int) (Occurrence, bool) {
	rawTarget := line[m[4]:m[5]]
	target := cleanTarget(rawTarget)
	if !IsLocal(target) {
		return Occurrence{}, false
	}
	return Occurrence{
		Line:         lineNum,
		Text:         line[m[2]:m[3]],
		Target:       target,
		Column:       m[0],
		TargetColumn: m[4],
		Raw:          line[m[0]:m[1]],
		RawTarget:    rawTarget,
	}, true
}

// cleanTarget drops an optional link title and angle brackets:
// `docs/a.md "Setup"` and `<docs/a.md>` both become `docs/a.md`.
func cleanTarget(raw string) string {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "<") {
		if end := strings.Index(t, ">"); end > 0 {
			return strings.TrimSpace(t[1:end])
		}
	}
	if i := strings.IndexAny(t, " \t"); i > 0 {
		rest := strings.TrimSpace(t[i:])
		if strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "'") {
			t = t[:i]
		}
	}
	return t
}

func forEachLine(content string, fn func(lineNum int, line string)) {
	for i, line := range strings.Split(content, "\n") {
		fn(i+1, strings.TrimSuffix(line, "\r"))
	}
}
