// Package linkfix finds unresolved markdown links in repository working copies
// and repairs them by rewriting the target or creating a placeholder file.
package linkfix

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/axiomloom/loom/internal/links"
	"github.com/axiomloom/loom/internal/walker"
	"github.com/axiomloom/loom/internal/workspace"
)

// Action is what the fixer did about a broken link.
type Action string

const (
	ActionRewritten          Action = "rewritten"
	ActionCreatedPlaceholder Action = "created-placeholder"
)

// Fix records one repaired link.
type Fix struct {
	links.Occurrence
	Action      Action `json:"action"`
	NewTarget   string `json:"newTarget,omitempty"`
	CreatedFile string `json:"createdFile,omitempty"` // Slash path relative to the repository root.
	Image       bool   `json:"image,omitempty"`
}

// BrokenLink is a link whose target did not exist when it was checked.
type BrokenLink struct {
	links.Occurrence
	// TargetPath is the literal resolution, relative to the repository root
	// when it lies inside it.
	TargetPath  string   `json:"targetPath"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// RepoReport is the outcome of fixing one repository.
type RepoReport struct {
	Repository    string       `json:"repository"`
	DryRun        bool         `json:"dryRun"`
	FilesScanned  int          `json:"filesScanned"`
	LinksChecked  int          `json:"linksChecked"`
	Broken        []BrokenLink `json:"broken"`
	Fixes         []Fix        `json:"fixes"`
	Unresolved    []BrokenLink `json:"unresolved"`
	ImagesChecked int          `json:"imagesChecked"`
	BrokenImages  []BrokenLink `json:"brokenImages"`
	FilesModified []string     `json:"filesModified"`
	FilesCreated  []string     `json:"filesCreated"`
}

// LinkFixes returns the fixes applied to links, leaving out image rewrites.
func (r *RepoReport) LinkFixes() []Fix {
	var out []Fix
	for _, f := range r.Fixes {
		if !f.Image {
			out = append(out, f)
		}
	}
	return out
}

// Fixer repairs broken links. The zero value is usable.
type Fixer struct {
	Resolver *links.Resolver
	// Exclude holds doublestar globs of files that are neither scanned nor
	// offered as rewrite candidates.
	Exclude []string
	// DryRun reports the repairs that would be made without touching any file.
	DryRun bool
	// Concurrency bounds how many repositories FixAll processes at once.
	Concurrency int
	// OnRepoDone, if set, is called after each repository in FixAll.
	OnRepoDone func(repo string)
	Logger     *log.Logger
}

// New returns a Fixer that logs to logger.
func New(logger *log.Logger) *Fixer {
	return &Fixer{Resolver: links.NewResolver(), Logger: logger}
}

// Check reports broken links in repo without modifying it.
func (f *Fixer) Check(ctx context.Context, repo workspace.Repository) (*RepoReport, error) {
	dry := *f
	dry.DryRun = true
	return dry.Fix(ctx, repo)
}

// Fix scans every markdown file in repo and repairs each link that does not
// resolve. A second run over a fixed repository finds nothing to do.
func (f *Fixer) Fix(ctx context.Context, repo workspace.Repository) (*RepoReport, error) {
	logger := f.logger()
	opts := walker.Options{Exclude: f.Exclude, Logger: logger}

	all, err := walker.Collect(repo.Root, opts)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", repo.Name, err)
	}
	var docs []string
	for _, rel := range all {
		if walker.MatchesSuffix(path.Base(rel), []string{".md"}) {
			docs = append(docs, rel)
		}
	}

	resolver := f.Resolver
	if resolver == nil {
		resolver = links.NewResolver()
	}
	run := &repoRun{
		fixer:    f,
		resolver: resolver,
		logger:   logger,
		repo:     repo,
		files:    all,
		created:  make(map[string]bool),
		report:   &RepoReport{Repository: repo.Name, DryRun: f.DryRun},
	}
	for _, rel := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run.processFile(rel)
	}
	return run.report, nil
}

func (f *Fixer) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}

// repoRun holds the state of one Fix call. It is owned by a single goroutine,
// so every file is read, edited and written by the same caller.
type repoRun struct {
	fixer    *Fixer
	resolver *links.Resolver
	logger   *log.Logger
	repo     workspace.Repository
	files    []string        // Every file in the repository, slash paths.
	created  map[string]bool // Absolute paths of placeholders made in this run.
	report   *RepoReport
}

type edit struct {
	line        int
	col         int
	raw         string
	replacement string
}

func (r *repoRun) processFile(rel string) {
	abs := filepath.Join(r.repo.Root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		r.logger.Printf("linkfix: skipping %s/%s: %v", r.repo.Name, rel, err)
		return
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		r.logger.Printf("linkfix: skipping %s/%s: %v", r.repo.Name, rel, err)
		return
	}
	r.report.FilesScanned++

	content := string(data)
	sourceDir := filepath.Dir(abs)
	var edits []edit

	for _, occ := range links.Extract(content) {
		occ.Repo = r.repo.Name
		occ.SourceFile = rel
		r.report.LinksChecked++

		res := r.resolver.Check(r.repo.Root, rel, occ)
		if res.Exists {
			continue
		}
		broken := BrokenLink{Occurrence: occ, TargetPath: r.relToRoot(res.Path)}
		if r.fixer.DryRun {
			broken.Suggestions = Suggest(occ.Text, occ.Target)
		}
		r.report.Broken = append(r.report.Broken, broken)

		e, ok := r.repairLink(occ, res, sourceDir)
		if !ok {
			broken.Suggestions = Suggest(occ.Text, occ.Target)
			r.report.Unresolved = append(r.report.Unresolved, broken)
			continue
		}
		if e != nil {
			edits = append(edits, *e)
		}
	}

	for _, img := range links.ExtractImages(content) {
		img.Repo = r.repo.Name
		img.SourceFile = rel
		r.report.ImagesChecked++

		res := r.resolver.Check(r.repo.Root, rel, img)
		if res.Exists {
			continue
		}
		r.report.BrokenImages = append(r.report.BrokenImages, BrokenLink{Occurrence: img, TargetPath: r.relToRoot(res.Path)})

		cand := ExactCandidate(r.files, links.StripFragment(img.Target))
		if cand == "" {
			continue
		}
		newTarget := relativeTarget(sourceDir, r.repo.Root, cand)
		edits = append(edits, targetEdit(img, newTarget))
		r.record(Fix{Occurrence: img, Action: ActionRewritten, NewTarget: newTarget, Image: true})
	}

	if len(edits) == 0 {
		return
	}
	updated := applyEdits(content, edits)
	if updated == content {
		return
	}
	r.report.FilesModified = append(r.report.FilesModified, rel)
	if r.fixer.DryRun {
		return
	}
	if err := os.WriteFile(abs, []byte(updated), info.Mode().Perm()); err != nil {
		r.logger.Printf("linkfix: writing %s/%s: %v", r.repo.Name, rel, err)
		return
	}
	r.logger.Printf("linkfix: updated %s/%s (%d change(s))", r.repo.Name, rel, len(edits))
}

// repairLink decides how to fix occ. It returns the source edit to make, if
// any, and false when the link has to stay broken.
func (r *repoRun) repairLink(occ links.Occurrence, res links.Resolved, sourceDir string) (*edit, bool) {
	if canonical, ok := KnownMapping(occ.Text); ok {
		created, err := r.ensureCanonical(canonical, occ.Text)
		if err != nil {
			r.logger.Printf("linkfix: %s/%s:%d: %v", r.repo.Name, occ.SourceFile, occ.Line, err)
			return nil, false
		}
		newTarget := relativeTarget(sourceDir, r.repo.Root, canonical)
		if newTarget == occ.Target {
			r.record(Fix{Occurrence: occ, Action: ActionCreatedPlaceholder, CreatedFile: created})
			return nil, true
		}
		r.record(Fix{Occurrence: occ, Action: ActionRewritten, NewTarget: newTarget, CreatedFile: created})
		return r.rewrite(occ, newTarget), true
	}

	target := links.StripFragment(occ.Target)
	if cand := BestCandidate(r.files, target, occ.SourceFile); cand != "" {
		newTarget := relativeTarget(sourceDir, r.repo.Root, cand)
		if !strings.ContainsAny(newTarget, "()#") {
			if frag := occ.Target[len(target):]; frag != "" {
				newTarget += frag
			}
			r.record(Fix{Occurrence: occ, Action: ActionRewritten, NewTarget: newTarget})
			return r.rewrite(occ, newTarget), true
		}
	}

	dest := res.Path
	if strings.HasSuffix(target, "/") {
		dest = filepath.Join(dest, "README.md")
	}
	if dest == r.repo.Root || !links.Within(r.repo.Root, dest) {
		return nil, false
	}
	created, err := r.createPlaceholder(dest, occ.Text)
	if err != nil {
		r.logger.Printf("linkfix: %s/%s:%d: %v", r.repo.Name, occ.SourceFile, occ.Line, err)
		return nil, false
	}
	r.record(Fix{Occurrence: occ, Action: ActionCreatedPlaceholder, CreatedFile: created})
	return nil, true
}

// ensureCanonical makes sure a known-mapping target exists, creating a
// placeholder when needed. Directory targets receive a README.md. It returns
// the created file, or "" when the target was already present.
func (r *repoRun) ensureCanonical(canonical, linkText string) (string, error) {
	abs := filepath.Join(r.repo.Root, filepath.FromSlash(canonical))
	if r.exists(abs) {
		return "", nil
	}
	if strings.HasSuffix(canonical, "/") {
		abs = filepath.Join(abs, "README.md")
		if r.exists(abs) {
			return "", nil
		}
	}
	return r.createPlaceholder(abs, linkText)
}

func (r *repoRun) createPlaceholder(abs, linkText string) (string, error) {
	rel := r.relToRoot(abs)
	if r.created[abs] {
		return rel, nil
	}
	p, err := NewPlaceholder(abs, linkText, r.relatedDocs(abs))
	if err != nil {
		return "", err
	}
	if !r.fixer.DryRun {
		if err := p.Write(); err != nil {
			return "", err
		}
		r.logger.Printf("linkfix: created placeholder %s/%s", r.repo.Name, rel)
	}
	r.created[abs] = true
	r.files = append(r.files, rel)
	r.report.FilesCreated = append(r.report.FilesCreated, rel)
	return rel, nil
}

// relatedDocs links a new stub back to the repository README and the
// architecture overview, for whichever of them exist.
func (r *repoRun) relatedDocs(abs string) []RelatedDoc {
	if !strings.HasSuffix(abs, ".md") && filepath.Ext(abs) != "" {
		return nil
	}
	var out []RelatedDoc
	for _, doc := range []RelatedDoc{
		{Label: "README", Link: "README.md"},
		{Label: "Architecture Overview", Link: "docs/architecture/index.md"},
	} {
		target := filepath.Join(r.repo.Root, filepath.FromSlash(doc.Link))
		if target == abs || !r.exists(target) {
			continue
		}
		out = append(out, RelatedDoc{Label: doc.Label, Link: relativeTarget(filepath.Dir(abs), r.repo.Root, doc.Link)})
	}
	return out
}

func (r *repoRun) exists(abs string) bool {
	if r.created[abs] {
		return true
	}
	exists := r.resolver.Exists
	if exists == nil {
		_, err := os.Stat(abs)
		return err == nil
	}
	return exists(abs)
}

func (r *repoRun) rewrite(occ links.Occurrence, newTarget string) *edit {
	e := targetEdit(occ, newTarget)
	return &e
}

// targetEdit replaces only the parenthesized target of occ, so a linked
// image keeps its inner image when the outer link is rewritten.
func targetEdit(occ links.Occurrence, newTarget string) edit {
	return edit{line: occ.Line, col: occ.TargetColumn, raw: occ.RawTarget, replacement: newTarget}
}

func (r *repoRun) record(fix Fix) {
	r.report.Fixes = append(r.report.Fixes, fix)
	verb := "would fix"
	if !r.fixer.DryRun {
		verb = "fixed"
	}
	switch fix.Action {
	case ActionRewritten:
		r.logger.Printf("linkfix: %s %s/%s:%d %s -> %s", verb, r.repo.Name, fix.SourceFile, fix.Line, fix.Target, fix.NewTarget)
	default:
		r.logger.Printf("linkfix: %s %s/%s:%d %s via placeholder", verb, r.repo.Name, fix.SourceFile, fix.Line, fix.Target)
	}
}

func (r *repoRun) relToRoot(abs string) string {
	if !links.Within(r.repo.Root, abs) {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(r.repo.Root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// relativeTarget expresses the repository path slashRel as a link from a
// document in sourceDir. A trailing "/" is kept.
func relativeTarget(sourceDir, root, slashRel string) string {
	abs := filepath.Join(root, filepath.FromSlash(slashRel))
	rel, err := filepath.Rel(sourceDir, abs)
	if err != nil {
		return slashRel
	}
	out := filepath.ToSlash(rel)
	if strings.HasSuffix(slashRel, "/") && !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out
}

// applyEdits replaces each edit's raw span in content. Edits on one line run
// right to left so earlier columns stay valid; an edit overlapping one already
// applied is dropped.
func applyEdits(content string, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].line != edits[j].line {
			return edits[i].line < edits[j].line
		}
		return edits[i].col > edits[j].col
	})

	lines := strings.Split(content, "\n")
	limit := map[int]int{}
	for _, e := range edits {
		idx := e.line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		line := lines[idx]
		end := e.col + len(e.raw)
		if end > len(line) || line[e.col:end] != e.raw {
			continue
		}
		if l, ok := limit[idx]; ok && end > l {
			continue
		}
		lines[idx] = line[:e.col] + e.replacement + line[end:]
		limit[idx] = e.col
	}
	return strings.Join(lines, "\n")
}
