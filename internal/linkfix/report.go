package linkfix

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/axiomloom/loom/internal/workspace"
)

// DefaultReportFile is where the CLI writes the batch report unless configured otherwise.
const DefaultReportFile = "broken-links-report.json"

// Report aggregates a batch run over many repositories.
type Report struct {
	Timestamp         string                  `json:"timestamp"`
	DryRun            bool                    `json:"dryRun"`
	TotalLinksChecked int                     `json:"totalLinksChecked"`
	TotalBrokenLinks  int                     `json:"totalBrokenLinks"`
	TotalFixed        int                     `json:"totalFixed"`
	BrokenLinksByRepo map[string][]BrokenLink `json:"brokenLinksByRepo"`
	FixSummary        FixSummary              `json:"fixSummary"`
	Images            ImageSummary            `json:"images"`
	UnresolvedByRepo  map[string][]BrokenLink `json:"unresolvedByRepo,omitempty"`
	Errors            map[string]string       `json:"errors,omitempty"`
	Success           bool                    `json:"success"`

	Repositories []*RepoReport `json:"-"`
}

// FixSummary counts repairs per repository.
type FixSummary struct {
	TotalFixed  int            `json:"totalFixed"`
	FilesByRepo map[string]int `json:"filesByRepo"` // Files created or rewritten.
}

// ImageSummary covers the image pass.
type ImageSummary struct {
	TotalChecked int `json:"totalChecked"`
	Broken       int `json:"broken"`
	Fixed        int `json:"fixed"`
}

// FixAll runs Fix (or Check, in dry-run mode) over every repository. At most
// Concurrency repositories are processed at once; each one is handled by a
// single goroutine. A failing repository is recorded in Errors and does not
// stop the others.
func (f *Fixer) FixAll(ctx context.Context, repos []workspace.Repository) *Report {
	results := make([]*RepoReport, len(repos))
	errs := make([]error, len(repos))

	limit := f.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, repo := range repos {
		g.Go(func() error {
			results[i], errs[i] = f.Fix(ctx, repo)
			if errs[i] != nil {
				f.logger().Printf("linkfix: %s: %v", repo.Name, errs[i])
			}
			if f.OnRepoDone != nil {
				f.OnRepoDone(repo.Name)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]error)
	var done []*RepoReport
	for i, repo := range repos {
		if errs[i] != nil {
			failed[repo.Name] = errs[i]
			continue
		}
		done = append(done, results[i])
	}
	return NewReport(done, failed, f.DryRun)
}

// NewReport aggregates per-repository results.
func NewReport(repos []*RepoReport, failed map[string]error, dryRun bool) *Report {
	rep := &Report{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		DryRun:            dryRun,
		BrokenLinksByRepo: make(map[string][]BrokenLink),
		FixSummary:        FixSummary{FilesByRepo: make(map[string]int)},
		Repositories:      repos,
		Success:           true,
	}
	for _, r := range repos {
		rep.TotalLinksChecked += r.LinksChecked
		rep.TotalBrokenLinks += len(r.Broken)
		if len(r.Broken) > 0 {
			rep.BrokenLinksByRepo[r.Repository] = r.Broken
		}

		fixed := len(r.LinkFixes())
		rep.TotalFixed += fixed
		rep.Images.TotalChecked += r.ImagesChecked
		rep.Images.Broken += len(r.BrokenImages)
		rep.Images.Fixed += len(r.Fixes) - fixed
		if n := len(r.FilesCreated) + len(r.FilesModified); n > 0 {
			rep.FixSummary.FilesByRepo[r.Repository] = n
		}

		if len(r.Unresolved) > 0 {
			if rep.UnresolvedByRepo == nil {
				rep.UnresolvedByRepo = make(map[string][]BrokenLink)
			}
			rep.UnresolvedByRepo[r.Repository] = r.Unresolved
			rep.Success = false
		}
	}
	rep.FixSummary.TotalFixed = rep.TotalFixed

	for name, err := range failed {
		if rep.Errors == nil {
			rep.Errors = make(map[string]string)
		}
		rep.Errors[name] = err.Error()
		rep.Success = false
	}
	return rep
}

// WriteReport saves r as indented JSON at path, creating parent directories.
func WriteReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
