// Package reposync keeps the local working copies of an organization's
// repositories current and records what it found in the registry.
package reposync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/axiomloom/loom/internal/apidetect"
	"github.com/axiomloom/loom/internal/registry"
	"github.com/axiomloom/loom/internal/vcs"
	"github.com/axiomloom/loom/internal/walker"
	"github.com/axiomloom/loom/internal/workspace"
)

// ErrSyncInProgress is returned when a sync is requested while one is running.
var ErrSyncInProgress = errors.New("sync already in progress")

// StatusFileName is the file the outcome of the last full sync is written to.
const StatusFileName = ".sync-status.json"

// Failure is a repository that could not be synced.
type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result summarizes one SyncAll run.
type Result struct {
	Success   bool          `json:"success"`
	Synced    []string      `json:"syncedRepositories"`
	Failed    []Failure     `json:"failedRepositories"`
	TotalTime time.Duration `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
}

// MarshalJSON reports TotalTime in milliseconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		TotalTime int64 `json:"totalTime"`
	}{plain(r), r.TotalTime.Milliseconds()})
}

// Service syncs every repository of Org into Workspace.
type Service struct {
	Client    vcs.Client
	Workspace *workspace.Workspace
	// Store receives repository metadata and run history. Nil disables it.
	Store *registry.Store
	State *State
	Org   string
	// StatusFile is overwritten after every full run. Empty disables it.
	StatusFile string
	// Concurrency bounds how many repositories are synced at once.
	Concurrency int
	Logger      *log.Logger

	now func() time.Time
}

// New returns a Service with a fresh State.
func New(client vcs.Client, ws *workspace.Workspace, store *registry.Store, org string, logger *log.Logger) *Service {
	return &Service{
		Client:    client,
		Workspace: ws,
		Store:     store,
		State:     NewState(),
		Org:       org,
		Logger:    logger,
	}
}

func (s *Service) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) state() *State {
	if s.State == nil {
		s.State = NewState()
	}
	return s.State
}

// SyncAll clones missing repositories and updates existing ones. A repository
// that fails is recorded and the rest continue; only setup errors abort.
func (s *Service) SyncAll(ctx context.Context) (*Result, error) {
	if !s.state().begin() {
		return nil, ErrSyncInProgress
	}
	return s.run(ctx)
}

// Start runs SyncAll in the background and calls done, if set, when it
// finishes. It fails immediately with ErrSyncInProgress when a run is active.
func (s *Service) Start(ctx context.Context, done func(*Result, error)) error {
	if !s.state().begin() {
		return ErrSyncInProgress
	}
	go func() {
		res, err := s.run(ctx)
		if err != nil {
			s.logger().Printf("reposync: sync failed: %v", err)
		}
		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	started := s.clock()
	st := s.state()
	defer func() { st.finish(s.clock()) }()

	if err := s.Workspace.Ensure(); err != nil {
		st.addError(err.Error())
		return nil, fmt.Errorf("preparing clone directory: %w", err)
	}

	repos := s.listRepositories(ctx)
	st.setTotal(len(repos))

	type outcome struct {
		name string
		err  error
	}
	outcomes := make([]outcome, len(repos))

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, repo := range repos {
		g.Go(func() error {
			st.setCurrent(repo.Name)
			_, err := s.syncRepository(ctx, repo)
			if err != nil {
				s.logger().Printf("reposync: %s failed: %v", repo.Name, err)
				st.addError(fmt.Sprintf("%s: %v", repo.Name, err))
			} else {
				st.completed()
			}
			outcomes[i] = outcome{name: repo.Name, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Success:   true,
		Synced:    []string{},
		Failed:    []Failure{},
		Timestamp: started.UTC(),
	}
	for _, o := range outcomes {
		if o.err != nil {
			res.Failed = append(res.Failed, Failure{Name: o.name, Error: o.err.Error()})
			res.Success = false
			continue
		}
		res.Synced = append(res.Synced, o.name)
	}
	res.TotalTime = s.clock().Sub(started)

	if err := s.writeStatusFile(res); err != nil {
		s.logger().Printf("reposync: %v", err)
	}
	s.recordRun(ctx, started, res)

	s.logger().Printf("reposync: synced %d, failed %d in %s", len(res.Synced), len(res.Failed), res.TotalTime.Round(time.Millisecond))
	return res, nil
}

// SyncOne syncs a single repository by name and returns its refreshed record.
func (s *Service) SyncOne(ctx context.Context, name string) (*registry.Repository, error) {
	if !workspace.ValidName(name) {
		return nil, fmt.Errorf("invalid repository name %q", name)
	}
	st := s.state()
	if !st.begin() {
		return nil, ErrSyncInProgress
	}
	defer func() { st.finish(s.clock()) }()

	if err := s.Workspace.Ensure(); err != nil {
		return nil, fmt.Errorf("preparing clone directory: %w", err)
	}
	st.setTotal(1)
	st.setCurrent(name)

	rec, err := s.syncRepository(ctx, vcs.RemoteRepository{Name: name, URL: s.repoURL(name), Topics: []string{}})
	if err != nil {
		st.addError(fmt.Sprintf("%s: %v", name, err))
		return rec, err
	}
	st.completed()
	return rec, nil
}

// listRepositories asks the hosting service first and falls back to the
// working copies already on disk.
func (s *Service) listRepositories(ctx context.Context) []vcs.RemoteRepository {
	repos, err := s.Client.ListRepositories(ctx, s.Org)
	if err == nil {
		return repos
	}
	s.logger().Printf("reposync: listing failed, using local working copies: %v", err)

	local, err := s.Workspace.List()
	if err != nil {
		s.logger().Printf("reposync: %v", err)
		return nil
	}
	out := make([]vcs.RemoteRepository, 0, len(local))
	for _, r := range local {
		repo := vcs.RemoteRepository{
			Name:        r.Name,
			Description: Describe(r.Root),
			URL:         s.repoURL(r.Name),
			Language:    walker.PrimaryLanguage(r.Root),
			Topics:      []string{},
		}
		if info, err := os.Stat(r.Root); err == nil {
			repo.UpdatedAt = info.ModTime()
		}
		out = append(out, repo)
	}
	return out
}

func (s *Service) repoURL(name string) string {
	if s.Org == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s", s.Org, name)
}

// syncRepository pulls an existing working copy or clones a new one, then
// refreshes the registry record whether or not the command succeeded.
func (s *Service) syncRepository(ctx context.Context, repo vcs.RemoteRepository) (*registry.Repository, error) {
	if !workspace.ValidName(repo.Name) {
		return nil, fmt.Errorf("invalid repository name %q", repo.Name)
	}
	dest := s.Workspace.Path(repo.Name)

	var err error
	if info, statErr := os.Stat(dest); statErr == nil && info.IsDir() {
		s.logger().Printf("reposync: updating %s", repo.Name)
		err = s.Client.Pull(ctx, dest)
	} else if s.Org == "" {
		err = fmt.Errorf("cannot clone %s: %w", repo.Name, workspace.ErrRepositoryNotFound)
	} else {
		s.logger().Printf("reposync: cloning %s", repo.Name)
		err = s.Client.Clone(ctx, s.Org+"/"+repo.Name, dest)
	}

	rec := s.describe(repo, dest)
	if err != nil {
		rec.Status = registry.StatusSyncFailed
		rec.LastError = err.Error()
	} else {
		rec.Status = registry.StatusSynced
		rec.LastSyncedAt = s.clock().UTC().Format(time.RFC3339)
	}

	if s.Store != nil {
		if err != nil {
			if existing, getErr := s.Store.Get(ctx, repo.Name); getErr == nil && existing != nil {
				rec.LastSyncedAt = existing.LastSyncedAt
			}
		}
		if upErr := s.Store.Upsert(ctx, rec); upErr != nil {
			s.logger().Printf("reposync: %v", upErr)
		}
	}
	return rec, err
}

// describe merges the remote metadata with what the working copy shows.
func (s *Service) describe(repo vcs.RemoteRepository, dest string) *registry.Repository {
	rec := &registry.Repository{
		Name:        repo.Name,
		Description: repo.Description,
		URL:         repo.URL,
		Language:    repo.Language,
		Topics:      repo.Topics,
		LocalPath:   dest,
	}
	if !repo.UpdatedAt.IsZero() {
		rec.LastUpdated = repo.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if rec.Topics == nil {
		rec.Topics = []string{}
	}

	info, err := os.Stat(dest)
	if err != nil || !info.IsDir() {
		return rec
	}
	rec.HasReadme = hasReadme(dest)
	rec.HasAPIDocs = apidetect.HasAPIDocs(dest)
	if rec.Description == "" {
		rec.Description = Describe(dest)
	}
	if rec.Language == "" {
		rec.Language = walker.PrimaryLanguage(dest)
	}
	return rec
}

type statusFile struct {
	Timestamp    time.Time `json:"timestamp"`
	Repositories []string  `json:"repositories"`
	Failed       []Failure `json:"failed"`
	TotalTime    int64     `json:"totalTime"`
}

func (s *Service) writeStatusFile(res *Result) error {
	if s.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(statusFile{
		Timestamp:    res.Timestamp,
		Repositories: res.Synced,
		Failed:       res.Failed,
		TotalTime:    res.TotalTime.Milliseconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync status: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.StatusFile), 0o755); err != nil {
		return fmt.Errorf("writing sync status: %w", err)
	}
	if err := os.WriteFile(s.StatusFile, data, 0o644); err != nil {
		return fmt.Errorf("writing sync status: %w", err)
	}
	return nil
}

func (s *Service) recordRun(ctx context.Context, started time.Time, res *Result) {
	if s.Store == nil {
		return
	}
	run := &registry.SyncRun{
		StartedAt:  started.UTC().Format(time.RFC3339),
		FinishedAt: started.Add(res.TotalTime).UTC().Format(time.RFC3339),
		Total:      len(res.Synced) + len(res.Failed),
		Failed:     len(res.Failed),
		Success:    res.Success,
	}
	for _, f := range res.Failed {
		run.Errors = append(run.Errors, f.Name+": "+f.Error)
	}
	if err := s.Store.RecordSyncRun(ctx, run); err != nil {
		s.logger().Printf("reposync: %v", err)
	}
}

// LastSync is what the status file says about the previous full run.
type LastSync struct {
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Repositories []string   `json:"repositories"`
	Failed       []Failure  `json:"failed"`
	TotalTime    int64      `json:"totalTime"`
}

// LastSync reads the status file. A missing file yields an empty LastSync.
func (s *Service) LastSync() (LastSync, error) {
	last := LastSync{Repositories: []string{}, Failed: []Failure{}}
	if s.StatusFile == "" {
		return last, nil
	}
	data, err := os.ReadFile(s.StatusFile)
	if err != nil {
		if os.IsNotExist(err) {
			return last, nil
		}
		return last, fmt.Errorf("reading sync status: %w", err)
	}
	var f statusFile
	if err := json.Unmarshal(data, &f); err != nil {
		return last, fmt.Errorf("parsing sync status: %w", err)
	}
	if !f.Timestamp.IsZero() {
		t := f.Timestamp
		last.Timestamp = &t
	}
	if f.Repositories != nil {
		last.Repositories = f.Repositories
	}
	if f.Failed != nil {
		last.Failed = f.Failed
	}
	last.TotalTime = f.TotalTime
	return last, nil
}
