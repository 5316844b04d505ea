package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/axiomloom/loom/internal/db"
)

// Repository sync states.
const (
	StatusPending    = "pending"
	StatusSynced     = "synced"
	StatusSyncFailed = "sync_failed"
)

// Repository is the stored metadata for one organization repository.
type Repository struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Language     string   `json:"language"`
	Topics       []string `json:"topics"`
	HasReadme    bool     `json:"hasReadme"`
	HasAPIDocs   bool     `json:"hasApiDocs"`
	LocalPath    string   `json:"localPath"`
	Status       string   `json:"status"` // pending, synced, sync_failed
	LastError    string   `json:"lastError,omitempty"`
	LastUpdated  string   `json:"lastUpdated,omitempty"`
	LastSyncedAt string   `json:"lastSyncedAt,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

// SyncRun is one completed sync pass.
type SyncRun struct {
	ID         string   `json:"id"`
	StartedAt  string   `json:"startedAt"`
	FinishedAt string   `json:"finishedAt"`
	Total      int      `json:"total"`
	Failed     int      `json:"failed"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// Store provides CRUD operations for the repository registry.
type Store struct {
	db *db.DB
}

// NewStore creates a new registry store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

const repoColumns = `id, name, description, url, language, topics, has_readme, has_api_docs, local_path, status, last_error, last_updated, last_synced_at, created_at`

// Upsert inserts repo or updates the row with the same name. The stored ID
// and creation time are written back to repo.
func (s *Store) Upsert(ctx context.Context, repo *Repository) error {
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	if repo.Status == "" {
		repo.Status = StatusPending
	}
	if repo.CreatedAt == "" {
		repo.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshaling topics: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO repositories (`+repoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   description=excluded.description, url=excluded.url, language=excluded.language,
		   topics=excluded.topics, has_readme=excluded.has_readme, has_api_docs=excluded.has_api_docs,
		   local_path=excluded.local_path, status=excluded.status, last_error=excluded.last_error,
		   last_updated=excluded.last_updated, last_synced_at=excluded.last_synced_at
		 RETURNING id, created_at`,
		repo.ID, repo.Name, repo.Description, repo.URL, repo.Language, string(topicsJSON),
		repo.HasReadme, repo.HasAPIDocs, repo.LocalPath, repo.Status, repo.LastError,
		repo.LastUpdated, repo.LastSyncedAt, repo.CreatedAt,
	).Scan(&repo.ID, &repo.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting repository %s: %w", repo.Name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(row scanner) (*Repository, error) {
	r := &Repository{}
	var topicsJSON string
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.URL, &r.Language, &topicsJSON,
		&r.HasReadme, &r.HasAPIDocs, &r.LocalPath, &r.Status, &r.LastError,
		&r.LastUpdated, &r.LastSyncedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(topicsJSON), &r.Topics); err != nil || r.Topics == nil {
		r.Topics = []string{}
	}
	return r, nil
}

// Get retrieves a repository by name. A missing repository is (nil, nil).
func (s *Store) Get(ctx context.Context, name string) (*Repository, error) {
	r, err := scanRepository(s.db.QueryRowContext(ctx,
		`SELECT `+repoColumns+` FROM repositories WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting repository: %w", err)
	}
	return r, nil
}

// List returns all registered repositories ordered by name.
func (s *Store) List(ctx context.Context) ([]Repository, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+repoColumns+` FROM repositories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, *r)
	}
	return repos, rows.Err()
}

// Remove deletes a repository by name.
func (s *Store) Remove(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("removing repository: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordSyncRun stores a finished sync pass.
func (s *Store) RecordSyncRun(ctx context.Context, run *SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshaling sync errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, started_at, finished_at, total, failed, success, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Total, run.Failed, run.Success, string(errorsJSON),
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent sync passes, newest first.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, total, failed, success, errors
		 FROM sync_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		var errorsJSON string
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Total, &run.Failed, &run.Success, &errorsJSON); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil || run.Errors == nil {
			run.Errors = []string{}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
