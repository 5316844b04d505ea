package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/axiomloom/loom/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	repo := &Repository{Name: "payments", Description: "old", Language: "Go", Topics: []string{"api"}}
	if err := s.Upsert(ctx, repo); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if repo.ID == "" || repo.CreatedAt == "" {
		t.Fatalf("Upsert() did not fill ID/CreatedAt: %+v", repo)
	}
	firstID, created := repo.ID, repo.CreatedAt

	update := &Repository{Name: "payments", Description: "new", HasAPIDocs: true, Status: StatusSynced}
	if err := s.Upsert(ctx, update); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}
	if update.ID != firstID {
		t.Errorf("ID = %q, want existing %q", update.ID, firstID)
	}
	if update.CreatedAt != created {
		t.Errorf("CreatedAt = %q, want %q", update.CreatedAt, created)
	}

	got, err := s.Get(ctx, "payments")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Description != "new" || !got.HasAPIDocs || got.Status != StatusSynced {
		t.Errorf("Get() = %+v, want updated fields", got)
	}
	if got.Language != "" {
		t.Errorf("Language = %q, want overwritten to empty", got.Language)
	}
	if len(got.Topics) != 0 {
		t.Errorf("Topics = %v, want empty", got.Topics)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestListOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Upsert(ctx, &Repository{Name: name, Topics: []string{name}}); err != nil {
			t.Fatalf("Upsert(%s) error: %v", name, err)
		}
	}

	repos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(repos) != len(want) {
		t.Fatalf("List() returned %d repos, want %d", len(repos), len(want))
	}
	for i, r := range repos {
		if r.Name != want[i] {
			t.Errorf("repos[%d] = %q, want %q", i, r.Name, want[i])
		}
		if len(r.Topics) != 1 || r.Topics[0] != r.Name {
			t.Errorf("repos[%d].Topics = %v", i, r.Topics)
		}
		if r.Status != StatusPending {
			t.Errorf("repos[%d].Status = %q, want pending", i, r.Status)
		}
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Upsert(ctx, &Repository{Name: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, "gone"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := s.Remove(ctx, "gone"); err == nil {
		t.Error("second Remove() should fail")
	}
}

func TestSyncRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	runs := []*SyncRun{
		{StartedAt: "2024-05-01T10:00:00Z", FinishedAt: "2024-05-01T10:01:00Z", Total: 3, Success: true},
		{StartedAt: "2024-05-02T10:00:00Z", FinishedAt: "2024-05-02T10:01:00Z", Total: 3, Failed: 1, Errors: []string{"b: clone failed"}},
	}
	for _, run := range runs {
		if err := s.RecordSyncRun(ctx, run); err != nil {
			t.Fatalf("RecordSyncRun() error: %v", err)
		}
		if run.ID == "" {
			t.Error("RecordSyncRun() did not assign an ID")
		}
	}

	got, err := s.ListSyncRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListSyncRuns() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListSyncRuns() returned %d runs, want 2", len(got))
	}
	if got[0].StartedAt != "2024-05-02T10:00:00Z" {
		t.Errorf("newest run first, got %q", got[0].StartedAt)
	}
	if got[0].Success || got[0].Failed != 1 || len(got[0].Errors) != 1 {
		t.Errorf("run = %+v", got[0])
	}
	if !got[1].Success || got[1].Errors == nil {
		t.Errorf("run = %+v", got[1])
	}

	limited, err := s.ListSyncRuns(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d runs", len(limited))
	}
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Upsert(ctx, &Repository{Name: "payments", HasReadme: true}); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, s)

	tests := []struct {
		path string
		code int
	}{
		{"/api/repositories", http.StatusOK},
		{"/api/repositories/payments", http.StatusOK},
		{"/api/repositories/missing", http.StatusNotFound},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.code {
			t.Errorf("GET %s = %d, want %d", tc.path, rec.Code, tc.code)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repositories/payments", nil))
	var repo Repository
	if err := json.NewDecoder(rec.Body).Decode(&repo); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if repo.Name != "payments" || !repo.HasReadme {
		t.Errorf("repo = %+v", repo)
	}
}

func TestListEmptyRouteReturnsArray(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, newTestStore(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repositories", nil))
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}
