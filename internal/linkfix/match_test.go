package linkfix

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomloom/loom/internal/workspace"
)

func TestKnownMapping(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		mapped bool
	}{
		{"Architecture Diagrams", "architecture/", true},
		{"See the API Specifications here", "docs/api-specs.md", true},
		{"Implementation Guides", "docs/implementation/", true},
		{"Testing Resources", "tests/", true},
		{"Developer Guide", "docs/DEVELOPER_GUIDE.md", true},
		{"Contributing", "CONTRIBUTING.md", true},
		{"architecture diagrams", "", false},
		{"Setup Guide", "", false},
	}
	for _, tc := range tests {
		got, ok := KnownMapping(tc.text)
		assert.Equal(t, tc.mapped, ok, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestBestCandidate(t *testing.T) {
	files := []string{
		"README.md",
		"guides/setup-guide-v2.md",
		"docs/old/setup-guide-legacy.md",
		"b/setup-guide-notes.md",
		"a/setup-guide-notes.md",
	}

	tests := []struct {
		name    string
		files   []string
		target  string
		exclude string
		want    string
	}{
		{"exact basename wins", append(files, "z/Setup-Guide.md"), "setup-guide.md", "", "z/Setup-Guide.md"},
		{"docs path next", files, "setup-guide.md", "", "docs/old/setup-guide-legacy.md"},
		{"smallest path otherwise", []string{"b/setup-guide-notes.md", "a/setup-guide-notes.md"}, "setup-guide.md", "", "a/setup-guide-notes.md"},
		{"nested target uses basename", files, "../../x/SETUP-GUIDE-V2.md", "", "guides/setup-guide-v2.md"},
		{"source excluded", []string{"readme.md"}, "README.md", "readme.md", ""},
		{"no match", files, "nothing-like-it.md", "", ""},
		{"empty key", files, ".md", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BestCandidate(tc.files, tc.target, tc.exclude))
		})
	}
}

func TestExactCandidate(t *testing.T) {
	files := []string{"z/logo.png", "assets/Logo.PNG", "assets/logo-large.png"}
	assert.Equal(t, "assets/Logo.PNG", ExactCandidate(files, "img/logo.png"))
	assert.Equal(t, "", ExactCandidate(files, "img/banner.png"))
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"architecture/", "docs/architecture/", "diagrams/"}, Suggest("System Diagram", "x.md"))
	assert.Equal(t, []string{"tests/", "test/", "__tests__/"}, Suggest("QA", "e2e-test-plan.md"))
	assert.Equal(t, []string{"Check docs/ or create the missing file"}, Suggest("Misc", "misc.md"))
}

func TestTitleFromFileName(t *testing.T) {
	assert.Equal(t, "Random Thing Xyz", TitleFromFileName("random-thing-xyz"))
	assert.Equal(t, "Deploy Notes", TitleFromFileName("deploy_notes"))
	assert.Equal(t, "API", TitleFromFileName("API"))
	assert.Equal(t, "", TitleFromFileName(""))
}

func TestNewPlaceholder_Categories(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"orders-api.md", "This API specification defines the interface for"},
		{"install-guide.md", "This guide provides step-by-step instructions for"},
		{"example-client.md", "This example demonstrates the implementation of"},
		{"test-plan.md", "This document outlines testing procedures for"},
		{"deploy.md", "This document covers deployment procedures for"},
		{"security.md", "This document outlines security considerations for"},
		{"LICENSE", "Permission is hereby granted, free of charge"},
		{"CONTRIBUTING.md", "## How to Contribute"},
		{"notes.md", "This document contains important information about Notes."},
	}
	for _, tc := range tests {
		p, err := NewPlaceholder(filepath.Join("/tmp", tc.file), "", nil)
		require.NoError(t, err, tc.file)
		assert.Contains(t, string(p.Content), tc.want, tc.file)
		assert.NotContains(t, string(p.Content), "## Related Documents", tc.file)
	}
}

func TestPlaceholderWrite_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.md")
	p, err := NewPlaceholder(path, "B", nil)
	require.NoError(t, err)
	require.NoError(t, p.Write())
	assert.FileExists(t, path)
	assert.Error(t, p.Write())
}

func TestApplyEdits(t *testing.T) {
	content := "x [a](1) y [b](2)\r\nkeep\n[![i](p.png)](q.md)"
	got := applyEdits(content, []edit{
		{line: 1, col: 2, raw: "[a](1)", replacement: "[a](one)"},
		{line: 1, col: 11, raw: "[b](2)", replacement: "[b](two)"},
		{line: 3, col: 0, raw: "[![i](p.png)", replacement: "[![i](x)"},
		{line: 3, col: 1, raw: "![i](p.png)", replacement: "![i](img/p.png)"},
		{line: 2, col: 0, raw: "stale", replacement: "nope"},
	})
	assert.Equal(t, "x [a](one) y [b](two)\r\nkeep\n[![i](img/p.png)](q.md)", got)
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "svc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc", "README.md"), []byte("[Random Thing](random-thing-xyz.md)\n"), 0o644))
	ws, err := workspace.New(dir)
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, ws, newTestFixer())

	req := httptest.NewRequest(http.MethodGet, "/api/links/svc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dryRun":true`)
	assert.NoFileExists(t, filepath.Join(dir, "svc", "random-thing-xyz.md"))

	req = httptest.NewRequest(http.MethodPost, "/api/links/svc/fix", strings.NewReader(""))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, filepath.Join(dir, "svc", "random-thing-xyz.md"))

	for _, path := range []string{"/api/links/missing", "/api/links/..%2Fetc"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
