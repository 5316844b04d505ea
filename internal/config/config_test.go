package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CloneDir != "cloned-repositories" {
		t.Errorf("expected default clone_dir %q, got %q", "cloned-repositories", cfg.CloneDir)
	}
	if cfg.DataDir != ".loom" {
		t.Errorf("expected default data_dir %q, got %q", ".loom", cfg.DataDir)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("expected default max_concurrency 4, got %d", cfg.MaxConcurrency)
	}
	if cfg.Timeout() != 5*time.Minute {
		t.Errorf("expected default timeout 5m, got %s", cfg.Timeout())
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.ReportPath != "broken-links-report.json" {
		t.Errorf("expected default report_path, got %q", cfg.ReportPath)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "state"
	if got, want := cfg.DBPath(), filepath.Join("state", "loom.db"); got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
	if got, want := cfg.StatusFilePath(), filepath.Join("state", ".sync-status.json"); got != want {
		t.Errorf("StatusFilePath() = %q, want %q", got, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.loom.yml")

	original := DefaultConfig()
	original.GitHubOrg = "acme"
	original.CloneDir = "repos"
	original.Exclude = []string{"vendor/**", "**/CHANGELOG.md"}
	original.MaxConcurrency = 8
	original.CommandTimeout = "90s"
	original.Server.AllowAllOrigins = true

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.GitHubOrg != original.GitHubOrg {
		t.Errorf("github_org: got %q, want %q", loaded.GitHubOrg, original.GitHubOrg)
	}
	if loaded.CloneDir != original.CloneDir {
		t.Errorf("clone_dir: got %q, want %q", loaded.CloneDir, original.CloneDir)
	}
	if loaded.MaxConcurrency != original.MaxConcurrency {
		t.Errorf("max_concurrency: got %d, want %d", loaded.MaxConcurrency, original.MaxConcurrency)
	}
	if loaded.Timeout() != 90*time.Second {
		t.Errorf("timeout: got %s, want 90s", loaded.Timeout())
	}
	if !loaded.Server.AllowAllOrigins {
		t.Error("server.allow_all_origins did not round-trip")
	}
	if len(loaded.Exclude) != len(original.Exclude) {
		t.Fatalf("exclude length: got %d, want %d", len(loaded.Exclude), len(original.Exclude))
	}
	for i, v := range loaded.Exclude {
		if v != original.Exclude[i] {
			t.Errorf("exclude[%d]: got %q, want %q", i, v, original.Exclude[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.CloneDir != DefaultCloneDir {
		t.Errorf("expected default clone_dir, got %q", cfg.CloneDir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	cfg.GitHubOrg = "from-file"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("LOOM_GITHUB_ORG", "from-env")
	t.Setenv("LOOM_MAX_CONCURRENCY", "2")
	t.Setenv("LOOM_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.GitHubOrg != "from-env" {
		t.Errorf("env override failed: got %q, want %q", loaded.GitHubOrg, "from-env")
	}
	if loaded.MaxConcurrency != 2 {
		t.Errorf("max_concurrency override: got %d, want 2", loaded.MaxConcurrency)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port override: got %d, want 9090", loaded.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty clone dir", func(c *Config) { c.CloneDir = "" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"bad timeout", func(c *Config) { c.CommandTimeout = "soon" }, true},
		{"zero timeout", func(c *Config) { c.CommandTimeout = "0s" }, true},
		{"unset timeout", func(c *Config) { c.CommandTimeout = "" }, false},
		{"bad exclude glob", func(c *Config) { c.Exclude = []string{"[unclosed"} }, true},
		{"good exclude glob", func(c *Config) { c.Exclude = []string{"docs/**/*.md"} }, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandTimeout = "garbage"
	if cfg.Timeout() != DefaultCommandTimeout {
		t.Errorf("Timeout() = %s, want default", cfg.Timeout())
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.go", []string{"**/*.go"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

func TestPromptValidators(t *testing.T) {
	if validateNonNegativeInt("3") != nil || validateNonNegativeInt("-1") == nil || validateNonNegativeInt("x") == nil {
		t.Error("validateNonNegativeInt misbehaves")
	}
	if validatePort("8080") != nil || validatePort("0") == nil || validatePort("65536") == nil {
		t.Error("validatePort misbehaves")
	}
}
