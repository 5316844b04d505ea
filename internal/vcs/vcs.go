// Package vcs lists, clones and updates organization repositories through the
// gh and git command line tools.
package vcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RemoteRepository is one repository reported by the hosting service.
type RemoteRepository struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
}

// Client is the version control surface the sync service needs.
type Client interface {
	ListRepositories(ctx context.Context, owner string) ([]RemoteRepository, error)
	Clone(ctx context.Context, fullName, dest string) error
	Pull(ctx context.Context, dest string) error
}

// Runner executes name with args in dir and returns its standard output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// DefaultTimeout bounds a single external command.
const DefaultTimeout = 5 * time.Minute

const listLimit = "1000"

// CLI implements Client with gh and git.
type CLI struct {
	// Timeout applies to each command separately. Zero means DefaultTimeout.
	Timeout time.Duration
	// Run is replaced in tests.
	Run Runner
}

// NewCLI returns a CLI that gives every command timeout to finish.
func NewCLI(timeout time.Duration) *CLI {
	return &CLI{Timeout: timeout, Run: execRunner}
}

func (c *CLI) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := c.Run
	if run == nil {
		run = execRunner
	}
	return run(ctx, dir, name, args...)
}

// ListRepositories runs `gh repo list` for owner.
func (c *CLI) ListRepositories(ctx context.Context, owner string) ([]RemoteRepository, error) {
	if owner == "" {
		return nil, fmt.Errorf("listing repositories: no organization configured")
	}
	out, err := c.run(ctx, "", "gh", "repo", "list", owner,
		"--limit", listLimit,
		"--json", "name,description,url,updatedAt,primaryLanguage,repositoryTopics")
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", owner, err)
	}
	repos, err := ParseRepoList(out)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", owner, err)
	}
	return repos, nil
}

// Clone runs `gh repo clone owner/name dest`.
func (c *CLI) Clone(ctx context.Context, fullName, dest string) error {
	if _, err := c.run(ctx, "", "gh", "repo", "clone", fullName, dest); err != nil {
		return fmt.Errorf("cloning %s: %w", fullName, err)
	}
	return nil
}

// Pull fetches every remote and pulls main, then master, then the current
// branch, stopping at the first that succeeds.
func (c *CLI) Pull(ctx context.Context, dest string) error {
	if _, err := c.run(ctx, dest, "git", "fetch", "--all"); err != nil {
		return fmt.Errorf("updating %s: %w", dest, err)
	}
	var err error
	for _, args := range [][]string{
		{"pull", "origin", "main"},
		{"pull", "origin", "master"},
		{"pull"},
	} {
		if _, err = c.run(ctx, dest, "git", args...); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("updating %s: %w", dest, err)
}

type ghRepo struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	UpdatedAt       time.Time `json:"updatedAt"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	RepositoryTopics []struct {
		Name string `json:"name"`
	} `json:"repositoryTopics"`
}

// ParseRepoList decodes the JSON printed by `gh repo list --json`.
func ParseRepoList(data []byte) ([]RemoteRepository, error) {
	var raw []ghRepo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing gh output: %w", err)
	}
	repos := make([]RemoteRepository, 0, len(raw))
	for _, r := range raw {
		repo := RemoteRepository{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
			UpdatedAt:   r.UpdatedAt,
			Topics:      []string{},
		}
		if r.PrimaryLanguage != nil {
			repo.Language = r.PrimaryLanguage.Name
		}
		for _, t := range r.RepositoryTopics {
			repo.Topics = append(repo.Topics, t.Name)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %s: %w", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}
	return out, nil
}
