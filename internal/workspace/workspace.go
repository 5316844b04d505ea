package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrRepositoryNotFound is returned when a named repository has no working copy.
var ErrRepositoryNotFound = errors.New("repository not found")

// Repository is one working copy under the clone directory.
type Repository struct {
	Name string `json:"name"`
	Root string `json:"root"` // Absolute path to the working tree.
}

// Workspace is the directory that holds one working copy per repository.
type Workspace struct {
	Dir string
}

// New returns a Workspace rooted at dir. The path is made absolute.
func New(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve %s: %w", dir, err)
	}
	return &Workspace{Dir: abs}, nil
}

// Ensure creates the clone directory if it does not exist yet.
func (w *Workspace) Ensure() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("workspace: creating %s: %w", w.Dir, err)
	}
	return nil
}

// Path returns where the working copy for name lives, whether or not it exists.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// ValidName reports whether name can be used as a single directory under the workspace.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

// Get returns the repository with the given name if its working copy exists.
func (w *Workspace) Get(name string) (Repository, error) {
	if !ValidName(name) {
		return Repository{}, fmt.Errorf("invalid repository name %q: %w", name, ErrRepositoryNotFound)
	}
	root := w.Path(name)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Repository{}, fmt.Errorf("%s: %w", name, ErrRepositoryNotFound)
	}
	return Repository{Name: name, Root: root}, nil
}

// Exists reports whether a working copy for name is present.
func (w *Workspace) Exists(name string) bool {
	_, err := w.Get(name)
	return err == nil
}

// List returns every non-hidden directory under the workspace, sorted by name.
// A missing workspace directory yields an empty list.
func (w *Workspace) List() ([]Repository, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("workspace: listing %s: %w", w.Dir, err)
	}

	var repos []Repository
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		repos = append(repos, Repository{Name: e.Name(), Root: filepath.Join(w.Dir, e.Name())})
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}
