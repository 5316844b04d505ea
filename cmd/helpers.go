package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/axiomloom/loom/internal/apidetect"
	"github.com/axiomloom/loom/internal/config"
	"github.com/axiomloom/loom/internal/db"
	"github.com/axiomloom/loom/internal/linkfix"
	"github.com/axiomloom/loom/internal/progress"
	"github.com/axiomloom/loom/internal/registry"
	"github.com/axiomloom/loom/internal/reposync"
	"github.com/axiomloom/loom/internal/vcs"
	"github.com/axiomloom/loom/internal/workspace"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `loom init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger returns the diagnostic logger. Output goes to stderr with
// --verbose and is discarded otherwise.
func newLogger() *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", log.LstdFlags)
}

func openWorkspace(cfg *config.Config) (*workspace.Workspace, error) {
	ws, err := workspace.New(cfg.CloneDir)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	return ws, nil
}

// openStore opens the registry database under the data directory.
func openStore(cfg *config.Config) (*db.DB, *registry.Store, error) {
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, registry.NewStore(database), nil
}

func newDetector(cfg *config.Config, logger *log.Logger) *apidetect.Detector {
	d := apidetect.New(logger)
	d.Exclude = cfg.Exclude
	d.Concurrency = cfg.MaxConcurrency
	return d
}

func newFixer(cfg *config.Config, logger *log.Logger) *linkfix.Fixer {
	f := linkfix.New(logger)
	f.Exclude = cfg.Exclude
	f.Concurrency = cfg.MaxConcurrency
	return f
}

func newSyncService(cfg *config.Config, ws *workspace.Workspace, store *registry.Store, logger *log.Logger) *reposync.Service {
	svc := reposync.New(vcs.NewCLI(cfg.Timeout()), ws, store, cfg.GitHubOrg, logger)
	svc.StatusFile = cfg.StatusFilePath()
	svc.Concurrency = cfg.MaxConcurrency
	return svc
}

// targetRepositories resolves a single repository argument, or every
// repository in the workspace when all is set.
func targetRepositories(ws *workspace.Workspace, args []string, all bool) ([]workspace.Repository, error) {
	if all {
		if len(args) > 0 {
			return nil, fmt.Errorf("specify either a repository or --all, not both")
		}
		return ws.List()
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("a repository name or --all is required")
	}
	repo, err := ws.Get(args[0])
	if err != nil {
		return nil, err
	}
	return []workspace.Repository{repo}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newCounter returns a progress counter for batch runs over total
// repositories, or nil with --verbose, where log lines take its place.
func newCounter(task string, total int) *progress.Counter {
	if verbose || total < 2 {
		return nil
	}
	r := progress.NewReporter(task)
	r.Start(total)
	return &progress.Counter{Into: r}
}

// finishCounter closes the reporter behind c, if any.
func finishCounter(c *progress.Counter) {
	if c != nil {
		c.Into.Finish()
	}
}
