package apidetect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/axiomloom/loom/internal/walker"
	"github.com/axiomloom/loom/internal/workspace"
)

// File patterns per API kind, in classification order.
var (
	restPatterns    = []string{"**/*.yaml", "**/*.yml", "**/*.json"}
	graphQLPatterns = []string{"**/*.graphql", "**/*.gql"}
	grpcPatterns    = []string{"**/*.proto"}
)

var (
	restSuffixes    = normalize(restPatterns)
	graphQLSuffixes = normalize(graphQLPatterns)
	grpcSuffixes    = normalize(grpcPatterns)
)

func normalize(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = walker.NormalizePattern(p)
	}
	return out
}

// Detector scans repository working copies for API definitions. It never
// modifies the files it reads.
type Detector struct {
	// Exclude holds doublestar globs of files to ignore.
	Exclude []string
	// Concurrency bounds how many repositories DetectAll scans at once.
	Concurrency int
	// OnRepoDone, if set, is called by DetectAll after each repository.
	OnRepoDone func(name string)
	Logger     *log.Logger
}

// New returns a Detector that logs to logger.
func New(logger *log.Logger) *Detector {
	return &Detector{Logger: logger}
}

func (d *Detector) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

// Detect classifies every candidate file of repo. Each file lands in at most
// one category: REST when a YAML or JSON file carries an OpenAPI signature,
// otherwise GraphQL or gRPC by extension. Unreadable files are logged and
// skipped.
func (d *Detector) Detect(ctx context.Context, repo workspace.Repository) (*Result, error) {
	info, err := os.Stat(repo.Root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", repo.Name, workspace.ErrRepositoryNotFound)
	}

	logger := d.logger()
	var apis APIs
	var collections []PostmanCollection

	err = walker.Walk(repo.Root, walker.Options{Exclude: d.Exclude, Logger: logger}, func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := path.Base(rel)
		isREST := walker.MatchesSuffix(name, restSuffixes)
		isGraphQL := walker.MatchesSuffix(name, graphQLSuffixes)
		isGRPC := walker.MatchesSuffix(name, grpcSuffixes)
		if !isREST && !isGraphQL && !isGRPC {
			return nil
		}

		data, err := os.ReadFile(filepath.Join(repo.Root, filepath.FromSlash(rel)))
		if err != nil {
			logger.Printf("apidetect: could not read %s/%s: %v", repo.Name, rel, err)
			return nil
		}
		content := string(data)

		switch {
		case isREST && IsOpenAPI(content):
			apis.REST = append(apis.REST, ParseREST(rel, content))
		case isGraphQL:
			apis.GraphQL = append(apis.GraphQL, ParseGraphQL(rel, content))
		case isGRPC:
			apis.GRPC = append(apis.GRPC, ParseGRPC(rel, content))
		case isREST:
			if c, ok := parsePostman(rel, data); ok {
				collections = append(collections, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("detecting APIs in %s: %w", repo.Name, err)
	}

	res := newResult(repo.Name, apis)
	res.PostmanCollections = collections
	return res, nil
}

// DetectAll runs Detect over repos, at most Concurrency at a time. A
// repository that fails is logged and left out; the rest keep their order.
func (d *Detector) DetectAll(ctx context.Context, repos []workspace.Repository) []*Result {
	results := make([]*Result, len(repos))
	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, repo := range repos {
		g.Go(func() error {
			if d.OnRepoDone != nil {
				defer d.OnRepoDone(repo.Name)
			}
			res, err := d.Detect(ctx, repo)
			if err != nil {
				d.logger().Printf("apidetect: %s: %v", repo.Name, err)
				return nil
			}
			d.logger().Printf("apidetect: %s: %d REST, %d GraphQL, %d gRPC",
				repo.Name, len(res.APIs.REST), len(res.APIs.GraphQL), len(res.APIs.GRPC))
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// apiDocNames are file names that mark a repository as documenting an API.
var apiDocNames = map[string]bool{
	"openapi.yaml": true, "openapi.yml": true, "openapi.json": true,
	"swagger.yaml": true, "swagger.yml": true, "swagger.json": true,
	"api.yaml": true, "api.yml": true,
}

var apiDocSuffixes = []string{".proto", ".graphql", ".gql"}

var errFound = errors.New("found")

// HasAPIDocs is a quick check for well-known API definition files. It stops
// at the first hit and reads no file contents.
func HasAPIDocs(root string) bool {
	err := walker.Walk(root, walker.Options{Logger: log.New(io.Discard, "", 0)}, func(rel string) error {
		name := path.Base(rel)
		if apiDocNames[name] {
			return errFound
		}
		for _, s := range apiDocSuffixes {
			if strings.HasSuffix(name, s) {
				return errFound
			}
		}
		return nil
	})
	return errors.Is(err, errFound)
}

func parsePostman(rel string, data []byte) (PostmanCollection, bool) {
	name := strings.ToLower(path.Base(rel))
	if !strings.Contains(name, "postman") || !strings.HasSuffix(name, ".json") {
		return PostmanCollection{}, false
	}
	var doc struct {
		Info *struct {
			Name        string `json:"name"`
			Description any    `json:"description"`
			Version     any    `json:"version"`
		} `json:"info"`
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.Info == nil || doc.Item == nil {
		return PostmanCollection{}, false
	}
	c := PostmanCollection{File: rel, Name: doc.Info.Name}
	if c.Name == "" {
		c.Name = "Postman Collection"
	}
	if s, ok := doc.Info.Description.(string); ok {
		c.Description = s
	}
	if s, ok := doc.Info.Version.(string); ok {
		c.Version = s
	}
	return c, true
}
