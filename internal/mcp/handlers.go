package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/axiomloom/loom/internal/apidetect"
	"github.com/axiomloom/loom/internal/linkfix"
	"github.com/axiomloom/loom/internal/registry"
	"github.com/axiomloom/loom/internal/workspace"
)

// handleListRepositories lists every working copy, enriched with its registry
// record when one exists.
func (s *Server) handleListRepositories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := s.ws.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list repositories: %v", err)), nil
	}
	if len(repos) == 0 {
		return mcp.NewToolResultText("No repositories found. Run `loom sync` to clone them."), nil
	}

	records := map[string]registry.Repository{}
	if s.store != nil {
		list, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read registry: %v", err)), nil
		}
		for _, r := range list {
			records[r.Name] = r
		}
	}

	return mcp.NewToolResultText(formatRepositories(repos, records)), nil
}

// handleDetectAPIs runs API detection over one repository.
func (s *Server) handleDetectAPIs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, errResult := s.repository(request)
	if errResult != nil {
		return errResult, nil
	}

	res, err := s.detector.Detect(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detection failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatDetection(res)), nil
}

// handleCheckLinks reports broken links in one repository without modifying it.
func (s *Server) handleCheckLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, errResult := s.repository(request)
	if errResult != nil {
		return errResult, nil
	}

	report, err := s.fixer.Check(ctx, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("link check failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatLinkReport(report)), nil
}

// repository resolves the required "repository" argument to a working copy.
func (s *Server) repository(request mcp.CallToolRequest) (workspace.Repository, *mcp.CallToolResult) {
	name, err := request.RequireString("repository")
	if err != nil {
		return workspace.Repository{}, mcp.NewToolResultError("missing required parameter: repository")
	}
	repo, err := s.ws.Get(name)
	if err != nil {
		if errors.Is(err, workspace.ErrRepositoryNotFound) {
			return workspace.Repository{}, mcp.NewToolResultError(fmt.Sprintf(
				"Repository %q not found. Run `loom sync` to clone it.", name,
			))
		}
		return workspace.Repository{}, mcp.NewToolResultError(err.Error())
	}
	return repo, nil
}

func formatRepositories(repos []workspace.Repository, records map[string]registry.Repository) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d repositor%s:\n", len(repos), plural(len(repos), "y", "ies")))

	for _, repo := range repos {
		sb.WriteString(fmt.Sprintf("\n- %s\n", repo.Name))
		rec, ok := records[repo.Name]
		if !ok {
			continue
		}
		if rec.Description != "" {
			sb.WriteString(fmt.Sprintf("  Description: %s\n", rec.Description))
		}
		if rec.Language != "" {
			sb.WriteString(fmt.Sprintf("  Language: %s\n", rec.Language))
		}
		sb.WriteString(fmt.Sprintf("  Status: %s\n", rec.Status))
		if rec.HasAPIDocs {
			sb.WriteString("  API docs: yes\n")
		}
	}
	return sb.String()
}

func formatDetection(res *apidetect.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Repository: %s\n", res.Repository))
	if !res.HasAnyAPIs {
		sb.WriteString("No API definitions found.\n")
	}

	if len(res.APIs.REST) > 0 {
		sb.WriteString(fmt.Sprintf("\nREST (%d):\n", len(res.APIs.REST)))
		for _, api := range res.APIs.REST {
			line := api.File
			if api.Title != "" {
				line += " (" + api.Title
				if api.Version != "" {
					line += " " + api.Version
				}
				line += ")"
			}
			sb.WriteString("- " + line + "\n")
		}
	}
	if len(res.APIs.GraphQL) > 0 {
		sb.WriteString(fmt.Sprintf("\nGraphQL (%d):\n", len(res.APIs.GraphQL)))
		for _, api := range res.APIs.GraphQL {
			sb.WriteString(fmt.Sprintf("- %s [%s]\n", api.File, api.Type))
		}
	}
	if len(res.APIs.GRPC) > 0 {
		sb.WriteString(fmt.Sprintf("\ngRPC (%d):\n", len(res.APIs.GRPC)))
		for _, api := range res.APIs.GRPC {
			line := api.File
			if len(api.Services) > 0 {
				line += ": " + strings.Join(api.Services, ", ")
			}
			sb.WriteString("- " + line + "\n")
		}
	}
	if len(res.PostmanCollections) > 0 {
		sb.WriteString(fmt.Sprintf("\nPostman collections (%d):\n", len(res.PostmanCollections)))
		for _, c := range res.PostmanCollections {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", c.File, c.Name))
		}
	}

	if len(res.RecommendedButtons) > 0 {
		buttons := make([]string, len(res.RecommendedButtons))
		for i, b := range res.RecommendedButtons {
			buttons[i] = string(b)
		}
		sb.WriteString("\nButtons: " + strings.Join(buttons, ", ") + "\n")
	}
	return sb.String()
}

func formatLinkReport(r *linkfix.RepoReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Repository: %s\n", r.Repository))
	sb.WriteString(fmt.Sprintf("Scanned %d file(s), %d link(s), %d image(s).\n", r.FilesScanned, r.LinksChecked, r.ImagesChecked))

	if len(r.Broken) == 0 && len(r.BrokenImages) == 0 {
		sb.WriteString("No broken links.\n")
		return sb.String()
	}

	if len(r.Broken) > 0 {
		sb.WriteString(fmt.Sprintf("\nBroken links (%d):\n", len(r.Broken)))
		for _, b := range r.Broken {
			sb.WriteString(fmt.Sprintf("- %s:%d [%s](%s)\n", b.SourceFile, b.Line, b.Text, b.Target))
		}
	}
	if len(r.BrokenImages) > 0 {
		sb.WriteString(fmt.Sprintf("\nBroken images (%d):\n", len(r.BrokenImages)))
		for _, b := range r.BrokenImages {
			sb.WriteString(fmt.Sprintf("- %s:%d %s\n", b.SourceFile, b.Line, b.Target))
		}
	}
	if len(r.Fixes) > 0 {
		sb.WriteString(fmt.Sprintf("\nProposed repairs (%d):\n", len(r.Fixes)))
		for _, f := range r.Fixes {
			switch f.Action {
			case linkfix.ActionRewritten:
				sb.WriteString(fmt.Sprintf("- %s:%d rewrite %s -> %s\n", f.SourceFile, f.Line, f.Target, f.NewTarget))
			case linkfix.ActionCreatedPlaceholder:
				sb.WriteString(fmt.Sprintf("- %s:%d create placeholder %s\n", f.SourceFile, f.Line, f.CreatedFile))
			}
		}
	}
	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
