package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listRepositoriesTool defines the list_repositories MCP tool.
var listRepositoriesTool = mcp.NewTool("list_repositories",
	mcp.WithDescription("List the repositories in the local workspace with their description, language and sync status."),
)

// detectAPIsTool defines the detect_apis MCP tool.
var detectAPIsTool = mcp.NewTool("detect_apis",
	mcp.WithDescription("Detect the REST, GraphQL and gRPC API definitions in a repository and the explorer buttons the portal shows for it."),
	mcp.WithString("repository",
		mcp.Required(),
		mcp.Description("Repository name as it appears in the workspace"),
	),
)

// checkLinksTool defines the check_links MCP tool.
var checkLinksTool = mcp.NewTool("check_links",
	mcp.WithDescription("Report broken markdown links and images in a repository, with the repairs the fixer would make. Files are never modified."),
	mcp.WithString("repository",
		mcp.Required(),
		mcp.Description("Repository name as it appears in the workspace"),
	),
)
