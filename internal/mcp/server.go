// Package mcp exposes the scanner to AI agents over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/axiomloom/loom/internal/apidetect"
	"github.com/axiomloom/loom/internal/linkfix"
	"github.com/axiomloom/loom/internal/registry"
	"github.com/axiomloom/loom/internal/workspace"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes repository scanning tools.
type Server struct {
	ws       *workspace.Workspace
	detector *apidetect.Detector
	fixer    *linkfix.Fixer
	store    *registry.Store // optional
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies. store may
// be nil, in which case repositories are listed from the workspace alone.
func NewServer(ws *workspace.Workspace, detector *apidetect.Detector, fixer *linkfix.Fixer, store *registry.Store) *Server {
	s := &Server{
		ws:       ws,
		detector: detector,
		fixer:    fixer,
		store:    store,
	}

	s.mcp = server.NewMCPServer(
		"loom",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listRepositoriesTool, s.handleListRepositories)
	s.mcp.AddTool(detectAPIsTool, s.handleDetectAPIs)
	s.mcp.AddTool(checkLinksTool, s.handleCheckLinks)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
