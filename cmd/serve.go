package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/axiomloom/loom/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing repository listing, API detection and link checking tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cfg)
		if err != nil {
			return err
		}

		// Registry records are optional here.
		database, store, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: registry unavailable: %v\n", err)
		} else {
			defer database.Close()
		}

		// Stdout carries the protocol, so newLogger's stderr output is safe.
		logger := newLogger()

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "loom MCP server started on stdio (workspace=%s)\n", ws.Dir)

		srv := mcpserver.NewServer(ws, newDetector(cfg, logger), newFixer(cfg, logger), store)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
