package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/axiomloom/loom/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API used by the portal",
	Long:  `Starts the loom HTTP server exposing API detection, link checking, the repository registry and sync control.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		ws, err := openWorkspace(cfg)
		if err != nil {
			return err
		}
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		logger := newLogger()
		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, server.Deps{
			Workspace: ws,
			Detector:  newDetector(cfg, logger),
			Fixer:     newFixer(cfg, logger),
			Store:     store,
			Sync:      newSyncService(cfg, ws, store, logger),
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "loom server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Workspace: %s\n", ws.Dir)
		fmt.Fprintf(os.Stderr, "  Database:  %s\n", database.Path())
		if cfg.GitHubOrg != "" {
			fmt.Fprintf(os.Stderr, "  Org:       %s\n", cfg.GitHubOrg)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
