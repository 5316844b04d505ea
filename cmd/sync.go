package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update every repository of the organization",
	Long: `Lists the organization's repositories with the gh CLI, clones the missing ones
into the workspace and pulls the rest. Without an organization, the existing
working copies are pulled. The outcome is written to the sync status file.`,
	RunE: runSync,
}

var syncOneCmd = &cobra.Command{
	Use:   "one <name>",
	Short: "Clone or update a single repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncOne,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the last full sync",
	RunE:  runSyncStatus,
}

func init() {
	syncCmd.PersistentFlags().String("org", "", "GitHub organization (overrides config)")
	syncCmd.Flags().Bool("json", false, "print the result as JSON")
	syncCmd.AddCommand(syncOneCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if org, _ := cmd.Flags().GetString("org"); org != "" {
		cfg.GitHubOrg = org
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newSyncService(cfg, ws, store, newLogger())
	res, err := svc.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if asJSON {
		return printJSON(os.Stdout, res)
	}

	fmt.Printf("Synced %d repositor%s in %s\n", len(res.Synced), pluralY(len(res.Synced)), res.TotalTime.Round(time.Millisecond))
	if len(res.Failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(res.Failed))
		for _, f := range res.Failed {
			fmt.Printf("  %s: %s\n", f.Name, f.Error)
		}
	}
	if !res.Success {
		return fmt.Errorf("%d repositor%s failed to sync", len(res.Failed), pluralY(len(res.Failed)))
	}
	return nil
}

func runSyncOne(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if org, _ := cmd.Flags().GetString("org"); org != "" {
		cfg.GitHubOrg = org
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newSyncService(cfg, ws, store, newLogger())
	rec, err := svc.SyncOne(ctx, args[0])
	if err != nil {
		return fmt.Errorf("syncing %s: %w", args[0], err)
	}
	fmt.Printf("Synced %s\n", rec.Name)
	if rec.Description != "" {
		fmt.Printf("  Description: %s\n", rec.Description)
	}
	if rec.Language != "" {
		fmt.Printf("  Language:    %s\n", rec.Language)
	}
	fmt.Printf("  Path:        %s\n", rec.LocalPath)
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}

	svc := newSyncService(cfg, ws, nil, newLogger())
	last, err := svc.LastSync()
	if err != nil {
		return err
	}
	if last.Timestamp == nil {
		fmt.Println("No sync has completed yet. Run `loom sync`.")
		return nil
	}

	fmt.Printf("Last sync: %s (%dms)\n", last.Timestamp.Local().Format(time.RFC1123), last.TotalTime)
	fmt.Printf("Repositories: %d synced, %d failed\n", len(last.Repositories), len(last.Failed))
	for _, f := range last.Failed {
		fmt.Printf("  %s: %s\n", f.Name, f.Error)
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
