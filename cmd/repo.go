package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Inspect the repository registry",
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known repositories",
	Long:  `Lists the repositories recorded by the last sync, or the working copies in the workspace when nothing has been synced yet.`,
	RunE:  runRepoList,
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a repository's registry record (the working copy is kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoRemove,
}

func init() {
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoRemoveCmd)
	rootCmd.AddCommand(repoCmd)
}

func runRepoList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	repos, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if len(repos) == 0 {
		ws, err := openWorkspace(cfg)
		if err != nil {
			return err
		}
		local, err := ws.List()
		if err != nil {
			return err
		}
		if len(local) == 0 {
			fmt.Println("No repositories. Run `loom sync` to clone them.")
			return nil
		}
		fmt.Fprintln(w, "NAME\tPATH")
		for _, r := range local {
			fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Root)
		}
		return nil
	}

	fmt.Fprintln(w, "NAME\tLANGUAGE\tSTATUS\tAPI DOCS\tLAST SYNCED")
	for _, r := range repos {
		apiDocs := "no"
		if r.HasAPIDocs {
			apiDocs = "yes"
		}
		synced := r.LastSyncedAt
		if synced == "" {
			synced = "never"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, orDash(r.Language), r.Status, apiDocs, synced)
	}
	return nil
}

func runRepoRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.Remove(context.Background(), args[0]); err != nil {
		return fmt.Errorf("removing %s: %w", args[0], err)
	}
	fmt.Printf("Removed %s from the registry\n", args[0])
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
