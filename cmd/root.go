package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/axiomloom/loom/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Scan, sync and repair the repositories behind the Axiom Loom portal",
	Long: `Loom keeps a local workspace of organization repositories in sync, detects
the REST, GraphQL and gRPC APIs they define, and finds and repairs broken
markdown links in their documentation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file is optional; real environment variables take precedence.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
