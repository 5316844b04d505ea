package cmd

import (
	"github.com/spf13/cobra"

	"github.com/axiomloom/loom/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize loom configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the organization, workspace and server, and writes a .loom.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
