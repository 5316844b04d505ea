package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axiomloom/loom/internal/apidetect"
)

var detectCmd = &cobra.Command{
	Use:   "detect [repository]",
	Short: "Detect the API definitions of a repository",
	Long: `Classifies the OpenAPI/Swagger, GraphQL and protobuf files of a repository and
prints the result as JSON, including the explorer buttons the portal shows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Bool("all", false, "detect every repository in the workspace")
	detectCmd.Flags().Bool("buttons", false, "print only the button configuration")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	buttonsOnly, _ := cmd.Flags().GetBool("buttons")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	repos, err := targetRepositories(ws, args, all)
	if err != nil {
		return err
	}

	detector := newDetector(cfg, newLogger())
	counter := newCounter("Detecting APIs", len(repos))
	if counter != nil {
		detector.OnRepoDone = counter.Done
	}
	results := detector.DetectAll(context.Background(), repos)
	finishCounter(counter)

	if !all {
		if len(results) == 0 {
			return fmt.Errorf("detecting APIs in %s failed", repos[0].Name)
		}
		if buttonsOnly {
			return printJSON(os.Stdout, apidetect.Buttons(results[0]))
		}
		return printJSON(os.Stdout, results[0])
	}

	if buttonsOnly {
		buttons := make(map[string]apidetect.ButtonConfig, len(results))
		for _, res := range results {
			buttons[res.Repository] = apidetect.Buttons(res)
		}
		return printJSON(os.Stdout, buttons)
	}
	return printJSON(os.Stdout, map[string]interface{}{
		"repositories": results,
		"total":        len(results),
	})
}
