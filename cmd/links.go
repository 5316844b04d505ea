package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/axiomloom/loom/internal/linkfix"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Find and repair broken markdown links",
}

var linksCheckCmd = &cobra.Command{
	Use:   "check [repository]",
	Short: "Report broken links without modifying any file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLinks(cmd, args, true)
	},
}

var linksFixCmd = &cobra.Command{
	Use:   "fix [repository]",
	Short: "Rewrite broken links and create placeholder documents",
	Long: `Rewrites each broken link to the closest existing file, or creates a placeholder
document at the link target, and writes a JSON report of what was done.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runLinks(cmd, args, dryRun)
	},
}

func init() {
	for _, c := range []*cobra.Command{linksCheckCmd, linksFixCmd} {
		c.Flags().Bool("all", false, "process every repository in the workspace")
		c.Flags().String("report", "", "report file path (overrides config)")
		c.Flags().Bool("json", false, "print the report as JSON instead of a summary")
	}
	linksFixCmd.Flags().Bool("dry-run", false, "show the repairs without writing files")

	linksCmd.AddCommand(linksCheckCmd)
	linksCmd.AddCommand(linksFixCmd)
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string, dryRun bool) error {
	all, _ := cmd.Flags().GetBool("all")
	reportPath, _ := cmd.Flags().GetString("report")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reportPath == "" {
		reportPath = cfg.ReportPath
	}
	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	repos, err := targetRepositories(ws, args, all)
	if err != nil {
		return err
	}

	fixer := newFixer(cfg, newLogger())
	fixer.DryRun = dryRun
	task := "Fixing links"
	if dryRun {
		task = "Checking links"
	}
	counter := newCounter(task, len(repos))
	if counter != nil {
		fixer.OnRepoDone = counter.Done
	}
	report := fixer.FixAll(context.Background(), repos)
	finishCounter(counter)

	if reportPath != "" {
		if err := linkfix.WriteReport(reportPath, report); err != nil {
			return err
		}
	}

	if asJSON {
		if err := printJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printLinkSummary(report, reportPath)
	}

	if len(report.Errors) > 0 {
		return fmt.Errorf("%d repositor%s could not be processed", len(report.Errors), pluralY(len(report.Errors)))
	}
	return nil
}

func printLinkSummary(r *linkfix.Report, reportPath string) {
	verb := "Fixed"
	if r.DryRun {
		verb = "Would fix"
	}
	fmt.Printf("Checked %d link(s) in %d repositor%s\n", r.TotalLinksChecked, len(r.Repositories), pluralY(len(r.Repositories)))
	fmt.Printf("  Broken:   %d\n", r.TotalBrokenLinks)
	fmt.Printf("  %s: %d\n", verb, r.TotalFixed)
	fmt.Printf("  Images:   %d checked, %d broken, %d fixed\n", r.Images.TotalChecked, r.Images.Broken, r.Images.Fixed)

	if len(r.UnresolvedByRepo) > 0 {
		fmt.Println("\nUnresolved:")
		names := make([]string, 0, len(r.UnresolvedByRepo))
		for name := range r.UnresolvedByRepo {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, b := range r.UnresolvedByRepo[name] {
				fmt.Printf("  %s/%s:%d %s\n", name, b.SourceFile, b.Line, b.Target)
			}
		}
	}
	for name, msg := range r.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", name, msg)
	}
	if reportPath != "" {
		fmt.Printf("\nReport written to %s\n", reportPath)
	}
}
