package config

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to loom! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Organization.
	orgPrompt := promptui.Prompt{
		Label: "GitHub organization or user to sync",
	}
	org, err := orgPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("organization: %w", err)
	}
	cfg.GitHubOrg = strings.TrimSpace(org)

	// 2. Clone directory.
	clonePrompt := promptui.Prompt{
		Label:   "Directory for cloned repositories",
		Default: DefaultCloneDir,
	}
	if cfg.CloneDir, err = clonePrompt.Run(); err != nil {
		return nil, fmt.Errorf("clone dir: %w", err)
	}

	// 3. Concurrency.
	concurrencyPrompt := promptui.Prompt{
		Label:    "Repositories to process in parallel",
		Default:  strconv.Itoa(DefaultMaxConcurrency),
		Validate: validateNonNegativeInt,
	}
	concurrencyStr, err := concurrencyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max concurrency: %w", err)
	}
	cfg.MaxConcurrency, _ = strconv.Atoi(strings.TrimSpace(concurrencyStr))

	// 4. Exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Exclude patterns (comma-separated globs, leave blank for none)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.Exclude = splitAndTrim(excludeStr)

	// 5. Server port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP server port",
		Default:  strconv.Itoa(DefaultPort),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := exec.LookPath("gh"); err != nil {
		fmt.Println("\nNote: the GitHub CLI (gh) was not found. Install it and run `gh auth login` before `loom sync`.")
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of zero or more")
	}
	return nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
