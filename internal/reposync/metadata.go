package reposync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	readmeScanLines      = 10
	maxDescriptionLength = 200
)

// Describe returns a one-line description of the working copy at root: the
// package.json description when present, otherwise the first prose line near
// the top of README.md.
func Describe(root string) string {
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		var pkg struct {
			Description string `json:"description"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Description != "" {
			return pkg.Description
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "README.md"))
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > readmeScanLines {
		lines = lines[:readmeScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "![") {
			continue
		}
		if r := []rune(line); len(r) > maxDescriptionLength {
			return string(r[:maxDescriptionLength])
		}
		return line
	}
	return ""
}

func hasReadme(root string) bool {
	info, err := os.Stat(filepath.Join(root, "README.md"))
	return err == nil && !info.IsDir()
}
