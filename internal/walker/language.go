package walker

import (
	"os"
	"path/filepath"
	"strings"
)

// languageMarkers lists, per language, the files that identify a repository's
// primary language. Entries starting with "*" are extension checks against the
// top-level directory. Order matters: the first language with a hit wins.
var languageMarkers = []struct {
	Language string
	Markers  []string
}{
	{"TypeScript", []string{"tsconfig.json", "*.ts", "*.tsx"}},
	{"JavaScript", []string{"package.json", "*.js", "*.jsx"}},
	{"Python", []string{"requirements.txt", "setup.py", "*.py"}},
	{"Java", []string{"pom.xml", "build.gradle", "*.java"}},
	{"Go", []string{"go.mod", "*.go"}},
	{"Rust", []string{"Cargo.toml", "*.rs"}},
	{"C#", []string{"*.csproj", "*.cs"}},
}

// extensionToLanguage maps file extensions to language names.
var extensionToLanguage = map[string]string{
	".go":      "Go",
	".py":      "Python",
	".ts":      "TypeScript",
	".tsx":     "TypeScript",
	".js":      "JavaScript",
	".jsx":     "JavaScript",
	".java":    "Java",
	".rs":      "Rust",
	".cs":      "C#",
	".yaml":    "YAML",
	".yml":     "YAML",
	".json":    "JSON",
	".md":      "Markdown",
	".proto":   "Protobuf",
	".graphql": "GraphQL",
	".gql":     "GraphQL",
}

// DetectLanguage returns the language for a file name based on its extension,
// or "unknown".
func DetectLanguage(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return "unknown"
}

// PrimaryLanguage guesses the main language of the repository at root from
// marker files in its top-level directory. It returns "" when nothing matches.
func PrimaryLanguage(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	for _, lm := range languageMarkers {
		for _, marker := range lm.Markers {
			if strings.HasPrefix(marker, "*") {
				ext := marker[1:]
				for _, n := range names {
					if strings.HasSuffix(n, ext) {
						return lm.Language
					}
				}
				continue
			}
			if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
				return lm.Language
			}
		}
	}
	return ""
}
