package apidetect

import (
	"regexp"
	"strings"
)

var (
	yamlTitle       = regexp.MustCompile(`(?i)title:\s*["']?([^"'\n]+)["']?`)
	jsonTitle       = regexp.MustCompile(`(?i)"title":\s*"([^"]+)"`)
	yamlVersion     = regexp.MustCompile(`(?i)version:\s*["']?([^"'\n]+)["']?`)
	jsonVersion     = regexp.MustCompile(`(?i)"version":\s*"([^"]+)"`)
	yamlDescription = regexp.MustCompile(`(?i)description:\s*["']?([^"'\n]+)["']?`)
	jsonDescription = regexp.MustCompile(`(?i)"description":\s*"([^"]+)"`)

	jsonServers   = regexp.MustCompile(`"servers"\s*:\s*\[`)
	jsonServerURL = regexp.MustCompile(`"url"\s*:\s*"([^"]+)"`)
	yamlServerURL = regexp.MustCompile(`^-?\s*url:\s*["']?([^"'\s]+)["']?`)
)

// IsOpenAPI reports whether content looks like an OpenAPI or Swagger document.
func IsOpenAPI(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "openapi:") ||
		strings.Contains(lower, "swagger:") ||
		strings.Contains(lower, `"openapi"`) ||
		strings.Contains(lower, `"swagger"`) ||
		(strings.Contains(lower, "paths:") && strings.Contains(lower, "info:")) ||
		(strings.Contains(lower, `"paths"`) && strings.Contains(lower, `"info"`))
}

// ParseREST pulls best-effort metadata out of an OpenAPI document. Fields with
// no match stay empty.
func ParseREST(file, content string) RestAPI {
	return RestAPI{
		File:        file,
		Title:       firstMatch(content, yamlTitle, jsonTitle),
		Version:     firstMatch(content, yamlVersion, jsonVersion),
		Description: firstMatch(content, yamlDescription, jsonDescription),
		Servers:     extractServers(content),
	}
}

func firstMatch(content string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractServers returns the server URLs of a JSON "servers" array or of the
// entries nested under a top-level YAML "servers:" key.
func extractServers(content string) []string {
	var out []string
	if loc := jsonServers.FindStringIndex(content); loc != nil {
		block := content[loc[1]:]
		if end := closingBracket(block); end >= 0 {
			block = block[:end]
		}
		for _, m := range jsonServerURL.FindAllStringSubmatch(block, -1) {
			out = append(out, m[1])
		}
		return out
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "servers:" {
			continue
		}
		indent := indentOf(line)
		for _, l := range lines[i+1:] {
			trimmed := strings.TrimSpace(l)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			li := indentOf(l)
			if li < indent || (li == indent && !strings.HasPrefix(trimmed, "-")) {
				break
			}
			if m := yamlServerURL.FindStringSubmatch(trimmed); m != nil {
				out = append(out, m[1])
			}
		}
		break
	}
	return out
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// closingBracket returns the index of the "]" closing an array whose opening
// bracket precedes s, skipping brackets inside JSON strings. It returns -1
// when the array is never closed.
func closingBracket(s string) int {
	depth := 1
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
