package apidetect

import (
	"path"
	"strings"
)

var graphQLFileKeywords = []struct {
	Keyword string
	Type    GraphQLType
}{
	{"schema", GraphQLSchema},
	{"query", GraphQLQuery},
	{"mutation", GraphQLMutation},
	{"subscription", GraphQLSubscription},
	{"example", GraphQLExample},
	{"sample", GraphQLExample},
}

var graphQLContentKeywords = []struct {
	Keyword string
	Type    GraphQLType
}{
	{"type query", GraphQLSchema},
	{"type mutation", GraphQLSchema},
	{"query {", GraphQLQuery},
	{"mutation {", GraphQLMutation},
	{"subscription {", GraphQLSubscription},
}

// ParseGraphQL describes a GraphQL document.
func ParseGraphQL(file, content string) GraphQLAPI {
	return GraphQLAPI{
		File:        file,
		Type:        graphQLType(file, content),
		Description: leadingComment(content, hashComments),
	}
}

// graphQLType looks at the file name first and the content second. Anything
// unrecognized is a schema.
func graphQLType(file, content string) GraphQLType {
	name := strings.ToLower(path.Base(file))
	for _, k := range graphQLFileKeywords {
		if strings.Contains(name, k.Keyword) {
			return k.Type
		}
	}
	lower := strings.ToLower(content)
	for _, k := range graphQLContentKeywords {
		if strings.Contains(lower, k.Keyword) {
			return k.Type
		}
	}
	return GraphQLSchema
}

// commentStyle describes the comment syntax recognized in a file header.
type commentStyle struct {
	line       string // Line comment marker, repeated markers are stripped.
	open       string // Block comment opener.
	close      string // Block comment closer.
	blockInner string // Optional decoration at the start of lines inside a block.
}

var (
	hashComments  = commentStyle{line: "#", open: `"""`, close: `"""`}
	slashComments = commentStyle{line: "//", open: "/*", close: "*/", blockInner: "*"}
)

// leadingComment joins the comment lines at the top of content with spaces.
// Blank lines are skipped; the first other line ends the header.
func leadingComment(content string, style commentStyle) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	inBlock := false
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if inBlock {
			if i := strings.Index(line, style.close); i >= 0 {
				add(stripInner(line[:i], style))
				inBlock = false
				continue
			}
			add(stripInner(line, style))
			continue
		}

		switch {
		case strings.HasPrefix(line, style.open):
			rest := strings.TrimPrefix(line, style.open)
			if style.blockInner != "" {
				rest = strings.TrimLeft(rest, style.blockInner)
			}
			if i := strings.Index(rest, style.close); i >= 0 {
				add(rest[:i])
			} else {
				add(rest)
				inBlock = true
			}
		case strings.HasPrefix(line, style.line):
			add(strings.TrimLeft(line, style.line[:1]))
		case line == "":
		default:
			return strings.Join(parts, " ")
		}
	}
	return strings.Join(parts, " ")
}

func stripInner(line string, style commentStyle) string {
	line = strings.TrimSpace(line)
	if style.blockInner != "" {
		line = strings.TrimPrefix(line, style.blockInner)
	}
	return line
}
