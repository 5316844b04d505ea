package linkfix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

var placeholderExt = regexp.MustCompile(`\.(md|json|yml|yaml)$`)

// Placeholder describes a file synthesized so a broken link resolves.
type Placeholder struct {
	Path    string // Absolute path to create.
	Title   string
	Content []byte
}

// NewPlaceholder builds the placeholder for path. It is a Postman collection
// when path ends in ".json" and a markdown stub otherwise. linkText names the
// document; when empty the file name is title-cased. related becomes the stub's
// "Related Documents" section and is omitted when empty.
func NewPlaceholder(path, linkText string, related []RelatedDoc) (*Placeholder, error) {
	fileName := filepath.Base(path)
	stem := placeholderExt.ReplaceAllString(fileName, "")

	if strings.HasSuffix(fileName, ".json") {
		name := linkText
		if name == "" {
			name = stem
		}
		data, err := json.MarshalIndent(postmanCollection(name), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding postman collection: %w", err)
		}
		return &Placeholder{Path: path, Title: name, Content: data}, nil
	}

	title := linkText
	if title == "" {
		title = TitleFromFileName(stem)
	}
	return &Placeholder{Path: path, Title: title, Content: []byte(markdownStub(fileName, title, related))}, nil
}

// Write creates the placeholder and any missing parent directories. An
// existing file is never overwritten.
func (p *Placeholder) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", p.Path, err)
	}
	f, err := os.OpenFile(p.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", p.Path, err)
	}
	if _, err := f.Write(p.Content); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", p.Path, err)
	}
	return f.Close()
}

// TitleFromFileName turns "random-thing_xyz" into "Random Thing Xyz".
func TitleFromFileName(stem string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// RelatedDoc is one entry of a stub's "Related Documents" list.
type RelatedDoc struct {
	Label string
	Link  string
}

func markdownStub(fileName, title string, related []RelatedDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This document provides information about %s.\n\n", strings.ToLower(title))
	b.WriteString("## Details\n\n")
	b.WriteString("### Purpose\n")
	b.WriteString(categoryContent(fileName, title))
	b.WriteString("\n\n### Usage\n")
	b.WriteString("Follow the guidelines and best practices outlined in this document.\n\n")
	if len(related) > 0 {
		b.WriteString("## Related Documents\n")
		for _, r := range related {
			fmt.Fprintf(&b, "- [%s](%s)\n", r.Label, r.Link)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Support\n")
	b.WriteString("For questions or issues, please contact the development team.")
	return b.String()
}

func categoryContent(fileName, title string) string {
	switch {
	case strings.Contains(fileName, "api") || strings.Contains(fileName, "spec"):
		return fmt.Sprintf("This API specification defines the interface for %s. It includes endpoint definitions, request/response schemas, and authentication requirements.", title)
	case strings.Contains(fileName, "guide") || strings.Contains(fileName, "GUIDE"):
		return fmt.Sprintf("This guide provides step-by-step instructions for %s. It covers installation, configuration, and common use cases.", title)
	case strings.Contains(fileName, "example"):
		return fmt.Sprintf("This example demonstrates the implementation of %s. It includes sample code, configuration files, and best practices.", title)
	case strings.Contains(fileName, "test"):
		return fmt.Sprintf("This document outlines testing procedures for %s. It includes test cases, expected results, and troubleshooting steps.", title)
	case strings.Contains(fileName, "deploy"):
		return fmt.Sprintf("This document covers deployment procedures for %s. It includes environment setup, configuration management, and monitoring.", title)
	case strings.Contains(fileName, "security"):
		return fmt.Sprintf("This document outlines security considerations for %s. It covers authentication, authorization, data protection, and compliance requirements.", title)
	case fileName == "LICENSE":
		return licenseText
	case fileName == "CONTRIBUTING.md":
		return contributingText
	default:
		return fmt.Sprintf("This document contains important information about %s. Please review carefully and follow all guidelines.", title)
	}
}

type postmanInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      string `json:"schema"`
}

type postmanHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type postmanURL struct {
	Raw  string   `json:"raw"`
	Host []string `json:"host"`
	Path []string `json:"path"`
}

type postmanRequest struct {
	Method string          `json:"method"`
	Header []postmanHeader `json:"header"`
	URL    postmanURL      `json:"url"`
}

type postmanItem struct {
	Name    string         `json:"name"`
	Request postmanRequest `json:"request"`
}

type postmanVariable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// PostmanCollection is the minimal Postman v2.1 collection written for
// missing .json targets.
type PostmanCollection struct {
	Info     postmanInfo       `json:"info"`
	Item     []postmanItem     `json:"item"`
	Variable []postmanVariable `json:"variable"`
}

func postmanCollection(name string) PostmanCollection {
	return PostmanCollection{
		Info: postmanInfo{
			Name:        name,
			Description: "Collection for " + name,
			Schema:      postmanSchema,
		},
		Item: []postmanItem{{
			Name: "Sample Request",
			Request: postmanRequest{
				Method: "GET",
				Header: []postmanHeader{{Key: "Authorization", Value: "Bearer {{token}}", Type: "text"}},
				URL: postmanURL{
					Raw:  "{{baseUrl}}/endpoint",
					Host: []string{"{{baseUrl}}"},
					Path: []string{"endpoint"},
				},
			},
		}},
		Variable: []postmanVariable{{Key: "baseUrl", Value: "https://api.example.com", Type: "string"}},
	}
}

const licenseText = `MIT License

Copyright (c) 2024 EY

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.`

const contributingText = `## How to Contribute

We welcome contributions! Please follow these guidelines:

1. Fork the repository
2. Create a feature branch
3. Make your changes
4. Add tests
5. Submit a pull request

### Code Style
- Follow the existing code style
- Add comments for complex logic
- Update documentation as needed

### Testing
- Write unit tests for new features
- Ensure all tests pass
- Add integration tests where appropriate`
