package apidetect

import (
	"regexp"
	"strings"
)

var (
	protoService = regexp.MustCompile(`\bservice\s+(\w+)\s*\{`)
	protoPackage = regexp.MustCompile(`(?m)^\s*package\s+([^;]+);`)
)

// ParseGRPC describes a .proto file from its "service Name {" declarations and
// first package statement. Messages are not parsed.
func ParseGRPC(file, content string) GRPCAPI {
	api := GRPCAPI{
		File:        file,
		Services:    []string{},
		Description: leadingComment(content, slashComments),
	}
	for _, m := range protoService.FindAllStringSubmatch(content, -1) {
		api.Services = append(api.Services, m[1])
	}
	if m := protoPackage.FindStringSubmatch(content); m != nil {
		api.Package = strings.TrimSpace(m[1])
	}
	return api
}
