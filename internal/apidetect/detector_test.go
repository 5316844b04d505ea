package apidetect

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomloom/loom/internal/workspace"
)

const petStoreYAML = `openapi: 3.0.0
info:
  title: Pet Store
  version: 1.2.0
  description: Pets API
servers:
  - url: https://api.pets.io
    description: prod
  - url: http://localhost:8080
paths: {}
`

const ordersJSON = `{"openapi":"3.0.0","info":{"title":"Orders","version":"2.0"},"servers":[{"url":"https://orders.example.com"}],"paths":{}}`

const petProto = `// Pet service
/* multi
 * line */
syntax = "proto3";
package pets.v1;

service PetService {
  rpc Get(GetRequest) returns (Pet);
}

service Admin{}
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func quietDetector() *Detector {
	return New(log.New(io.Discard, "", 0))
}

func TestRecommendedButtons(t *testing.T) {
	tests := []struct {
		rest, graphql, grpc int
		want                []Button
	}{
		{0, 0, 0, []Button{}},
		{1, 0, 0, []Button{ButtonSwagger, ButtonPostman}},
		{0, 2, 0, []Button{ButtonGraphQL, ButtonPostman}},
		{0, 0, 3, []Button{ButtonGRPC, ButtonPostman}},
		{1, 1, 0, []Button{ButtonSwagger, ButtonGraphQL, ButtonPostman}},
		{1, 0, 1, []Button{ButtonSwagger, ButtonGRPC, ButtonPostman}},
		{0, 1, 1, []Button{ButtonGraphQL, ButtonGRPC, ButtonPostman}},
		{4, 5, 6, []Button{ButtonSwagger, ButtonGraphQL, ButtonGRPC, ButtonPostman}},
	}
	for _, tc := range tests {
		got := RecommendedButtons(tc.rest, tc.graphql, tc.grpc)
		assert.NotNil(t, got)
		assert.Equal(t, tc.want, got, "rest=%d graphql=%d grpc=%d", tc.rest, tc.graphql, tc.grpc)
	}
}

func TestDetectClassifiesEachFileOnce(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"openapi.yaml":              petStoreYAML,
		"api.json":                  ordersJSON,
		"config.yaml":               "name: app\nport: 80\n",
		"package.json":              `{"name":"app","version":"1.0.0"}`,
		"schema.graphql":            "# Pet schema\n# for the store\ntype Query {\n  pets: [Pet]\n}\n",
		"proto/svc.proto":           petProto,
		"postman.json":              `{"info":{"name":"Pets"},"item":[]}`,
		"node_modules/x/api.yaml":   petStoreYAML,
		".github/workflows/ci.yaml": "openapi: 3.0.0\n",
	})

	res, err := quietDetector().Detect(context.Background(), workspace.Repository{Name: "pets", Root: root})
	require.NoError(t, err)

	assert.Equal(t, "pets", res.Repository)
	assert.True(t, res.HasAnyAPIs)
	assert.Equal(t, []Button{ButtonSwagger, ButtonGraphQL, ButtonGRPC, ButtonPostman}, res.RecommendedButtons)

	require.Len(t, res.APIs.REST, 2)
	byFile := map[string]RestAPI{}
	for _, api := range res.APIs.REST {
		byFile[api.File] = api
	}

	pets := byFile["openapi.yaml"]
	assert.Equal(t, "Pet Store", pets.Title)
	assert.Equal(t, "1.2.0", pets.Version)
	assert.Equal(t, "Pets API", pets.Description)
	assert.Equal(t, []string{"https://api.pets.io", "http://localhost:8080"}, pets.Servers)

	orders := byFile["api.json"]
	assert.Equal(t, "Orders", orders.Title)
	assert.Equal(t, "2.0", orders.Version)
	assert.Empty(t, orders.Description)
	assert.Equal(t, []string{"https://orders.example.com"}, orders.Servers)

	require.Len(t, res.APIs.GraphQL, 1)
	assert.Equal(t, "schema.graphql", res.APIs.GraphQL[0].File)
	assert.Equal(t, GraphQLSchema, res.APIs.GraphQL[0].Type)
	assert.Equal(t, "Pet schema for the store", res.APIs.GraphQL[0].Description)

	require.Len(t, res.APIs.GRPC, 1)
	grpc := res.APIs.GRPC[0]
	assert.Equal(t, "proto/svc.proto", grpc.File)
	assert.Equal(t, []string{"PetService", "Admin"}, grpc.Services)
	assert.Equal(t, "pets.v1", grpc.Package)
	assert.Equal(t, "Pet service multi line", grpc.Description)

	require.Len(t, res.PostmanCollections, 1)
	assert.Equal(t, "Pets", res.PostmanCollections[0].Name)
	assert.Equal(t, "postman.json", res.PostmanCollections[0].File)
}

func TestDetectEmptyRepository(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"README.md": "# hi\n"})

	res, err := quietDetector().Detect(context.Background(), workspace.Repository{Name: "plain", Root: root})
	require.NoError(t, err)
	assert.False(t, res.HasAnyAPIs)
	assert.Empty(t, res.RecommendedButtons)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rest":[]`)
	assert.Contains(t, string(data), `"recommendedButtons":[]`)
	assert.NotContains(t, string(data), "postmanCollections")
}

func TestDetectExclude(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"vendor/openapi.yaml": petStoreYAML,
		"svc.proto":           petProto,
	})

	d := quietDetector()
	d.Exclude = []string{"vendor/**"}
	res, err := d.Detect(context.Background(), workspace.Repository{Name: "r", Root: root})
	require.NoError(t, err)
	assert.Empty(t, res.APIs.REST)
	assert.Len(t, res.APIs.GRPC, 1)
	assert.Equal(t, []Button{ButtonGRPC, ButtonPostman}, res.RecommendedButtons)
}

func TestDetectMissingRepository(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	_, err := quietDetector().Detect(context.Background(), workspace.Repository{Name: "gone", Root: missing})
	require.Error(t, err)
	assert.ErrorIs(t, err, workspace.ErrRepositoryNotFound)
}

func TestDetectCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"svc.proto": petProto})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietDetector().Detect(ctx, workspace.Repository{Name: "r", Root: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectAll(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a/openapi.yaml": petStoreYAML,
		"b/schema.gql":   "type Query { a: Int }\n",
		"c/README.md":    "# c\n",
	})

	repos := []workspace.Repository{
		{Name: "a", Root: filepath.Join(dir, "a")},
		{Name: "missing", Root: filepath.Join(dir, "missing")},
		{Name: "b", Root: filepath.Join(dir, "b")},
		{Name: "c", Root: filepath.Join(dir, "c")},
	}

	d := quietDetector()
	d.Concurrency = 2
	results := d.DetectAll(context.Background(), repos)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Repository)
	assert.Equal(t, "b", results[1].Repository)
	assert.Equal(t, "c", results[2].Repository)
	assert.Len(t, results[0].APIs.REST, 1)
	assert.Len(t, results[1].APIs.GraphQL, 1)
	assert.False(t, results[2].HasAnyAPIs)
}

func TestIsOpenAPI(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"openapi: 3.1.0\n", true},
		{"swagger: '2.0'\n", true},
		{`{"openapi": "3.0.0"}`, true},
		{`{"swagger": "2.0"}`, true},
		{"info:\n  title: x\npaths:\n  /a: {}\n", true},
		{`{"info": {}, "paths": {}}`, true},
		{"info:\n  title: x\n", false},
		{`{"name": "app", "version": "1.0.0"}`, false},
		{"", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsOpenAPI(tc.content), tc.content)
	}
}

func TestParseRESTQuotedValues(t *testing.T) {
	api := ParseREST("spec.yml", "swagger: '2.0'\ninfo:\n  title: 'Quoted Title'\n  version: \"3.1\"\n")
	assert.Equal(t, "spec.yml", api.File)
	assert.Equal(t, "Quoted Title", api.Title)
	assert.Equal(t, "3.1", api.Version)
	assert.Empty(t, api.Description)
	assert.Empty(t, api.Servers)
}

func TestExtractServersJSONIgnoresLaterURLs(t *testing.T) {
	content := `{"servers":[{"url":"https://a.example.com","description":"[beta]"}],"externalDocs":{"url":"https://docs.example.com"}}`
	assert.Equal(t, []string{"https://a.example.com"}, extractServers(content))
}

func TestGraphQLType(t *testing.T) {
	tests := []struct {
		file    string
		content string
		want    GraphQLType
	}{
		{"queries/get-user.graphql", "query {\n  user { id }\n}\n", GraphQLQuery},
		{"ops.gql", "mutation {\n  addPet\n}\n", GraphQLMutation},
		{"live.graphql", "subscription { pets }\n", GraphQLSubscription},
		{"example-requests.graphql", "query { a }\n", GraphQLExample},
		{"sample.gql", "mutation { a }\n", GraphQLExample},
		{"user-mutation.graphql", "type Query { a: Int }\n", GraphQLMutation},
		{"api.graphql", "type Query { a: Int }\n", GraphQLSchema},
		{"scalars.graphql", "scalar Date\n", GraphQLSchema},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseGraphQL(tc.file, tc.content).Type, tc.file)
	}
}

func TestLeadingComment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		style   commentStyle
		want    string
	}{
		{"hash lines", "# Pets\n\n# API\ntype Query { a: Int }\n# later\n", hashComments, "Pets API"},
		{"triple quote block", "\"\"\"\nThe root schema\nfor pets\n\"\"\"\ntype Query { a: Int }\n", hashComments, "The root schema for pets"},
		{"triple quote single line", "\"\"\"Pets API\"\"\"\ntype Query { a: Int }\n", hashComments, "Pets API"},
		{"no header", "type Query { a: Int }\n# trailing\n", hashComments, ""},
		{"slash lines", "// Orders\n// service\nsyntax = \"proto3\";\n", slashComments, "Orders service"},
		{"javadoc block", "/**\n * Billing\n * gateway\n */\nsyntax = \"proto3\";\n", slashComments, "Billing gateway"},
		{"crlf", "// Orders\r\n// service\r\nsyntax = \"proto3\";\r\n", slashComments, "Orders service"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, leadingComment(tc.content, tc.style))
		})
	}
}

func TestParseGRPCWithoutServices(t *testing.T) {
	api := ParseGRPC("msgs.proto", "syntax = \"proto3\";\nmessage Pet { string id = 1; }\n")
	assert.NotNil(t, api.Services)
	assert.Empty(t, api.Services)
	assert.Empty(t, api.Package)
	assert.Empty(t, api.Description)
}

func TestParsePostman(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		ok   bool
		want string
	}{
		{"collection", "collections/pets.postman_collection.json", `{"info":{"name":"Pets","version":"1"},"item":[]}`, true, "Pets"},
		{"default name", "postman.json", `{"info":{},"item":[]}`, true, "Postman Collection"},
		{"no postman in name", "pets.json", `{"info":{"name":"Pets"},"item":[]}`, false, ""},
		{"no items", "postman.json", `{"info":{"name":"Pets"}}`, false, ""},
		{"invalid json", "postman.json", `{"info":`, false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := parsePostman(tc.file, []byte(tc.data))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, c.Name)
		})
	}
}

func TestHasAPIDocs(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  bool
	}{
		{"openapi file", map[string]string{"docs/openapi.yaml": "x"}, true},
		{"api.yml", map[string]string{"api.yml": "x"}, true},
		{"proto", map[string]string{"pkg/svc.proto": "x"}, true},
		{"gql", map[string]string{"schema.gql": "x"}, true},
		{"readme only", map[string]string{"README.md": "x"}, false},
		{"pruned dir", map[string]string{"node_modules/a/swagger.json": "x"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tc.files)
			assert.Equal(t, tc.want, HasAPIDocs(root))
		})
	}
}

func TestButtons(t *testing.T) {
	res := newResult("pets", APIs{
		REST:    []RestAPI{{File: "a.yaml"}, {File: "b.yaml"}},
		GraphQL: []GraphQLAPI{{File: "s.graphql", Type: GraphQLSchema}},
	})

	cfg := Buttons(res)
	assert.Equal(t, "pets", cfg.Repository)
	assert.True(t, cfg.HasAPIs)
	assert.Equal(t, Summary{REST: 2, GraphQL: 1, GRPC: 0, Total: 3}, cfg.Summary)
	require.Len(t, cfg.Buttons, 3)
	assert.Equal(t, "Swagger UI (2 APIs)", cfg.Buttons[0].Label)
	assert.Equal(t, "/swagger/pets", cfg.Buttons[0].URL)
	assert.Equal(t, "GraphQL Playground (1 schemas)", cfg.Buttons[1].Label)
	assert.Equal(t, ButtonPostman, cfg.Buttons[2].Type)
	assert.Equal(t, "Postman Collection (3 APIs)", cfg.Buttons[2].Label)

	empty := Buttons(newResult("none", APIs{}))
	assert.False(t, empty.HasAPIs)
	assert.NotNil(t, empty.Buttons)
	assert.Empty(t, empty.Buttons)
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"pets/openapi.yaml": petStoreYAML,
		".cache/keep":       "",
	})
	ws, err := workspace.New(dir)
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, ws, quietDetector())

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/detect-apis/pets")
	require.Equal(t, http.StatusOK, rec.Code)
	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "pets", res.Repository)
	assert.Len(t, res.APIs.REST, 1)

	rec = get("/api/api-buttons/pets")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg ButtonConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	require.Len(t, cfg.Buttons, 2)
	assert.Equal(t, "Swagger UI (1 APIs)", cfg.Buttons[0].Label)

	rec = get("/api/detect-apis")
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		Repositories []Result `json:"repositories"`
		Total        int      `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Equal(t, 1, all.Total)

	assert.Equal(t, http.StatusNotFound, get("/api/detect-apis/missing").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/api-buttons/.cache").Code)
}
