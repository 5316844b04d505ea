// Package apidetect classifies the API definition files of a repository as
// REST/OpenAPI, GraphQL or gRPC and derives which explorer buttons the portal
// shows for it.
package apidetect

// RestAPI is an OpenAPI or Swagger document.
type RestAPI struct {
	File        string   `json:"file"`
	Title       string   `json:"title,omitempty"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Servers     []string `json:"servers,omitempty"`
}

// GraphQLType is the kind of GraphQL document.
type GraphQLType string

const (
	GraphQLSchema       GraphQLType = "schema"
	GraphQLQuery        GraphQLType = "query"
	GraphQLMutation     GraphQLType = "mutation"
	GraphQLSubscription GraphQLType = "subscription"
	GraphQLExample      GraphQLType = "example"
)

// GraphQLAPI is a .graphql or .gql document.
type GraphQLAPI struct {
	File        string      `json:"file"`
	Type        GraphQLType `json:"type"`
	Description string      `json:"description,omitempty"`
}

// GRPCAPI is a .proto file.
type GRPCAPI struct {
	File        string   `json:"file"`
	Services    []string `json:"services"`
	Package     string   `json:"package,omitempty"`
	Description string   `json:"description,omitempty"`
}

// PostmanCollection is a Postman collection file shipped in the repository.
// Collections are listed for the portal but take no part in classification.
type PostmanCollection struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// APIs groups detected definitions by kind. A file appears in at most one list.
type APIs struct {
	REST    []RestAPI    `json:"rest"`
	GraphQL []GraphQLAPI `json:"graphql"`
	GRPC    []GRPCAPI    `json:"grpc"`
}

// Button is an explorer the portal can offer for a repository.
type Button string

const (
	ButtonSwagger Button = "swagger"
	ButtonGraphQL Button = "graphql"
	ButtonGRPC    Button = "grpc"
	ButtonPostman Button = "postman"
)

// Result is the detection outcome for one repository.
type Result struct {
	Repository         string              `json:"repository"`
	APIs               APIs                `json:"apis"`
	HasAnyAPIs         bool                `json:"hasAnyApis"`
	RecommendedButtons []Button            `json:"recommendedButtons"`
	PostmanCollections []PostmanCollection `json:"postmanCollections,omitempty"`
}

// RecommendedButtons derives the button list from the number of definitions of
// each kind: swagger for REST, graphql for GraphQL, grpc for gRPC, and postman
// when any are present, always in that order.
func RecommendedButtons(rest, graphql, grpc int) []Button {
	buttons := []Button{}
	if rest > 0 {
		buttons = append(buttons, ButtonSwagger)
	}
	if graphql > 0 {
		buttons = append(buttons, ButtonGraphQL)
	}
	if grpc > 0 {
		buttons = append(buttons, ButtonGRPC)
	}
	if rest > 0 || graphql > 0 || grpc > 0 {
		buttons = append(buttons, ButtonPostman)
	}
	return buttons
}

func newResult(repo string, apis APIs) *Result {
	if apis.REST == nil {
		apis.REST = []RestAPI{}
	}
	if apis.GraphQL == nil {
		apis.GraphQL = []GraphQLAPI{}
	}
	if apis.GRPC == nil {
		apis.GRPC = []GRPCAPI{}
	}
	rest, gql, grpc := len(apis.REST), len(apis.GraphQL), len(apis.GRPC)
	return &Result{
		Repository:         repo,
		APIs:               apis,
		HasAnyAPIs:         rest+gql+grpc > 0,
		RecommendedButtons: RecommendedButtons(rest, gql, grpc),
	}
}

// ButtonConfig describes the explorer buttons with their labels and targets.
type ButtonConfig struct {
	Repository string           `json:"repository"`
	HasAPIs    bool             `json:"hasApis"`
	Buttons    []ButtonSettings `json:"buttons"`
	Summary    Summary          `json:"summary"`
}

// ButtonSettings is one rendered button.
type ButtonSettings struct {
	Type        Button `json:"type"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Summary counts definitions by kind.
type Summary struct {
	REST    int `json:"rest"`
	GraphQL int `json:"graphql"`
	GRPC    int `json:"grpc"`
	Total   int `json:"total"`
}
