package apidetect

import "fmt"

// Buttons renders the button configuration for a detection result.
func Buttons(res *Result) ButtonConfig {
	sum := Summary{
		REST:    len(res.APIs.REST),
		GraphQL: len(res.APIs.GraphQL),
		GRPC:    len(res.APIs.GRPC),
	}
	sum.Total = sum.REST + sum.GraphQL + sum.GRPC

	cfg := ButtonConfig{
		Repository: res.Repository,
		HasAPIs:    res.HasAnyAPIs,
		Buttons:    []ButtonSettings{},
		Summary:    sum,
	}
	for _, b := range res.RecommendedButtons {
		switch b {
		case ButtonSwagger:
			cfg.Buttons = append(cfg.Buttons, ButtonSettings{
				Type:        b,
				Label:       fmt.Sprintf("Swagger UI (%d APIs)", sum.REST),
				Color:       "green",
				URL:         "/swagger/" + res.Repository,
				Description: "Explore REST/OpenAPI specifications",
			})
		case ButtonGraphQL:
			cfg.Buttons = append(cfg.Buttons, ButtonSettings{
				Type:        b,
				Label:       fmt.Sprintf("GraphQL Playground (%d schemas)", sum.GraphQL),
				Color:       "pink",
				URL:         "/graphql/" + res.Repository,
				Description: "Explore GraphQL schemas and run queries",
			})
		case ButtonGRPC:
			cfg.Buttons = append(cfg.Buttons, ButtonSettings{
				Type:        b,
				Label:       fmt.Sprintf("gRPC UI (%d services)", sum.GRPC),
				Color:       "blue",
				URL:         "/grpc/" + res.Repository,
				Description: "Explore gRPC service definitions",
			})
		case ButtonPostman:
			cfg.Buttons = append(cfg.Buttons, ButtonSettings{
				Type:        b,
				Label:       fmt.Sprintf("Postman Collection (%d APIs)", sum.Total),
				Color:       "orange",
				URL:         "/api/postman/" + res.Repository,
				Description: "Download Postman collection for API testing",
			})
		}
	}
	return cfg
}
