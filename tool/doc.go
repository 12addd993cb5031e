// Package tool holds the tools the agent can offer to the model.
//
// Tools are registered once in a Registry at startup and looked up by name
// when the model requests them. NewTyped builds a handler from a Go function
// and reflects the JSON schema of its argument struct with
// github.com/invopop/jsonschema:
//
//	type WeatherArgs struct {
//		City string `json:"city" jsonschema:"description=The city name"`
//	}
//
//	weather, err := tool.NewTyped("weather", "Current weather for a city",
//		func(ctx context.Context, args WeatherArgs) (string, error) {
//			return lookup(ctx, args.City)
//		})
//
// RetrieveContext returns the knowledge base search tool used by the agent.
package tool
