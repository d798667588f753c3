package nodefilter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/graphql-go/graphql"
)

// GraphQLAPI is the main GraphQL server
type GraphQLAPI struct {
	backend Backend
	schema  graphql.Schema
	config  *Config
	logger  *slog.Logger
}

// New creates a new GraphQL API serving the configured content types from
// backend
func New(backend Backend, config *Config) (*GraphQLAPI, error) {
	api := &GraphQLAPI{
		backend: backend,
		config:  config,
		logger:  config.logger(),
	}

	resolverBuilder := NewResolverBuilder(backend)

	generator := NewSchemaGenerator(config, resolverBuilder)
	schema, err := generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	api.schema = schema

	return api, nil
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// ServeHTTP implements http.Handler
func (api *GraphQLAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		// Serve GraphiQL for GET requests
		api.serveGraphiQL(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.logger.Warn("failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         api.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	if result.HasErrors() {
		api.logger.Debug("query returned errors",
			"operation", req.OperationName,
			"errors", len(result.Errors))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		api.logger.Error("failed to encode response", "error", err)
		return
	}
}

// serveGraphiQL serves the GraphiQL interface
func (api *GraphQLAPI) serveGraphiQL(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write([]byte(graphiQLHTML)); err != nil {
		api.logger.Debug("failed to write GraphiQL page", "error", err)
	}
}

// GetSchema returns the generated GraphQL schema
func (api *GraphQLAPI) GetSchema() graphql.Schema {
	return api.schema
}

// ExportSDL exports the schema as SDL (Schema Definition Language),
// with federation annotations when federation is enabled
func (api *GraphQLAPI) ExportSDL() string {
	return exportConfiguredSDL(api.schema, api.config)
}

const graphiQLHTML = `
<!DOCTYPE html>
<html>
<head>
  <title>GraphiQL</title>
  <style>
    body {
      height: 100vh;
      margin: 0;
      overflow: hidden;
    }
    #graphiql {
      height: 100vh;
    }
  </style>
  <link href="https://unpkg.com/graphiql/graphiql.min.css" rel="stylesheet" />
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script
    crossorigin
    src="https://unpkg.com/react/umd/react.production.min.js"
  ></script>
  <script
    crossorigin
    src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"
  ></script>
  <script
    crossorigin
    src="https://unpkg.com/graphiql/graphiql.min.js"
  ></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher: fetcher }),
      document.getElementById('graphiql'),
    );
  </script>
</body>
</html>
`
