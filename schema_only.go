package nodefilter

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

// GenerateSchemaSDL generates the GraphQL schema SDL without a backend.
// Useful for CI pipelines, schema review, client code generation and
// supergraph composition when federation is enabled.
//
// Example:
//
//	content, err := LoadContentDir("content")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sdl, err := GenerateSchemaSDL(NewConfig(WithContent(content)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sdl)
func GenerateSchemaSDL(config *Config) (string, error) {
	schema, err := GenerateSchema(config)
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}
	return exportConfiguredSDL(schema, config), nil
}

// GenerateSchema generates just the GraphQL schema object without a backend.
//
// Note: The returned schema has nil resolvers and cannot execute queries.
// Use New() if you need a fully functional API.
func GenerateSchema(config *Config) (graphql.Schema, error) {
	generator := NewSchemaGenerator(config, nil)
	return generator.Generate()
}
