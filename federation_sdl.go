package nodefilter

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
)

// federationTypes are served by every subgraph and left out of its SDL
var federationTypes = map[string]bool{
	anyTypeName:       true,
	entityTypeName:    true,
	serviceTypeName:   true,
	serviceFieldName:  true,
	entitiesFieldName: true,
}

// ExportFederationSDL exports the GraphQL schema as SDL with Apollo
// Federation v2 annotations. Entities are the members of the _Entity union;
// a schema without one is printed without @key directives.
func ExportFederationSDL(schema graphql.Schema) string {
	entities := make(map[string]bool)
	if union, ok := schema.Type(entityTypeName).(*graphql.Union); ok {
		for _, member := range union.Types() {
			entities[member.Name()] = true
		}
	}

	var sdl strings.Builder
	fmt.Fprintf(&sdl, "extend schema\n  @link(url: %q,\n        import: [\"@key\"])\n\n", federationSpecURL)

	sdl.WriteString(exportSDL(schema, sdlOptions{
		skip: federationTypes,
		directives: func(obj *graphql.Object) string {
			if !entities[obj.Name()] {
				return ""
			}
			return fmt.Sprintf(" @key(fields: %q)", entityKeyFields)
		},
	}))

	return sdl.String()
}

// exportConfiguredSDL prints schema the way config serves it
func exportConfiguredSDL(schema graphql.Schema, config *Config) string {
	if config.EnableFederation {
		return ExportFederationSDL(schema)
	}
	return ExportSDL(schema)
}
