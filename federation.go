package nodefilter

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Apollo Federation v2.3 support
//
// With federation enabled every node type becomes an entity keyed by its id,
// so a supergraph router can join nodes into types owned by other subgraphs.

const (
	federationSpecURL = "https://specs.apollo.dev/federation/v2.3"

	entityKeyFields = "id"

	anyTypeName     = "_Any"
	entityTypeName  = "_Entity"
	serviceTypeName = "_Service"

	serviceFieldName  = "_service"
	entitiesFieldName = "_entities"
)

var (
	// LinkDirective links to external specifications (federation v2)
	LinkDirective *graphql.Directive

	// KeyDirective marks an entity with a primary key
	KeyDirective *graphql.Directive

	// AnyScalar carries entity representations sent by the router
	AnyScalar *graphql.Scalar

	// ServiceType is the result type of the _service query
	ServiceType *graphql.Object

	federationOnce sync.Once
)

func initFederationTypes() {
	federationOnce.Do(func() {
		LinkDirective = graphql.NewDirective(graphql.DirectiveConfig{
			Name:        "link",
			Description: "Links to an external specification",
			Locations:   []string{graphql.DirectiveLocationSchema},
			Args: graphql.FieldConfigArgument{
				"url": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"import": &graphql.ArgumentConfig{
					Type: graphql.NewList(graphql.String),
				},
			},
		})

		KeyDirective = graphql.NewDirective(graphql.DirectiveConfig{
			Name:        "key",
			Description: "Designates an object type as an entity and specifies its key fields",
			Locations:   []string{graphql.DirectiveLocationObject},
			Args: graphql.FieldConfigArgument{
				"fields": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
				"resolvable": &graphql.ArgumentConfig{
					Type: graphql.Boolean,
				},
			},
		})

		AnyScalar = graphql.NewScalar(graphql.ScalarConfig{
			Name:         anyTypeName,
			Serialize:    func(value any) any { return value },
			ParseValue:   func(value any) any { return value },
			ParseLiteral: parseAnyLiteral,
		})

		ServiceType = graphql.NewObject(graphql.ObjectConfig{
			Name: serviceTypeName,
			Fields: graphql.Fields{
				"sdl": &graphql.Field{Type: graphql.String},
			},
		})
	})
}

// GetFederationDirectives returns all federation directives
func GetFederationDirectives() []*graphql.Directive {
	initFederationTypes()
	return []*graphql.Directive{
		LinkDirective,
		KeyDirective,
	}
}

// parseAnyLiteral converts an inline representation to plain Go values
func parseAnyLiteral(value ast.Value) any {
	switch v := value.(type) {
	case *ast.ObjectValue:
		obj := make(map[string]any, len(v.Fields))
		for _, field := range v.Fields {
			obj[field.Name.Value] = parseAnyLiteral(field.Value)
		}
		return obj
	case *ast.ListValue:
		list := make([]any, len(v.Values))
		for i, item := range v.Values {
			list[i] = parseAnyLiteral(item)
		}
		return list
	case *ast.StringValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.IntValue:
		if n, err := strconv.Atoi(v.Value); err == nil {
			return n
		}
		return nil
	case *ast.FloatValue:
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
		return nil
	}
	return nil
}

// ParseEntityRepresentation splits a representation into its __typename and
// key fields
func ParseEntityRepresentation(repr any) (string, map[string]any, error) {
	fields, ok := asMap(repr)
	if !ok {
		return "", nil, fmt.Errorf("representation must be an object, got %T", repr)
	}

	typename, ok := fields["__typename"].(string)
	if !ok || typename == "" {
		return "", nil, fmt.Errorf("representation is missing __typename")
	}

	keys := make(map[string]any, len(fields)-1)
	for name, value := range fields {
		if name != "__typename" {
			keys[name] = value
		}
	}
	return typename, keys, nil
}

// federationFields creates the _service and _entities root fields
func (sg *SchemaGenerator) federationFields(typeNames []string) graphql.Fields {
	initFederationTypes()

	members := make([]*graphql.Object, len(typeNames))
	for i, name := range typeNames {
		members[i] = sg.nodeTypes[name]
	}

	entityUnion := graphql.NewUnion(graphql.UnionConfig{
		Name:  entityTypeName,
		Types: members,
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			node, ok := asMap(p.Value)
			if !ok {
				return nil
			}
			typename, _ := node["__typename"].(string)
			return sg.nodeTypes[typename]
		},
	})

	entities := &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(entityUnion)),
		Args: graphql.FieldConfigArgument{
			"representations": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(AnyScalar))),
			},
		},
	}
	if sg.resolverBuilder != nil {
		entities.Resolve = NewEntityResolver(sg.resolverBuilder.backend, typeNames).ResolveEntities
	}

	return graphql.Fields{
		serviceFieldName: &graphql.Field{
			Type: graphql.NewNonNull(ServiceType),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return map[string]any{"sdl": ExportFederationSDL(p.Info.Schema)}, nil
			},
		},
		entitiesFieldName: entities,
	}
}
