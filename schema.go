package nodefilter

import (
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"
)

// SchemaGenerator generates GraphQL schemas from content type samples
type SchemaGenerator struct {
	config          *Config
	logger          *slog.Logger
	typeCache       map[string]*graphql.Object
	nodeTypes       map[string]*graphql.Object
	filters         map[string]FilterTypes
	resolverBuilder *ResolverBuilder
	sortOrderType   *graphql.Enum
}

// NewSchemaGenerator creates a new schema generator. resolverBuilder may be
// nil when the schema is only exported, never executed.
func NewSchemaGenerator(config *Config, resolverBuilder *ResolverBuilder) *SchemaGenerator {
	sg := &SchemaGenerator{
		config:          config,
		logger:          config.logger(),
		typeCache:       make(map[string]*graphql.Object),
		nodeTypes:       make(map[string]*graphql.Object),
		filters:         make(map[string]FilterTypes),
		resolverBuilder: resolverBuilder,
	}

	sg.sortOrderType = sg.createSortOrderType()

	return sg
}

// Generate generates a complete GraphQL schema. Filter types are rebuilt from
// the samples on every call.
func (sg *SchemaGenerator) Generate() (graphql.Schema, error) {
	typeNames := sg.config.TypeNames()
	samples := make(map[string]map[string]any, len(typeNames))

	// Node types reference each other, so all of them exist before any
	// field thunk runs
	for _, typeName := range typeNames {
		if !isFieldName(typeName) {
			return graphql.Schema{}, fmt.Errorf("invalid content type name %q", typeName)
		}

		fields := sg.sampleFields(typeName)
		samples[typeName] = fields

		filters := CreateFilterTypes(fields, typeName)
		for _, name := range sortedKeys(fields) {
			if _, ok := filters[name]; !ok {
				sg.logger.Debug("field has no filter", "type", typeName, "field", name)
			}
		}
		sg.filters[typeName] = filters
		if sg.resolverBuilder != nil {
			sg.resolverBuilder.reader.Register(typeName, filters)
		}

		sg.nodeTypes[typeName] = sg.generateNodeType(typeName, fields)
	}

	queryFields := graphql.Fields{}
	for _, typeName := range typeNames {
		nodeType := sg.nodeTypes[typeName]
		singleName := lowerFirst(typeName)
		allName := "all" + typeName

		queryFields[singleName] = &graphql.Field{
			Type:        nodeType,
			Description: fmt.Sprintf("Get a single %s node by id", typeName),
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.ID),
				},
			},
			Resolve: sg.nodeResolver(typeName),
		}

		queryFields[allName] = &graphql.Field{
			Type:        sg.generateConnectionType(typeName, nodeType),
			Description: fmt.Sprintf("Find %s nodes", typeName),
			Args:        sg.generateQueryArguments(typeName),
			Resolve:     sg.listResolver(typeName),
		}

		sg.logger.Info("content type added",
			"type", typeName,
			"fields", len(samples[typeName]),
			"filters", len(sg.filters[typeName]))
	}

	if len(queryFields) == 0 {
		return graphql.Schema{}, fmt.Errorf("no content types configured")
	}

	// If QueryNamespace is set, wrap all queries in a namespace object
	var rootQueryFields graphql.Fields
	if sg.config.QueryNamespace != "" {
		namespace := PascalCase(sg.config.QueryNamespace)
		if namespace == "" {
			return graphql.Schema{}, fmt.Errorf("invalid query namespace %q", sg.config.QueryNamespace)
		}
		namespaceTypeName := namespace + "Entity"
		namespaceType := graphql.NewObject(graphql.ObjectConfig{
			Name:        namespaceTypeName,
			Description: fmt.Sprintf("Grouped queries for %s", sg.config.QueryNamespace),
			Fields:      queryFields,
		})

		rootQueryFields = graphql.Fields{
			lowerFirst(namespace): &graphql.Field{
				Type:        namespaceType,
				Description: fmt.Sprintf("Access %s queries", sg.config.QueryNamespace),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					// Fields below resolve independently
					return map[string]any{}, nil
				},
			},
		}
	} else {
		rootQueryFields = queryFields
	}

	// Federation fields always sit on the root Query type
	if sg.config.EnableFederation {
		for name, field := range sg.federationFields(typeNames) {
			rootQueryFields[name] = field
		}
	}

	schemaConfig := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: rootQueryFields,
		}),
	}

	if sg.config.EnableFederation {
		schemaConfig.Directives = append(
			[]*graphql.Directive{
				graphql.IncludeDirective,
				graphql.SkipDirective,
				graphql.DeprecatedDirective,
			},
			GetFederationDirectives()...,
		)
	}

	return graphql.NewSchema(schemaConfig)
}

// Filters returns the filter types generated for typeName
func (sg *SchemaGenerator) Filters(typeName string) FilterTypes {
	return sg.filters[typeName]
}

// sampleFields returns the samples of typeName without the fields whose names
// GraphQL cannot express
func (sg *SchemaGenerator) sampleFields(typeName string) map[string]any {
	raw := sg.config.ContentTypes[typeName].SampleFields()
	fields := make(map[string]any, len(raw))
	for name, sample := range raw {
		if !isFieldName(name) {
			sg.logger.Debug("skipping field with invalid name", "type", typeName, "field", name)
			continue
		}
		fields[name] = sample
	}
	return fields
}

// generateNodeType creates the object type for the nodes of typeName
func (sg *SchemaGenerator) generateNodeType(typeName string, samples map[string]any) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        typeName,
		Description: sg.config.ContentTypes[typeName].Description,
		Fields: (graphql.FieldsThunk)(func() graphql.Fields {
			fields := graphql.Fields{
				"id": &graphql.Field{Type: graphql.ID},
			}
			for _, name := range sortedKeys(samples) {
				if name == "id" {
					continue
				}
				if field := sg.generateField(typeName, FieldPath{name}, samples[name]); field != nil {
					fields[name] = field
				}
			}
			return fields
		}),
	})
}

// generateField converts a sample to an output field. Reference fields
// resolve to the referenced node type when it is configured and to the
// raw ids otherwise.
func (sg *SchemaGenerator) generateField(typeName string, path FieldPath, sample any) *graphql.Field {
	if ref, ok := Classify(sample).(Reference); ok {
		target, ok := sg.nodeTypes[ref.TypeName]
		if !ok {
			if ref.IsList {
				return &graphql.Field{Type: graphql.NewList(graphql.String)}
			}
			return &graphql.Field{Type: graphql.String}
		}

		field := &graphql.Field{Type: target}
		if ref.IsList {
			field.Type = graphql.NewList(target)
		}
		if sg.resolverBuilder != nil {
			field.Resolve = sg.resolverBuilder.BuildReferenceResolver(path[len(path)-1], ref)
		}
		return field
	}

	outputType := sg.outputType(typeName, path, sample)
	if outputType == nil {
		return nil
	}
	return &graphql.Field{Type: outputType}
}

// outputType maps a sample to its GraphQL output type
func (sg *SchemaGenerator) outputType(typeName string, path FieldPath, sample any) graphql.Output {
	switch v := Classify(sample).(type) {
	case DateValue, StringValue:
		return graphql.String
	case BoolValue:
		return graphql.Boolean
	case NumberValue:
		return MapScalar(v).GraphQLType()
	case ListValue:
		if len(v) == 0 {
			return nil
		}
		element := sg.outputType(typeName, path, v[0])
		if element == nil {
			return nil
		}
		return graphql.NewList(element)
	case ObjectValue:
		return sg.generateObjectType(typeName, path, v)
	}
	return nil
}

// generateObjectType creates the type of a nested object, e.g.
// Post.author → PostAuthorObject
func (sg *SchemaGenerator) generateObjectType(typeName string, path FieldPath, obj ObjectValue) graphql.Output {
	parts := append([]string{typeName}, path...)
	name := PascalCase(parts...) + "Object"

	if cachedType, ok := sg.typeCache[name]; ok {
		return cachedType
	}

	fields := graphql.Fields{}
	for _, key := range sortedKeys(obj) {
		if !isFieldName(key) {
			continue
		}
		if field := sg.generateField(typeName, path.Child(key), obj[key]); field != nil {
			fields[key] = field
		}
	}
	if len(fields) == 0 {
		return nil
	}

	objType := graphql.NewObject(graphql.ObjectConfig{
		Name:   name,
		Fields: fields,
	})
	sg.typeCache[name] = objType
	return objType
}

// generateConnectionType creates the result type of all<Type>
func (sg *SchemaGenerator) generateConnectionType(typeName string, nodeType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: typeName + "Connection",
		Fields: graphql.Fields{
			"totalCount": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of matching nodes before paging",
			},
			"nodes": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "The matching nodes",
			},
		},
	})
}

// generateQueryArguments creates the arguments of all<Type>
func (sg *SchemaGenerator) generateQueryArguments(typeName string) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		ArgSortBy: &graphql.ArgumentConfig{
			Type:        graphql.String,
			Description: "Dotted path of the property to sort by",
		},
		ArgOrder: &graphql.ArgumentConfig{
			Type:         sg.sortOrderType,
			DefaultValue: string(SortAsc),
		},
		ArgLimit: &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
		ArgSkip: &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
	}

	if filters := sg.filters[typeName]; len(filters) > 0 {
		args[ArgFilter] = &graphql.ArgumentConfig{
			Type: graphql.NewInputObject(graphql.InputObjectConfig{
				Name:        typeName + "Filters",
				Description: fmt.Sprintf("Filter %s nodes", typeName),
				Fields:      filters.InputFields(),
			}),
		}
	}

	return args
}

// createSortOrderType creates the shared SortOrder enum
func (sg *SchemaGenerator) createSortOrderType() *graphql.Enum {
	return graphql.NewEnum(graphql.EnumConfig{
		Name: "SortOrder",
		Values: graphql.EnumValueConfigMap{
			string(SortAsc): &graphql.EnumValueConfig{
				Value:       string(SortAsc),
				Description: "Ascending",
			},
			string(SortDesc): &graphql.EnumValueConfig{
				Value:       string(SortDesc),
				Description: "Descending",
			},
		},
	})
}

func (sg *SchemaGenerator) listResolver(typeName string) graphql.FieldResolveFn {
	if sg.resolverBuilder == nil {
		return nil
	}
	return sg.resolverBuilder.BuildListResolver(typeName)
}

func (sg *SchemaGenerator) nodeResolver(typeName string) graphql.FieldResolveFn {
	if sg.resolverBuilder == nil {
		return nil
	}
	return sg.resolverBuilder.BuildNodeResolver(typeName)
}
