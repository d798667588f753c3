package nodefilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	gqlparser "github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// ExportSDL exports the GraphQL schema as SDL (Schema Definition Language).
// Types are printed sorted by name, the Query type last.
func ExportSDL(schema graphql.Schema) string {
	return exportSDL(schema, sdlOptions{})
}

// sdlOptions adjusts the printed schema
type sdlOptions struct {
	// skip names types and Query fields left out of the output
	skip map[string]bool
	// directives returns the directives printed after an object type's name
	directives func(*graphql.Object) string
}

func exportSDL(schema graphql.Schema, opts sdlOptions) string {
	var sdl strings.Builder

	typeMap := schema.TypeMap()

	// Get all type names and sort for consistent output
	var typeNames []string
	for typeName := range typeMap {
		// Skip introspection types
		if strings.HasPrefix(typeName, "__") || opts.skip[typeName] {
			continue
		}
		typeNames = append(typeNames, typeName)
	}
	sort.Strings(typeNames)

	for _, typeName := range typeNames {
		switch t := typeMap[typeName].(type) {
		case *graphql.Object:
			if typeName == "Query" {
				continue
			}
			sdl.WriteString(exportObjectType(t, opts))
			sdl.WriteString("\n")

		case *graphql.Enum:
			sdl.WriteString(exportEnumType(t))
			sdl.WriteString("\n")

		case *graphql.InputObject:
			sdl.WriteString(exportInputObjectType(t))
			sdl.WriteString("\n")
		}
	}

	if queryType := schema.QueryType(); queryType != nil {
		sdl.WriteString(exportObjectType(queryType, opts))
	}

	return sdl.String()
}

// ValidateSDL parses sdl as a complete schema
func ValidateSDL(sdl string) error {
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl}); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

func exportDescription(sdl *strings.Builder, indent, description string) {
	if description == "" {
		return
	}
	description = strings.ReplaceAll(description, `"""`, `\"""`)
	fmt.Fprintf(sdl, "%s\"\"\"%s\"\"\"\n", indent, description)
}

// exportObjectType exports a GraphQL object type as SDL
func exportObjectType(objType *graphql.Object, opts sdlOptions) string {
	var sdl strings.Builder

	var directives string
	if opts.directives != nil {
		directives = opts.directives(objType)
	}

	exportDescription(&sdl, "", objType.Description())
	fmt.Fprintf(&sdl, "type %s%s {\n", objType.Name(), directives)

	fields := objType.Fields()
	for _, fieldName := range sortedKeys(fields) {
		if opts.skip[fieldName] {
			continue
		}
		field := fields[fieldName]

		exportDescription(&sdl, "  ", field.Description)
		fmt.Fprintf(&sdl, "  %s%s: %s\n", fieldName, exportArgs(field.Args), exportType(field.Type))
	}

	sdl.WriteString("}\n")
	return sdl.String()
}

// exportArgs prints field arguments sorted by name
func exportArgs(args []*graphql.Argument) string {
	if len(args) == 0 {
		return ""
	}

	sorted := make([]*graphql.Argument, len(args))
	copy(sorted, args)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name() < sorted[j].Name()
	})

	parts := make([]string, len(sorted))
	for i, arg := range sorted {
		part := fmt.Sprintf("%s: %s", arg.Name(), exportType(arg.Type))
		if arg.DefaultValue != nil {
			part += " = " + exportValue(arg.Type, arg.DefaultValue)
		}
		parts[i] = part
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// exportValue prints a default value. Enum values print by name.
func exportValue(t graphql.Input, value any) string {
	if enum, ok := t.(*graphql.Enum); ok {
		for _, v := range enum.Values() {
			if v.Value == value {
				return v.Name
			}
		}
	}
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(value)
}

// exportEnumType exports a GraphQL enum type as SDL
func exportEnumType(enumType *graphql.Enum) string {
	var sdl strings.Builder

	exportDescription(&sdl, "", enumType.Description())
	fmt.Fprintf(&sdl, "enum %s {\n", enumType.Name())

	for _, value := range enumType.Values() {
		exportDescription(&sdl, "  ", value.Description)
		fmt.Fprintf(&sdl, "  %s\n", value.Name)
	}

	sdl.WriteString("}\n")
	return sdl.String()
}

// exportInputObjectType exports a GraphQL input object type as SDL
func exportInputObjectType(inputType *graphql.InputObject) string {
	var sdl strings.Builder

	exportDescription(&sdl, "", inputType.Description())
	fmt.Fprintf(&sdl, "input %s {\n", inputType.Name())

	fields := inputType.Fields()
	for _, fieldName := range sortedKeys(fields) {
		field := fields[fieldName]
		exportDescription(&sdl, "  ", field.Description())
		fmt.Fprintf(&sdl, "  %s: %s\n", fieldName, exportType(field.Type))
	}

	sdl.WriteString("}\n")
	return sdl.String()
}

// exportType exports a GraphQL type reference as SDL string
func exportType(t graphql.Type) string {
	switch typ := t.(type) {
	case *graphql.NonNull:
		return fmt.Sprintf("%s!", exportType(typ.OfType))
	case *graphql.List:
		return fmt.Sprintf("[%s]", exportType(typ.OfType))
	case *graphql.Object:
		return typ.Name()
	case *graphql.Scalar:
		return typ.Name()
	case *graphql.Enum:
		return typ.Name()
	case *graphql.InputObject:
		return typ.Name()
	default:
		return "String"
	}
}
