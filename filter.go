package nodefilter

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

// FilterKind distinguishes the three kinds of synthesized input types
type FilterKind int

const (
	// KindValue filters compare a field's own value
	KindValue FilterKind = iota + 1
	// KindReference filters compare the ids of referenced nodes
	KindReference
	// KindObject types only group the filters of a nested object
	KindObject
)

func (k FilterKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindReference:
		return "reference"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// FilterType is one synthesized filter input type
type FilterType struct {
	Type *graphql.InputObject
	Kind FilterKind

	// Shape of the sample the type was built from
	Shape Shape

	// Scalar is the operand type of value filters; for lists it is the element type
	Scalar Scalar

	// Reference is set for KindReference
	Reference *Reference

	// Children holds the nested filters of a KindObject type
	Children FilterTypes
}

// IsReference reports whether the filter matches on referenced node ids
func (f *FilterType) IsReference() bool {
	return f != nil && f.Kind == KindReference
}

// FilterTypes maps field names to their filter types
type FilterTypes map[string]*FilterType

// InputFields returns the field map for an input object wrapping these filters
func (ft FilterTypes) InputFields() graphql.InputObjectConfigFieldMap {
	fields := make(graphql.InputObjectConfigFieldMap, len(ft))
	for name, f := range ft {
		fields[name] = &graphql.InputObjectFieldConfig{Type: f.Type}
	}
	return fields
}

// Names returns the field names in sorted order
func (ft FilterTypes) Names() []string {
	return sortedKeys(ft)
}

// NewFilterObjectType creates a value filter type
func NewFilterObjectType(config graphql.InputObjectConfig) *FilterType {
	return &FilterType{
		Type: graphql.NewInputObject(config),
		Kind: KindValue,
	}
}

// NewFilterReferenceType creates a reference filter type
func NewFilterReferenceType(config graphql.InputObjectConfig) *FilterType {
	return &FilterType{
		Type: graphql.NewInputObject(config),
		Kind: KindReference,
	}
}

// CreateFilterTypes synthesizes a filter type for every field of typeName.
// Fields whose sample has no usable shape, or whose name GraphQL cannot
// express, are left out.
func CreateFilterTypes(fields map[string]any, typeName string) FilterTypes {
	return createFilterTypes(fields, nil, typeName)
}

func createFilterTypes(fields map[string]any, parent FieldPath, typeName string) FilterTypes {
	types := FilterTypes{}
	for key, value := range fields {
		if !isFieldName(key) {
			continue
		}
		if ft := CreateFilterType(value, parent.Child(key), typeName); ft != nil {
			types[key] = ft
		}
	}
	return types
}

// CreateFilterType synthesizes the filter type for a single sample value at
// path. It returns nil when no filter can be built: the shape is unsupported,
// a list's first element is not a primitive, or a nested object has no
// filterable fields.
func CreateFilterType(value any, path FieldPath, typeName string) *FilterType {
	name := FilterTypeName(typeName, path)
	description := fmt.Sprintf("Filter %s nodes by %s", typeName, path)

	switch v := Classify(value).(type) {
	case Reference:
		return referenceFilterType(name, description, v)
	case DateValue:
		return dateFilterType(name, description)
	case ListValue:
		return listFilterType(name, description, v)
	case StringValue:
		return stringFilterType(name, description)
	case BoolValue:
		return booleanFilterType(name)
	case NumberValue:
		return numberFilterType(name, description, MapScalar(v))
	case ObjectValue:
		return objectFilterType(name, v, path, typeName)
	}

	return nil
}

func operatorField(op Operator, t graphql.Input) *graphql.InputObjectFieldConfig {
	return &graphql.InputObjectFieldConfig{
		Type:        t,
		Description: op.Description(),
	}
}

func referenceFilterType(name, description string, ref Reference) *FilterType {
	var fields graphql.InputObjectConfigFieldMap
	if ref.IsList {
		fields = graphql.InputObjectConfigFieldMap{
			string(OpSize):         operatorField(OpSize, graphql.Int),
			string(OpContains):     operatorField(OpContains, graphql.NewList(graphql.String)),
			string(OpContainsAny):  operatorField(OpContainsAny, graphql.NewList(graphql.String)),
			string(OpContainsNone): operatorField(OpContainsNone, graphql.NewList(graphql.String)),
		}
	} else {
		fields = graphql.InputObjectConfigFieldMap{
			string(OpEq):    operatorField(OpEq, graphql.String),
			string(OpNe):    operatorField(OpNe, graphql.String),
			string(OpRegex): operatorField(OpRegex, graphql.String),
			string(OpIn):    operatorField(OpIn, graphql.NewList(graphql.String)),
			string(OpNin):   operatorField(OpNin, graphql.NewList(graphql.String)),
		}
	}

	ft := NewFilterReferenceType(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields:      fields,
	})
	ft.Shape = ShapeReference
	ft.Scalar = ScalarString
	ft.Reference = &Reference{TypeName: ref.TypeName, IsList: ref.IsList}
	return ft
}

func dateFilterType(name, description string) *FilterType {
	ft := NewFilterObjectType(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields: graphql.InputObjectConfigFieldMap{
			string(OpDteq):    operatorField(OpDteq, graphql.String),
			string(OpGt):      operatorField(OpGt, graphql.String),
			string(OpGte):     operatorField(OpGte, graphql.String),
			string(OpLt):      operatorField(OpLt, graphql.String),
			string(OpLte):     operatorField(OpLte, graphql.String),
			string(OpBetween): operatorField(OpBetween, graphql.NewList(graphql.String)),
		},
	})
	ft.Shape = ShapeDate
	ft.Scalar = ScalarString
	return ft
}

func listFilterType(name, description string, list ListValue) *FilterType {
	if len(list) == 0 {
		return nil
	}

	element := MapScalar(list[0])
	elementType := element.GraphQLType()
	if elementType == nil {
		return nil
	}

	ft := NewFilterObjectType(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields: graphql.InputObjectConfigFieldMap{
			string(OpSize):         operatorField(OpSize, graphql.Int),
			string(OpContains):     operatorField(OpContains, graphql.NewList(elementType)),
			string(OpContainsAny):  operatorField(OpContainsAny, graphql.NewList(elementType)),
			string(OpContainsNone): operatorField(OpContainsNone, graphql.NewList(elementType)),
		},
	})
	ft.Shape = ShapeList
	ft.Scalar = element
	return ft
}

func stringFilterType(name, description string) *FilterType {
	ft := NewFilterObjectType(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields: graphql.InputObjectConfigFieldMap{
			string(OpLen):   operatorField(OpLen, graphql.Int),
			string(OpEq):    operatorField(OpEq, graphql.String),
			string(OpNe):    operatorField(OpNe, graphql.String),
			string(OpRegex): operatorField(OpRegex, graphql.String),
			string(OpIn):    operatorField(OpIn, graphql.NewList(graphql.String)),
			string(OpNin):   operatorField(OpNin, graphql.NewList(graphql.String)),
		},
	})
	ft.Shape = ShapeString
	ft.Scalar = ScalarString
	return ft
}

// booleanFilterType carries no description on the type or its operators
func booleanFilterType(name string) *FilterType {
	ft := NewFilterObjectType(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMap{
			string(OpEq):  {Type: graphql.Boolean},
			string(OpNe):  {Type: graphql.Boolean},
			string(OpIn):  {Type: graphql.NewList(graphql.Boolean)},
			string(OpNin): {Type: graphql.NewList(graphql.Boolean)},
		},
	})
	ft.Shape = ShapeBoolean
	ft.Scalar = ScalarBoolean
	return ft
}

func numberFilterType(name, description string, scalar Scalar) *FilterType {
	numberType := scalar.GraphQLType()

	ft := NewFilterObjectType(graphql.InputObjectConfig{
		Name:        name,
		Description: description,
		Fields: graphql.InputObjectConfigFieldMap{
			string(OpEq):      operatorField(OpEq, numberType),
			string(OpNe):      operatorField(OpNe, numberType),
			string(OpGt):      operatorField(OpGt, numberType),
			string(OpGte):     operatorField(OpGte, numberType),
			string(OpLt):      operatorField(OpLt, numberType),
			string(OpLte):     operatorField(OpLte, numberType),
			string(OpIn):      operatorField(OpIn, graphql.NewList(numberType)),
			string(OpNin):     operatorField(OpNin, graphql.NewList(numberType)),
			string(OpBetween): operatorField(OpBetween, graphql.NewList(numberType)),
		},
	})
	ft.Shape = ShapeNumber
	ft.Scalar = scalar
	return ft
}

func objectFilterType(name string, obj ObjectValue, path FieldPath, typeName string) *FilterType {
	children := createFilterTypes(obj, path, typeName)
	if len(children) == 0 {
		return nil
	}

	return &FilterType{
		Type: graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   name,
			Fields: children.InputFields(),
		}),
		Kind:     KindObject,
		Shape:    ShapeObject,
		Children: children,
	}
}
