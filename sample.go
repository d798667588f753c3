package nodefilter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Shape identifies the kind of a sample value
type Shape int

const (
	ShapeUnsupported Shape = iota
	ShapeReference
	ShapeDate
	ShapeList
	ShapeString
	ShapeBoolean
	ShapeNumber
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeReference:
		return "reference"
	case ShapeDate:
		return "date"
	case ShapeList:
		return "list"
	case ShapeString:
		return "string"
	case ShapeBoolean:
		return "boolean"
	case ShapeNumber:
		return "number"
	case ShapeObject:
		return "object"
	default:
		return "unsupported"
	}
}

// Value is a classified sample value. The concrete types are Reference,
// DateValue, ListValue, StringValue, BoolValue, NumberValue and ObjectValue.
type Value interface {
	Shape() Shape
}

// Reference describes a field that points at nodes of another content type
type Reference struct {
	TypeName string `json:"typeName" yaml:"typeName"`
	IsList   bool   `json:"isList" yaml:"isList"`
}

// DateValue is a string recognised by IsDate
type DateValue string

// ListValue is a sequence of samples; only the first element is inspected
type ListValue []any

// StringValue is a plain string sample
type StringValue string

// BoolValue is a boolean sample
type BoolValue bool

// NumberValue is a numeric sample
type NumberValue float64

// ObjectValue is a nested mapping of sub-field samples
type ObjectValue map[string]any

func (Reference) Shape() Shape   { return ShapeReference }
func (DateValue) Shape() Shape   { return ShapeDate }
func (ListValue) Shape() Shape   { return ShapeList }
func (StringValue) Shape() Shape { return ShapeString }
func (BoolValue) Shape() Shape   { return ShapeBoolean }
func (NumberValue) Shape() Shape { return ShapeNumber }
func (ObjectValue) Shape() Shape { return ShapeObject }

// Classify turns a raw sample into its tagged variant. The checks run in
// precedence order: reference, date, list, primitive, object. A map with
// exactly the keys typeName and isList is a Reference even though it is also
// an object. Classify returns nil for values it cannot shape.
func Classify(v any) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case *Reference:
		if t == nil {
			return nil
		}
		return *t
	case Value:
		return t
	case time.Time:
		return DateValue(t.Format(time.RFC3339Nano))
	case *time.Time:
		if t == nil {
			return nil
		}
		return DateValue(t.Format(time.RFC3339Nano))
	case string:
		if IsDate(t) {
			return DateValue(t)
		}
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case int:
		return NumberValue(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		return NumberValue(f)
	case map[string]any:
		if isReferenceMap(t) {
			return referenceFromMap(t)
		}
		return ObjectValue(t)
	case []any:
		return ListValue(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberValue(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberValue(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NumberValue(rv.Float())
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.String:
		return Classify(rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ListValue(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return Classify(m)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Classify(rv.Elem().Interface())
	}

	return nil
}

// IsReferenceField reports whether v describes a reference to another
// content type: a Reference, or a map holding exactly typeName and isList.
func IsReferenceField(v any) bool {
	_, ok := Classify(v).(Reference)
	return ok
}

func isReferenceMap(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	_, hasTypeName := m["typeName"]
	_, hasIsList := m["isList"]
	return hasTypeName && hasIsList
}

func referenceFromMap(m map[string]any) Reference {
	ref := Reference{}
	switch typeName := m["typeName"].(type) {
	case string:
		ref.TypeName = typeName
	case nil:
	default:
		ref.TypeName = fmt.Sprint(typeName)
	}
	ref.IsList = truthy(m["isList"])
	return ref
}

// truthy reports whether a sample flag is set. Samples come from JSON or
// JavaScript-shaped documents, so any non-zero number or non-empty string
// counts as set.
func truthy(v any) bool {
	switch t := Classify(v).(type) {
	case nil:
		return false
	case BoolValue:
		return bool(t)
	case NumberValue:
		return t != 0 && !math.IsNaN(float64(t))
	case StringValue:
		return t != ""
	}
	return true
}
