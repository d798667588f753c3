package nodefilter

import (
	"math"

	"github.com/graphql-go/graphql"
)

// Scalar is the primitive GraphQL type a sample value resolves to
type Scalar int

const (
	ScalarNone Scalar = iota
	// ScalarList marks a list sample; callers derive the element type separately
	ScalarList
	ScalarString
	ScalarBoolean
	ScalarInt
	ScalarFloat
)

// MapScalar resolves a sample to its GraphQL scalar. Date strings map to
// String. Numbers map to Int only when integral and inside the signed 32-bit
// range, otherwise Float.
func MapScalar(v any) Scalar {
	switch t := Classify(v).(type) {
	case ListValue:
		return ScalarList
	case StringValue, DateValue:
		return ScalarString
	case BoolValue:
		return ScalarBoolean
	case NumberValue:
		if Is32BitInt(float64(t)) {
			return ScalarInt
		}
		return ScalarFloat
	}
	return ScalarNone
}

// GraphQLType returns the graphql-go scalar, or nil for ScalarNone and ScalarList
func (s Scalar) GraphQLType() *graphql.Scalar {
	switch s {
	case ScalarString:
		return graphql.String
	case ScalarBoolean:
		return graphql.Boolean
	case ScalarInt:
		return graphql.Int
	case ScalarFloat:
		return graphql.Float
	}
	return nil
}

func (s Scalar) String() string {
	switch s {
	case ScalarList:
		return "List"
	case ScalarString:
		return "String"
	case ScalarBoolean:
		return "Boolean"
	case ScalarInt:
		return "Int"
	case ScalarFloat:
		return "Float"
	}
	return "None"
}

// Is32BitInt reports whether f is an integer representable as int32
func Is32BitInt(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32
}
