package nodefilter

import (
	"context"
	"errors"
)

var (
	// ErrNodeNotFound is returned by Backend.Get when no node has the id
	ErrNodeNotFound = errors.New("node not found")
	// ErrUnknownContentType is returned for a type name that is not configured
	ErrUnknownContentType = errors.New("unknown content type")
	// ErrUnsupportedOperator is returned when a backend cannot evaluate an operator
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Condition is a single operator applied to the property at Path
type Condition struct {
	Path     FieldPath
	Operator Operator
	Value    any

	// Shape of the field's sample; decides how values are compared
	Shape Shape

	// Reference is set when the field points at other nodes, whose ids are matched
	Reference *Reference
}

// Query is the backend-independent form of an all<Type> query
type Query struct {
	Conditions []Condition
	SortBy     string
	Order      SortOrder
	Limit      int
	Skip       int
}

// Result holds one page of matching nodes
type Result struct {
	Nodes      []Node
	TotalCount int
}

// Backend stores nodes and evaluates queries against them
type Backend interface {
	Find(ctx context.Context, typeName string, query *Query) (*Result, error)
	Get(ctx context.Context, typeName, id string) (Node, error)
}
