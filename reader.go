package nodefilter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Argument names of the all<Type> root fields
const (
	ArgFilter = "filter"
	ArgSortBy = "sortBy"
	ArgOrder  = "order"
	ArgLimit  = "limit"
	ArgSkip   = "skip"
)

// ArgumentReader converts GraphQL arguments to a Query. It walks the filter
// argument alongside the filter types generated for the content type, so
// every condition carries the shape of the field it applies to.
type ArgumentReader struct {
	mu      sync.RWMutex
	filters map[string]FilterTypes
}

// NewArgumentReader creates a new argument reader
func NewArgumentReader() *ArgumentReader {
	return &ArgumentReader{
		filters: make(map[string]FilterTypes),
	}
}

// Register makes the filter types of typeName known to the reader
func (ar *ArgumentReader) Register(typeName string, filters FilterTypes) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.filters[typeName] = filters
}

// Read converts resolver arguments for typeName into a Query
func (ar *ArgumentReader) Read(typeName string, args map[string]any) (*Query, error) {
	ar.mu.RLock()
	filters, ok := ar.filters[typeName]
	ar.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, typeName)
	}

	query := &Query{Order: SortAsc}

	if raw, ok := args[ArgFilter]; ok && raw != nil {
		filter, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter argument must be an object")
		}
		conditions, err := readConditions(filter, filters, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read filter: %w", err)
		}
		sortConditions(conditions)
		query.Conditions = conditions
	}

	if v, ok := args[ArgSortBy].(string); ok {
		query.SortBy = v
	}

	switch v := args[ArgOrder].(type) {
	case string:
		query.Order = SortOrder(strings.ToUpper(v))
	case SortOrder:
		query.Order = v
	}
	if query.Order != SortAsc && query.Order != SortDesc {
		return nil, fmt.Errorf("invalid sort order %q", query.Order)
	}

	if v, ok := args[ArgLimit].(int); ok {
		if v < 0 {
			return nil, fmt.Errorf("limit must not be negative")
		}
		query.Limit = v
	}
	if v, ok := args[ArgSkip].(int); ok {
		if v < 0 {
			return nil, fmt.Errorf("skip must not be negative")
		}
		query.Skip = v
	}

	return query, nil
}

func readConditions(filter map[string]any, filters FilterTypes, parent FieldPath) ([]Condition, error) {
	var conditions []Condition

	for name, raw := range filter {
		if raw == nil {
			continue
		}

		path := parent.Child(name)
		ft, ok := filters[name]
		if !ok {
			return nil, fmt.Errorf("unknown filter field %q", path.Dotted())
		}

		operators, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter field %q must be an object", path.Dotted())
		}

		if ft.Kind == KindObject {
			nested, err := readConditions(operators, ft.Children, path)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, nested...)
			continue
		}

		fields := ft.Type.Fields()
		for op, value := range operators {
			if value == nil {
				continue
			}
			if _, ok := fields[op]; !ok {
				return nil, fmt.Errorf("operator %q is not valid for %q", op, path.Dotted())
			}
			conditions = append(conditions, Condition{
				Path:      path,
				Operator:  Operator(op),
				Value:     value,
				Shape:     ft.Shape,
				Reference: ft.Reference,
			})
		}
	}

	return conditions, nil
}

func sortConditions(conditions []Condition) {
	sort.SliceStable(conditions, func(i, j int) bool {
		pi, pj := conditions[i].Path.Dotted(), conditions[j].Path.Dotted()
		if pi != pj {
			return pi < pj
		}
		return conditions[i].Operator < conditions[j].Operator
	})
}
