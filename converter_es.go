package nodefilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
)

// queryConverter translates query conditions to Elasticsearch queries
type queryConverter struct {
	// keywordSuffix is appended to the field of exact string matches, e.g.
	// ".keyword" for dynamically mapped text fields
	keywordSuffix string
}

// convertQuery builds the bool query for all conditions. Without conditions
// every document matches.
func (qc *queryConverter) convertQuery(conditions []Condition) (*types.Query, error) {
	if len(conditions) == 0 {
		return &types.Query{MatchAll: &types.MatchAllQuery{}}, nil
	}

	boolQuery := &types.BoolQuery{}
	for _, c := range conditions {
		q, negate, err := qc.convertCondition(c)
		if err != nil {
			return nil, fmt.Errorf("failed to convert condition on %s: %w", c.Path.Dotted(), err)
		}
		if negate {
			boolQuery.MustNot = append(boolQuery.MustNot, *q)
		} else {
			boolQuery.Filter = append(boolQuery.Filter, *q)
		}
	}

	return &types.Query{Bool: boolQuery}, nil
}

// convertCondition returns the query for one condition and whether it must
// be negated
func (qc *queryConverter) convertCondition(c Condition) (*types.Query, bool, error) {
	field := qc.fieldName(c)

	switch c.Operator {
	case OpEq:
		return qc.anyField(c, field, func(f string) *types.Query { return termQuery(f, c.Value) }), false, nil
	case OpNe:
		return qc.anyField(c, field, func(f string) *types.Query { return termQuery(f, c.Value) }), true, nil
	case OpIn, OpContainsAny:
		return qc.anyField(c, field, func(f string) *types.Query { return termsQuery(f, toList(c.Value)) }), false, nil
	case OpNin, OpContainsNone:
		return qc.anyField(c, field, func(f string) *types.Query { return termsQuery(f, toList(c.Value)) }), true, nil
	case OpContains:
		values := toList(c.Value)
		must := make([]types.Query, 0, len(values))
		for _, v := range values {
			must = append(must, *qc.anyField(c, field, func(f string) *types.Query { return termQuery(f, v) }))
		}
		return &types.Query{Bool: &types.BoolQuery{Filter: must}}, false, nil
	case OpRegex:
		q, err := regexpQuery(field, c.Value)
		return q, false, err
	case OpDteq:
		s, err := dateOperand(c.Value)
		if err != nil {
			return nil, false, err
		}
		format := dateFormat
		return &types.Query{Range: map[string]types.RangeQuery{
			field: types.DateRangeQuery{Gte: &s, Lte: &s, Format: &format},
		}}, false, nil
	case OpGt, OpGte, OpLt, OpLte:
		q, err := rangeQuery(field, c.Operator, c.Value, c.Shape == ShapeDate)
		return q, false, err
	case OpBetween:
		bounds := toList(c.Value)
		if len(bounds) != 2 {
			return nil, false, fmt.Errorf("between expects 2 values, got %d", len(bounds))
		}
		low, err := rangeQuery(field, OpGte, bounds[0], c.Shape == ShapeDate)
		if err != nil {
			return nil, false, err
		}
		high, err := rangeQuery(field, OpLte, bounds[1], c.Shape == ShapeDate)
		if err != nil {
			return nil, false, err
		}
		return &types.Query{Bool: &types.BoolQuery{Filter: []types.Query{*low, *high}}}, false, nil
	}

	return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedOperator, c.Operator)
}

// fieldName maps the condition path to the indexed field. Exact string
// matches go to the keyword sub-field.
func (qc *queryConverter) fieldName(c Condition) string {
	field := c.Path.Dotted()
	if qc.keywordSuffix == "" || c.Shape == ShapeDate {
		return field
	}
	switch c.Operator {
	case OpGt, OpGte, OpLt, OpLte, OpBetween, OpDteq:
		return field
	}
	if c.Reference != nil || isStringOperand(c.Value) {
		return field + qc.keywordSuffix
	}
	return field
}

// anyField builds q for field. A reference is stored either as the id itself
// or as an object holding it, so reference conditions match on either field.
func (qc *queryConverter) anyField(c Condition, field string, q func(field string) *types.Query) *types.Query {
	if c.Reference == nil {
		return q(field)
	}
	idField := c.Path.Dotted() + ".id" + qc.keywordSuffix
	return &types.Query{Bool: &types.BoolQuery{
		Should: []types.Query{*q(field), *q(idField)},
	}}
}

func isStringOperand(v any) bool {
	for _, item := range toList(v) {
		if _, ok := item.(string); !ok {
			return false
		}
	}
	return v != nil
}

func termQuery(field string, value any) *types.Query {
	return &types.Query{
		Term: map[string]types.TermQuery{
			field: {Value: value},
		},
	}
}

func termsQuery(field string, values []any) *types.Query {
	fieldValues := make([]types.FieldValue, len(values))
	for i, v := range values {
		fieldValues[i] = v
	}
	return &types.Query{
		Terms: &types.TermsQuery{
			TermsQuery: map[string]types.TermsQueryField{
				field: fieldValues,
			},
		},
	}
}

// regexpQuery converts a pattern to a Lucene regexp. Lucene patterns match
// the whole term, so unanchored ends are padded with .* and anchors dropped.
func regexpQuery(field string, value any) (*types.Query, error) {
	pattern, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("regex expects a string, got %T", value)
	}

	caseInsensitive := false
	if body, flags, ok := splitRegexLiteral(pattern); ok {
		caseInsensitive = strings.Contains(flags, "i")
		pattern = body
	}

	if p, ok := strings.CutPrefix(pattern, "^"); ok {
		pattern = p
	} else {
		pattern = ".*" + pattern
	}
	if p, ok := strings.CutSuffix(pattern, "$"); ok {
		pattern = p
	} else {
		pattern += ".*"
	}

	rq := types.RegexpQuery{Value: pattern}
	if caseInsensitive {
		rq.CaseInsensitive = &caseInsensitive
	}
	return &types.Query{
		Regexp: map[string]types.RegexpQuery{field: rq},
	}, nil
}

func rangeQuery(field string, op Operator, value any, date bool) (*types.Query, error) {
	var rq types.RangeQuery

	if date {
		s, err := dateOperand(value)
		if err != nil {
			return nil, err
		}
		format := dateFormat
		dq := types.DateRangeQuery{Format: &format}
		switch op {
		case OpGt:
			dq.Gt = &s
		case OpGte:
			dq.Gte = &s
		case OpLt:
			dq.Lt = &s
		case OpLte:
			dq.Lte = &s
		}
		rq = dq
	} else {
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%s expects a number, got %T", op, value)
		}
		v := types.Float64(f)
		nq := types.NumberRangeQuery{}
		switch op {
		case OpGt:
			nq.Gt = &v
		case OpGte:
			nq.Gte = &v
		case OpLt:
			nq.Lt = &v
		case OpLte:
			nq.Lte = &v
		}
		rq = nq
	}

	return &types.Query{
		Range: map[string]types.RangeQuery{field: rq},
	}, nil
}

// dateFormat parses the operands dateOperand produces. Without it compact
// forms such as 20210501 would be read as epoch milliseconds.
const dateFormat = "strict_date_optional_time"

// dateOperand normalises a date operand to the UTC instant it denotes, so
// every accepted ISO 8601 form means the same instant as in MemoryBackend
func dateOperand(value any) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case string:
		parsed, ok := ParseDate(v)
		if !ok {
			return "", fmt.Errorf("invalid date %v", value)
		}
		t = parsed
	default:
		return "", fmt.Errorf("invalid date %v", value)
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}

// convertSort builds the sort clause for a dotted property path
func (qc *queryConverter) convertSort(sortBy string, order SortOrder) []types.SortCombinations {
	if sortBy == "" {
		return nil
	}

	o := sortorder.Asc
	if order == SortDesc {
		o = sortorder.Desc
	}

	return []types.SortCombinations{
		types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				sortBy: {Order: &o},
			},
		},
	}
}
