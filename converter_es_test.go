package nodefilter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toJSONMap marshals v and decodes it back into generic maps so tests can
// walk the request body Elasticsearch would receive
func toJSONMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func dig(t *testing.T, m any, keys ...string) any {
	t.Helper()
	current := m
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		require.True(t, ok, "expected object at %q, got %T", key, current)
		current, ok = obj[key]
		require.True(t, ok, "missing key %q in %v", key, obj)
	}
	return current
}

func convertOne(t *testing.T, c Condition) map[string]any {
	t.Helper()
	qc := &queryConverter{keywordSuffix: ".keyword"}
	q, err := qc.convertQuery([]Condition{c})
	require.NoError(t, err)

	body := toJSONMap(t, q)
	filters, _ := dig(t, body, "bool").(map[string]any)["filter"].([]any)
	mustNot, _ := dig(t, body, "bool").(map[string]any)["must_not"].([]any)
	require.Len(t, append(filters, mustNot...), 1)
	if len(filters) == 1 {
		return filters[0].(map[string]any)
	}
	return map[string]any{"must_not": mustNot[0]}
}

func TestConvertQuery_MatchAll(t *testing.T) {
	qc := &queryConverter{}
	q, err := qc.convertQuery(nil)
	require.NoError(t, err)
	assert.Contains(t, toJSONMap(t, q), "match_all")
}

func TestConvertCondition_Term(t *testing.T) {
	q := convertOne(t, cond("title", OpEq, "Draft", ShapeString))
	assert.Equal(t, "Draft", dig(t, q, "term", "title.keyword", "value"))

	q = convertOne(t, cond("views", OpEq, 10, ShapeNumber))
	assert.Equal(t, float64(10), dig(t, q, "term", "views", "value"))

	q = convertOne(t, cond("published", OpEq, true, ShapeBoolean))
	assert.Equal(t, true, dig(t, q, "term", "published", "value"))
}

func TestConvertCondition_Negated(t *testing.T) {
	q := convertOne(t, cond("title", OpNe, "Draft", ShapeString))
	assert.Equal(t, "Draft", dig(t, q, "must_not", "term", "title.keyword", "value"))

	q = convertOne(t, cond("title", OpNin, []any{"a", "b"}, ShapeString))
	assert.Equal(t, []any{"a", "b"}, dig(t, q, "must_not", "terms", "title.keyword"))

	q = convertOne(t, cond("tags", OpContainsNone, []any{"go"}, ShapeList))
	assert.Equal(t, []any{"go"}, dig(t, q, "must_not", "terms", "tags.keyword"))
}

func TestConvertCondition_Terms(t *testing.T) {
	q := convertOne(t, cond("views", OpIn, []any{1, 2}, ShapeNumber))
	assert.Equal(t, []any{float64(1), float64(2)}, dig(t, q, "terms", "views"))

	q = convertOne(t, cond("tags", OpContainsAny, []any{"go", "search"}, ShapeList))
	assert.Equal(t, []any{"go", "search"}, dig(t, q, "terms", "tags.keyword"))
}

func TestConvertCondition_Contains(t *testing.T) {
	q := convertOne(t, cond("tags", OpContains, []any{"go", "graphql"}, ShapeList))

	must, ok := dig(t, q, "bool", "filter").([]any)
	require.True(t, ok)
	require.Len(t, must, 2)
	assert.Equal(t, "go", dig(t, must[0], "term", "tags.keyword", "value"))
	assert.Equal(t, "graphql", dig(t, must[1], "term", "tags.keyword", "value"))
}

func TestConvertCondition_Reference(t *testing.T) {
	q := convertOne(t, Condition{
		Path:      FieldPath{"author"},
		Operator:  OpEq,
		Value:     "a1",
		Shape:     ShapeReference,
		Reference: &Reference{TypeName: "Author"},
	})
	should, ok := dig(t, q, "bool", "should").([]any)
	require.True(t, ok)
	require.Len(t, should, 2)
	assert.Equal(t, "a1", dig(t, should[0], "term", "author.keyword", "value"))
	assert.Equal(t, "a1", dig(t, should[1], "term", "author.id.keyword", "value"))
}

func TestConvertCondition_ReferenceList(t *testing.T) {
	tags := &Reference{TypeName: "Tag", IsList: true}

	q := convertOne(t, Condition{Path: FieldPath{"tags"}, Operator: OpNin, Value: []any{"go"}, Shape: ShapeReference, Reference: tags})
	should, ok := dig(t, q, "must_not", "bool", "should").([]any)
	require.True(t, ok)
	require.Len(t, should, 2)
	assert.Equal(t, []any{"go"}, dig(t, should[0], "terms", "tags.keyword"))
	assert.Equal(t, []any{"go"}, dig(t, should[1], "terms", "tags.id.keyword"))

	q = convertOne(t, Condition{Path: FieldPath{"tags"}, Operator: OpContains, Value: []any{"go", "search"}, Shape: ShapeReference, Reference: tags})
	must, ok := dig(t, q, "bool", "filter").([]any)
	require.True(t, ok)
	require.Len(t, must, 2)
	assert.Equal(t, "search", dig(t, must[1].(map[string]any)["bool"].(map[string]any)["should"].([]any)[1], "term", "tags.id.keyword", "value"))
}

func TestConvertCondition_Nested(t *testing.T) {
	q := convertOne(t, Condition{
		Path:     FieldPath{"seo", "slug"},
		Operator: OpEq,
		Value:    "hello",
		Shape:    ShapeString,
	})
	assert.Equal(t, "hello", dig(t, q, "term", "seo.slug.keyword", "value"))
}

func TestConvertCondition_Regexp(t *testing.T) {
	tests := []struct {
		pattern         string
		want            string
		caseInsensitive bool
	}{
		{"ell", ".*ell.*", false},
		{"^Hel", "Hel.*", false},
		{"rld$", ".*rld", false},
		{"^Hello$", "Hello", false},
		{"/world/i", ".*world.*", true},
		{"/^a/", "a.*", false},
		{"/world/gi", ".*world.*", true},
		{"/a/g", ".*a.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			q := convertOne(t, cond("title", OpRegex, tt.pattern, ShapeString))
			regexp := dig(t, q, "regexp", "title.keyword").(map[string]any)
			assert.Equal(t, tt.want, regexp["value"])
			if tt.caseInsensitive {
				assert.Equal(t, true, regexp["case_insensitive"])
			} else {
				assert.NotContains(t, regexp, "case_insensitive")
			}
		})
	}
}

func TestConvertCondition_Range(t *testing.T) {
	q := convertOne(t, cond("views", OpGt, 10, ShapeNumber))
	assert.Equal(t, float64(10), dig(t, q, "range", "views", "gt"))

	q = convertOne(t, cond("views", OpLte, 2.5, ShapeNumber))
	assert.Equal(t, 2.5, dig(t, q, "range", "views", "lte"))

	q = convertOne(t, cond("date", OpGte, "2021-05-01", ShapeDate))
	assert.Equal(t, "2021-05-01T00:00:00Z", dig(t, q, "range", "date", "gte"))
	assert.Equal(t, "strict_date_optional_time", dig(t, q, "range", "date", "format"))

	q = convertOne(t, cond("date", OpDteq, "2021-05-01T10:30:00+02:00", ShapeDate))
	assert.Equal(t, "2021-05-01T08:30:00Z", dig(t, q, "range", "date", "gte"))
	assert.Equal(t, "2021-05-01T08:30:00Z", dig(t, q, "range", "date", "lte"))
	assert.Equal(t, "strict_date_optional_time", dig(t, q, "range", "date", "format"))
}

func TestConvertCondition_DateForms(t *testing.T) {
	tests := []struct {
		operand string
		want    string
	}{
		{"20210501", "2021-05-01T00:00:00Z"},
		{"2021123", "2021-05-03T00:00:00Z"},
		{"2021-123", "2021-05-03T00:00:00Z"},
		{"2021W05", "2021-02-01T00:00:00Z"},
		{"2021-W05-3", "2021-02-03T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.operand, func(t *testing.T) {
			require.True(t, IsDate(tt.operand))
			q := convertOne(t, cond("date", OpGt, tt.operand, ShapeDate))
			assert.Equal(t, tt.want, dig(t, q, "range", "date", "gt"))
		})
	}
}

func TestDateOperand_Time(t *testing.T) {
	s, err := dateOperand(time.Date(2021, 5, 1, 12, 0, 0, 500, time.FixedZone("CET", 3600)))
	require.NoError(t, err)
	assert.Equal(t, "2021-05-01T11:00:00.0000005Z", s)

	_, err = dateOperand(20210501)
	assert.Error(t, err)
}

func TestConvertCondition_Between(t *testing.T) {
	q := convertOne(t, cond("date", OpBetween, []any{"2021-01-01", "2021-12-31"}, ShapeDate))

	bounds, ok := dig(t, q, "bool", "filter").([]any)
	require.True(t, ok)
	require.Len(t, bounds, 2)
	assert.Equal(t, "2021-01-01T00:00:00Z", dig(t, bounds[0], "range", "date", "gte"))
	assert.Equal(t, "2021-12-31T00:00:00Z", dig(t, bounds[1], "range", "date", "lte"))
}

func TestConvertCondition_Errors(t *testing.T) {
	qc := &queryConverter{keywordSuffix: ".keyword"}

	tests := map[string]Condition{
		"size":          cond("tags", OpSize, 2, ShapeList),
		"len":           cond("title", OpLen, 5, ShapeString),
		"invalid date":  cond("date", OpGt, "soon", ShapeDate),
		"nan bound":     cond("views", OpGt, "ten", ShapeNumber),
		"between arity": cond("views", OpBetween, []any{1, 2, 3}, ShapeNumber),
		"regex number":  cond("title", OpRegex, 1, ShapeString),
	}

	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := qc.convertQuery([]Condition{c})
			assert.Error(t, err)
		})
	}

	_, err := qc.convertQuery([]Condition{cond("tags", OpSize, 2, ShapeList)})
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
}

func TestFieldName_NoSuffix(t *testing.T) {
	qc := &queryConverter{}
	assert.Equal(t, "title", qc.fieldName(cond("title", OpEq, "x", ShapeString)))
}

func TestConvertSort(t *testing.T) {
	qc := &queryConverter{}
	assert.Nil(t, qc.convertSort("", SortAsc))

	sort := qc.convertSort("date", SortDesc)
	require.Len(t, sort, 1)
	assert.Equal(t, "desc", dig(t, toJSONMap(t, sort[0]), "date", "order"))

	sort = qc.convertSort("views", SortAsc)
	assert.Equal(t, "asc", dig(t, toJSONMap(t, sort[0]), "views", "order"))
}

func TestDecodeSource(t *testing.T) {
	node, err := decodeSource(json.RawMessage(`{"title":"Hello"}`), "p1")
	require.NoError(t, err)
	assert.Equal(t, Node{"id": "p1", "title": "Hello"}, node)

	node, err = decodeSource(json.RawMessage(`{"id":"own","title":"Hello"}`), "p1")
	require.NoError(t, err)
	assert.Equal(t, "own", node.ID())

	_, err = decodeSource(json.RawMessage(`[`), "p1")
	assert.Error(t, err)
}

func TestElasticBackend_SearchRequest(t *testing.T) {
	tests := []struct {
		name     string
		opts     []ElasticOption
		query    *Query
		wantSize int
		wantFrom *int
	}{
		{name: "limit", query: &Query{Limit: 5}, wantSize: 5},
		{name: "no limit", query: &Query{}, wantSize: DefaultMaxResults},
		{name: "no limit with skip", query: &Query{Skip: 40}, wantSize: DefaultMaxResults - 40, wantFrom: ptr(40)},
		{name: "skip past window", query: &Query{Skip: DefaultMaxResults + 1}, wantSize: 0, wantFrom: ptr(DefaultMaxResults + 1)},
		{name: "custom window", opts: []ElasticOption{WithMaxResults(50)}, query: &Query{}, wantSize: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewElasticBackend(nil, tt.opts...)
			req, err := backend.searchRequest(tt.query)
			require.NoError(t, err)

			require.NotNil(t, req.Size)
			assert.Equal(t, tt.wantSize, *req.Size)
			assert.Equal(t, tt.wantFrom, req.From)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
