package nodefilter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// ElasticBackend evaluates queries with Elasticsearch, one index per
// content type
type ElasticBackend struct {
	client     *elasticsearch.TypedClient
	indices    map[string]string
	converter  *queryConverter
	maxResults int
}

// DefaultMaxResults matches the index.max_result_window default
const DefaultMaxResults = 10000

// ElasticOption configures an ElasticBackend
type ElasticOption func(*ElasticBackend)

// WithIndex stores typeName in the given index instead of the lower-cased
// type name
func WithIndex(typeName, index string) ElasticOption {
	return func(b *ElasticBackend) {
		b.indices[typeName] = index
	}
}

// WithKeywordSuffix sets the sub-field used for exact string matches.
// Default ".keyword"; an empty suffix queries the field itself.
func WithKeywordSuffix(suffix string) ElasticOption {
	return func(b *ElasticBackend) {
		b.converter.keywordSuffix = suffix
	}
}

// WithMaxResults sets how many hits a query without a limit returns. It must
// not exceed the index.max_result_window setting of the indices.
func WithMaxResults(n int) ElasticOption {
	return func(b *ElasticBackend) {
		b.maxResults = n
	}
}

// NewElasticBackend creates a backend using client
func NewElasticBackend(client *elasticsearch.TypedClient, opts ...ElasticOption) *ElasticBackend {
	b := &ElasticBackend{
		client:     client,
		indices:    make(map[string]string),
		converter:  &queryConverter{keywordSuffix: ".keyword"},
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IndexFor returns the index holding typeName
func (b *ElasticBackend) IndexFor(typeName string) string {
	if index, ok := b.indices[typeName]; ok {
		return index
	}
	return strings.ToLower(typeName)
}

// Find runs query against the index of typeName
func (b *ElasticBackend) Find(ctx context.Context, typeName string, query *Query) (*Result, error) {
	if query == nil {
		query = &Query{}
	}

	req, err := b.searchRequest(query)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Search().Index(b.IndexFor(typeName)).Request(req).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result, err := parseSearchResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ES response: %w", err)
	}
	return result, nil
}

// searchRequest builds the search body for query. Elasticsearch returns 10
// hits unless told otherwise, so a query without a limit asks for every hit
// up to the result window.
func (b *ElasticBackend) searchRequest(query *Query) (*search.Request, error) {
	esQuery, err := b.converter.convertQuery(query.Conditions)
	if err != nil {
		return nil, err
	}

	req := &search.Request{
		Query:          esQuery,
		TrackTotalHits: true,
	}
	if sort := b.converter.convertSort(query.SortBy, query.Order); sort != nil {
		req.Sort = sort
	}

	size := query.Limit
	if size <= 0 {
		size = max(b.maxResults-max(query.Skip, 0), 0)
	}
	req.Size = &size

	if query.Skip > 0 {
		skip := query.Skip
		req.From = &skip
	}
	return req, nil
}

// Get fetches a single document by id
func (b *ElasticBackend) Get(ctx context.Context, typeName, id string) (Node, error) {
	resp, err := b.client.Get(b.IndexFor(typeName), id).Do(ctx)
	if err != nil {
		var esErr *types.ElasticsearchError
		if errors.As(err, &esErr) && esErr.Status == 404 {
			return nil, fmt.Errorf("%w: %s %q", ErrNodeNotFound, typeName, id)
		}
		return nil, fmt.Errorf("get failed: %w", err)
	}
	if !resp.Found {
		return nil, fmt.Errorf("%w: %s %q", ErrNodeNotFound, typeName, id)
	}

	return decodeSource(resp.Source_, id)
}

func parseSearchResponse(resp *search.Response) (*Result, error) {
	result := &Result{
		Nodes: make([]Node, 0, len(resp.Hits.Hits)),
	}

	if resp.Hits.Total != nil {
		result.TotalCount = int(resp.Hits.Total.Value)
	}

	for _, hit := range resp.Hits.Hits {
		node, err := decodeSource(hit.Source_, hitID(hit.Id_))
		if err != nil {
			return nil, err
		}
		result.Nodes = append(result.Nodes, node)
	}

	return result, nil
}

// decodeSource turns a document source into a node. The document id fills
// in a missing id property.
func decodeSource(source json.RawMessage, id string) (Node, error) {
	node := Node{}
	if len(source) > 0 {
		if err := json.Unmarshal(source, &node); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hit source: %w", err)
		}
	}
	if node.ID() == "" && id != "" {
		node["id"] = id
	}
	return node, nil
}

// hitID reads a hit id, which client versions type as string or *string
func hitID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}
