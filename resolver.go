package nodefilter

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentGets bounds the node lookups a single field runs at once
const maxConcurrentGets = 8

// ResolverBuilder creates resolvers that run queries against a backend
type ResolverBuilder struct {
	backend Backend
	reader  *ArgumentReader
}

// NewResolverBuilder creates a new resolver builder
func NewResolverBuilder(backend Backend) *ResolverBuilder {
	return &ResolverBuilder{
		backend: backend,
		reader:  NewArgumentReader(),
	}
}

// BuildListResolver creates the resolver of all<Type>
func (rb *ResolverBuilder) BuildListResolver(typeName string) graphql.FieldResolveFn {
	return func(params graphql.ResolveParams) (any, error) {
		if rb.backend == nil {
			return nil, errors.New("no backend configured")
		}

		query, err := rb.reader.Read(typeName, params.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}

		result, err := rb.backend.Find(resolveContext(params), typeName, query)
		if err != nil {
			return nil, fmt.Errorf("failed to execute query: %w", err)
		}

		return rb.convertResult(result), nil
	}
}

// BuildNodeResolver creates the resolver fetching a single node by id.
// A missing node resolves to null.
func (rb *ResolverBuilder) BuildNodeResolver(typeName string) graphql.FieldResolveFn {
	return func(params graphql.ResolveParams) (any, error) {
		if rb.backend == nil {
			return nil, errors.New("no backend configured")
		}

		id, ok := params.Args["id"].(string)
		if !ok {
			return nil, fmt.Errorf("id argument must be a string")
		}

		node, err := rb.backend.Get(resolveContext(params), typeName, id)
		if errors.Is(err, ErrNodeNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get %s %q: %w", typeName, id, err)
		}
		return map[string]any(node), nil
	}
}

// BuildReferenceResolver creates the resolver of a reference field. The
// property holds the id of the referenced node, or a list of ids; ids that
// no longer resolve are dropped.
func (rb *ResolverBuilder) BuildReferenceResolver(fieldName string, ref Reference) graphql.FieldResolveFn {
	return func(params graphql.ResolveParams) (any, error) {
		source, ok := asMap(params.Source)
		if !ok || rb.backend == nil {
			return nil, nil
		}
		raw, ok := source[fieldName]
		if !ok || raw == nil {
			return nil, nil
		}

		ctx := resolveContext(params)
		if !ref.IsList {
			node, err := rb.getReferenced(ctx, ref.TypeName, referenceID(raw))
			if err != nil || node == nil {
				return nil, err
			}
			return node, nil
		}

		ids, _ := listValue(referenceIDs(raw, true))
		found := make([]map[string]any, len(ids))

		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(maxConcurrentGets)
		for i, id := range ids {
			eg.Go(func() error {
				node, err := rb.getReferenced(ctx, ref.TypeName, id)
				found[i] = node
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		nodes := make([]map[string]any, 0, len(found))
		for _, node := range found {
			if node != nil {
				nodes = append(nodes, node)
			}
		}
		return nodes, nil
	}
}

func (rb *ResolverBuilder) getReferenced(ctx context.Context, typeName string, id any) (map[string]any, error) {
	s, ok := id.(string)
	if !ok || s == "" {
		return nil, nil
	}
	node, err := rb.backend.Get(ctx, typeName, s)
	if errors.Is(err, ErrNodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s %q: %w", typeName, s, err)
	}
	return node, nil
}

// convertResult converts a backend result to the connection response. The
// default field resolver only reads plain maps, so nodes are converted.
func (rb *ResolverBuilder) convertResult(result *Result) map[string]any {
	nodes := make([]map[string]any, len(result.Nodes))
	for i, node := range result.Nodes {
		nodes[i] = node
	}
	return map[string]any{
		"totalCount": result.TotalCount,
		"nodes":      nodes,
	}
}

func resolveContext(params graphql.ResolveParams) context.Context {
	if params.Context != nil {
		return params.Context
	}
	return context.Background()
}
