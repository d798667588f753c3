package nodefilter

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"golang.org/x/sync/errgroup"
)

// EntityResolver resolves entity representations for Apollo Federation. Every
// node type is an entity keyed by its id.
type EntityResolver struct {
	backend Backend
	types   map[string]bool
}

// NewEntityResolver creates a new entity resolver for typeNames
func NewEntityResolver(backend Backend, typeNames []string) *EntityResolver {
	types := make(map[string]bool, len(typeNames))
	for _, name := range typeNames {
		types[name] = true
	}
	return &EntityResolver{
		backend: backend,
		types:   types,
	}
}

// ResolveEntities resolves a list of entity representations. This is the
// resolver for the _entities query; results keep the order of the
// representations and nodes that no longer exist resolve to null.
func (er *EntityResolver) ResolveEntities(params graphql.ResolveParams) (any, error) {
	if er.backend == nil {
		return nil, errors.New("no backend configured")
	}

	representations, ok := params.Args["representations"].([]any)
	if !ok {
		return nil, fmt.Errorf("representations argument must be a list")
	}

	results := make([]any, len(representations))

	eg, ctx := errgroup.WithContext(resolveContext(params))
	eg.SetLimit(maxConcurrentGets)
	for i, repr := range representations {
		eg.Go(func() error {
			entity, err := er.resolveEntity(ctx, repr)
			if err != nil {
				return fmt.Errorf("representation %d: %w", i, err)
			}
			if entity != nil {
				results[i] = entity
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// resolveEntity resolves a single entity representation
func (er *EntityResolver) resolveEntity(ctx context.Context, repr any) (map[string]any, error) {
	typename, keys, err := ParseEntityRepresentation(repr)
	if err != nil {
		return nil, err
	}
	if !er.types[typename] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, typename)
	}

	id, ok := keys[entityKeyFields].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("missing key field: %s", entityKeyFields)
	}

	node, err := er.backend.Get(ctx, typename, id)
	if errors.Is(err, ErrNodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %q: %w", typename, id, err)
	}

	// Backends may hand out their stored node
	entity := make(map[string]any, len(node)+1)
	for name, value := range node {
		entity[name] = value
	}
	entity["__typename"] = typename
	return entity, nil
}
