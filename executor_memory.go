package nodefilter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps nodes in memory and evaluates every operator itself
type MemoryBackend struct {
	mu    sync.RWMutex
	nodes map[string][]Node
	ids   map[string]map[string]int
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		nodes: make(map[string][]Node),
		ids:   make(map[string]map[string]int),
	}
}

// NewMemoryBackendFromContent creates an in-memory backend holding the
// loaded content
func NewMemoryBackendFromContent(content *Content) *MemoryBackend {
	b := NewMemoryBackend()
	for _, typeName := range content.TypeNames() {
		b.Add(typeName, content.Nodes[typeName]...)
	}
	return b
}

// Add stores nodes under typeName. A node whose id is already stored
// replaces the earlier one. Adding no nodes still registers the type.
func (b *MemoryBackend) Add(typeName string, nodes ...Node) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids, ok := b.ids[typeName]
	if !ok {
		ids = make(map[string]int)
		b.ids[typeName] = ids
		b.nodes[typeName] = nil
	}

	for _, node := range nodes {
		id := node.ID()
		if i, ok := ids[id]; ok && id != "" {
			b.nodes[typeName][i] = node
			continue
		}
		if id != "" {
			ids[id] = len(b.nodes[typeName])
		}
		b.nodes[typeName] = append(b.nodes[typeName], node)
	}
}

// Find returns the nodes of typeName matching query
func (b *MemoryBackend) Find(ctx context.Context, typeName string, query *Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == nil {
		query = &Query{}
	}

	conditions, err := prepareConditions(query.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate filter: %w", err)
	}

	b.mu.RLock()
	stored, ok := b.nodes[typeName]
	if !ok {
		b.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, typeName)
	}

	matched := make([]Node, 0, len(stored))
	for _, node := range stored {
		ok, err := matchNode(node, conditions)
		if err != nil {
			b.mu.RUnlock()
			return nil, fmt.Errorf("failed to evaluate filter: %w", err)
		}
		if ok {
			matched = append(matched, node)
		}
	}
	b.mu.RUnlock()

	if query.SortBy != "" {
		sortNodes(matched, FieldPath(strings.Split(query.SortBy, ".")), query.Order)
	}

	total := len(matched)
	matched = paginate(matched, query.Skip, query.Limit)

	return &Result{
		Nodes:      matched,
		TotalCount: total,
	}, nil
}

// Get returns the node of typeName with the given id
func (b *MemoryBackend) Get(ctx context.Context, typeName, id string) (Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	ids, ok := b.ids[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, typeName)
	}
	i, ok := ids[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrNodeNotFound, typeName, id)
	}
	return b.nodes[typeName][i], nil
}

func sortNodes(nodes []Node, path FieldPath, order SortOrder) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, aok := lookup(nodes[i], path)
		bv, bok := lookup(nodes[j], path)
		cmp := compareForSort(a, bv, aok, bok)
		if order == SortDesc && aok && bok {
			cmp = -cmp
		}
		return cmp < 0
	})
}

func paginate(nodes []Node, skip, limit int) []Node {
	if skip >= len(nodes) {
		return []Node{}
	}
	nodes = nodes[skip:]
	if limit > 0 && limit < len(nodes) {
		nodes = nodes[:limit]
	}
	return nodes
}
