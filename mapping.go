package nodefilter

import (
	"fmt"
	"maps"
	"slices"
)

// Node is a single content item. The "id" property identifies it within its
// content type.
type Node map[string]any

// ID returns the node's id as a string
func (n Node) ID() string {
	switch id := n["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// ContentType is the inferred schema of one content type: every field with
// a representative sample value
type ContentType struct {
	Name   string
	Fields map[string]any
}

// FieldNames returns the field names in sorted order
func (ct *ContentType) FieldNames() []string {
	return sortedKeys(ct.Fields)
}

// InferContentType builds a content type from its nodes
func InferContentType(name string, nodes []Node, references map[string]Reference) *ContentType {
	return &ContentType{
		Name:   name,
		Fields: InferFields(nodes, references),
	}
}

// InferFields builds the sample map for a set of nodes. For every field the
// first non-empty value wins. Nested objects are merged across nodes so a
// sub-field missing from the first node is still sampled from a later one.
// Fields named in references are replaced by their reference descriptor.
func InferFields(nodes []Node, references map[string]Reference) map[string]any {
	fields := make(map[string]any)
	for _, node := range nodes {
		mergeSample(fields, node)
	}

	for name, ref := range references {
		fields[name] = ref
	}

	return fields
}

func mergeSample(dst map[string]any, src map[string]any) {
	for key, value := range src {
		existing, ok := dst[key]
		if !ok || (isEmptySample(existing) && !isEmptySample(value)) {
			dst[key] = cloneSample(value)
			continue
		}

		// Only plain objects merge. References keep the first descriptor.
		dstObj, dstIsObj := Classify(existing).(ObjectValue)
		srcObj, srcIsObj := Classify(value).(ObjectValue)
		if dstIsObj && srcIsObj {
			merged := map[string]any(dstObj)
			mergeSample(merged, srcObj)
			dst[key] = merged
		}
	}
}

func isEmptySample(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// cloneSample deep-copies maps so merging never writes into node data
func cloneSample(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneSample(val)
		}
		return out
	case Node:
		return cloneSample(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneSample(val)
		}
		return out
	}
	return v
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
