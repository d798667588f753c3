package nodefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID(t *testing.T) {
	assert.Equal(t, "abc", Node{"id": "abc"}.ID())
	assert.Equal(t, "42", Node{"id": 42}.ID())
	assert.Equal(t, "", Node{"title": "x"}.ID())
	assert.Equal(t, "", Node{"id": nil}.ID())
}

func TestInferFields(t *testing.T) {
	nodes := []Node{
		{"id": "1", "title": "", "tags": []any{}, "author": map[string]any{"name": "Jane"}},
		{"id": "2", "title": "Second", "tags": []any{"go"}, "author": map[string]any{"email": "j@x.io"}, "views": 3},
		{"id": "3", "title": "Third", "views": 9},
	}

	fields := InferFields(nodes, nil)

	assert.Equal(t, "1", fields["id"])
	assert.Equal(t, "Second", fields["title"], "empty values are replaced by later samples")
	assert.Equal(t, []any{"go"}, fields["tags"])
	assert.Equal(t, 3, fields["views"], "first non-empty value wins")
	assert.Equal(t, map[string]any{"name": "Jane", "email": "j@x.io"}, fields["author"])
}

func TestInferFields_DoesNotMutateNodes(t *testing.T) {
	author := map[string]any{"name": "Jane"}
	nodes := []Node{
		{"author": author},
		{"author": map[string]any{"email": "j@x.io"}},
	}

	InferFields(nodes, nil)

	assert.Equal(t, map[string]any{"name": "Jane"}, author)
}

func TestInferFields_References(t *testing.T) {
	nodes := []Node{
		{"id": "1", "author": "a1", "tags": []any{"t1", "t2"}},
	}
	refs := map[string]Reference{
		"author":  {TypeName: "Author"},
		"tags":    {TypeName: "Tag", IsList: true},
		"related": {TypeName: "Post", IsList: true},
	}

	fields := InferFields(nodes, refs)

	assert.Equal(t, Reference{TypeName: "Author"}, fields["author"])
	assert.Equal(t, Reference{TypeName: "Tag", IsList: true}, fields["tags"])
	assert.Equal(t, Reference{TypeName: "Post", IsList: true}, fields["related"],
		"references are declared even when no node carries the field")
}

func TestInferFields_ReferenceDescriptorNotMerged(t *testing.T) {
	nodes := []Node{
		{"author": map[string]any{"typeName": "Author", "isList": false}},
		{"author": map[string]any{"name": "Jane"}},
	}

	fields := InferFields(nodes, nil)

	assert.Equal(t, map[string]any{"typeName": "Author", "isList": false}, fields["author"])
	assert.True(t, IsReferenceField(fields["author"]))
}

func TestInferContentType(t *testing.T) {
	ct := InferContentType("Post", []Node{
		{"id": "1", "title": "Hello", "date": "2021-05-01"},
	}, nil)

	require.NotNil(t, ct)
	assert.Equal(t, "Post", ct.Name)
	assert.Equal(t, []string{"date", "id", "title"}, ct.FieldNames())
}
