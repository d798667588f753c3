package nodefilter

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reveald/nodefilter/internal/logging"
)

func blogContent() *Content {
	return &Content{
		Nodes: map[string][]Node{
			"Post": {
				{"id": "p1", "title": "Hello", "views": 10, "date": "2021-05-01", "author": "a1", "tags": []any{"go", "graphql"}, "seo": map[string]any{"slug": "hello"}},
				{"id": "p2", "title": "Search", "views": 250, "date": "2022-01-15", "author": "a2", "tags": []any{"search"}},
				{"id": "p3", "title": "Draft", "views": 0, "date": "2020-12-31", "author": "a9", "tags": []any{"go", "missing"}},
			},
			"Author": {
				{"id": "a1", "name": "Jane"},
				{"id": "a2", "name": "John"},
			},
			"Tag": {
				{"id": "go", "label": "Go"},
				{"id": "graphql", "label": "GraphQL"},
				{"id": "search", "label": "Search"},
			},
		},
		References: map[string]map[string]Reference{
			"Post": {
				"author": {TypeName: "Author"},
				"tags":   {TypeName: "Tag", IsList: true},
			},
		},
	}
}

func blogConfig(opts ...ConfigOption) *Config {
	opts = append([]ConfigOption{WithContent(blogContent()), WithLogger(logging.Discard())}, opts...)
	return NewConfig(opts...)
}

func newBlogAPI(t *testing.T, opts ...ConfigOption) *GraphQLAPI {
	t.Helper()
	api, err := New(NewMemoryBackendFromContent(blogContent()), blogConfig(opts...))
	require.NoError(t, err)
	return api
}

func execute(t *testing.T, schema graphql.Schema, query string) map[string]any {
	t.Helper()
	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       context.Background(),
	})
	require.False(t, result.HasErrors(), "query errors: %v", result.Errors)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func nodeValues(t *testing.T, connection any, key string) []any {
	t.Helper()
	conn, ok := connection.(map[string]any)
	require.True(t, ok)
	nodes, ok := conn["nodes"].([]any)
	require.True(t, ok)

	values := make([]any, len(nodes))
	for i, node := range nodes {
		values[i] = node.(map[string]any)[key]
	}
	return values
}

func TestSchemaGenerator_RootFields(t *testing.T) {
	schema, err := GenerateSchema(blogConfig())
	require.NoError(t, err)

	fields := schema.QueryType().Fields()
	assert.ElementsMatch(t, []string{"post", "allPost", "author", "allAuthor", "tag", "allTag"}, sortedKeys(fields))

	single := fields["post"]
	assert.Equal(t, "Post", single.Type.Name())
	require.Len(t, single.Args, 1)
	assert.Equal(t, "id", single.Args[0].Name())
	assert.Equal(t, "ID!", exportType(single.Args[0].Type))

	all := fields["allPost"]
	assert.Equal(t, "PostConnection", all.Type.Name())

	args := map[string]*graphql.Argument{}
	for _, arg := range all.Args {
		args[arg.Name()] = arg
	}
	assert.ElementsMatch(t, []string{ArgFilter, ArgSortBy, ArgOrder, ArgLimit, ArgSkip}, sortedKeys(args))
	assert.Equal(t, "PostFilters", exportType(args[ArgFilter].Type))
	assert.Equal(t, "SortOrder", exportType(args[ArgOrder].Type))
	assert.Equal(t, "ASC", args[ArgOrder].DefaultValue)
}

func TestSchemaGenerator_NodeTypes(t *testing.T) {
	schema, err := GenerateSchema(blogConfig())
	require.NoError(t, err)

	post, ok := schema.Type("Post").(*graphql.Object)
	require.True(t, ok)

	fields := post.Fields()
	assert.Equal(t, "ID", exportType(fields["id"].Type))
	assert.Equal(t, "String", exportType(fields["title"].Type))
	assert.Equal(t, "Int", exportType(fields["views"].Type))
	assert.Equal(t, "String", exportType(fields["date"].Type))
	assert.Equal(t, "Author", exportType(fields["author"].Type))
	assert.Equal(t, "[Tag]", exportType(fields["tags"].Type))
	assert.Equal(t, "PostSeoObject", exportType(fields["seo"].Type))

	filters, ok := schema.Type("PostFilters").(*graphql.InputObject)
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"id", "title", "views", "date", "author", "tags", "seo"},
		sortedKeys(filters.Fields()))
	assert.Equal(t, "PostSeoInputFilter", exportType(filters.Fields()["seo"].Type))
}

func TestSchemaGenerator_DanglingReference(t *testing.T) {
	config := NewConfig(WithLogger(logging.Discard()), WithContentType("Post", &ContentTypeConfig{
		Fields: map[string]any{"id": "p1", "title": "Hello"},
		References: map[string]Reference{
			"author":   {TypeName: "Author"},
			"category": {TypeName: "Category", IsList: true},
		},
	}))

	schema, err := GenerateSchema(config)
	require.NoError(t, err)

	fields := schema.Type("Post").(*graphql.Object).Fields()
	assert.Equal(t, "String", exportType(fields["author"].Type))
	assert.Equal(t, "[String]", exportType(fields["category"].Type))
}

func TestSchemaGenerator_Namespace(t *testing.T) {
	schema, err := GenerateSchema(blogConfig(WithQueryNamespace("blog content")))
	require.NoError(t, err)

	fields := schema.QueryType().Fields()
	require.Contains(t, fields, "blogContent")
	assert.Len(t, fields, 1)
	assert.Equal(t, "BlogContentEntity", fields["blogContent"].Type.Name())

	_, err = GenerateSchema(blogConfig(WithQueryNamespace("!!")))
	assert.ErrorContains(t, err, "invalid query namespace")
}

func TestSchemaGenerator_NamespaceQueries(t *testing.T) {
	api := newBlogAPI(t, WithQueryNamespace("Content"))

	schema := api.GetSchema()
	fields := schema.QueryType().Fields()
	require.Contains(t, fields, "content")
	assert.Equal(t, "ContentEntity", fields["content"].Type.Name())

	data := execute(t, api.GetSchema(), `{ content { allPost(sortBy: "views") { totalCount nodes { id } } } }`)
	content := data["content"].(map[string]any)
	assert.Equal(t, []any{"p3", "p1", "p2"}, nodeValues(t, content["allPost"], "id"))
}

func TestSchemaGenerator_Errors(t *testing.T) {
	t.Run("no content types", func(t *testing.T) {
		_, err := GenerateSchema(NewConfig(WithLogger(logging.Discard())))
		assert.ErrorContains(t, err, "no content types configured")
	})

	t.Run("invalid type name", func(t *testing.T) {
		_, err := GenerateSchema(NewConfig(WithLogger(logging.Discard()),
			WithContentType("blog-post", &ContentTypeConfig{Fields: map[string]any{"title": "x"}})))
		assert.ErrorContains(t, err, `invalid content type name "blog-post"`)
	})

	t.Run("colliding filter names", func(t *testing.T) {
		_, err := GenerateSchema(NewConfig(WithLogger(logging.Discard()),
			WithContentType("Post", &ContentTypeConfig{Fields: map[string]any{
				"authorName": "Jane",
				"author":     map[string]any{"name": "Jane"},
			}})))
		assert.ErrorContains(t, err, "PostAuthorNameInputFilter")
	})
}

func TestSchemaGenerator_SkipsInvalidFieldNames(t *testing.T) {
	config := NewConfig(WithLogger(logging.Discard()), WithContentType("Post", &ContentTypeConfig{
		Fields: map[string]any{
			"title":      "Hello",
			"cover-url":  "https://example.com/x.png",
			"__internal": "x",
			"meta":       map[string]any{"og:title": "Hello", "lang": "en"},
		},
	}))

	sg := NewSchemaGenerator(config, nil)
	schema, err := sg.Generate()
	require.NoError(t, err)

	fields := schema.Type("Post").(*graphql.Object).Fields()
	assert.Contains(t, fields, "title")
	assert.NotContains(t, fields, "cover-url")
	assert.NotContains(t, fields, "__internal")

	meta := schema.Type("PostMetaObject").(*graphql.Object).Fields()
	assert.Equal(t, []string{"lang"}, sortedKeys(meta))

	assert.Equal(t, []string{"meta", "title"}, sg.Filters("Post").Names())
}

func TestSchemaGenerator_NoFilterArgument(t *testing.T) {
	config := NewConfig(WithLogger(logging.Discard()), WithContentType("Empty", &ContentTypeConfig{
		Nodes: []Node{{"id": nil}},
	}))

	schema, err := GenerateSchema(config)
	require.NoError(t, err)

	for _, arg := range schema.QueryType().Fields()["allEmpty"].Args {
		assert.NotEqual(t, ArgFilter, arg.Name())
	}
}

func TestSchema_ListQueries(t *testing.T) {
	schema := newBlogAPI(t).GetSchema()

	tests := []struct {
		name  string
		query string
		want  []any
		total int
	}{
		{
			name:  "number filter sorted descending",
			query: `{ allPost(filter: {views: {gte: 10}}, sortBy: "views", order: DESC) { totalCount nodes { id } } }`,
			want:  []any{"p2", "p1"},
			total: 2,
		},
		{
			name:  "reference list filter",
			query: `{ allPost(filter: {tags: {containsAny: ["search", "graphql"]}}, sortBy: "id") { totalCount nodes { id } } }`,
			want:  []any{"p1", "p2"},
			total: 2,
		},
		{
			name:  "reference filter",
			query: `{ allPost(filter: {author: {eq: "a2"}}) { totalCount nodes { id } } }`,
			want:  []any{"p2"},
			total: 1,
		},
		{
			name:  "date between",
			query: `{ allPost(filter: {date: {between: ["2021-01-01", "2021-12-31"]}}) { totalCount nodes { id } } }`,
			want:  []any{"p1"},
			total: 1,
		},
		{
			name:  "nested object filter",
			query: `{ allPost(filter: {seo: {slug: {regex: "^hel"}}}) { totalCount nodes { id } } }`,
			want:  []any{"p1"},
			total: 1,
		},
		{
			name:  "paging",
			query: `{ allPost(sortBy: "title", limit: 1, skip: 1) { totalCount nodes { id } } }`,
			want:  []any{"p1"},
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := execute(t, schema, tt.query)
			assert.Equal(t, tt.want, nodeValues(t, data["allPost"], "id"))
			assert.Equal(t, tt.total, data["allPost"].(map[string]any)["totalCount"])
		})
	}
}

func TestSchema_ResolvesReferences(t *testing.T) {
	schema := newBlogAPI(t).GetSchema()

	data := execute(t, schema, `{
		allPost(sortBy: "views", order: DESC, limit: 1) {
			nodes { id author { name } tags { label } seo { slug } }
		}
	}`)
	nodes := data["allPost"].(map[string]any)["nodes"].([]any)
	require.Len(t, nodes, 1)
	post := nodes[0].(map[string]any)
	assert.Equal(t, map[string]any{"name": "John"}, post["author"])
	assert.Equal(t, []any{map[string]any{"label": "Search"}}, post["tags"])
	assert.Nil(t, post["seo"])

	data = execute(t, schema, `{ post(id: "p3") { title author { name } tags { id } } }`)
	post = data["post"].(map[string]any)
	assert.Equal(t, "Draft", post["title"])
	assert.Nil(t, post["author"], "dangling references resolve to null")
	assert.Equal(t, []any{map[string]any{"id": "go"}}, post["tags"], "dangling ids are dropped")
}

func TestSchema_NodeQuery(t *testing.T) {
	schema := newBlogAPI(t).GetSchema()

	data := execute(t, schema, `{ author(id: "a1") { id name } }`)
	assert.Equal(t, map[string]any{"id": "a1", "name": "Jane"}, data["author"])

	data = execute(t, schema, `{ author(id: "nobody") { id } }`)
	assert.Nil(t, data["author"])
}

func TestSchema_InvalidOperator(t *testing.T) {
	schema := newBlogAPI(t).GetSchema()

	result := graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: `{ allPost(filter: {title: {gt: "x"}}) { totalCount } }`,
	})
	assert.True(t, result.HasErrors())
}
