package nodefilter

import "log/slog"

// Config defines the GraphQL API configuration
type Config struct {
	// ContentTypes maps GraphQL type names to their configuration
	ContentTypes map[string]*ContentTypeConfig

	// QueryNamespace groups all root fields under a namespace field.
	// The field is named after the namespace with a lowercased first letter,
	// its type after the PascalCased namespace plus "Entity":
	//
	//   "Content" → type ContentEntity, query { content { allPost { ... } } }
	//
	// If empty, fields are at root level (default)
	QueryNamespace string

	// EnableFederation serves the schema as an Apollo Federation v2 subgraph.
	// Every node type becomes an entity keyed by id, resolved through the
	// _entities query.
	EnableFederation bool

	// Logger receives schema build and request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// ContentTypeConfig defines one content type exposed by the API
type ContentTypeConfig struct {
	// Description is an optional description for the node type
	Description string

	// Nodes are sampled to infer Fields when Fields is empty
	Nodes []Node

	// Fields maps field names to sample values. Takes precedence over Nodes.
	Fields map[string]any

	// References marks fields pointing at nodes of other content types
	References map[string]Reference

	// Index is the Elasticsearch index holding the nodes. Defaults to the
	// lower-cased type name.
	Index string
}

// SampleFields returns the field samples, inferring them from Nodes when
// none were given
func (c *ContentTypeConfig) SampleFields() map[string]any {
	if len(c.Fields) > 0 {
		if len(c.References) == 0 {
			return c.Fields
		}
		fields := make(map[string]any, len(c.Fields)+len(c.References))
		for name, sample := range c.Fields {
			fields[name] = sample
		}
		for name, ref := range c.References {
			fields[name] = ref
		}
		return fields
	}
	return InferFields(c.Nodes, c.References)
}

// ConfigOption is a functional option for configuring the GraphQL API
type ConfigOption func(*Config)

// WithContentType adds a content type
func WithContentType(name string, contentType *ContentTypeConfig) ConfigOption {
	return func(c *Config) {
		c.AddContentType(name, contentType)
	}
}

// WithContent adds every content type of a loaded content directory
func WithContent(content *Content) ConfigOption {
	return func(c *Config) {
		for _, name := range content.TypeNames() {
			c.AddContentType(name, &ContentTypeConfig{
				Nodes:      content.Nodes[name],
				References: content.References[name],
			})
		}
	}
}

// WithQueryNamespace sets the query namespace
//
//	WithQueryNamespace("Content") → type ContentEntity { ... }, query { content { ... } }
func WithQueryNamespace(namespace string) ConfigOption {
	return func(c *Config) {
		c.QueryNamespace = namespace
	}
}

// WithEnableFederation enables Apollo Federation v2 support
func WithEnableFederation() ConfigOption {
	return func(c *Config) {
		c.EnableFederation = true
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// NewConfig creates a new GraphQL API configuration with optional functional options
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		ContentTypes: make(map[string]*ContentTypeConfig),
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// AddContentType adds a content type configuration to the config
func (c *Config) AddContentType(name string, config *ContentTypeConfig) {
	if c.ContentTypes == nil {
		c.ContentTypes = make(map[string]*ContentTypeConfig)
	}
	c.ContentTypes[name] = config
}

// TypeNames returns the configured content type names in sorted order
func (c *Config) TypeNames() []string {
	return sortedKeys(c.ContentTypes)
}

// ElasticOptions returns the backend options for the configured indices
func (c *Config) ElasticOptions() []ElasticOption {
	var opts []ElasticOption
	for _, name := range c.TypeNames() {
		if index := c.ContentTypes[name].Index; index != "" {
			opts = append(opts, WithIndex(name, index))
		}
	}
	return opts
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
