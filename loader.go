package nodefilter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReferencesFile is the name of the optional file in a content directory
// declaring reference fields, keyed by content type then field name:
//
//	Post:
//	  author: {typeName: Author, isList: false}
const ReferencesFile = "_references.yaml"

// Content is a set of content types loaded from disk
type Content struct {
	Nodes      map[string][]Node
	References map[string]map[string]Reference
}

// TypeNames returns the loaded content type names in sorted order
func (c *Content) TypeNames() []string {
	return sortedKeys(c.Nodes)
}

// LoadContentDir loads every content type found in dir. A file
// <TypeName>.json, <TypeName>.yaml or <TypeName>.yml holds the nodes of one
// type; a directory <TypeName>/ holds one Markdown file per node. Entries
// starting with "_" or "." are skipped.
func LoadContentDir(dir string) (*Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	content := &Content{
		Nodes:      make(map[string][]Node),
		References: make(map[string]map[string]Reference),
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			nodes, err := loadMarkdownDir(path)
			if err != nil {
				return nil, err
			}
			content.Nodes[name] = append(content.Nodes[name], nodes...)
			continue
		}

		ext := filepath.Ext(name)
		switch strings.ToLower(ext) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		nodes, err := LoadNodesFile(path)
		if err != nil {
			return nil, err
		}
		typeName := strings.TrimSuffix(name, ext)
		content.Nodes[typeName] = append(content.Nodes[typeName], nodes...)
	}

	refs, err := LoadReferences(filepath.Join(dir, ReferencesFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for typeName, fields := range refs {
		content.References[typeName] = fields
	}

	return content, nil
}

func loadMarkdownDir(dir string) ([]Node, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(paths)

	nodes := make([]Node, 0, len(paths))
	for _, path := range paths {
		fileNodes, err := LoadNodesFile(path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, fileNodes...)
	}
	return nodes, nil
}

// LoadReferences reads a references file
func LoadReferences(path string) (map[string]map[string]Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read references: %w", err)
	}

	var refs map[string]map[string]Reference
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("failed to parse references %s: %w", path, err)
	}
	return refs, nil
}

// LoadNodesFile reads the nodes stored in a single file. JSON files hold an
// array of objects or a single object, YAML files one or more documents each
// holding a mapping or a sequence of mappings, and Markdown files a YAML
// front matter block followed by the body, stored as "content". Markdown
// nodes without an id take the file name.
func LoadNodesFile(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var nodes []Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		nodes, err = decodeJSONNodes(data)
	case ".yaml", ".yml":
		nodes, err = decodeYAMLNodes(data)
	case ".md", ".markdown":
		var node Node
		node, err = decodeMarkdownNode(data)
		if err == nil {
			if node.ID() == "" {
				node["id"] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			nodes = []Node{node}
		}
	default:
		return nil, fmt.Errorf("unsupported content file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nodes, nil
}

func decodeJSONNodes(data []byte) ([]Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return toNodes(raw)
}

func decodeYAMLNodes(data []byte) ([]Node, error) {
	var nodes []Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		docNodes, err := toNodes(raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, docNodes...)
	}
	return nodes, nil
}

var frontMatterDelimiter = []byte("---")

func decodeMarkdownNode(data []byte) (Node, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	node := Node{}

	rest, ok := bytes.CutPrefix(data, frontMatterDelimiter)
	if !ok || !startsLine(rest) {
		node["content"] = string(data)
		return node, nil
	}

	header, body, found := cutFrontMatter(rest)
	if !found {
		return nil, fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal(header, &node); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if node == nil {
		node = Node{}
	}
	node["content"] = strings.TrimLeft(string(body), "\r\n")
	return node, nil
}

func startsLine(b []byte) bool {
	return len(b) == 0 || b[0] == '\n' || b[0] == '\r'
}

// cutFrontMatter splits at the first line consisting only of ---
func cutFrontMatter(b []byte) (header, body []byte, found bool) {
	offset := 0
	for offset < len(b) {
		end := bytes.IndexByte(b[offset:], '\n')
		var line []byte
		next := len(b)
		if end >= 0 {
			line = b[offset : offset+end]
			next = offset + end + 1
		} else {
			line = b[offset:]
		}
		if bytes.Equal(bytes.TrimRight(line, "\r"), frontMatterDelimiter) {
			return b[:offset], b[next:], true
		}
		offset = next
	}
	return nil, nil, false
}

func toNodes(raw any) ([]Node, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []Node{t}, nil
	case []any:
		nodes := make([]Node, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is not an object", i)
			}
			nodes = append(nodes, m)
		}
		return nodes, nil
	}
	return nil, fmt.Errorf("expected an object or a list of objects, got %T", raw)
}
