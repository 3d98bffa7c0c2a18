// Package graph holds the content graph: the nodes discovered from Markdown
// sources, the fields derived for them, and the query the page builder runs
// over them.
//
// The orchestrator owns a Store. Hooks only see it through the narrow
// FieldWriter and Querier interfaces they are handed.
package graph

import "maps"

// TypeMarkdownRemark is the type tag of nodes created from Markdown files.
const TypeMarkdownRemark = "MarkdownRemark"

// Field names written onto Markdown nodes.
const (
	FieldSlug               = "slug"
	FieldDirectoryName      = "directoryName"
	FieldMaybeAbsoluteLinks = "maybeAbsoluteLinks"
)

// Internal carries bookkeeping owned by whoever created the node.
type Internal struct {
	Type          string
	Content       string // Raw source text, frontmatter included
	ContentDigest string
}

// Node is a unit of content tracked by the graph.
type Node struct {
	ID               string
	Internal         Internal
	FileAbsolutePath string
	Frontmatter      map[string]any
	Body             string // Markdown without frontmatter

	// Fields is written exclusively through Store.CreateNodeField.
	Fields map[string]any
}

// StringField returns fields[name] when it is a string, "" otherwise.
func (n *Node) StringField(name string) string {
	if n == nil {
		return ""
	}
	s, _ := n.Fields[name].(string)
	return s
}

// StringsField returns fields[name] when it is a []string, nil otherwise.
func (n *Node) StringsField(name string) []string {
	if n == nil {
		return nil
	}
	s, _ := n.Fields[name].([]string)
	return s
}

// Title returns the frontmatter title, if any.
func (n *Node) Title() string {
	if n == nil {
		return ""
	}
	s, _ := n.Frontmatter["title"].(string)
	return s
}

// clone returns a copy whose maps can be read without holding the store lock.
func (n *Node) clone() *Node {
	cp := *n
	cp.Frontmatter = maps.Clone(n.Frontmatter)
	cp.Fields = maps.Clone(n.Fields)
	return &cp
}
