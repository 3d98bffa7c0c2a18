package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newMarkdownNode(id string) *Node {
	return &Node{
		ID:       id,
		Internal: Internal{Type: TypeMarkdownRemark},
	}
}

func TestStore_CreateNode(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.CreateNode(newMarkdownNode("a")))
	require.NoError(t, s.CreateNode(newMarkdownNode("b")))

	require.ErrorIs(t, s.CreateNode(newMarkdownNode("a")), ErrDuplicateNode)
	require.ErrorIs(t, s.CreateNode(nil), ErrNilNode)
	require.ErrorIs(t, s.CreateNode(&Node{}), ErrEmptyNodeID)

	require.Equal(t, 2, s.Len())
	nodes := s.Nodes()
	require.Equal(t, "a", nodes[0].ID)
	require.Equal(t, "b", nodes[1].ID)
}

func TestStore_CreateNodeField(t *testing.T) {
	s := NewStore()
	n := newMarkdownNode("a")
	require.NoError(t, s.CreateNode(n))

	require.NoError(t, s.CreateNodeField(n, FieldDirectoryName, "hello"))
	require.Equal(t, "hello", n.StringField(FieldDirectoryName))

	t.Run("write once", func(t *testing.T) {
		require.ErrorIs(t, s.CreateNodeField(n, FieldDirectoryName, "other"), ErrFieldExists)
		require.Equal(t, "hello", n.StringField(FieldDirectoryName))
	})

	t.Run("rejects foreign nodes", func(t *testing.T) {
		require.ErrorIs(t, s.CreateNodeField(newMarkdownNode("x"), FieldSlug, "/x/"), ErrNodeNotFound)
		require.ErrorIs(t, s.CreateNodeField(newMarkdownNode("a"), FieldSlug, "/x/"), ErrNodeNotFound)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		require.ErrorIs(t, s.CreateNodeField(nil, FieldSlug, "/x/"), ErrNilNode)
		require.ErrorIs(t, s.CreateNodeField(n, "", "/x/"), ErrEmptyFieldName)
	})
}

func TestStore_NodeReturnsSnapshot(t *testing.T) {
	s := NewStore()
	n := newMarkdownNode("a")
	n.Frontmatter = map[string]any{"title": "Hi"}
	require.NoError(t, s.CreateNode(n))
	require.NoError(t, s.CreateNodeField(n, FieldSlug, "/a/"))

	snap, ok := s.Node("a")
	require.True(t, ok)
	snap.Fields[FieldSlug] = "/changed/"
	snap.Frontmatter["title"] = "changed"

	require.Equal(t, "/a/", n.StringField(FieldSlug))
	require.Equal(t, "Hi", n.Title())

	_, ok = s.Node("missing")
	require.False(t, ok)
}

func TestNode_Accessors(t *testing.T) {
	var nilNode *Node
	require.Empty(t, nilNode.StringField(FieldSlug))
	require.Nil(t, nilNode.StringsField(FieldMaybeAbsoluteLinks))
	require.Empty(t, nilNode.Title())

	n := &Node{Fields: map[string]any{FieldMaybeAbsoluteLinks: []string{"/a/"}, FieldSlug: 3}}
	require.Equal(t, []string{"/a/"}, n.StringsField(FieldMaybeAbsoluteLinks))
	require.Empty(t, n.StringField(FieldSlug))
}
