package graph

import (
	"context"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"github.com/stretchr/testify/require"
)

func addPost(t *testing.T, s *Store, id, slug string, frontmatter map[string]any) {
	t.Helper()
	n := newMarkdownNode(id)
	n.Frontmatter = frontmatter
	require.NoError(t, s.CreateNode(n))
	if slug != "" {
		require.NoError(t, s.CreateNodeField(n, FieldSlug, slug))
	}
}

func slugs(r *Result) []string {
	var out []string
	for _, e := range r.Edges() {
		out = append(out, e.Node.Fields.Slug)
	}
	return out
}

func TestAllMarkdownRemark_SortsByDateDescending(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/a/", map[string]any{"title": "A", "date": "2019-01-01"})
	addPost(t, s, "2", "/c/", map[string]any{"title": "C", "date": "2021-03-04T10:00:00Z"})
	addPost(t, s, "3", "/b/", map[string]any{"title": "B", "date": time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, s.CreateNode(&Node{ID: "file", Internal: Internal{Type: "File"}}))

	res := s.AllMarkdownRemark(context.Background(), DefaultPostsQuery())
	require.False(t, res.HasErrors())
	require.Equal(t, []string{"/c/", "/b/", "/a/"}, slugs(res))
	require.Equal(t, "C", res.Edges()[0].Node.Frontmatter.Title)
	require.Equal(t, "2", res.Edges()[0].Node.ID)
}

func TestAllMarkdownRemark_Ascending(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/b/", map[string]any{"date": "2020-01-01"})
	addPost(t, s, "2", "/a/", map[string]any{"date": "2019-01-01"})

	res := s.AllMarkdownRemark(context.Background(), PostsQuery{SortField: "frontmatter.date", Order: Asc, Limit: 10})
	require.Equal(t, []string{"/a/", "/b/"}, slugs(res))
}

func TestAllMarkdownRemark_MissingDatesSortLastInDiscoveryOrder(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/undated-1/", map[string]any{"title": "x"})
	addPost(t, s, "2", "/dated/", map[string]any{"date": "2020-01-01"})
	addPost(t, s, "3", "/undated-2/", nil)

	res := s.AllMarkdownRemark(context.Background(), DefaultPostsQuery())
	require.False(t, res.HasErrors())
	require.Equal(t, []string{"/dated/", "/undated-1/", "/undated-2/"}, slugs(res))
}

func TestAllMarkdownRemark_EqualDatesKeepDiscoveryOrder(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/first/", map[string]any{"date": "2020-01-01"})
	addPost(t, s, "2", "/second/", map[string]any{"date": "2020-01-01"})

	res := s.AllMarkdownRemark(context.Background(), DefaultPostsQuery())
	require.Equal(t, []string{"/first/", "/second/"}, slugs(res))
}

func TestAllMarkdownRemark_Limit(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/a/", map[string]any{"date": "2019-01-01"})
	addPost(t, s, "2", "/b/", map[string]any{"date": "2020-01-01"})
	addPost(t, s, "3", "/c/", map[string]any{"date": "2021-01-01"})

	q := DefaultPostsQuery()
	q.Limit = 2
	res := s.AllMarkdownRemark(context.Background(), q)
	require.Equal(t, []string{"/c/", "/b/"}, slugs(res))
}

func TestAllMarkdownRemark_SortByFields(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/b/", nil)
	addPost(t, s, "2", "/a/", nil)

	res := s.AllMarkdownRemark(context.Background(), PostsQuery{SortField: "fields.slug", Order: Asc, Limit: 5})
	require.Equal(t, []string{"/a/", "/b/"}, slugs(res))
}

func TestAllMarkdownRemark_Empty(t *testing.T) {
	res := NewStore().AllMarkdownRemark(context.Background(), DefaultPostsQuery())
	require.False(t, res.HasErrors())
	require.NotNil(t, res.Data)
	require.Empty(t, res.Edges())
}

func TestAllMarkdownRemark_Errors(t *testing.T) {
	s := NewStore()
	addPost(t, s, "1", "/a/", map[string]any{"date": "2019-01-01"})

	t.Run("bad date keeps data and reports error", func(t *testing.T) {
		s := NewStore()
		addPost(t, s, "1", "/good/", map[string]any{"date": "2019-01-01"})
		addPost(t, s, "2", "/bad/", map[string]any{"date": "not a date"})

		res := s.AllMarkdownRemark(context.Background(), DefaultPostsQuery())
		require.True(t, res.HasErrors())
		require.Len(t, res.Errors, 1)
		require.True(t, ferrors.HasCategory(res.Errors[0], ferrors.CategoryQuery))
		require.Equal(t, []string{"/good/", "/bad/"}, slugs(res))
	})

	cases := map[string]PostsQuery{
		"zero limit":      {SortField: "frontmatter.date", Order: Desc, Limit: 0},
		"bad order":       {SortField: "frontmatter.date", Order: "SIDEWAYS", Limit: 1},
		"bad sort field":  {SortField: "date", Order: Desc, Limit: 1},
		"unknown section": {SortField: "internal.type", Order: Desc, Limit: 1},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			res := s.AllMarkdownRemark(context.Background(), q)
			require.True(t, res.HasErrors())
			require.Nil(t, res.Data)
			require.Empty(t, res.Edges())
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := s.AllMarkdownRemark(ctx, DefaultPostsQuery())
		require.True(t, res.HasErrors())
		require.ErrorIs(t, res.Errors[0], context.Canceled)
	})
}
