package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"github.com/araddon/dateparse"
)

// SortOrder is the direction of a query sort.
type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// DefaultPostsLimit caps the number of posts a query returns.
const DefaultPostsLimit = 1000

// PostsQuery selects Markdown nodes sorted by one frontmatter or fields
// value, e.g. "frontmatter.date" or "fields.slug".
type PostsQuery struct {
	SortField string
	Order     SortOrder
	Limit     int
}

// DefaultPostsQuery is the query the page builder issues: newest first,
// at most DefaultPostsLimit posts.
func DefaultPostsQuery() PostsQuery {
	return PostsQuery{SortField: "frontmatter.date", Order: Desc, Limit: DefaultPostsLimit}
}

// PostFields are the derived fields selected by the query.
type PostFields struct {
	Slug          string
	DirectoryName string
}

// PostFrontmatter is the frontmatter selected by the query.
type PostFrontmatter struct {
	Title string
}

// PostNode is the projection of a Markdown node returned by the query.
type PostNode struct {
	ID          string
	Fields      PostFields
	Frontmatter PostFrontmatter
}

// Edge wraps one query result.
type Edge struct {
	Node PostNode
}

// PostsData is the data part of a query result.
type PostsData struct {
	Edges []Edge
}

// Result mirrors a graph query response: data and a list of errors. A
// result can carry both.
type Result struct {
	Data   *PostsData
	Errors []error
}

// HasErrors reports whether the query reported any error.
func (r *Result) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// Edges returns the result edges, or nil when there is no data.
func (r *Result) Edges() []Edge {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Edges
}

// Querier is the graph query capability handed to the page builder.
type Querier interface {
	AllMarkdownRemark(ctx context.Context, q PostsQuery) *Result
}

// AllMarkdownRemark runs q over the Markdown nodes of the store. Problems are
// reported in Result.Errors, never by panicking or returning nil.
func (s *Store) AllMarkdownRemark(ctx context.Context, q PostsQuery) *Result {
	if err := ctx.Err(); err != nil {
		return &Result{Errors: []error{err}}
	}
	if err := validateQuery(q); err != nil {
		return &Result{Errors: []error{err}}
	}

	section, key, _ := strings.Cut(q.SortField, ".")

	type row struct {
		node *Node
		key  sortKey
		seq  int
	}
	var (
		rows []row
		errs []error
	)

	s.mu.RLock()
	for i, id := range s.order {
		n := s.nodes[id]
		if n.Internal.Type != TypeMarkdownRemark {
			continue
		}
		var raw any
		if section == "frontmatter" {
			raw = n.Frontmatter[key]
		} else {
			raw = n.Fields[key]
		}
		k, err := newSortKey(key, raw)
		if err != nil {
			errs = append(errs, ferrors.WrapError(err, ferrors.CategoryQuery, "cannot sort on "+q.SortField).
				WithContext("node_id", n.ID).
				WithContext("path", n.FileAbsolutePath).
				Build())
		}
		rows = append(rows, row{node: n, key: k, seq: i})
	}
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].key, rows[j].key
		// Missing values go last in both directions.
		if a.missing != b.missing {
			return b.missing
		}
		c := a.compare(b)
		if q.Order == Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return rows[i].seq < rows[j].seq
	})

	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	edges := make([]Edge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, Edge{Node: project(r.node)})
	}
	return &Result{Data: &PostsData{Edges: edges}, Errors: errs}
}

func validateQuery(q PostsQuery) error {
	if q.Limit <= 0 {
		return ferrors.QueryError("limit must be positive").WithContext("limit", q.Limit).Build()
	}
	if q.Order != Asc && q.Order != Desc {
		return ferrors.QueryError("unsupported sort order").WithContext("order", string(q.Order)).Build()
	}
	section, key, ok := strings.Cut(q.SortField, ".")
	if !ok || key == "" || (section != "frontmatter" && section != "fields") {
		return ferrors.QueryError("unsupported sort field").WithContext("field", q.SortField).Build()
	}
	return nil
}

func project(n *Node) PostNode {
	return PostNode{
		ID: n.ID,
		Fields: PostFields{
			Slug:          n.StringField(FieldSlug),
			DirectoryName: n.StringField(FieldDirectoryName),
		},
		Frontmatter: PostFrontmatter{Title: n.Title()},
	}
}

// sortKey orders values of one kind; dates before numbers before strings
// when a field mixes kinds.
type sortKey struct {
	missing bool
	rank    int
	t       time.Time
	f       float64
	s       string
}

func newSortKey(name string, v any) (sortKey, error) {
	switch val := v.(type) {
	case nil:
		return sortKey{missing: true}, nil
	case time.Time:
		return sortKey{rank: 0, t: val}, nil
	case int:
		return sortKey{rank: 1, f: float64(val)}, nil
	case int64:
		return sortKey{rank: 1, f: float64(val)}, nil
	case float64:
		return sortKey{rank: 1, f: val}, nil
	case string:
		if isDateField(name) {
			t, err := dateparse.ParseAny(strings.TrimSpace(val))
			if err != nil {
				return sortKey{missing: true}, fmt.Errorf("parse date %q: %w", val, err)
			}
			return sortKey{rank: 0, t: t}, nil
		}
		return sortKey{rank: 2, s: val}, nil
	default:
		return sortKey{rank: 2, s: fmt.Sprint(val)}, nil
	}
}

func isDateField(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), "date")
}

func (k sortKey) compare(o sortKey) int {
	if k.rank != o.rank {
		return k.rank - o.rank
	}
	switch k.rank {
	case 0:
		return k.t.Compare(o.t)
	case 1:
		switch {
		case k.f < o.f:
			return -1
		case k.f > o.f:
			return 1
		}
		return 0
	default:
		return strings.Compare(k.s, o.s)
	}
}
