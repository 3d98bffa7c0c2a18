// Package pages turns the Markdown nodes of the content graph into page
// descriptors: one index page plus one page per post, linked to their
// neighbours in date order.
package pages

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
)

// IndexPath is where the index page is created.
const IndexPath = "/"

// ErrNoCreator is returned when CreatePages is called without a page sink.
var ErrNoCreator = errors.New("page creator is nil")

// ErrNoQuerier is returned when CreatePages is called without a posts querier.
var ErrNoQuerier = errors.New("posts querier is nil")

// Page is a request to materialise one output page from a template
// component and a context.
type Page struct {
	Path      string
	Component string
	Context   *PostContext // nil for the index page
}

// PostContext is passed to the post component. Previous is the next older
// post and Next the next newer one; both are nil at the ends of the list.
type PostContext struct {
	Slug     string
	Previous *graph.PostNode
	Next     *graph.PostNode
}

// Creator is the page-creation capability handed to the builder.
type Creator interface {
	CreatePage(page Page) error
}

// Builder implements the page creation hook.
type Builder struct {
	components Components
	query      graph.PostsQuery
	logger     *slog.Logger
	recorder   metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithQuery overrides the posts query (mainly the limit).
func WithQuery(q graph.PostsQuery) Option {
	return func(b *Builder) { b.query = q }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// NewBuilder returns a Builder using graph.DefaultPostsQuery.
func NewBuilder(components Components, opts ...Option) *Builder {
	b := &Builder{
		components: components,
		query:      graph.DefaultPostsQuery(),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreatePages creates the index page, queries the posts and creates one
// page per post. When the query reports errors they are logged and no post
// page is created; that is not an error for the caller. Only failures of
// pages are returned.
func (b *Builder) CreatePages(ctx context.Context, posts graph.Querier, pages Creator) error {
	if pages == nil {
		return ErrNoCreator
	}
	if posts == nil {
		return ErrNoQuerier
	}

	if err := b.create(pages, Page{Path: IndexPath, Component: b.components.Index}); err != nil {
		return err
	}

	result := posts.AllMarkdownRemark(ctx, b.query)
	if result.HasErrors() {
		b.recorder.AddQueryErrors(len(result.Errors))
		for _, err := range result.Errors {
			b.logger.Error("Posts query failed", logfields.Error(err))
		}
		b.logger.Warn("Skipping post pages because the posts query failed",
			slog.Int("errors", len(result.Errors)))
		return nil
	}

	edges := result.Edges()
	for i, edge := range edges {
		var previous, next *graph.PostNode
		if i < len(edges)-1 {
			previous = &edges[i+1].Node
		}
		if i > 0 {
			next = &edges[i-1].Node
		}

		slug := edge.Node.Fields.Slug
		page := Page{
			Path:      slug,
			Component: b.components.Post,
			Context:   &PostContext{Slug: slug, Previous: previous, Next: next},
		}
		if err := b.create(pages, page); err != nil {
			return err
		}
	}

	b.logger.Info("Post pages created", logfields.Count(len(edges)))
	return nil
}

func (b *Builder) create(pages Creator, page Page) error {
	if err := pages.CreatePage(page); err != nil {
		return err
	}
	b.recorder.IncPagesCreated(page.Component)
	b.logger.Debug("Page created", logfields.Path(page.Path), logfields.Component(page.Component))
	return nil
}
