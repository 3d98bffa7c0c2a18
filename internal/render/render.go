// Package render materialises page descriptors as HTML files.
//
// Each page names a template component. Post pages are executed with the
// post's rendered Markdown and its neighbours; the index page receives every
// post in the order the page builder created them, which is query order.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/markdown"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/pages"
	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel page writes when none is configured.
const DefaultConcurrency = 4

const excerptRunes = 160

// ErrPathEscapes is returned for page paths that resolve outside the
// output directory.
var ErrPathEscapes = errors.New("page path escapes output directory")

// Site is the metadata every template sees as .Site.
type Site struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
}

// NodeSource lists the nodes of the content graph.
type NodeSource interface {
	Nodes() []*graph.Node
}

// Link points at a neighbouring post.
type Link struct {
	Slug  string
	Title string
}

// PostSummary is one entry of the index page.
type PostSummary struct {
	Slug          string
	Title         string
	DirectoryName string
	Date          time.Time
	Excerpt       string
	Digest        string
}

// IndexData is the data of the index component.
type IndexData struct {
	Site  Site
	Posts []PostSummary
}

// PostData is the data of the post component.
type PostData struct {
	Site          Site
	Slug          string
	Title         string
	DirectoryName string
	Date          time.Time
	Frontmatter   map[string]any
	Digest        string // Content fingerprint of the source file
	Content       template.HTML
	Links         []string
	Previous      *Link
	Next          *Link
}

// Renderer writes pages below an output directory.
type Renderer struct {
	outputDir   string
	site        Site
	md          *markdown.Renderer
	concurrency int
	logger      *slog.Logger
	recorder    metrics.Recorder
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithMarkdown(md *markdown.Renderer) Option {
	return func(r *Renderer) {
		if md != nil {
			r.md = md
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Renderer) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New returns a Renderer writing below outputDir.
func New(outputDir string, site Site, opts ...Option) *Renderer {
	r := &Renderer{
		outputDir:   outputDir,
		site:        site,
		md:          markdown.NewRenderer(markdown.Options{}),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	page pages.Page
	tpl  *template.Template
	data any
	dest string
}

// Render writes every page and returns how many files were written. Pages
// are prepared serially and written concurrently; the first failure cancels
// the remaining writes.
func (r *Renderer) Render(ctx context.Context, descriptors []pages.Page, nodes NodeSource) (int, error) {
	jobs, err := r.prepare(descriptors, nodes)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	written := make([]bool, len(jobs))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.write(j); err != nil {
				return err
			}
			written[i] = true
			return nil
		})
	}
	err = g.Wait()

	n := 0
	for _, ok := range written {
		if ok {
			n++
		}
	}
	r.recorder.AddPagesWritten(n)
	if err != nil {
		return n, err
	}
	r.logger.Info("Pages rendered", logfields.Count(n), slog.String("output", r.outputDir))
	return n, nil
}

func (r *Renderer) prepare(descriptors []pages.Page, nodes NodeSource) ([]job, error) {
	bySlug := make(map[string]*graph.Node)
	byID := make(map[string]*graph.Node)
	if nodes != nil {
		for _, n := range nodes.Nodes() {
			if n.Internal.Type != graph.TypeMarkdownRemark {
				continue
			}
			byID[n.ID] = n
			if slug := n.StringField(graph.FieldSlug); slug != "" {
				bySlug[slug] = n
			}
		}
	}

	templates := make(map[string]*template.Template)
	component := func(path string) (*template.Template, error) {
		if tpl, ok := templates[path]; ok {
			return tpl, nil
		}
		tpl, source, err := loadComponent(path, r.site.BaseURL)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "load template component").
				Fatal().WithContext("component", path).Build()
		}
		r.logger.Debug("Template component loaded", logfields.Component(path), slog.String("source", string(source)))
		templates[path] = tpl
		return tpl, nil
	}

	var summaries []PostSummary
	for _, p := range descriptors {
		if p.Context == nil {
			continue
		}
		node := bySlug[p.Context.Slug]
		summaries = append(summaries, PostSummary{
			Slug:          p.Context.Slug,
			Title:         node.Title(),
			DirectoryName: node.StringField(graph.FieldDirectoryName),
			Date:          postDate(node),
			Excerpt:       excerpt(node),
			Digest:        digest(node),
		})
	}

	jobs := make([]job, 0, len(descriptors))
	for _, p := range descriptors {
		dest, err := OutputPath(r.outputDir, p.Path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "invalid page path").
				WithContext("path", p.Path).Build()
		}
		tpl, err := component(p.Component)
		if err != nil {
			return nil, err
		}

		j := job{page: p, tpl: tpl, dest: dest}
		if p.Context == nil {
			j.data = IndexData{Site: r.site, Posts: summaries}
		} else {
			data, err := r.postData(p.Context, bySlug[p.Context.Slug], byID)
			if err != nil {
				return nil, err
			}
			j.data = data
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (r *Renderer) postData(pc *pages.PostContext, node *graph.Node, byID map[string]*graph.Node) (PostData, error) {
	data := PostData{
		Site:     r.site,
		Slug:     pc.Slug,
		Previous: link(pc.Previous, byID),
		Next:     link(pc.Next, byID),
	}
	if node == nil {
		r.logger.Warn("No content node for post page", logfields.Slug(pc.Slug))
		return data, nil
	}

	html, err := r.md.Render([]byte(node.Body))
	if err != nil {
		return PostData{}, ferrors.WrapError(err, ferrors.CategoryRender, "render markdown").
			WithContext("file", node.FileAbsolutePath).Build()
	}
	data.Title = node.Title()
	data.DirectoryName = node.StringField(graph.FieldDirectoryName)
	data.Date = postDate(node)
	data.Frontmatter = node.Frontmatter
	data.Digest = node.Internal.ContentDigest
	// #nosec G203 -- goldmark output; raw HTML is only kept when render.unsafe_html is set.
	data.Content = template.HTML(html)
	data.Links = node.StringsField(graph.FieldMaybeAbsoluteLinks)
	return data, nil
}

func (r *Renderer) write(j job) error {
	var buf bytes.Buffer
	if err := j.tpl.Execute(&buf, j.data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "execute template").
			WithContext("path", j.page.Path).WithContext("component", j.page.Component).Build()
	}
	if err := os.MkdirAll(filepath.Dir(j.dest), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create page directory").
			WithContext("path", j.dest).Build()
	}
	if err := os.WriteFile(j.dest, buf.Bytes(), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write page").
			WithContext("path", j.dest).Build()
	}
	r.logger.Debug("Page written", logfields.Path(j.page.Path), logfields.File(j.dest))
	return nil
}

// OutputPath maps a page path such as "/hello/" to <outputDir>/hello/index.html.
func OutputPath(outputDir, pagePath string) (string, error) {
	if pagePath == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathEscapes)
	}
	rel := filepath.FromSlash(strings.Trim(pagePath, "/"))
	full := filepath.Join(outputDir, rel, "index.html")

	back, err := filepath.Rel(outputDir, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, pagePath)
	}
	return full, nil
}

func link(pn *graph.PostNode, byID map[string]*graph.Node) *Link {
	if pn == nil {
		return nil
	}
	l := &Link{Slug: pn.Fields.Slug, Title: pn.Frontmatter.Title}
	if l.Title == "" {
		l.Title = byID[pn.ID].Title()
	}
	return l
}

func postDate(node *graph.Node) time.Time {
	if node == nil {
		return time.Time{}
	}
	switch v := node.Frontmatter["date"].(type) {
	case time.Time:
		return v
	case string:
		t, err := dateparse.ParseAny(v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func digest(node *graph.Node) string {
	if node == nil {
		return ""
	}
	return node.Internal.ContentDigest
}

func excerpt(node *graph.Node) string {
	if node == nil {
		return ""
	}
	if s, ok := node.Frontmatter["spoiler"].(string); ok && s != "" {
		return s
	}
	return markdown.Excerpt([]byte(node.Body), excerptRunes)
}
