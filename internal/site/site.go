// Package site runs a complete build: source the content graph, annotate
// every node, create page descriptors and render them.
package site

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/annotate"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/markdown"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/pages"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/source"
)

// Phase names one step of a build.
type Phase string

const (
	PhaseClean  Phase = "clean"
	PhaseSource Phase = "source"
	PhasePages  Phase = "pages"
	PhaseRender Phase = "render"
)

// Report summarises one build.
type Report struct {
	Outcome         metrics.BuildOutcome
	NodesDiscovered int
	NodesAnnotated  int
	Skipped         []source.Skipped
	PagesCreated    int
	PagesWritten    int
	QueryErrors     int

	// Digests maps each post slug to the content fingerprint of its source.
	Digests map[string]string
	// Changed lists, in discovery order, the slugs whose fingerprint differs
	// from the baseline or that the baseline does not know. It is nil when
	// the build ran without a baseline.
	Changed []string

	PhaseDurations map[Phase]time.Duration
	Start          time.Time
	End            time.Time
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Builder builds a site from a loaded configuration.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	baseline map[string]string
}

// Option configures a Builder.
type Option func(*Builder)

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

// WithBaseline compares the content fingerprints of this build against the
// Digests of an earlier report.
func WithBaseline(digests map[string]string) Option {
	return func(b *Builder) {
		if digests != nil {
			b.baseline = digests
		}
	}
}

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// buildState is shared by the phases of one build.
type buildState struct {
	store     *graph.Store
	collector *pages.Collector
	report    *Report
}

type phaseDef struct {
	name Phase
	fn   func(ctx context.Context, bs *buildState) error
}

// Build runs every phase in order and stops at the first failure. A failed
// posts query is not a failure: the build completes with the index page
// only and the outcome is degraded.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	bs := &buildState{
		store:     graph.NewStore(),
		collector: pages.NewCollector(b.logger),
		report:    &Report{PhaseDurations: make(map[Phase]time.Duration), Start: time.Now()},
	}

	phases := []phaseDef{
		{PhaseClean, b.clean},
		{PhaseSource, b.sourceNodes},
		{PhasePages, b.createPages},
		{PhaseRender, b.renderPages},
	}

	err := b.runPhases(ctx, bs, phases)
	bs.report.End = time.Now()
	bs.report.Outcome = outcome(err, bs.report)
	b.recorder.ObserveBuildDuration(bs.report.Duration())
	b.recorder.IncBuildOutcome(bs.report.Outcome)

	if err != nil {
		return bs.report, err
	}
	b.logger.Info("Build finished",
		slog.String("outcome", string(bs.report.Outcome)),
		slog.Int("nodes", bs.report.NodesDiscovered),
		slog.Int("pages", bs.report.PagesWritten),
		logfields.DurationMS(float64(bs.report.Duration().Milliseconds())))
	return bs.report, nil
}

func (b *Builder) runPhases(ctx context.Context, bs *buildState, phases []phaseDef) error {
	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		t0 := time.Now()
		err := ph.fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.PhaseDurations[ph.name] = dur
		b.recorder.ObservePhaseDuration(string(ph.name), dur)
		if err != nil {
			b.logger.Error("Build phase failed", logfields.Phase(string(ph.name)), logfields.Error(err))
			return err
		}
		b.logger.Debug("Build phase complete", logfields.Phase(string(ph.name)), logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}

func (b *Builder) clean(_ context.Context, _ *buildState) error {
	out := b.cfg.Resolve(b.cfg.Output.Directory)
	if b.cfg.Output.Clean {
		if err := config.ValidateOutput(b.cfg); err != nil {
			return err
		}
		if err := os.RemoveAll(out); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").WithContext("path", out).Build()
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").WithContext("path", out).Build()
	}
	return nil
}

func (b *Builder) sourceNodes(ctx context.Context, bs *buildState) error {
	mode := annotate.LinkModeObserved
	if b.cfg.Links.CollectAbsolute {
		mode = annotate.LinkModeCollect
	}
	annotator := annotate.New(annotate.WithLinkMode(mode), annotate.WithLogger(b.logger))

	onCreate := func(node *graph.Node) error {
		if err := annotator.OnCreateNode(node, bs.store); err != nil {
			return err
		}
		if node.Internal.Type == graph.TypeMarkdownRemark {
			bs.report.NodesAnnotated++
		}
		return nil
	}

	src := source.New(b.cfg.Resolve(b.cfg.Content.Dir), source.WithLogger(b.logger), source.WithRecorder(b.recorder))
	rep, err := src.SourceNodes(ctx, bs.store, onCreate)
	bs.report.NodesDiscovered = rep.Created
	bs.report.Skipped = rep.Skipped
	if err != nil {
		return err
	}
	b.collectDigests(bs)
	return nil
}

func (b *Builder) collectDigests(bs *buildState) {
	digests := make(map[string]string)
	var changed []string
	for _, n := range bs.store.Nodes() {
		slug := n.StringField(graph.FieldSlug)
		if n.Internal.Type != graph.TypeMarkdownRemark || slug == "" {
			continue
		}
		digests[slug] = n.Internal.ContentDigest
		if b.baseline == nil {
			continue
		}
		if prev, ok := b.baseline[slug]; !ok || prev != n.Internal.ContentDigest {
			changed = append(changed, slug)
			b.logger.Debug("Post content changed", logfields.Slug(slug))
		}
	}
	bs.report.Digests = digests
	if b.baseline != nil {
		bs.report.Changed = changed
		if changed == nil {
			bs.report.Changed = []string{}
		}
	}
}

func (b *Builder) createPages(ctx context.Context, bs *buildState) error {
	components, err := pages.ResolveComponents(b.cfg.ProjectDir, b.cfg.Templates.Dir, b.cfg.Templates.Index, b.cfg.Templates.Post)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve template components").Build()
	}

	query := graph.DefaultPostsQuery()
	query.Limit = b.cfg.Query.Limit
	builder := pages.NewBuilder(components,
		pages.WithQuery(query),
		pages.WithLogger(b.logger),
		pages.WithRecorder(b.recorder))

	querier := &countingQuerier{next: bs.store}
	if err := builder.CreatePages(ctx, querier, bs.collector); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "create pages").Build()
	}
	bs.report.QueryErrors = querier.errors
	bs.report.PagesCreated = len(bs.collector.Pages())
	return nil
}

func (b *Builder) renderPages(ctx context.Context, bs *buildState) error {
	site := render.Site{
		Title:       b.cfg.Site.Title,
		Description: b.cfg.Site.Description,
		BaseURL:     b.cfg.Site.BaseURL,
		Author:      b.cfg.Site.Author,
	}
	r := render.New(b.cfg.Resolve(b.cfg.Output.Directory), site,
		render.WithConcurrency(b.cfg.Render.Concurrency),
		render.WithMarkdown(markdown.NewRenderer(markdown.Options{Unsafe: b.cfg.Render.UnsafeHTML})),
		render.WithLogger(b.logger),
		render.WithRecorder(b.recorder))

	n, err := r.Render(ctx, bs.collector.Pages(), bs.store)
	bs.report.PagesWritten = n
	return err
}

// countingQuerier remembers how many errors the posts query reported.
type countingQuerier struct {
	next   graph.Querier
	errors int
}

func (q *countingQuerier) AllMarkdownRemark(ctx context.Context, pq graph.PostsQuery) *graph.Result {
	res := q.next.AllMarkdownRemark(ctx, pq)
	q.errors += len(res.Errors)
	return res
}

func outcome(err error, r *Report) metrics.BuildOutcome {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case err != nil:
		return metrics.OutcomeFailed
	case r.QueryErrors > 0 || len(r.Skipped) > 0:
		return metrics.OutcomeDegraded
	default:
		return metrics.OutcomeSuccess
	}
}
