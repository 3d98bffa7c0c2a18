package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/postbuilder/internal/annotate"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/source"
)

const digestDisplayLen = 12

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	CollectLinks bool `name:"collect-links" help:"Show scanned absolute links instead of the stored (empty) set"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if d.CollectLinks {
		cfg.Links.CollectAbsolute = true
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunDiscover(ctx, cfg, g.logger(), g.stdout())
}

// RunDiscover sources and annotates the content graph, then prints every
// post in query order.
func RunDiscover(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	mode := annotate.LinkModeObserved
	if cfg.Links.CollectAbsolute {
		mode = annotate.LinkModeCollect
	}
	annotator := annotate.New(annotate.WithLinkMode(mode), annotate.WithLogger(logger))

	store := graph.NewStore()
	src := source.New(cfg.Resolve(cfg.Content.Dir), source.WithLogger(logger))
	report, err := src.SourceNodes(ctx, store, func(n *graph.Node) error {
		return annotator.OnCreateNode(n, store)
	})
	if err != nil {
		return err
	}

	query := graph.DefaultPostsQuery()
	query.Limit = cfg.Query.Limit
	result := store.AllMarkdownRemark(ctx, query)
	for _, qerr := range result.Errors {
		_, _ = fmt.Fprintf(out, "query error: %v\n", qerr)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SLUG\tDIRECTORY\tTITLE\tDIGEST\tLINKS")
	for _, edge := range result.Edges() {
		var links []string
		var digest string
		if node, ok := store.Node(edge.Node.ID); ok {
			links = node.StringsField(graph.FieldMaybeAbsoluteLinks)
			digest = node.Internal.ContentDigest
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			edge.Node.Fields.Slug,
			edge.Node.Fields.DirectoryName,
			edge.Node.Frontmatter.Title,
			shortDigest(digest),
			strings.Join(links, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%d posts, %d skipped\n", report.Created, len(report.Skipped))
	return nil
}

// shortDigest abbreviates a content fingerprint for display.
func shortDigest(d string) string {
	if len(d) > digestDisplayLen {
		return d[:digestDisplayLen]
	}
	return d
}
