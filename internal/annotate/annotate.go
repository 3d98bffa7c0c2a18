// Package annotate derives fields for Markdown nodes as they are created.
package annotate

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// LinkMode selects what is stored in the maybeAbsoluteLinks field.
type LinkMode int

const (
	// LinkModeObserved scans the content but always stores an empty list.
	LinkModeObserved LinkMode = iota
	// LinkModeCollect stores every absolute internal link found in the content.
	LinkModeCollect
)

func (m LinkMode) String() string {
	if m == LinkModeCollect {
		return "collect"
	}
	return "observed"
}

// absoluteLinkRe matches Markdown link targets that start and end with "/".
// Targets without a trailing slash are not captured.
var absoluteLinkRe = regexp.MustCompile(`\]\((/[^)]+/)\)`)

// Annotator implements the node creation hook.
type Annotator struct {
	mode   LinkMode
	logger *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithLinkMode sets the maybeAbsoluteLinks policy.
func WithLinkMode(mode LinkMode) Option {
	return func(a *Annotator) { a.mode = mode }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns an Annotator in LinkModeObserved unless configured otherwise.
func New(opts ...Option) *Annotator {
	a := &Annotator{mode: LinkModeObserved, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnCreateNode writes directoryName and maybeAbsoluteLinks onto Markdown
// nodes. Any other node is left untouched. Only failures of fields are
// returned; malformed input degrades instead of failing.
func (a *Annotator) OnCreateNode(node *graph.Node, fields graph.FieldWriter) error {
	if node == nil || node.Internal.Type != graph.TypeMarkdownRemark {
		return nil
	}

	dir := DirectoryName(node.FileAbsolutePath)
	if node.FileAbsolutePath == "" {
		a.logger.Warn("Markdown node has no source path; directoryName left empty", logfields.NodeID(node.ID))
	}
	if err := fields.CreateNodeField(node, graph.FieldDirectoryName, dir); err != nil {
		return fmt.Errorf("set %s: %w", graph.FieldDirectoryName, err)
	}

	found := ScanAbsoluteLinks(node.Internal.Content)
	links := []string{}
	if a.mode == LinkModeCollect {
		links = found
	}
	a.logger.Debug("Annotated node",
		logfields.NodeID(node.ID),
		slog.String("directory_name", dir),
		slog.Int("links_found", len(found)),
		slog.Int("links_stored", len(links)),
		slog.String("link_mode", a.mode.String()))

	if err := fields.CreateNodeField(node, graph.FieldMaybeAbsoluteLinks, links); err != nil {
		return fmt.Errorf("set %s: %w", graph.FieldMaybeAbsoluteLinks, err)
	}
	return nil
}

// DirectoryName returns the name of the directory containing path:
// "/blog/content/hello/index.md" gives "hello". An empty path gives "".
func DirectoryName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(filepath.Dir(path))
}

// ScanAbsoluteLinks returns the targets of links such as "[text](/about/)"
// in content, without duplicates, in order of first appearance. The result
// is never nil.
func ScanAbsoluteLinks(content string) []string {
	var found []string
	for _, m := range absoluteLinkRe.FindAllStringSubmatch(content, -1) {
		found = append(found, m[1])
	}
	return sets.Unique(found)
}
