// Package source creates content graph nodes from a directory of Markdown files.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/postbuilder/internal/graph"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"github.com/google/uuid"
	"github.com/inful/mdfp"
	"golang.org/x/text/unicode/norm"
)

// nodeNamespace scopes node IDs so the same path always yields the same ID.
var nodeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("postbuilder:markdown-node"))

// ErrContentDirMissing is returned when the content directory does not exist.
var ErrContentDirMissing = errors.New("content directory not found")

// Sink receives the nodes created by SourceNodes.
type Sink interface {
	CreateNode(node *graph.Node) error
	graph.FieldWriter
}

// Skipped describes a Markdown file that did not become a node.
type Skipped struct {
	Path string
	Err  error
}

// Report summarises one SourceNodes run.
type Report struct {
	Created int
	Skipped []Skipped
}

// Source walks a content directory.
type Source struct {
	dir      string
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Source.
type Option func(*Source)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Source) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New returns a Source for dir.
func New(dir string, opts ...Option) *Source {
	s := &Source{dir: dir, logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceNodes creates one MarkdownRemark node per Markdown file under the
// content directory, in lexical path order. Each node gets its slug field
// and is then passed to onCreate, which may be nil. Files with broken
// frontmatter are logged and reported as skipped.
func (s *Source) SourceNodes(ctx context.Context, sink Sink, onCreate func(*graph.Node) error) (Report, error) {
	var report Report

	root, err := filepath.Abs(s.dir)
	if err != nil {
		return report, fmt.Errorf("resolve content dir %s: %w", s.dir, err)
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return report, ferrors.WrapError(ErrContentDirMissing, ferrors.CategoryConfig, "content directory is not usable").
			WithContext("path", root).
			Build()
	}

	s.logger.Info("Sourcing Markdown nodes", logfields.Path(root))

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(path) {
			return nil
		}

		node, slug, err := s.load(root, path)
		if err != nil {
			var classified *ferrors.ClassifiedError
			if errors.As(err, &classified) && classified.Category() == ferrors.CategoryContent {
				s.logger.Warn("Skipping Markdown file", logfields.File(path), logfields.Error(err))
				s.recorder.IncNodesSkipped("frontmatter")
				report.Skipped = append(report.Skipped, Skipped{Path: path, Err: err})
				return nil
			}
			return err
		}

		if err := sink.CreateNode(node); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "create node").WithContext("path", path).Build()
		}
		if err := sink.CreateNodeField(node, graph.FieldSlug, slug); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "set slug").WithContext("path", path).Build()
		}
		report.Created++
		s.logger.Debug("Created node", logfields.NodeID(node.ID), logfields.File(path), logfields.Slug(slug))

		if onCreate != nil {
			if err := onCreate(node); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryInternal, "node hook failed").WithContext("path", path).Build()
			}
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return report, err
		}
		if ferrors.IsClassified(err) {
			return report, err
		}
		return report, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk content directory").
			WithContext("path", root).
			Build()
	}

	s.recorder.AddNodes(graph.TypeMarkdownRemark, report.Created)
	s.logger.Info("Markdown nodes sourced", logfields.Count(report.Created), slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (s *Source) load(root, path string) (*graph.Node, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read Markdown file").WithContext("path", path).Build()
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, "", ferrors.ContentError("invalid frontmatter").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, "", fmt.Errorf("relative path of %s: %w", path, err)
	}

	node := &graph.Node{
		ID: NodeID(path),
		Internal: graph.Internal{
			Type:          graph.TypeMarkdownRemark,
			Content:       string(raw),
			ContentDigest: mdfp.CalculateFingerprintFromParts(string(doc.Raw), string(doc.Body)),
		},
		FileAbsolutePath: path,
		Frontmatter:      doc.Fields,
		Body:             string(doc.Body),
	}
	return node, Slug(rel), nil
}

// NodeID derives the stable node ID of the file at path.
func NodeID(path string) string {
	return uuid.NewSHA1(nodeNamespace, []byte(filepath.ToSlash(path))).String()
}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Slug turns a path relative to the content directory into a URL path:
// "hello-world/index.md" and "hello-world.md" both give "/hello-world/".
func Slug(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if rel == "index" {
		rel = ""
	}
	rel = strings.TrimSuffix(rel, "/index")
	rel = norm.NFC.String(strings.Trim(rel, "/"))
	if rel == "" {
		return "/"
	}
	return "/" + rel + "/"
}
