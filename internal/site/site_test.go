package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newProject(t *testing.T, posts map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range posts {
		writeFile(t, filepath.Join(dir, "content", rel), body)
	}
	cfg := config.Default()
	cfg.ProjectDir = dir
	return cfg
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.BuildOutcome
	phases   []string
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcome) { r.outcomes = append(r.outcomes, o) }
func (r *outcomeRecorder) ObservePhaseDuration(phase string, _ time.Duration) {
	r.phases = append(r.phases, phase)
}

func TestBuild_EndToEnd(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"hello-world/index.md": "---\ntitle: Hello World\ndate: 2019-01-01\n---\nSee [b](/second/).\n",
		"second/index.md":      "---\ntitle: Second\ndate: 2019-02-01\n---\nBody.\n",
		"third.md":             "---\ntitle: Third\ndate: 2019-03-01\n---\nLast.\n",
	})
	rec := &outcomeRecorder{}

	report, err := NewBuilder(cfg, WithRecorder(rec)).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeSuccess, report.Outcome)
	require.Equal(t, 3, report.NodesDiscovered)
	require.Equal(t, 3, report.NodesAnnotated)
	require.Equal(t, 4, report.PagesCreated)
	require.Equal(t, 4, report.PagesWritten)
	require.Zero(t, report.QueryErrors)
	require.Equal(t, []metrics.BuildOutcome{metrics.OutcomeSuccess}, rec.outcomes)
	require.Equal(t, []string{"clean", "source", "pages", "render"}, rec.phases)

	out := filepath.Join(cfg.ProjectDir, "public")
	for _, p := range []string{"index.html", "hello-world/index.html", "second/index.html", "third/index.html"} {
		require.FileExists(t, filepath.Join(out, filepath.FromSlash(p)))
	}

	second, err := os.ReadFile(filepath.Join(out, "second", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(second), `href="/hello-world/" rel="prev"`)
	require.Contains(t, string(second), `href="/third/" rel="next"`)
}

func TestBuild_QueryErrorDegradesToIndexOnly(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2019-01-01\n---\nA\n",
		"b.md": "---\ntitle: B\ndate: sometime soon\n---\nB\n",
	})

	report, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, metrics.OutcomeDegraded, report.Outcome)
	require.Equal(t, 1, report.QueryErrors)
	require.Equal(t, 1, report.PagesCreated)
	require.Equal(t, 1, report.PagesWritten)

	out := filepath.Join(cfg.ProjectDir, "public")
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.NoFileExists(t, filepath.Join(out, "a", "index.html"))
}

func TestBuild_CleansOutput(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.md": "# A\n"})
	stale := filepath.Join(cfg.ProjectDir, "public", "stale", "index.html")
	writeFile(t, stale, "old")

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.NoFileExists(t, stale)

	cfg.Output.Clean = false
	writeFile(t, stale, "old")
	_, err = NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.FileExists(t, stale)
}

func TestBuild_CollectLinks(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"a/index.md": "---\ntitle: A\ndate: 2020-01-01\n---\n[x](/b/) and [y](/b/)\n",
	})
	cfg.Links.CollectAbsolute = true
	writeFile(t, filepath.Join(cfg.ProjectDir, "templates", "blog-post.html"), `{{ range .Links }}{{ . }};{{ end }}`)

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(cfg.ProjectDir, "public", "a", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "/b/;", string(got))
}

func TestBuild_MissingContentDir(t *testing.T) {
	cfg := config.Default()
	cfg.ProjectDir = t.TempDir()

	report, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	require.Equal(t, metrics.OutcomeFailed, report.Outcome)
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.md": "# A\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(cfg).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, metrics.OutcomeCanceled, report.Outcome)
}

func TestBuild_ChangedAgainstBaseline(t *testing.T) {
	cfg := newProject(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2019-01-01\n---\nA\n",
		"b.md": "---\ntitle: B\ndate: 2019-02-01\n---\nB\n",
	})

	first, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Digests, 2)
	require.NotEmpty(t, first.Digests["/a/"])
	require.Nil(t, first.Changed)

	unchanged, err := NewBuilder(cfg, WithBaseline(first.Digests)).Build(context.Background())
	require.NoError(t, err)
	require.Empty(t, unchanged.Changed)
	require.NotNil(t, unchanged.Changed)
	require.Equal(t, first.Digests, unchanged.Digests)

	writeFile(t, filepath.Join(cfg.ProjectDir, "content", "b.md"), "---\ntitle: B\ndate: 2019-02-01\n---\nB, edited.\n")
	writeFile(t, filepath.Join(cfg.ProjectDir, "content", "c.md"), "---\ntitle: C\ndate: 2019-03-01\n---\nC\n")

	second, err := NewBuilder(cfg, WithBaseline(first.Digests)).Build(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/b/", "/c/"}, second.Changed)
	require.Equal(t, first.Digests["/a/"], second.Digests["/a/"])
	require.NotEqual(t, first.Digests["/b/"], second.Digests["/b/"])

	page, err := os.ReadFile(filepath.Join(cfg.ProjectDir, "public", "b", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), second.Digests["/b/"])
}

func TestBuild_CleanRefusesToRemoveContent(t *testing.T) {
	cfg := newProject(t, map[string]string{"a.md": "# A\n"})
	cfg.Output.Directory = "content"
	require.True(t, cfg.Output.Clean)

	report, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "content.dir")
	require.Equal(t, metrics.OutcomeFailed, report.Outcome)
	require.FileExists(t, filepath.Join(cfg.ProjectDir, "content", "a.md"))

	cfg.Output.Directory = "."
	_, err = NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	require.FileExists(t, filepath.Join(cfg.ProjectDir, "content", "a.md"))
}
