package watch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	req, trigger, stop := newDebouncer(20 * time.Millisecond)
	defer stop()

	for range 10 {
		trigger()
	}

	select {
	case <-req:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced request never fired")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWorker_SerialisesAndQueuesOneFollowUp(t *testing.T) {
	var (
		running  atomic.Int32
		overlaps atomic.Int32
		calls    atomic.Int32
	)
	release := make(chan struct{})
	w := New(nil, func(context.Context) error {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		defer running.Add(-1)
		if calls.Add(1) == 1 {
			<-release
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		w.worker(ctx, req)
		close(done)
	}()

	req <- struct{}{}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// While the first rebuild blocks, several triggers collapse into one.
	for range 3 {
		select {
		case req <- struct{}{}:
		default:
		}
	}
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(2), calls.Load())
	require.Zero(t, overlaps.Load())

	cancel()
	<-done
}

func TestRun_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	var (
		mu      sync.Mutex
		results []error
	)
	rebuilt := make(chan struct{}, 4)
	w := New([]string{dir}, func(context.Context) error {
		rebuilt <- struct{}{}
		return errors.New("boom")
	},
		WithDebounce(20*time.Millisecond),
		WithResultHook(func(err error) {
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.md"), []byte("# hi\n"), 0o600))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after write")
	}

	cancel()
	require.NoError(t, <-errCh)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, results)
	require.EqualError(t, results[0], "boom")
}

func TestRun_NoDirectories(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context) error { return nil })
	require.Error(t, w.Run(context.Background()))
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, p := range []string{".hidden.md", "post.md~", ".post.md.swp", "x.swx", "#post.md#", "Thumbs.db"} {
		require.True(t, shouldIgnoreEvent(filepath.Join("content", p)), p)
	}
	for _, p := range []string{"post.md", "blog-post.html", "index.markdown"} {
		require.False(t, shouldIgnoreEvent(filepath.Join("content", p)), p)
	}
}

func TestServer_ServesOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hi</h1>"), 0o600))

	srv, err := Listen("127.0.0.1:0", dir, nil)
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer func() { require.NoError(t, srv.Shutdown()) }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<h1>hi</h1>", string(body))
}
