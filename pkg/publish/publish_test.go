package publish

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/foomo/jsonhtml/pkg/batch"
	"github.com/foomo/jsonhtml/pkg/convert"
	"github.com/foomo/jsonhtml/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPublisher(t *testing.T, source fstest.MapFS, opts ...Option) (*Publisher, storage.Storage) {
	t.Helper()
	l := zaptest.NewLogger(t)
	s, err := storage.NewBlobStorage(context.Background(), "mem://", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(l, batch.New(l, convert.New(l), s), source, opts...), s
}

func TestPublisher_Start(t *testing.T) {
	source := fstest.MapFS{
		"index.json":     {Data: []byte(`{"text": "Home"}`)},
		"mods/keys.json": {Data: []byte(`[{"item": "Shift"}]`)},
	}
	p, s := newTestPublisher(t, source)

	var called atomic.Bool
	p.OnLoaded(func() { called.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	require.Eventually(t, p.Loaded, 5*time.Second, 10*time.Millisecond)
	assert.True(t, called.Load())

	data, err := s.Read(ctx, "mods/keys.html")
	require.NoError(t, err)
	assert.Equal(t, "<div>・ Shift</div>\n", string(data))

	status := p.Status()
	assert.True(t, status.Loaded)
	assert.NotEmpty(t, status.Revision)
	assert.Empty(t, status.LastError)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, []string{"index.html", "mods/keys.html"}, status.LastRun.Converted)

	// the update routine might still be finishing the initial run
	var resp *Update
	require.Eventually(t, func() bool {
		resp = p.Update()
		return resp.Success
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, resp.Stats.Converted)
	assert.Equal(t, 0, resp.Stats.Failed)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestPublisher_Update_Rejected(t *testing.T) {
	// without a running update routine every request is rejected
	p, _ := newTestPublisher(t, fstest.MapFS{})

	resp := p.Update()
	assert.False(t, resp.Success)
	assert.Equal(t, ErrUpdateRejected.Error(), resp.ErrorMessage)
	assert.False(t, p.Loaded())
}

func TestPublisher_Update_Failed(t *testing.T) {
	source := fstest.MapFS{
		"ok.json":     {Data: []byte(`"ok"`)},
		"broken.json": {Data: []byte(`{`)},
	}
	p, _ := newTestPublisher(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.UpdateRoutine(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	res, err := p.enqueue(ctx, true)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"ok.html"}, res.Converted)
	assert.Contains(t, res.Failed, "broken.json")

	status := p.Status()
	assert.False(t, status.Loaded)
	assert.NotEmpty(t, status.LastError)
}

func TestPublisher_update_SkipsUnchanged(t *testing.T) {
	source := fstest.MapFS{
		"index.json": {Data: []byte(`"a"`), ModTime: time.Unix(100, 0)},
	}
	p, _ := newTestPublisher(t, source)
	ctx := context.Background()

	res, err := p.update(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = p.update(ctx, false)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = p.update(ctx, true)
	require.NoError(t, err)
	assert.NotNil(t, res)

	source["index.json"] = &fstest.MapFile{Data: []byte(`"ab"`), ModTime: time.Unix(200, 0)}
	res, err = p.update(ctx, false)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestRevision(t *testing.T) {
	a, err := revision(fstest.MapFS{"a.json": {Data: []byte("1"), ModTime: time.Unix(1, 0)}})
	require.NoError(t, err)
	b, err := revision(fstest.MapFS{"a.json": {Data: []byte("12"), ModTime: time.Unix(1, 0)}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// files that are not inputs do not change the revision
	c, err := revision(fstest.MapFS{
		"a.json":    {Data: []byte("1"), ModTime: time.Unix(1, 0)},
		"notes.txt": {Data: []byte("x"), ModTime: time.Unix(9, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, a, c)

	// renamed inputs keep size and modification time
	d, err := revision(fstest.MapFS{"b.json": {Data: []byte("1"), ModTime: time.Unix(1, 0)}})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	e, err := revision(fstest.MapFS{"a.json": {Data: []byte("1"), ModTime: time.Unix(2, 0)}})
	require.NoError(t, err)
	assert.NotEqual(t, a, e)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	h := NewHistory(zaptest.NewLogger(t), s)

	_, err = h.Current(ctx)
	require.ErrorIs(t, err, os.ErrNotExist)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Add(ctx, Status{Revision: fmt.Sprint(i)}))
		time.Sleep(time.Millisecond)
	}

	files, err := h.getHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Greater(t, files[0], files[1])

	current, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4", current.Revision)
}

func TestHistory_getFilesForCleanup(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	h := NewHistory(zaptest.NewLogger(t), s, HistoryWithHistoryLimit(-1))
	assert.Equal(t, 2, h.historyLimit)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Add(ctx, Status{Revision: fmt.Sprint(i)}))
		time.Sleep(time.Millisecond)
	}

	files, err := h.getFilesForCleanup(ctx, -1)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = h.getFilesForCleanup(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestPublisher_PollInterval(t *testing.T) {
	p, _ := newTestPublisher(t, fstest.MapFS{}, WithPollInterval(0))
	assert.Equal(t, time.Minute, p.pollInterval)

	p, _ = newTestPublisher(t, fstest.MapFS{}, WithPollInterval(-time.Second))
	assert.Equal(t, time.Minute, p.pollInterval)

	p, _ = newTestPublisher(t, fstest.MapFS{}, WithPollInterval(time.Second))
	assert.Equal(t, time.Second, p.pollInterval)
}

func TestPublisher_Restore(t *testing.T) {
	l := zaptest.NewLogger(t)
	s, err := storage.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	source := fstest.MapFS{
		"index.json": {Data: []byte(`"a"`), ModTime: time.Unix(100, 0)},
	}
	newPublisher := func() *Publisher {
		return New(l, batch.New(l, convert.New(l), s), source, WithHistory(NewHistory(l, s)))
	}

	run := func(p *Publisher) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- p.Start(ctx) }()
		require.Eventually(t, func() bool {
			return p.Loaded() && p.Status().LastRun != nil
		}, 5*time.Second, 10*time.Millisecond)
		cancel()
		require.NoError(t, <-done)
	}

	first := newPublisher()
	run(first)

	second := newPublisher()
	var restored atomic.Bool
	second.OnLoaded(func() { restored.Store(true) })
	run(second)

	assert.True(t, restored.Load())
	assert.Equal(t, first.Status().Revision, second.Status().Revision)
	assert.Equal(t, first.Status().LastRun.RunID, second.Status().LastRun.RunID)
}
