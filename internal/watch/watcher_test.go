package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const validLayout = `{"width": 640, "height": 480, "layers": [
  {"type": "road", "path": [[0, 240], [640, 240]], "label": "Main St"},
  {"type": "park", "x": 400, "y": 60, "w": 180, "h": 120}
]}`

func newTestWatcher(t *testing.T, debounce time.Duration) (*Watcher, string, string) {
	t.Helper()
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.json")
	output := filepath.Join(dir, "layout.svg")
	require.NoError(t, os.WriteFile(layout, []byte(validLayout), 0644))

	w, err := New(Config{
		LayoutPath: layout,
		OutputPath: output,
		Debounce:   debounce,
	}, zap.NewNop())
	require.NoError(t, err)
	return w, layout, output
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{OutputPath: "out.svg"}, nil)
	require.Error(t, err)

	_, err = New(Config{LayoutPath: "layout.json"}, nil)
	require.Error(t, err)
}

func TestWatcherRendersOnChange(t *testing.T) {
	w, layout, output := newTestWatcher(t, 100*time.Millisecond)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())

	// The initial render happens during Start.
	require.FileExists(t, output)
	require.Equal(t, 1, w.Stats().Renders)

	require.NoError(t, os.WriteFile(layout, []byte(`{"width": 777, "layers": []}`), 0644))
	require.Eventually(t, func() bool {
		return w.Stats().Renders >= 2
	}, 5*time.Second, 25*time.Millisecond, "expected a debounced re-render")
	assert.Positive(t, w.Stats().Events)
}

func TestWatcherPreservesOutputOnFailure(t *testing.T) {
	w, layout, output := newTestWatcher(t, 100*time.Millisecond)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	before, err := os.ReadFile(output)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, os.WriteFile(layout, []byte("%% not a layout %%"), 0644))
	require.Eventually(t, func() bool {
		return w.Stats().Failures >= 1
	}, 5*time.Second, 25*time.Millisecond, "expected the render to fail")

	after, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed renders must not touch the output")
}

func TestWatcherBatchesBursts(t *testing.T) {
	w, layout, _ := newTestWatcher(t, 400*time.Millisecond)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	for i := 0; i < 5; i++ {
		doc := fmt.Sprintf(`{"width": %d, "layers": []}`, 100+i)
		require.NoError(t, os.WriteFile(layout, []byte(doc), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return w.Stats().Renders >= 2
	}, 5*time.Second, 25*time.Millisecond)

	// Allow one straggling event past the settle window, but a burst must
	// not fan out into one render per write.
	time.Sleep(700 * time.Millisecond)
	assert.LessOrEqual(t, w.Stats().Renders, 3)
	assert.Positive(t, w.Stats().Events)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w, layout, _ := newTestWatcher(t, 100*time.Millisecond)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	other := filepath.Join(filepath.Dir(layout), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("scratch"), 0644))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, w.Stats().Renders, "sibling files must not trigger renders")
	assert.Zero(t, w.Stats().Events)
}

func TestWatcherLifecycle(t *testing.T) {
	w, _, _ := newTestWatcher(t, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx), "second Start is a no-op")

	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestWatcherStartMissingDir(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{
		LayoutPath: filepath.Join(dir, "missing", "layout.json"),
		OutputPath: filepath.Join(dir, "out.svg"),
	}, nil)
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestRenderNowWithoutStart(t *testing.T) {
	w, _, output := newTestWatcher(t, 0)
	defer w.Stop()

	require.NoError(t, w.RenderNow())
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "</svg>")
	assert.Equal(t, 1, w.Stats().Renders)
}
