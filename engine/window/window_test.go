package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewViewerWindowDefaults(t *testing.T) {
	w := newViewerWindow()
	assert.Equal(t, "oxy-bloom", w.title)
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestNewViewerWindowClampsSize(t *testing.T) {
	w := newViewerWindow(
		WithTitle("bloom"),
		WithSize(100, 5000),
		WithMinSize(640, 480),
		WithMaxSize(1920, 1080),
	)
	assert.Equal(t, "bloom", w.title)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 1080, w.Height())

	w = newViewerWindow(WithMinSize(800, 0), WithMaxSize(400, 0), WithSize(600, 600))
	assert.Equal(t, 400, w.minWidth)
	assert.Equal(t, 800, w.maxWidth)
	assert.Equal(t, 1, w.minHeight)
	assert.Equal(t, 1, w.maxHeight)
	assert.Equal(t, 600, w.Width())
	assert.Equal(t, 1, w.Height())
}

func TestCallbacks(t *testing.T) {
	w := newViewerWindow()

	w.frame(time.Millisecond)
	w.scrolled(1)
	w.keyPressed(KeyB)
	w.resized(800, 600)
	assert.Equal(t, 800, w.Width())

	var sizes [][2]int
	var keys []Key
	var scroll float32
	var frames []time.Duration
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })
	w.SetKeyCallback(func(k Key) { keys = append(keys, k) })
	w.SetScrollCallback(func(d float32) { scroll += d })
	w.SetFrameCallback(func(dt time.Duration) { frames = append(frames, dt) })

	w.resized(1024, 768)
	w.resized(1024, 768)
	w.resized(0, 0)
	w.keyPressed(KeyUp)
	w.keyPressed(KeyT)
	w.scrolled(2)
	w.scrolled(-0.5)
	w.frame(16 * time.Millisecond)

	assert.Equal(t, [][2]int{{1024, 768}}, sizes)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
	assert.Equal(t, []Key{KeyUp, KeyT}, keys)
	assert.Equal(t, float32(1.5), scroll)
	assert.Equal(t, []time.Duration{16 * time.Millisecond}, frames)
}
