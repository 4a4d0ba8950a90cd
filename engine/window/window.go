package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// Key identifies a keyboard key by its GLFW key code.
type Key uint32

// Window is a GLFW-backed preview window that exposes a WebGPU surface and forwards
// the input the bloom viewer reacts to.
type Window interface {
	// SetFrameCallback sets the function called once per loop iteration.
	//
	// Parameters:
	//   - callback: function receiving the time since the previous frame (or nil to disable)
	SetFrameCallback(callback func(dt time.Duration))

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the pressed key
	SetKeyCallback(callback func(key Key))

	// SurfaceDescriptor returns a platform-appropriate wgpu.SurfaceDescriptor for the window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SetTitle replaces the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error

	// Run polls events and calls the frame callback until the window is closed.
	Run()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

type viewerWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
	now       func() time.Time

	platform *glfwWindow

	onFrame  func(dt time.Duration)
	onResize func(width, height int)
	onScroll func(delta float32)
	onKey    func(key Key)
}

var _ Window = &viewerWindow{}

// NewWindow creates and shows a window. The window defaults to 1280x720 and may be
// resized between 320x240 and 3840x2160.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newViewerWindow(options...)
	if err := openPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func newViewerWindow(options ...WindowBuilderOption) *viewerWindow {
	w := &viewerWindow{
		title:     "oxy-bloom",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 240,
		maxWidth:  3840,
		maxHeight: 2160,
		now:       time.Now,
	}
	for _, opt := range options {
		opt(w)
	}
	w.minWidth, w.maxWidth = sizeLimits(w.minWidth, w.maxWidth)
	w.minHeight, w.maxHeight = sizeLimits(w.minHeight, w.maxHeight)
	w.width = min(max(w.width, w.minWidth), w.maxWidth)
	w.height = min(max(w.height, w.minHeight), w.maxHeight)
	return w
}

// sizeLimits orders a min/max pair and keeps both at least one pixel.
func sizeLimits(lo, hi int) (int, int) {
	lo, hi = max(lo, 1), max(hi, 1)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (w *viewerWindow) SetFrameCallback(callback func(dt time.Duration)) {
	w.onFrame = callback
}

func (w *viewerWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *viewerWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *viewerWindow) SetKeyCallback(callback func(key Key)) {
	w.onKey = callback
}

func (w *viewerWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *viewerWindow) SetTitle(title string) {
	w.title = title
	if w.platform != nil {
		w.platform.setTitle(title)
	}
}

func (w *viewerWindow) IsRunning() bool {
	return w.platform != nil && w.platform.isRunning()
}

func (w *viewerWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.platform.close()
	w.platform = nil
	return nil
}

func (w *viewerWindow) Run() {
	last := w.now()
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			break
		}
		t := w.now()
		w.frame(t.Sub(last))
		last = t
		runtime.Gosched()
	}
}

func (w *viewerWindow) Width() int {
	return w.width
}

func (w *viewerWindow) Height() int {
	return w.height
}

func (w *viewerWindow) frame(dt time.Duration) {
	if w.onFrame != nil {
		w.onFrame(dt)
	}
}

// resized records a framebuffer size change. Minimized windows report 0x0 and are ignored.
func (w *viewerWindow) resized(width, height int) {
	if width <= 0 || height <= 0 || (width == w.width && height == w.height) {
		return
	}
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *viewerWindow) scrolled(delta float32) {
	if w.onScroll != nil {
		w.onScroll(delta)
	}
}

func (w *viewerWindow) keyPressed(key Key) {
	if w.onKey != nil {
		w.onKey(key)
	}
}
