package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Keys the viewer binds.
const (
	KeyEscape Key = Key(glfw.KeyEscape)
	KeyUp     Key = Key(glfw.KeyUp)
	KeyDown   Key = Key(glfw.KeyDown)
	KeyLeft   Key = Key(glfw.KeyLeft)
	KeyRight  Key = Key(glfw.KeyRight)
	KeyB      Key = Key(glfw.KeyB)
	KeyT      Key = Key(glfw.KeyT)
	KeyR      Key = Key(glfw.KeyR)
)

type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// openPlatformWindow creates the GLFW window without a client API and wires its callbacks.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openPlatformWindow(w *viewerWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	gw := &glfwWindow{window: win, running: true}
	w.platform = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if key == glfw.KeyEscape {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		w.keyPressed(Key(key))
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.scrolled(float32(yoff))
	})
	// Framebuffer size differs from window size on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

// surfaceDescriptor builds the descriptor through the wgpuglfw bridge.
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) setTitle(title string) {
	g.window.SetTitle(title)
}

func (g *glfwWindow) isRunning() bool {
	return g.running && !g.window.ShouldClose()
}

func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) close() {
	g.running = false
	g.window.SetShouldClose(true)
	g.window.Destroy()
	glfw.Terminate()
}
