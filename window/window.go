// Package window is the GLFW window subsystem: it owns the OpenGL context and
// turns GLFW callbacks into core events.
package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxel-viewer/core"
)

func init() {
	// GLFW and the GL context must stay on the main OS thread.
	runtime.LockOSThread()
}

// Window is a GLFW window with a current OpenGL context. Input callbacks are
// queued and handed out by PollEvents.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	queue      []core.Event
	lastX      float64
	lastY      float64
	haveCursor bool
}

type WindowConfig struct {
	Width         int
	Height        int
	Title         string
	Resizable     bool
	VSync         bool
	CaptureCursor bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:         600,
		Height:        480,
		Title:         "Loading",
		Resizable:     true,
		VSync:         false,
		CaptureCursor: true,
	}
}

func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.StencilBits, 8)

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	width, height := handle.GetFramebufferSize()
	window := &Window{
		Handle: handle,
		Width:  width,
		Height: height,
		Title:  config.Title,
	}

	if config.CaptureCursor {
		handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		if glfw.RawMouseMotionSupported() {
			handle.SetInputMode(glfw.RawMouseMotion, glfw.True)
		}
	}

	handle.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		window.queue = append(window.queue, core.ResizeEvent{Width: width, Height: height})
	})
	handle.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			window.queue = append(window.queue, core.PressEvent{Key: int(key)})
		case glfw.Release:
			window.queue = append(window.queue, core.ReleaseEvent{Key: int(key)})
		}
	})
	handle.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		window.cursorMoved(x, y)
	})

	return window, nil
}

func (w *Window) cursorMoved(x, y float64) {
	if w.haveCursor {
		w.queue = append(w.queue, core.MouseRelativeEvent{Dx: x - w.lastX, Dy: y - w.lastY})
	}
	w.lastX, w.lastY = x, y
	w.haveCursor = true
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// Close asks the event loop to stop after the current event.
func (w *Window) Close() {
	w.Handle.SetShouldClose(true)
}

// PollEvents processes pending window system events and returns the input
// events they produced, oldest first.
func (w *Window) PollEvents() []core.Event {
	glfw.PollEvents()
	events := w.queue
	w.queue = nil
	return events
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ core.EventSource = (*Window)(nil)
