package core

import "fmt"

// Event is one item of the window event stream.
type Event interface {
	event()
}

// RenderEvent asks for one frame. ExtDt is the time in seconds since the last
// update, for extrapolating motion.
type RenderEvent struct {
	ExtDt float64
}

// AfterRenderEvent follows every RenderEvent once the frame was presented.
type AfterRenderEvent struct{}

// UpdateEvent is a fixed simulation step of Dt seconds.
type UpdateEvent struct {
	Dt float64
}

type PressEvent struct {
	Key int
}

type ReleaseEvent struct {
	Key int
}

// MouseRelativeEvent carries cursor motion in pixels since the last event.
type MouseRelativeEvent struct {
	Dx, Dy float64
}

// ResizeEvent reports a new framebuffer size in pixels.
type ResizeEvent struct {
	Width, Height int
}

func (RenderEvent) event()        {}
func (AfterRenderEvent) event()   {}
func (UpdateEvent) event()        {}
func (PressEvent) event()         {}
func (ReleaseEvent) event()       {}
func (MouseRelativeEvent) event() {}
func (ResizeEvent) event()        {}

func (e RenderEvent) String() string { return fmt.Sprintf("render(ext_dt=%.4f)", e.ExtDt) }
func (e UpdateEvent) String() string { return fmt.Sprintf("update(dt=%.4f)", e.Dt) }
