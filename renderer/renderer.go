// Package renderer draws textured, vertex-tinted triangles with alpha-tested
// cutout transparency.
//
// A Renderer owns the compiled pipeline and the resources bound to it. Each
// frame is recorded into a Frame obtained from Begin and handed back to Flush,
// which submits it to the device and consumes it:
//
//	frame, err := r.Begin()
//	frame.Clear()
//	frame.Render(mesh)
//	err = r.Flush(device, frame)
//
// Render and depth targets are borrowed from the window subsystem and swapped
// with Resize. Everything else is owned by the Renderer and released by
// Destroy.
package renderer

import (
	"errors"
	"fmt"

	"voxel-viewer/core"
	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

var (
	// ErrFrameInProgress is returned by Begin while an earlier frame has not
	// been flushed.
	ErrFrameInProgress = errors.New("renderer: previous frame not flushed")

	// ErrFrameSubmitted is returned by Flush, and raised as a panic by the
	// recording methods, when a frame is used after it was flushed.
	ErrFrameSubmitted = errors.New("renderer: frame already submitted")
	// ErrBufferReleased is raised as a panic by Frame.Render when the caller
	// already released the buffer it passes.
	ErrBufferReleased = errors.New("renderer: vertex buffer already released")
)

// VertexBuffer is GPU-resident geometry created by Renderer.CreateBuffer.
// The caller owns one reference and drops it with Release; the storage lives
// on while the renderer still binds it or a pending frame draws it.
type VertexBuffer struct {
	buf      *gfx.Buffer
	released bool
}

// Len returns the number of vertices in the buffer.
func (b *VertexBuffer) Len() int {
	return b.buf.Len
}

// Release drops the caller's reference. Only the first call has an effect.
func (b *VertexBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.buf.Release()
}

// Stats describes the last flushed frame.
type Stats struct {
	Clears   int
	Draws    int
	Vertices int
}

type Option func(*Renderer)

// WithClearValue overrides the color, depth and stencil values Clear writes.
func WithClearValue(cv core.ClearValue) Option {
	return func(r *Renderer) {
		r.clear = cv
	}
}

type Renderer struct {
	factory gfx.Factory
	program *gfx.Program
	pipe    *gfx.PipelineState
	data    gfx.Bindings
	clear   core.ClearValue
	slice   gfx.Slice

	frame *Frame
	stats Stats
}

// New compiles the shader program and pipeline, views atlas with a
// nearest-filtered, tiling sampler and binds everything to targets. The
// texture view keeps atlas alive, so the caller may release its own
// reference afterwards. Any error is fatal for rendering.
func New(factory gfx.Factory, targets gfx.Targets, atlas *gfx.Texture, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		factory: factory,
		clear:   core.DefaultClearValue(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.init(targets, atlas); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(targets gfx.Targets, atlas *gfx.Texture) error {
	sampler, err := r.factory.CreateSampler(gfx.SamplerInfo{
		Filter: gfx.FilterScale,
		Wrap:   gfx.WrapTile,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}
	r.data.Textures = []gfx.TextureSampler{{Sampler: sampler}}

	view, err := r.factory.ViewTexture(atlas)
	if err != nil {
		return fmt.Errorf("view atlas texture: %w", err)
	}
	r.data.Textures[0].View = view

	r.program, err = r.factory.LinkProgram(VertexShader, FragmentShader)
	if err != nil {
		return fmt.Errorf("link shader program: %w", err)
	}

	r.pipe, err = r.factory.CreatePipeline(r.program, gfx.TriangleList, rasterizer(), pipelineDesc())
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	vbuf, err := r.factory.CreateVertexBuffer(core.VertexLayout(), nil)
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	r.data.VertexBuffer = vbuf
	r.data.Globals = []math.Mat4{
		globalProjection: math.Mat4Identity(),
		globalView:       math.Mat4Identity(),
	}
	r.data.ColorTargets = []*gfx.RenderTarget{targets.Color}
	r.data.DepthTarget = targets.Depth

	if err := r.data.Validate(r.pipe.Desc); err != nil {
		return fmt.Errorf("bind resources: %w", err)
	}
	return nil
}

// SetProjection replaces the projection matrix used by subsequent draws.
func (r *Renderer) SetProjection(m math.Mat4) {
	r.data.Globals[globalProjection] = m
}

// SetView replaces the view matrix used by subsequent draws.
func (r *Renderer) SetView(m math.Mat4) {
	r.data.Globals[globalView] = m
}

// SetClearColor sets the color Clear writes.
func (r *Renderer) SetClearColor(c core.Color) {
	r.clear.Color = c
}

// CreateBuffer uploads vertices into a new GPU buffer, binds it and sets the
// draw range to cover all of it. Every call allocates; nothing is pooled.
func (r *Renderer) CreateBuffer(vertices []core.Vertex) (*VertexBuffer, error) {
	buf, err := r.factory.CreateVertexBuffer(core.VertexLayout(), core.VertexBytes(vertices))
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	r.bind(buf)
	r.slice = gfx.Slice{Start: 0, End: uint32(len(vertices))}
	return &VertexBuffer{buf: buf}, nil
}

// bind makes buf the vertex input, dropping the renderer's reference to the
// previous buffer.
func (r *Renderer) bind(buf *gfx.Buffer) {
	if r.data.VertexBuffer == buf {
		return
	}
	buf.Retain()
	if r.data.VertexBuffer != nil {
		r.data.VertexBuffer.Release()
	}
	r.data.VertexBuffer = buf
}

// Resize rebinds the borrowed targets after the window subsystem recreated
// them and installs the projection for the new aspect ratio.
func (r *Renderer) Resize(targets gfx.Targets, projection math.Mat4) {
	r.data.ColorTargets[0] = targets.Color
	r.data.DepthTarget = targets.Depth
	r.SetProjection(projection)
}

// Begin starts recording a frame. Only one frame may be outstanding.
func (r *Renderer) Begin() (*Frame, error) {
	if r.frame != nil {
		return nil, ErrFrameInProgress
	}
	r.frame = &Frame{r: r}
	return r.frame, nil
}

// Flush submits every command recorded in f, in order, and consumes f. The
// frame is consumed even when the device reports an error.
func (r *Renderer) Flush(dev gfx.Device, f *Frame) error {
	if f.done {
		return ErrFrameSubmitted
	}
	if f.r != r {
		return fmt.Errorf("renderer: frame belongs to another renderer")
	}

	err := dev.Submit(&f.cmds)
	r.stats = f.stats
	f.cmds.Reset()
	f.done = true
	r.frame = nil
	if err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	return nil
}

// Stats returns counters for the last flushed frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Destroy releases every resource the renderer owns. The borrowed targets are
// left alone.
func (r *Renderer) Destroy() {
	if r.frame != nil {
		r.frame.cmds.Reset()
		r.frame.done = true
		r.frame = nil
	}
	if r.data.VertexBuffer != nil {
		r.data.VertexBuffer.Release()
		r.data.VertexBuffer = nil
	}
	for _, ts := range r.data.Textures {
		if ts.View != nil {
			ts.View.Release()
		}
		if ts.Sampler != nil {
			ts.Sampler.Release()
		}
	}
	r.data.Textures = nil
	if r.pipe != nil {
		r.pipe.Release()
		r.pipe = nil
	}
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
}

// Frame is the command list of one frame. It is created by Begin and must be
// passed to Flush exactly once.
type Frame struct {
	r     *Renderer
	cmds  gfx.CommandList
	done  bool
	stats Stats
}

func (f *Frame) mustRecord() {
	if f.done {
		panic(ErrFrameSubmitted)
	}
}

// Clear records clears of the color, depth and stencil buffers with the
// renderer's clear values.
func (f *Frame) Clear() {
	f.mustRecord()
	r := f.r
	f.cmds.ClearColor(r.data.ColorTargets[0], r.clear.Color.Array())
	f.cmds.ClearDepth(r.data.DepthTarget, r.clear.Depth)
	f.cmds.ClearStencil(r.data.DepthTarget, r.clear.Stencil)
	f.stats.Clears += 3
}

// Render binds buf, extends the draw range to its length and records one
// draw with the current matrices. Draws execute in the order recorded.
func (f *Frame) Render(buf *VertexBuffer) {
	f.mustRecord()
	if buf.released {
		panic(ErrBufferReleased)
	}
	r := f.r
	r.bind(buf.buf)
	r.slice.End = uint32(buf.buf.Len)
	f.cmds.Draw(r.slice, r.pipe, &r.data)
	f.stats.Draws++
	f.stats.Vertices += int(r.slice.Count())
}

// Commands returns what has been recorded so far.
func (f *Frame) Commands() []gfx.Command {
	return f.cmds.Commands()
}
