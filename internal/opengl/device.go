// Package opengl implements the gfx contract on an OpenGL 4.1 core context.
// Every call must be made on the thread that owns the context.
package opengl

import (
	"fmt"
	"log/slog"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"voxel-viewer/gfx"
)

type program struct {
	id uint32
}

type attribute struct {
	location   uint32
	components int32
	offset     int
}

type pipeline struct {
	program   uint32
	attribs   []attribute
	globals   []int32
	samplers  []int32
	cull      gfx.CullFace
	frontFace gfx.FrontFace
	depth     gfx.DepthState
}

type buffer struct {
	vbo uint32
}

type framebuffer struct {
	id uint32
}

// Device implements gfx.Factory and gfx.Device on the current GL context.
type Device struct {
	vao     uint32
	garbage []func()
	logger  *slog.Logger
}

var (
	_ gfx.Factory = (*Device)(nil)
	_ gfx.Device  = (*Device)(nil)
)

// NewDevice loads the GL entry points. It must be called after the window's
// context was made current.
func NewDevice(logger *slog.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("opengl ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{logger: logger}
	gl.GenVertexArrays(1, &d.vao)
	gl.Enable(gl.DEPTH_TEST)
	return d, nil
}

// MainTargets describes the window's default framebuffer at the given size.
func MainTargets(width, height int) gfx.Targets {
	fb := &framebuffer{id: 0}
	return gfx.Targets{
		Color: &gfx.RenderTarget{Raw: fb, Width: width, Height: height, Format: gfx.RGBA8},
		Depth: &gfx.DepthTarget{Raw: fb, Width: width, Height: height, Format: gfx.D24S8},
	}
}

func (d *Device) deferFree(free func()) func(any) {
	return func(any) {
		d.garbage = append(d.garbage, free)
	}
}

func (d *Device) LinkProgram(vertex, fragment []byte) (*gfx.Program, error) {
	id, err := newProgram(string(vertex), string(fragment))
	if err != nil {
		return nil, fmt.Errorf("opengl: %w", err)
	}
	return &gfx.Program{
		Handle: gfx.NewHandle(&program{id: id}, d.deferFree(func() {
			gl.DeleteProgram(id)
		})),
		Reflection: reflect(id),
	}, nil
}

func (d *Device) CreatePipeline(prog *gfx.Program, prim gfx.Primitive, raster gfx.Rasterizer, desc gfx.PipelineDesc) (*gfx.PipelineState, error) {
	id := prog.Raw().(*program).id

	refl := prog.Reflection
	refl.Outputs = nil
	for _, t := range desc.ColorTargets {
		if gl.GetFragDataLocation(id, location(t.Name)) >= 0 {
			refl.Outputs = append(refl.Outputs, t.Name)
		}
	}
	if err := desc.Check(refl); err != nil {
		return nil, err
	}

	p := &pipeline{program: id, cull: raster.CullFace, frontFace: raster.FrontFace}
	if desc.DepthTarget != nil {
		p.depth = desc.DepthTarget.State
	} else {
		p.depth = gfx.DepthState{Func: gfx.Always}
	}
	for _, a := range desc.VertexBuffer.Attributes {
		loc := gl.GetAttribLocation(id, location(a.Name))
		p.attribs = append(p.attribs, attribute{
			location:   uint32(loc),
			components: int32(a.Format.Components()),
			offset:     a.Offset,
		})
	}
	for _, g := range desc.Globals {
		p.globals = append(p.globals, gl.GetUniformLocation(id, location(g.Name)))
	}
	for _, s := range desc.Samplers {
		p.samplers = append(p.samplers, gl.GetUniformLocation(id, location(s)))
	}

	prog.Retain()
	return &gfx.PipelineState{
		Handle:     gfx.NewHandle(p, func(any) { prog.Release() }),
		Program:    prog,
		Primitive:  prim,
		Rasterizer: raster,
		Desc:       desc,
	}, nil
}

func (d *Device) CreateVertexBuffer(layout gfx.VertexLayout, data []byte) (*gfx.Buffer, error) {
	if layout.Stride <= 0 || len(data)%layout.Stride != 0 {
		return nil, fmt.Errorf("opengl: %d bytes do not fit stride %d", len(data), layout.Stride)
	}

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return &gfx.Buffer{
		Handle: gfx.NewHandle(&buffer{vbo: vbo}, d.deferFree(func() {
			gl.DeleteBuffers(1, &vbo)
		})),
		Layout: layout,
		Len:    len(data) / layout.Stride,
	}, nil
}

func (d *Device) CreateTexture(info gfx.TextureInfo, data []byte) (*gfx.Texture, error) {
	id, err := uploadTexture(info, data)
	if err != nil {
		return nil, fmt.Errorf("opengl: %w", err)
	}
	return &gfx.Texture{
		Handle: gfx.NewHandle(id, d.deferFree(func() {
			gl.DeleteTextures(1, &id)
		})),
		Info: info,
	}, nil
}

// ViewTexture returns a view sharing the texture object. The view keeps the
// texture alive.
func (d *Device) ViewTexture(tex *gfx.Texture) (*gfx.TextureView, error) {
	if tex == nil || !tex.Alive() {
		return nil, fmt.Errorf("opengl: view of released texture")
	}
	tex.Retain()
	return &gfx.TextureView{
		Handle:  gfx.NewHandle(tex.Raw(), func(any) { tex.Release() }),
		Texture: tex,
	}, nil
}

func (d *Device) CreateSampler(info gfx.SamplerInfo) (*gfx.Sampler, error) {
	id := newSampler(info)
	return &gfx.Sampler{
		Handle: gfx.NewHandle(id, d.deferFree(func() {
			gl.DeleteSamplers(1, &id)
		})),
		Info: info,
	}, nil
}

// Submit executes the commands of cl in order and reports the first GL error
// raised while doing so.
func (d *Device) Submit(cl *gfx.CommandList) error {
	for _, c := range cl.Commands() {
		switch c := c.(type) {
		case gfx.ClearColorCmd:
			gl.BindFramebuffer(gl.FRAMEBUFFER, c.Target.Raw.(*framebuffer).id)
			gl.ColorMask(true, true, true, true)
			gl.ClearColor(c.Value[0], c.Value[1], c.Value[2], c.Value[3])
			gl.Clear(gl.COLOR_BUFFER_BIT)
		case gfx.ClearDepthCmd:
			gl.BindFramebuffer(gl.FRAMEBUFFER, c.Target.Raw.(*framebuffer).id)
			gl.DepthMask(true)
			gl.ClearDepth(float64(c.Value))
			gl.Clear(gl.DEPTH_BUFFER_BIT)
		case gfx.ClearStencilCmd:
			gl.BindFramebuffer(gl.FRAMEBUFFER, c.Target.Raw.(*framebuffer).id)
			gl.StencilMask(0xff)
			gl.ClearStencil(int32(c.Value))
			gl.Clear(gl.STENCIL_BUFFER_BIT)
		case gfx.DrawCmd:
			d.draw(c)
		default:
			return fmt.Errorf("opengl: unknown command %T", c)
		}
	}
	return checkError()
}

func (d *Device) draw(c gfx.DrawCmd) {
	if c.Slice.Count() == 0 {
		return
	}
	p := c.Pipeline.Raw().(*pipeline)
	target := c.Data.ColorTargets[0]

	gl.BindFramebuffer(gl.FRAMEBUFFER, target.Raw.(*framebuffer).id)
	gl.Viewport(0, 0, int32(target.Width), int32(target.Height))
	gl.UseProgram(p.program)

	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.Data.VertexBuffer.Raw().(*buffer).vbo)
	stride := int32(c.Data.VertexBuffer.Layout.Stride)
	for _, a := range p.attribs {
		gl.EnableVertexAttribArray(a.location)
		gl.VertexAttribPointer(a.location, a.components, gl.FLOAT, false, stride, gl.PtrOffset(a.offset))
	}

	for i, loc := range p.globals {
		m := c.Data.Globals[i]
		// Mat4 is column-major already.
		gl.UniformMatrix4fv(loc, 1, false, m.Ptr())
	}
	for i, loc := range p.samplers {
		ts := c.Data.Textures[i]
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, ts.View.Raw().(uint32))
		gl.BindSampler(uint32(i), ts.Sampler.Raw().(uint32))
		gl.Uniform1i(loc, int32(i))
	}

	applyRaster(p)

	gl.DrawArrays(gl.TRIANGLES, int32(c.Slice.Start), int32(c.Slice.Count()))
	gl.BindVertexArray(0)
}

var compareFuncs = map[gfx.Comparison]uint32{
	gfx.Never:        gl.NEVER,
	gfx.Less:         gl.LESS,
	gfx.LessEqual:    gl.LEQUAL,
	gfx.Equal:        gl.EQUAL,
	gfx.GreaterEqual: gl.GEQUAL,
	gfx.Greater:      gl.GREATER,
	gfx.Always:       gl.ALWAYS,
}

func applyRaster(p *pipeline) {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(compareFuncs[p.depth.Func])
	gl.DepthMask(p.depth.Write)

	switch p.cull {
	case gfx.CullNothing:
		gl.Disable(gl.CULL_FACE)
	case gfx.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case gfx.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if p.frontFace == gfx.Clockwise {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
}

func checkError() error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	// drain the remaining flags
	for gl.GetError() != gl.NO_ERROR {
	}
	if code == gl.OUT_OF_MEMORY {
		return fmt.Errorf("%w: GL error 0x%x", gfx.ErrDeviceLost, code)
	}
	return fmt.Errorf("opengl: GL error 0x%x", code)
}

// Cleanup deletes GL objects whose last reference was released.
func (d *Device) Cleanup() {
	for _, free := range d.garbage {
		free()
	}
	if n := len(d.garbage); n > 0 {
		d.logger.Debug("freed gl objects", "count", n)
	}
	d.garbage = d.garbage[:0]
}

// Destroy deletes the device's own objects after a final Cleanup.
func (d *Device) Destroy() {
	d.Cleanup()
	gl.DeleteVertexArrays(1, &d.vao)
}
