// Package softgpu is a CPU implementation of the gfx contract with pixel
// readback. It executes one program shape, the textured cutout program the
// viewer uses: a vertex stage projecting at_position by u_projection * u_view
// and a fragment stage sampling s_texture, discarding zero-alpha texels and
// tinting the rest by at_color. Shader sources are reflected so pipelines are
// validated exactly as on the GPU.
//
// Rasterization follows OpenGL conventions: window origin bottom-left, pixel
// centers at half-integers, depth range [0, 1], perspective-correct
// interpolation. Triangles with a vertex behind the eye are dropped rather
// than clipped.
package softgpu

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

type program struct {
	vertex, fragment []byte
}

type pipeline struct {
	projection int
	view       int
	sampler    int
	position   int
	texCoord   int
	color      int
}

type buffer struct {
	data []byte
}

type texture struct {
	width, height int
	texels        [][4]float32
}

type colorSurface struct {
	width, height int
	pix           []uint8
}

type depthSurface struct {
	width, height int
	depth         []float32
	stencil       []uint8
}

// Device implements gfx.Factory and gfx.Device.
type Device struct {
	lost      bool
	live      int
	garbage   []any
	freed     int
	submits   int
	submitted []gfx.Command
}

var (
	_ gfx.Factory = (*Device)(nil)
	_ gfx.Device  = (*Device)(nil)
)

func NewDevice() *Device {
	return &Device{}
}

// NewTargets creates a color and a depth/stencil surface of the given size.
// The color surface starts black and transparent, the depth surface at 0.
func NewTargets(width, height int) gfx.Targets {
	color := &colorSurface{width: width, height: height, pix: make([]uint8, width*height*4)}
	depth := &depthSurface{
		width:   width,
		height:  height,
		depth:   make([]float32, width*height),
		stencil: make([]uint8, width*height),
	}
	return gfx.Targets{
		Color: &gfx.RenderTarget{Raw: color, Width: width, Height: height, Format: gfx.RGBA8},
		Depth: &gfx.DepthTarget{Raw: depth, Width: width, Height: height, Format: gfx.D24S8},
	}
}

func (d *Device) handle(raw any) gfx.Handle {
	d.live++
	return gfx.NewHandle(raw, func(raw any) {
		d.garbage = append(d.garbage, raw)
	})
}

func (d *Device) LinkProgram(vertex, fragment []byte) (*gfx.Program, error) {
	refl, err := reflect(vertex, fragment)
	if err != nil {
		return nil, fmt.Errorf("softgpu: %w", err)
	}
	for name, want := range map[string]gfx.Format{
		attrPosition:      gfx.Float32x3,
		attrTexCoord:      gfx.Float32x2,
		attrColor:         gfx.Float32x3,
		uniformProjection: gfx.Mat4x4,
		uniformView:       gfx.Mat4x4,
		samplerTexture:    gfx.Sampler2D,
	} {
		got, ok := refl.Attributes[name]
		if !ok {
			got, ok = refl.Uniforms[name]
		}
		if !ok || got != want {
			return nil, fmt.Errorf("softgpu: program does not declare %s %s", want, name)
		}
	}
	if len(refl.Outputs) != 1 {
		return nil, fmt.Errorf("softgpu: program must write exactly one output, has %d", len(refl.Outputs))
	}
	return &gfx.Program{
		Handle:     d.handle(&program{vertex: vertex, fragment: fragment}),
		Reflection: refl,
	}, nil
}

func (d *Device) CreatePipeline(prog *gfx.Program, prim gfx.Primitive, raster gfx.Rasterizer, desc gfx.PipelineDesc) (*gfx.PipelineState, error) {
	if err := desc.Check(prog.Reflection); err != nil {
		return nil, err
	}
	if desc.DepthTarget == nil {
		return nil, fmt.Errorf("%w: softgpu requires a depth target", gfx.ErrBindingMismatch)
	}

	p := &pipeline{projection: -1, view: -1, sampler: -1, position: -1, texCoord: -1, color: -1}
	for i, g := range desc.Globals {
		switch g.Name {
		case uniformProjection:
			p.projection = i
		case uniformView:
			p.view = i
		}
	}
	for i, s := range desc.Samplers {
		if s == samplerTexture {
			p.sampler = i
		}
	}
	for _, a := range desc.VertexBuffer.Attributes {
		switch a.Name {
		case attrPosition:
			p.position = a.Offset
		case attrTexCoord:
			p.texCoord = a.Offset
		case attrColor:
			p.color = a.Offset
		}
	}
	if p.projection < 0 || p.view < 0 || p.sampler < 0 || p.position < 0 || p.texCoord < 0 || p.color < 0 {
		return nil, fmt.Errorf("%w: descriptor does not bind every program input", gfx.ErrBindingMismatch)
	}

	prog.Retain()
	d.live++
	return &gfx.PipelineState{
		Handle: gfx.NewHandle(p, func(raw any) {
			prog.Release()
			d.garbage = append(d.garbage, raw)
		}),
		Program:    prog,
		Primitive:  prim,
		Rasterizer: raster,
		Desc:       desc,
	}, nil
}

func (d *Device) CreateVertexBuffer(layout gfx.VertexLayout, data []byte) (*gfx.Buffer, error) {
	if layout.Stride <= 0 {
		return nil, fmt.Errorf("softgpu: invalid stride %d", layout.Stride)
	}
	if len(data)%layout.Stride != 0 {
		return nil, fmt.Errorf("softgpu: %d bytes is not a whole number of %d-byte vertices", len(data), layout.Stride)
	}
	b := &buffer{data: append([]byte(nil), data...)}
	return &gfx.Buffer{
		Handle: d.handle(b),
		Layout: layout,
		Len:    len(data) / layout.Stride,
	}, nil
}

func (d *Device) CreateTexture(info gfx.TextureInfo, data []byte) (*gfx.Texture, error) {
	n := info.Width * info.Height
	if n <= 0 {
		return nil, fmt.Errorf("softgpu: empty texture %dx%d", info.Width, info.Height)
	}
	if len(data) != n*info.Format.BytesPerTexel() {
		return nil, fmt.Errorf("softgpu: texture data is %d bytes, want %d", len(data), n*info.Format.BytesPerTexel())
	}

	t := &texture{width: info.Width, height: info.Height, texels: make([][4]float32, n)}
	for i := range t.texels {
		for c := 0; c < 4; c++ {
			if info.Format == gfx.TextureRGBA32F {
				bits := binary.NativeEndian.Uint32(data[(i*4+c)*4:])
				t.texels[i][c] = stdmath.Float32frombits(bits)
			} else {
				t.texels[i][c] = float32(data[i*4+c]) / 255
			}
		}
	}
	return &gfx.Texture{Handle: d.handle(t), Info: info}, nil
}

func (d *Device) ViewTexture(tex *gfx.Texture) (*gfx.TextureView, error) {
	if tex == nil || !tex.Alive() {
		return nil, fmt.Errorf("softgpu: view of released texture")
	}
	tex.Retain()
	d.live++
	return &gfx.TextureView{
		Handle: gfx.NewHandle(tex.Raw(), func(raw any) {
			tex.Release()
			d.garbage = append(d.garbage, raw)
		}),
		Texture: tex,
	}, nil
}

func (d *Device) CreateSampler(info gfx.SamplerInfo) (*gfx.Sampler, error) {
	return &gfx.Sampler{Handle: d.handle(info), Info: info}, nil
}

// Submit executes the commands of cl in order.
func (d *Device) Submit(cl *gfx.CommandList) error {
	if d.lost {
		return gfx.ErrDeviceLost
	}
	d.submits++
	for _, c := range cl.Commands() {
		d.submitted = append(d.submitted, c)
		switch c := c.(type) {
		case gfx.ClearColorCmd:
			s := c.Target.Raw.(*colorSurface)
			px := quantize(c.Value)
			for i := 0; i < len(s.pix); i += 4 {
				copy(s.pix[i:i+4], px[:])
			}
		case gfx.ClearDepthCmd:
			s := c.Target.Raw.(*depthSurface)
			for i := range s.depth {
				s.depth[i] = c.Value
			}
		case gfx.ClearStencilCmd:
			s := c.Target.Raw.(*depthSurface)
			for i := range s.stencil {
				s.stencil[i] = c.Value
			}
		case gfx.DrawCmd:
			d.draw(c)
		default:
			return fmt.Errorf("softgpu: unknown command %T", c)
		}
	}
	return nil
}

// Cleanup frees objects whose last reference was released.
func (d *Device) Cleanup() {
	d.freed += len(d.garbage)
	d.live -= len(d.garbage)
	d.garbage = d.garbage[:0]
}

// Lose makes every later Submit fail with gfx.ErrDeviceLost.
func (d *Device) Lose() {
	d.lost = true
}

// Submitted returns every command executed so far, in execution order.
func (d *Device) Submitted() []gfx.Command {
	return d.submitted
}

// Submits returns the number of successful Submit calls.
func (d *Device) Submits() int {
	return d.submits
}

// Live returns the number of backend objects not yet freed by Cleanup.
func (d *Device) Live() int {
	return d.live
}

// Freed returns the number of backend objects freed by Cleanup.
func (d *Device) Freed() int {
	return d.freed
}

// ColorAt reads the color target at window coordinates (x, y), y up.
func ColorAt(t *gfx.RenderTarget, x, y int) [4]float32 {
	s := t.Raw.(*colorSurface)
	i := (y*s.width + x) * 4
	return [4]float32{
		float32(s.pix[i]) / 255,
		float32(s.pix[i+1]) / 255,
		float32(s.pix[i+2]) / 255,
		float32(s.pix[i+3]) / 255,
	}
}

// DepthAt reads the depth target at window coordinates (x, y), y up.
func DepthAt(t *gfx.DepthTarget, x, y int) float32 {
	s := t.Raw.(*depthSurface)
	return s.depth[y*s.width+x]
}

// StencilAt reads the stencil value at window coordinates (x, y), y up.
func StencilAt(t *gfx.DepthTarget, x, y int) uint8 {
	s := t.Raw.(*depthSurface)
	return s.stencil[y*s.width+x]
}

func quantize(c [4]float32) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		v = max(0, min(1, v))
		out[i] = uint8(v*255 + 0.5)
	}
	return out
}

func readVec3(data []byte, off int) math.Vec3 {
	return math.Vec3{X: readF32(data, off), Y: readF32(data, off+4), Z: readF32(data, off+8)}
}

func readVec2(data []byte, off int) math.Vec2 {
	return math.Vec2{X: readF32(data, off), Y: readF32(data, off+4)}
}

func readF32(data []byte, off int) float32 {
	return stdmath.Float32frombits(binary.NativeEndian.Uint32(data[off:]))
}
