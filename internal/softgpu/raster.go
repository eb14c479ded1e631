package softgpu

import (
	"github.com/chewxy/math32"

	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

// vertexOut is the result of the vertex stage in window space.
type vertexOut struct {
	x, y, z  float32
	invW     float32
	texCoord math.Vec2
	color    math.Vec3
}

func (d *Device) draw(c gfx.DrawCmd) {
	p := c.Pipeline.Raw().(*pipeline)
	b := c.Data.VertexBuffer.Raw().(*buffer)
	stride := c.Data.VertexBuffer.Layout.Stride
	color := c.Data.ColorTargets[0].Raw.(*colorSurface)
	depth := c.Data.DepthTarget.Raw.(*depthSurface)
	ts := c.Data.Textures[p.sampler]
	tex := ts.View.Raw().(*texture)
	projection := c.Data.Globals[p.projection]
	view := c.Data.Globals[p.view]
	depthState := c.Pipeline.Desc.DepthTarget.State

	end := min(int(c.Slice.End), c.Data.VertexBuffer.Len)
	var tri [3]vertexOut
	for first := int(c.Slice.Start); first+3 <= end; first += 3 {
		visible := true
		for k := 0; k < 3; k++ {
			off := (first + k) * stride
			clip := ShadeVertex(projection, view, readVec3(b.data, off+p.position))
			if clip.W <= 0 {
				visible = false
				break
			}
			invW := 1 / clip.W
			tri[k] = vertexOut{
				x:        (clip.X*invW + 1) * 0.5 * float32(color.width),
				y:        (clip.Y*invW + 1) * 0.5 * float32(color.height),
				z:        (clip.Z*invW + 1) * 0.5,
				invW:     invW,
				texCoord: readVec2(b.data, off+p.texCoord),
				color:    readVec3(b.data, off+p.color),
			}
		}
		if visible && !culled(c.Pipeline.Rasterizer, tri) {
			rasterize(tri, color, depth, tex, ts.Sampler.Info, depthState)
		}
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// culled applies face culling. Positive area is counter-clockwise with the
// window origin at the bottom left.
func culled(r gfx.Rasterizer, t [3]vertexOut) bool {
	area := edge(t[0].x, t[0].y, t[1].x, t[1].y, t[2].x, t[2].y)
	if area == 0 {
		return true
	}
	ccw := area > 0
	front := ccw == (r.FrontFace == gfx.CounterClockwise)
	switch r.CullFace {
	case gfx.CullBack:
		return !front
	case gfx.CullFront:
		return front
	}
	return false
}

func rasterize(t [3]vertexOut, color *colorSurface, depth *depthSurface, tex *texture, sampler gfx.SamplerInfo, ds gfx.DepthState) {
	area := edge(t[0].x, t[0].y, t[1].x, t[1].y, t[2].x, t[2].y)

	minX := max(0, int(math32.Floor(min(t[0].x, t[1].x, t[2].x))))
	maxX := min(color.width-1, int(math32.Ceil(max(t[0].x, t[1].x, t[2].x))))
	minY := max(0, int(math32.Floor(min(t[0].y, t[1].y, t[2].y))))
	maxY := min(color.height-1, int(math32.Ceil(max(t[0].y, t[1].y, t[2].y))))

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			cx, cy := float32(px)+0.5, float32(py)+0.5
			b0 := edge(t[1].x, t[1].y, t[2].x, t[2].y, cx, cy) / area
			b1 := edge(t[2].x, t[2].y, t[0].x, t[0].y, cx, cy) / area
			b2 := edge(t[0].x, t[0].y, t[1].x, t[1].y, cx, cy) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*t[0].z + b1*t[1].z + b2*t[2].z
			if z < 0 || z > 1 {
				continue
			}
			i := py*depth.width + px
			if !ds.Func.Test(z, depth.depth[i]) {
				continue
			}

			// perspective-correct weights
			w0, w1, w2 := b0*t[0].invW, b1*t[1].invW, b2*t[2].invW
			norm := 1 / (w0 + w1 + w2)
			w0, w1, w2 = w0*norm, w1*norm, w2*norm

			uv := t[0].texCoord.Mul(w0).Add(t[1].texCoord.Mul(w1)).Add(t[2].texCoord.Mul(w2))
			tint := t[0].color.Mul(w0).Add(t[1].color.Mul(w1)).Add(t[2].color.Mul(w2))

			out, keep := ShadeFragment(tex.sample(uv, sampler), tint)
			if !keep {
				continue
			}
			rgba := quantize(out)
			copy(color.pix[i*4:i*4+4], rgba[:])
			if ds.Write {
				depth.depth[i] = z
			}
		}
	}
}

func wrap(v float32, mode gfx.WrapMode) float32 {
	if mode == gfx.WrapTile {
		return v - math32.Floor(v)
	}
	return max(0, min(1, v))
}

func (t *texture) texel(x, y int) [4]float32 {
	x = max(0, min(t.width-1, x))
	y = max(0, min(t.height-1, y))
	return t.texels[y*t.width+x]
}

// sample reads the texture at uv. Row 0 of the texture data is v = 0.
func (t *texture) sample(uv math.Vec2, s gfx.SamplerInfo) [4]float32 {
	u := wrap(uv.X, s.Wrap) * float32(t.width)
	v := wrap(uv.Y, s.Wrap) * float32(t.height)

	if s.Filter == gfx.FilterScale {
		return t.texel(int(u), int(v))
	}

	u -= 0.5
	v -= 0.5
	x0, y0 := int(math32.Floor(u)), int(math32.Floor(v))
	fx, fy := u-float32(x0), v-float32(y0)
	var out [4]float32
	a, b := t.texel(x0, y0), t.texel(x0+1, y0)
	c, e := t.texel(x0, y0+1), t.texel(x0+1, y0+1)
	for i := range out {
		top := a[i] + (b[i]-a[i])*fx
		bottom := c[i] + (e[i]-c[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}
