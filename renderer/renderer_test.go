package renderer

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-viewer/core"
	"voxel-viewer/gfx"
	"voxel-viewer/internal/softgpu"
	"voxel-viewer/math"
)

type harness struct {
	dev     *softgpu.Device
	targets gfx.Targets
	tex     *gfx.Texture
	r       *Renderer
}

func whiteTexture(t *testing.T, dev *softgpu.Device) *gfx.Texture {
	t.Helper()
	tex, err := dev.CreateTexture(gfx.TextureInfo{Width: 1, Height: 1, Format: gfx.TextureRGBA8}, []byte{255, 255, 255, 255})
	require.NoError(t, err)
	return tex
}

func floatTexture(t *testing.T, dev *softgpu.Device, rgba [4]float32) *gfx.Texture {
	t.Helper()
	data := make([]byte, 16)
	for i, v := range rgba {
		binary.NativeEndian.PutUint32(data[i*4:], stdmath.Float32bits(v))
	}
	tex, err := dev.CreateTexture(gfx.TextureInfo{Width: 1, Height: 1, Format: gfx.TextureRGBA32F}, data)
	require.NoError(t, err)
	return tex
}

func newHarness(t *testing.T, width, height int, tex func(*softgpu.Device) *gfx.Texture) *harness {
	t.Helper()
	dev := softgpu.NewDevice()
	h := &harness{dev: dev, targets: softgpu.NewTargets(width, height)}
	if tex == nil {
		h.tex = whiteTexture(t, dev)
	} else {
		h.tex = tex(dev)
	}
	r, err := New(dev, h.targets, h.tex, WithClearValue(core.ClearValue{Color: core.ColorRed, Depth: 1, Stencil: 0}))
	require.NoError(t, err)
	h.r = r
	r.SetProjection(math.Mat4Identity())
	r.SetView(math.Mat4Identity())
	return h
}

// fullScreen is one clockwise triangle covering the whole clip-space square
// at depth z.
func fullScreen(z float32, color math.Vec3) []core.Vertex {
	return []core.Vertex{
		{Position: math.NewVec3(-1, -1, z), Color: color},
		{Position: math.NewVec3(-1, 3, z), Color: color},
		{Position: math.NewVec3(3, -1, z), Color: color},
	}
}

func (h *harness) frame(t *testing.T, draw ...*VertexBuffer) {
	t.Helper()
	f, err := h.r.Begin()
	require.NoError(t, err)
	f.Clear()
	for _, b := range draw {
		f.Render(b)
	}
	require.NoError(t, h.r.Flush(h.dev, f))
}

func (h *harness) eachPixel(fn func(x, y int)) {
	for y := 0; y < h.targets.Color.Height; y++ {
		for x := 0; x < h.targets.Color.Width; x++ {
			fn(x, y)
		}
	}
}

func draws(cmds []gfx.Command) []gfx.DrawCmd {
	var out []gfx.DrawCmd
	for _, c := range cmds {
		if d, ok := c.(gfx.DrawCmd); ok {
			out = append(out, d)
		}
	}
	return out
}

func TestRenderDrawsWholeBuffer(t *testing.T) {
	for _, n := range []int{0, 3, 6, 7} {
		h := newHarness(t, 2, 2, nil)
		buf, err := h.r.CreateBuffer(make([]core.Vertex, n))
		require.NoError(t, err)
		assert.Equal(t, n, buf.Len())

		f, err := h.r.Begin()
		require.NoError(t, err)
		f.Render(buf)

		d := draws(f.Commands())
		require.Len(t, d, 1, "n=%d", n)
		assert.Equal(t, uint32(n), d[0].Slice.Count(), "n=%d", n)
		assert.Same(t, buf.buf, d[0].Data.VertexBuffer)

		require.NoError(t, h.r.Flush(h.dev, f))
		assert.Equal(t, Stats{Draws: 1, Vertices: n}, h.r.Stats())
	}
}

func TestClearOnlyFrameSubmitsThreeClears(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	h.frame(t)

	submitted := h.dev.Submitted()
	require.Len(t, submitted, 3)
	assert.IsType(t, gfx.ClearColorCmd{}, submitted[0])
	assert.IsType(t, gfx.ClearDepthCmd{}, submitted[1])
	assert.IsType(t, gfx.ClearStencilCmd{}, submitted[2])
	assert.Empty(t, draws(submitted))
	assert.Equal(t, Stats{Clears: 3}, h.r.Stats())
}

func TestRenderTwiceKeepsCallOrder(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	a, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)
	b, err := h.r.CreateBuffer(make([]core.Vertex, 6))
	require.NoError(t, err)

	h.frame(t, a, b)

	d := draws(h.dev.Submitted())
	require.Len(t, d, 2)
	assert.Same(t, a.buf, d[0].Data.VertexBuffer)
	assert.Equal(t, uint32(3), d[0].Slice.Count())
	assert.Same(t, b.buf, d[1].Data.VertexBuffer)
	assert.Equal(t, uint32(6), d[1].Slice.Count())
}

func TestDrawSnapshotsMatrices(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	buf, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)

	first := math.Mat4Translation(math.NewVec3(1, 0, 0))
	second := math.Mat4Translation(math.NewVec3(0, 2, 0))

	f, err := h.r.Begin()
	require.NoError(t, err)
	h.r.SetView(first)
	f.Render(buf)
	h.r.SetView(second)
	f.Render(buf)

	d := draws(f.Commands())
	require.Len(t, d, 2)
	assert.Equal(t, first, d[0].Data.Globals[globalView])
	assert.Equal(t, second, d[1].Data.Globals[globalView])
	assert.Equal(t, math.Mat4Identity(), d[0].Data.Globals[globalProjection])
	require.NoError(t, h.r.Flush(h.dev, f))
}

func TestClearFillsTargets(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	h.frame(t)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{1, 0, 0, 1}, softgpu.ColorAt(h.targets.Color, x, y))
		assert.Equal(t, float32(1), softgpu.DepthAt(h.targets.Depth, x, y))
		assert.Equal(t, uint8(0), softgpu.StencilAt(h.targets.Depth, x, y))
	})
}

func TestSetClearColor(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	h.r.SetClearColor(core.ColorGreen)
	h.frame(t)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{0, 1, 0, 1}, softgpu.ColorAt(h.targets.Color, x, y))
	})
}

func TestFullScreenTriangleTintedByVertexColor(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	buf, err := h.r.CreateBuffer(fullScreen(0, math.NewVec3(0, 1, 0)))
	require.NoError(t, err)

	h.frame(t, buf)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{0, 1, 0, 1}, softgpu.ColorAt(h.targets.Color, x, y))
		assert.Equal(t, float32(0.5), softgpu.DepthAt(h.targets.Depth, x, y))
	})
}

func TestBackFacesAreCulled(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	tri := fullScreen(0, math.NewVec3(0, 1, 0))
	tri[1], tri[2] = tri[2], tri[1]
	buf, err := h.r.CreateBuffer(tri)
	require.NoError(t, err)

	h.frame(t, buf)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{1, 0, 0, 1}, softgpu.ColorAt(h.targets.Color, x, y))
	})
}

func TestAlphaTestDiscardsExactZero(t *testing.T) {
	discard := newHarness(t, 2, 2, func(dev *softgpu.Device) *gfx.Texture {
		return floatTexture(t, dev, [4]float32{1, 1, 1, 0})
	})
	buf, err := discard.r.CreateBuffer(fullScreen(0, math.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	discard.frame(t, buf)
	discard.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{1, 0, 0, 1}, softgpu.ColorAt(discard.targets.Color, x, y))
		assert.Equal(t, float32(1), softgpu.DepthAt(discard.targets.Depth, x, y), "discarded fragments must not write depth")
	})

	keep := newHarness(t, 2, 2, func(dev *softgpu.Device) *gfx.Texture {
		return floatTexture(t, dev, [4]float32{1, 1, 1, 0.0001})
	})
	buf, err = keep.r.CreateBuffer(fullScreen(0, math.NewVec3(0, 0, 1)))
	require.NoError(t, err)
	keep.frame(t, buf)
	keep.eachPixel(func(x, y int) {
		c := softgpu.ColorAt(keep.targets.Color, x, y)
		assert.Equal(t, [3]float32{0, 0, 1}, [3]float32{c[0], c[1], c[2]})
		// the texel's alpha passes through; 0.0001 quantizes to 0 in RGBA8
		assert.Equal(t, float32(0), c[3])
		assert.Equal(t, float32(0.5), softgpu.DepthAt(keep.targets.Depth, x, y))
	})
}

func TestOutputAlphaIsTexelAlpha(t *testing.T) {
	h := newHarness(t, 2, 2, func(dev *softgpu.Device) *gfx.Texture {
		return floatTexture(t, dev, [4]float32{1, 1, 1, 0.6})
	})
	buf, err := h.r.CreateBuffer(fullScreen(0, math.NewVec3(1, 1, 1)))
	require.NoError(t, err)
	h.frame(t, buf)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, float32(153)/255, softgpu.ColorAt(h.targets.Color, x, y)[3])
	})
}

func TestNearestFragmentWinsInEitherOrder(t *testing.T) {
	near := fullScreen(-0.6, math.NewVec3(0, 1, 0))
	far := fullScreen(0.2, math.NewVec3(0, 0, 1))

	for _, order := range [][2][]core.Vertex{{near, far}, {far, near}} {
		h := newHarness(t, 2, 2, nil)
		first, err := h.r.CreateBuffer(order[0])
		require.NoError(t, err)
		second, err := h.r.CreateBuffer(order[1])
		require.NoError(t, err)

		h.frame(t, first, second)

		h.eachPixel(func(x, y int) {
			assert.Equal(t, [4]float32{0, 1, 0, 1}, softgpu.ColorAt(h.targets.Color, x, y))
			assert.InDelta(t, 0.2, softgpu.DepthAt(h.targets.Depth, x, y), 1e-6)
		})
	}
}

func TestEqualDepthLaterDrawWins(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	a, err := h.r.CreateBuffer(fullScreen(0, math.NewVec3(0, 1, 0)))
	require.NoError(t, err)
	b, err := h.r.CreateBuffer(fullScreen(0, math.NewVec3(0, 0, 1)))
	require.NoError(t, err)

	h.frame(t, a, b)

	assert.Equal(t, [4]float32{0, 0, 1, 1}, softgpu.ColorAt(h.targets.Color, 0, 0))
}

func TestFrameLifecycle(t *testing.T) {
	h := newHarness(t, 2, 2, nil)

	f, err := h.r.Begin()
	require.NoError(t, err)

	_, err = h.r.Begin()
	assert.ErrorIs(t, err, ErrFrameInProgress)

	f.Clear()
	require.NoError(t, h.r.Flush(h.dev, f))

	assert.ErrorIs(t, h.r.Flush(h.dev, f), ErrFrameSubmitted)
	assert.PanicsWithValue(t, ErrFrameSubmitted, func() { f.Clear() })

	next, err := h.r.Begin()
	require.NoError(t, err)
	require.NoError(t, h.r.Flush(h.dev, next))
	assert.Equal(t, 2, h.dev.Submits())
}

func TestFlushSurfacesDeviceLoss(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	h.dev.Lose()

	f, err := h.r.Begin()
	require.NoError(t, err)
	f.Clear()
	assert.ErrorIs(t, h.r.Flush(h.dev, f), gfx.ErrDeviceLost)

	// the failed frame is still consumed
	_, err = h.r.Begin()
	assert.NoError(t, err)
}

func TestReleaseTwiceKeepsBoundBuffer(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	buf, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)

	buf.Release()
	buf.Release()
	assert.True(t, buf.buf.Alive())
	assert.Same(t, buf.buf, h.r.data.VertexBuffer)

	f, err := h.r.Begin()
	require.NoError(t, err)
	assert.PanicsWithValue(t, ErrBufferReleased, func() { f.Render(buf) })
	f.Clear()
	require.NoError(t, h.r.Flush(h.dev, f))

	h.r.Destroy()
	h.dev.Cleanup()
	assert.False(t, buf.buf.Alive())
}

func TestReplacedBufferIsFreedOnceUnreferenced(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	a, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)
	// frees the empty buffer New bound
	h.dev.Cleanup()

	f, err := h.r.Begin()
	require.NoError(t, err)
	f.Render(a)

	b, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)
	assert.Same(t, b.buf, h.r.data.VertexBuffer)

	// the pending draw still references a
	a.Release()
	assert.True(t, a.buf.Alive())

	require.NoError(t, h.r.Flush(h.dev, f))
	assert.False(t, a.buf.Alive())

	freed := h.dev.Freed()
	h.dev.Cleanup()
	assert.Equal(t, freed+1, h.dev.Freed())
	assert.True(t, b.buf.Alive())
}

func TestResizeRebindsTargets(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	old := h.targets
	bigger := softgpu.NewTargets(4, 3)

	proj := math.Mat4Perspective(math.DegToRad(70), 4.0/3.0, 0.1, 1000)
	h.r.Resize(bigger, proj)
	h.targets = bigger
	h.frame(t)

	h.eachPixel(func(x, y int) {
		assert.Equal(t, [4]float32{1, 0, 0, 1}, softgpu.ColorAt(bigger.Color, x, y))
	})
	assert.Equal(t, [4]float32{}, softgpu.ColorAt(old.Color, 0, 0))
	assert.Equal(t, proj, h.r.data.Globals[globalProjection])
}

func TestDestroyReleasesOwnedResources(t *testing.T) {
	h := newHarness(t, 2, 2, nil)
	buf, err := h.r.CreateBuffer(fullScreen(0, math.Vec3One))
	require.NoError(t, err)
	h.frame(t, buf)

	h.r.Destroy()
	buf.Release()
	h.tex.Release()
	h.dev.Cleanup()

	assert.Equal(t, 0, h.dev.Live())
}

func TestPipelineRejectsMismatchedDescriptor(t *testing.T) {
	dev := softgpu.NewDevice()
	prog, err := dev.LinkProgram(VertexShader, FragmentShader)
	require.NoError(t, err)

	desc := pipelineDesc()
	desc.Globals[globalView].Name = "u_model"
	_, err = dev.CreatePipeline(prog, gfx.TriangleList, rasterizer(), desc)
	assert.ErrorIs(t, err, gfx.ErrBindingMismatch)

	desc = pipelineDesc()
	desc.VertexBuffer.Attributes[1].Format = gfx.Float32x3
	_, err = dev.CreatePipeline(prog, gfx.TriangleList, rasterizer(), desc)
	assert.ErrorIs(t, err, gfx.ErrBindingMismatch)

	pso, err := dev.CreatePipeline(prog, gfx.TriangleList, rasterizer(), pipelineDesc())
	require.NoError(t, err)
	assert.Equal(t, gfx.DepthLessEqualWrite, pso.Desc.DepthTarget.State)
}
