package softgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-viewer/core"
	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

var vertexSrc = []byte(`
#version 150 core
uniform mat4 u_projection, u_view;
in vec2 at_tex_coord;
in vec3 at_color, at_position;
out vec2 v_tex_coord;
out vec3 v_color;
void main() {
    v_tex_coord = at_tex_coord;
    v_color = at_color;
    gl_Position = u_projection * u_view * vec4(at_position, 1.0);
}
`)

var fragmentSrc = []byte(`
#version 150 core
out vec4 out_color;
uniform sampler2D s_texture;
in vec2 v_tex_coord;
in vec3 v_color;
void main() {
    vec4 tex_color = texture(s_texture, v_tex_coord);
    if (tex_color.a == 0.0)
        discard;
    out_color = tex_color * vec4(v_color, 1.0);
}
`)

func desc() gfx.PipelineDesc {
	return gfx.PipelineDesc{
		VertexBuffer: core.VertexLayout(),
		Globals: []gfx.GlobalDesc{
			{Name: uniformProjection, Format: gfx.Mat4x4},
			{Name: uniformView, Format: gfx.Mat4x4},
		},
		Samplers:     []string{samplerTexture},
		ColorTargets: []gfx.TargetDesc{{Name: "out_color", Format: gfx.RGBA8}},
		DepthTarget:  &gfx.DepthTargetDesc{Format: gfx.D24S8, State: gfx.DepthLessEqualWrite},
	}
}

func TestReflect(t *testing.T) {
	r, err := reflect(vertexSrc, fragmentSrc)
	require.NoError(t, err)

	assert.Equal(t, map[string]gfx.Format{
		"at_position":  gfx.Float32x3,
		"at_tex_coord": gfx.Float32x2,
		"at_color":     gfx.Float32x3,
	}, r.Attributes)
	assert.Equal(t, map[string]gfx.Format{
		"u_projection": gfx.Mat4x4,
		"u_view":       gfx.Mat4x4,
		"s_texture":    gfx.Sampler2D,
	}, r.Uniforms)
	assert.Equal(t, []string{"out_color"}, r.Outputs)
}

func TestReflectErrors(t *testing.T) {
	_, err := reflect([]byte("in vec3 a;"), fragmentSrc)
	assert.ErrorContains(t, err, "no main")

	_, err = reflect([]byte("in dvec3 a;\nvoid main() {}"), fragmentSrc)
	assert.ErrorContains(t, err, "unsupported type")

	frag := []byte("in vec4 v_color;\nout vec4 o;\nvoid main() {}")
	_, err = reflect(vertexSrc, frag)
	assert.ErrorContains(t, err, "v_color")

	frag = []byte("uniform vec4 u_view;\nin vec3 v_color;\nout vec4 o;\nvoid main() {}")
	_, err = reflect(vertexSrc, frag)
	assert.ErrorContains(t, err, "u_view")
}

func TestLinkProgramRequiresCutoutInterface(t *testing.T) {
	dev := NewDevice()

	prog, err := dev.LinkProgram(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	assert.Equal(t, 1, dev.Live())

	noColor := []byte(`
uniform mat4 u_projection, u_view;
in vec2 at_tex_coord;
in vec3 at_position;
out vec2 v_tex_coord;
void main() {}
`)
	_, err = dev.LinkProgram(noColor, []byte("uniform sampler2D s_texture;\nin vec2 v_tex_coord;\nout vec4 c;\nvoid main() {}"))
	assert.ErrorContains(t, err, "at_color")

	_, err = dev.CreatePipeline(prog, gfx.TriangleList, gfx.NewFill(gfx.CullBack), desc())
	require.NoError(t, err)

	noDepth := desc()
	noDepth.DepthTarget = nil
	_, err = dev.CreatePipeline(prog, gfx.TriangleList, gfx.NewFill(gfx.CullBack), noDepth)
	assert.ErrorIs(t, err, gfx.ErrBindingMismatch)
}

func TestShadeFragment(t *testing.T) {
	_, keep := ShadeFragment([4]float32{1, 1, 1, 0}, math.Vec3One)
	assert.False(t, keep)

	out, keep := ShadeFragment([4]float32{1, 0.5, 1, 0.0001}, math.NewVec3(0.5, 1, 0))
	require.True(t, keep)
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 0.0001}, out)
}

func TestShadeVertex(t *testing.T) {
	view := math.Mat4Translation(math.NewVec3(0, 0, -2))
	proj := math.Mat4Perspective(math.DegToRad(90), 1, 1, 3)

	clip := ShadeVertex(proj, view, math.Vec3Zero)
	assert.InDelta(t, 2, clip.W, 1e-6)
	ndc := clip.Z / clip.W
	assert.Greater(t, ndc, float32(-1))
	assert.Less(t, ndc, float32(1))
}

func TestCulling(t *testing.T) {
	cw := [3]vertexOut{{x: 0, y: 0}, {x: 0, y: 4}, {x: 4, y: 0}}
	ccw := [3]vertexOut{cw[0], cw[2], cw[1]}

	backCW := gfx.Rasterizer{FrontFace: gfx.Clockwise, CullFace: gfx.CullBack}
	assert.False(t, culled(backCW, cw))
	assert.True(t, culled(backCW, ccw))

	backCCW := gfx.NewFill(gfx.CullBack)
	assert.True(t, culled(backCCW, cw))
	assert.False(t, culled(backCCW, ccw))

	none := gfx.NewFill(gfx.CullNothing)
	assert.False(t, culled(none, cw))
	assert.False(t, culled(none, ccw))

	degenerate := [3]vertexOut{{x: 0, y: 0}, {x: 1, y: 1}, {x: 2, y: 2}}
	assert.True(t, culled(none, degenerate))
}

func TestSample(t *testing.T) {
	tex := &texture{width: 2, height: 1, texels: [][4]float32{{1, 0, 0, 1}, {0, 1, 0, 1}}}
	nearestTile := gfx.SamplerInfo{Filter: gfx.FilterScale, Wrap: gfx.WrapTile}
	nearestClamp := gfx.SamplerInfo{Filter: gfx.FilterScale, Wrap: gfx.WrapClamp}

	assert.Equal(t, tex.texels[0], tex.sample(math.NewVec2(0.25, 0.5), nearestTile))
	assert.Equal(t, tex.texels[1], tex.sample(math.NewVec2(0.75, 0.5), nearestTile))
	assert.Equal(t, tex.texels[0], tex.sample(math.NewVec2(1.25, 0.5), nearestTile))
	assert.Equal(t, tex.texels[1], tex.sample(math.NewVec2(-0.25, 0.5), nearestTile))
	assert.Equal(t, tex.texels[1], tex.sample(math.NewVec2(1.25, 0.5), nearestClamp))

	bilinear := gfx.SamplerInfo{Filter: gfx.FilterBilinear, Wrap: gfx.WrapClamp}
	mid := tex.sample(math.NewVec2(0.5, 0.5), bilinear)
	assert.InDelta(t, 0.5, mid[0], 1e-6)
	assert.InDelta(t, 0.5, mid[1], 1e-6)
}

type rig struct {
	dev     *Device
	targets gfx.Targets
	pso     *gfx.PipelineState
	data    gfx.Bindings
}

func newRig(t *testing.T) *rig {
	t.Helper()
	dev := NewDevice()
	prog, err := dev.LinkProgram(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	raster := gfx.Rasterizer{FrontFace: gfx.Clockwise, CullFace: gfx.CullBack}
	pso, err := dev.CreatePipeline(prog, gfx.TriangleList, raster, desc())
	require.NoError(t, err)
	tex, err := dev.CreateTexture(gfx.TextureInfo{Width: 1, Height: 1, Format: gfx.TextureRGBA8}, []byte{255, 255, 255, 255})
	require.NoError(t, err)
	view, err := dev.ViewTexture(tex)
	require.NoError(t, err)
	sampler, err := dev.CreateSampler(gfx.SamplerInfo{})
	require.NoError(t, err)

	targets := NewTargets(4, 4)
	return &rig{
		dev:     dev,
		targets: targets,
		pso:     pso,
		data: gfx.Bindings{
			Globals:      []math.Mat4{math.Mat4Identity(), math.Mat4Identity()},
			Textures:     []gfx.TextureSampler{{View: view, Sampler: sampler}},
			ColorTargets: []*gfx.RenderTarget{targets.Color},
			DepthTarget:  targets.Depth,
		},
	}
}

func (r *rig) draw(t *testing.T, vertices []core.Vertex) {
	t.Helper()
	buf, err := r.dev.CreateVertexBuffer(core.VertexLayout(), core.VertexBytes(vertices))
	require.NoError(t, err)
	r.data.VertexBuffer = buf

	var cl gfx.CommandList
	cl.ClearColor(r.targets.Color, [4]float32{0, 0, 0, 1})
	cl.ClearDepth(r.targets.Depth, 1)
	cl.Draw(gfx.Slice{End: uint32(len(vertices))}, r.pso, &r.data)
	require.NoError(t, r.dev.Submit(&cl))
	cl.Reset()
}

func TestDrawDropsTrianglesBehindEye(t *testing.T) {
	r := newRig(t)
	r.data.Globals[0] = math.Mat4Perspective(math.DegToRad(90), 1, 0.1, 10)

	// at z = +1 the triangle is behind an eye looking down -Z
	r.draw(t, []core.Vertex{
		{Position: math.NewVec3(-1, -1, 1), Color: math.Vec3One},
		{Position: math.NewVec3(-1, 3, 1), Color: math.Vec3One},
		{Position: math.NewVec3(3, -1, 1), Color: math.Vec3One},
	})
	assert.Equal(t, [4]float32{0, 0, 0, 1}, ColorAt(r.targets.Color, 1, 1))
}

func TestDrawInterpolatesColor(t *testing.T) {
	r := newRig(t)
	// left half red, right half blue across a full-screen triangle pair
	red, blue := math.NewVec3(1, 0, 0), math.NewVec3(0, 0, 1)
	r.draw(t, []core.Vertex{
		{Position: math.NewVec3(-1, -1, 0), Color: red},
		{Position: math.NewVec3(-1, 1, 0), Color: red},
		{Position: math.NewVec3(1, 1, 0), Color: blue},
		{Position: math.NewVec3(-1, -1, 0), Color: red},
		{Position: math.NewVec3(1, 1, 0), Color: blue},
		{Position: math.NewVec3(1, -1, 0), Color: blue},
	})

	left := ColorAt(r.targets.Color, 0, 1)
	right := ColorAt(r.targets.Color, 3, 1)
	assert.Greater(t, left[0], right[0])
	assert.Less(t, left[2], right[2])
	assert.Equal(t, float32(0.5), DepthAt(r.targets.Depth, 1, 2))
}

func TestDrawOutsideDepthRangeIsClipped(t *testing.T) {
	r := newRig(t)
	r.draw(t, []core.Vertex{
		{Position: math.NewVec3(-1, -1, 1.5), Color: math.Vec3One},
		{Position: math.NewVec3(-1, 3, 1.5), Color: math.Vec3One},
		{Position: math.NewVec3(3, -1, 1.5), Color: math.Vec3One},
	})
	assert.Equal(t, [4]float32{0, 0, 0, 1}, ColorAt(r.targets.Color, 0, 0))
	assert.Equal(t, float32(1), DepthAt(r.targets.Depth, 0, 0))
}

func TestDeviceLifecycle(t *testing.T) {
	dev := NewDevice()
	buf, err := dev.CreateVertexBuffer(core.VertexLayout(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len)
	assert.Equal(t, 1, dev.Live())

	_, err = dev.CreateVertexBuffer(core.VertexLayout(), make([]byte, 33))
	assert.Error(t, err)
	_, err = dev.CreateTexture(gfx.TextureInfo{Width: 2, Height: 2}, make([]byte, 4))
	assert.Error(t, err)

	buf.Release()
	assert.Equal(t, 1, dev.Live())
	dev.Cleanup()
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, 1, dev.Freed())

	var cl gfx.CommandList
	require.NoError(t, dev.Submit(&cl))
	assert.Equal(t, 1, dev.Submits())

	dev.Lose()
	assert.ErrorIs(t, dev.Submit(&cl), gfx.ErrDeviceLost)
	assert.Equal(t, 1, dev.Submits())
}
