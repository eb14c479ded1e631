package renderer

import (
	"voxel-viewer/core"
	"voxel-viewer/gfx"
)

// Indices into Bindings.Globals.
const (
	globalProjection = iota
	globalView
)

// pipelineDesc is the binding contract of VertexShader/FragmentShader: one
// Vertex buffer, projection and view matrices, the atlas sampler, one RGBA8
// color output and a less-or-equal depth test with writes.
func pipelineDesc() gfx.PipelineDesc {
	return gfx.PipelineDesc{
		VertexBuffer: core.VertexLayout(),
		Globals: []gfx.GlobalDesc{
			globalProjection: {Name: UniformProjection, Format: gfx.Mat4x4},
			globalView:       {Name: UniformView, Format: gfx.Mat4x4},
		},
		Samplers:     []string{SamplerTexture},
		ColorTargets: []gfx.TargetDesc{{Name: OutputColor, Format: gfx.RGBA8}},
		DepthTarget: &gfx.DepthTargetDesc{
			Format: gfx.D24S8,
			State:  gfx.DepthLessEqualWrite,
		},
	}
}

func rasterizer() gfx.Rasterizer {
	r := gfx.NewFill(gfx.CullBack)
	r.FrontFace = gfx.Clockwise
	return r
}
