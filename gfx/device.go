package gfx

import "errors"

// ErrDeviceLost is returned by a Device that can no longer execute work.
var ErrDeviceLost = errors.New("gfx: device lost")

// Factory creates GPU resources. Every returned handle holds one reference
// owned by the caller.
type Factory interface {
	LinkProgram(vertex, fragment []byte) (*Program, error)
	CreatePipeline(prog *Program, prim Primitive, raster Rasterizer, desc PipelineDesc) (*PipelineState, error)
	CreateVertexBuffer(layout VertexLayout, data []byte) (*Buffer, error)
	CreateTexture(info TextureInfo, data []byte) (*Texture, error)
	ViewTexture(tex *Texture) (*TextureView, error)
	CreateSampler(info SamplerInfo) (*Sampler, error)
}

// Device executes recorded work.
type Device interface {
	// Submit executes the commands of cl in order.
	Submit(cl *CommandList) error
	// Cleanup frees backend objects whose last reference was released. Call
	// it once per frame, after the frame's Submit.
	Cleanup()
}
