package gfx

import (
	"fmt"

	"voxel-viewer/math"
)

// TextureSampler is a combined texture+sampler binding.
type TextureSampler struct {
	View    *TextureView
	Sampler *Sampler
}

// Bindings is the resource set a draw reads and writes. Slices are indexed in
// the order of the matching PipelineDesc fields.
type Bindings struct {
	VertexBuffer *Buffer
	Globals      []math.Mat4
	Textures     []TextureSampler
	ColorTargets []*RenderTarget
	DepthTarget  *DepthTarget
}

// Validate checks that b has the shape desc declares.
func (b *Bindings) Validate(desc PipelineDesc) error {
	if b.VertexBuffer == nil {
		return fmt.Errorf("%w: no vertex buffer bound", ErrBindingMismatch)
	}
	if !b.VertexBuffer.Layout.Equal(desc.VertexBuffer) {
		return fmt.Errorf("%w: vertex buffer layout differs from pipeline", ErrBindingMismatch)
	}
	if len(b.Globals) != len(desc.Globals) {
		return fmt.Errorf("%w: %d globals bound, pipeline declares %d", ErrBindingMismatch, len(b.Globals), len(desc.Globals))
	}
	if len(b.Textures) != len(desc.Samplers) {
		return fmt.Errorf("%w: %d textures bound, pipeline declares %d", ErrBindingMismatch, len(b.Textures), len(desc.Samplers))
	}
	for i, ts := range b.Textures {
		if ts.View == nil || ts.Sampler == nil {
			return fmt.Errorf("%w: sampler %q incomplete", ErrBindingMismatch, desc.Samplers[i])
		}
	}
	if len(b.ColorTargets) != len(desc.ColorTargets) {
		return fmt.Errorf("%w: %d color targets bound, pipeline declares %d", ErrBindingMismatch, len(b.ColorTargets), len(desc.ColorTargets))
	}
	for i, t := range b.ColorTargets {
		if t == nil || t.Format != desc.ColorTargets[i].Format {
			return fmt.Errorf("%w: color target %q", ErrBindingMismatch, desc.ColorTargets[i].Name)
		}
	}
	if (desc.DepthTarget == nil) != (b.DepthTarget == nil) {
		return fmt.Errorf("%w: depth target presence differs from pipeline", ErrBindingMismatch)
	}
	if b.DepthTarget != nil && b.DepthTarget.Format != desc.DepthTarget.Format {
		return fmt.Errorf("%w: depth target format", ErrBindingMismatch)
	}
	return nil
}

// Clone copies b so later changes to the original do not leak into it.
func (b *Bindings) Clone() Bindings {
	c := *b
	c.Globals = append([]math.Mat4(nil), b.Globals...)
	c.Textures = append([]TextureSampler(nil), b.Textures...)
	c.ColorTargets = append([]*RenderTarget(nil), b.ColorTargets...)
	return c
}
