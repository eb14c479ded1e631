package gfx

import (
	"errors"
	"fmt"
)

// ErrBindingMismatch is wrapped by every error caused by a descriptor that
// does not fit a program or a resource set that does not fit a descriptor.
var ErrBindingMismatch = errors.New("gfx: binding mismatch")

type Primitive int

const (
	TriangleList Primitive = iota
)

type CullFace int

const (
	CullNothing CullFace = iota
	CullFront
	CullBack
)

type FrontFace int

const (
	CounterClockwise FrontFace = iota
	Clockwise
)

type Rasterizer struct {
	FrontFace FrontFace
	CullFace  CullFace
}

// NewFill returns a solid-fill rasterizer state culling the given faces.
func NewFill(cull CullFace) Rasterizer {
	return Rasterizer{FrontFace: CounterClockwise, CullFace: cull}
}

type Comparison int

const (
	Never Comparison = iota
	Less
	LessEqual
	Equal
	GreaterEqual
	Greater
	Always
)

// Test reports whether a fragment at depth src passes against stored dst.
func (c Comparison) Test(src, dst float32) bool {
	switch c {
	case Less:
		return src < dst
	case LessEqual:
		return src <= dst
	case Equal:
		return src == dst
	case GreaterEqual:
		return src >= dst
	case Greater:
		return src > dst
	case Always:
		return true
	}
	return false
}

type DepthState struct {
	Func  Comparison
	Write bool
}

// DepthLessEqualWrite keeps the nearest fragment, ties going to the latest
// draw, and writes its depth.
var DepthLessEqualWrite = DepthState{Func: LessEqual, Write: true}

// GlobalDesc declares one uniform the program reads.
type GlobalDesc struct {
	Name   string
	Format Format
}

// TargetDesc declares one color output.
type TargetDesc struct {
	Name   string
	Format ColorFormat
}

// DepthTargetDesc declares the depth/stencil output and how it is tested.
type DepthTargetDesc struct {
	Format DepthFormat
	State  DepthState
}

// PipelineDesc is the complete binding contract between a program and the
// resources a draw supplies. It is checked against the program when the
// pipeline is created, so draws cannot fail on a binding mismatch.
type PipelineDesc struct {
	VertexBuffer VertexLayout
	Globals      []GlobalDesc
	Samplers     []string
	ColorTargets []TargetDesc
	DepthTarget  *DepthTargetDesc
}

// Reflection is what a backend learned about a linked program.
type Reflection struct {
	Attributes map[string]Format
	Uniforms   map[string]Format
	Outputs    []string
}

// Check verifies that every binding desc declares exists in the program with
// the declared shape.
func (desc PipelineDesc) Check(r Reflection) error {
	for _, a := range desc.VertexBuffer.Attributes {
		got, ok := r.Attributes[a.Name]
		if !ok {
			return fmt.Errorf("%w: vertex attribute %q not used by program", ErrBindingMismatch, a.Name)
		}
		if got != a.Format {
			return fmt.Errorf("%w: vertex attribute %q is %v in program, %v in layout", ErrBindingMismatch, a.Name, got, a.Format)
		}
	}
	for _, g := range desc.Globals {
		got, ok := r.Uniforms[g.Name]
		if !ok {
			return fmt.Errorf("%w: uniform %q not found", ErrBindingMismatch, g.Name)
		}
		if got != g.Format {
			return fmt.Errorf("%w: uniform %q is %v in program, %v in descriptor", ErrBindingMismatch, g.Name, got, g.Format)
		}
	}
	for _, s := range desc.Samplers {
		got, ok := r.Uniforms[s]
		if !ok || got != Sampler2D {
			return fmt.Errorf("%w: sampler %q not found", ErrBindingMismatch, s)
		}
	}
	for _, t := range desc.ColorTargets {
		found := false
		for _, o := range r.Outputs {
			if o == t.Name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: color output %q not written by program", ErrBindingMismatch, t.Name)
		}
	}
	return nil
}

// PipelineState is a program combined with fixed-function state and the
// descriptor it was validated against.
type PipelineState struct {
	Handle
	Program    *Program
	Primitive  Primitive
	Rasterizer Rasterizer
	Desc       PipelineDesc
}
