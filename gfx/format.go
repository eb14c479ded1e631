package gfx

import "fmt"

// Format describes the shape of a shader-visible value.
type Format int

const (
	FormatUnknown Format = iota
	Float32x2
	Float32x3
	Float32x4
	Mat4x4
	Sampler2D
)

func (f Format) String() string {
	switch f {
	case Float32x2:
		return "vec2"
	case Float32x3:
		return "vec3"
	case Float32x4:
		return "vec4"
	case Mat4x4:
		return "mat4"
	case Sampler2D:
		return "sampler2D"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Components is the number of float32 values a vertex attribute of this
// format occupies.
func (f Format) Components() int {
	switch f {
	case Float32x2:
		return 2
	case Float32x3:
		return 3
	case Float32x4:
		return 4
	case Mat4x4:
		return 16
	}
	return 0
}

// VertexAttribute is one named field of a vertex record.
type VertexAttribute struct {
	Name   string
	Format Format
	Offset int
}

// VertexLayout is the byte layout of one vertex record in a buffer.
type VertexLayout struct {
	Attributes []VertexAttribute
	Stride     int
}

// Equal reports whether two layouts describe the same record shape.
func (l VertexLayout) Equal(other VertexLayout) bool {
	if l.Stride != other.Stride || len(l.Attributes) != len(other.Attributes) {
		return false
	}
	for i, a := range l.Attributes {
		if a != other.Attributes[i] {
			return false
		}
	}
	return true
}

// ColorFormat is the pixel format of a color target.
type ColorFormat int

const (
	RGBA8 ColorFormat = iota
)

// DepthFormat is the pixel format of a depth/stencil target.
type DepthFormat int

const (
	D24S8 DepthFormat = iota
)

// TextureFormat is the texel format of a sampled texture.
type TextureFormat int

const (
	TextureRGBA8 TextureFormat = iota
	TextureRGBA32F
)

// BytesPerTexel returns the storage size of one texel.
func (f TextureFormat) BytesPerTexel() int {
	if f == TextureRGBA32F {
		return 16
	}
	return 4
}
