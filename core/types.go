package core

import (
	"unsafe"

	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	// ColorSky is the default clear color.
	ColorSky = Color{0.81, 0.8, 1.0, 1.0}
)

func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// Vertex is the record stored in vertex buffers. Field order is part of the
// shader contract: position, texture coordinate, color.
type Vertex struct {
	Position math.Vec3
	TexCoord math.Vec2
	Color    math.Vec3
}

// Vertex input names, matching the shader's "in" declarations.
const (
	AttrPosition = "at_position"
	AttrTexCoord = "at_tex_coord"
	AttrColor    = "at_color"
)

// VertexLayout describes Vertex as a gfx buffer layout.
func VertexLayout() gfx.VertexLayout {
	var v Vertex
	return gfx.VertexLayout{
		Attributes: []gfx.VertexAttribute{
			{Name: AttrPosition, Format: gfx.Float32x3, Offset: int(unsafe.Offsetof(v.Position))},
			{Name: AttrTexCoord, Format: gfx.Float32x2, Offset: int(unsafe.Offsetof(v.TexCoord))},
			{Name: AttrColor, Format: gfx.Float32x3, Offset: int(unsafe.Offsetof(v.Color))},
		},
		Stride: int(unsafe.Sizeof(v)),
	}
}

// VertexBytes reinterprets vertices as raw bytes for upload. The result
// aliases the input.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := len(vertices) * int(unsafe.Sizeof(vertices[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}

type ClearValue struct {
	Color   Color
	Depth   float32
	Stencil uint8
}

// DefaultClearValue clears to the sky color, far depth and zero stencil.
func DefaultClearValue() ClearValue {
	return ClearValue{Color: ColorSky, Depth: 1.0, Stencil: 0}
}
