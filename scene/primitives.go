package scene

import (
	"voxel-viewer/core"
	"voxel-viewer/math"
)

// Tile is a rectangle of texture coordinates, Min at the top-left texel of
// the image and Max at the bottom-right.
type Tile struct {
	Min math.Vec2
	Max math.Vec2
}

// FullTile covers the whole texture.
var FullTile = Tile{Min: math.NewVec2(0, 0), Max: math.NewVec2(1, 1)}

// Face appends the two triangles of a square centered at center. right and up
// are unit vectors spanning the face as seen from the side it faces; the
// triangles wind clockwise from that side.
func Face(dst []core.Vertex, center, right, up math.Vec3, half float32, tile Tile, color math.Vec3) []core.Vertex {
	r, u := right.Mul(half), up.Mul(half)
	bottomLeft := core.Vertex{Position: center.Sub(r).Sub(u), TexCoord: math.NewVec2(tile.Min.X, tile.Max.Y), Color: color}
	topLeft := core.Vertex{Position: center.Sub(r).Add(u), TexCoord: tile.Min, Color: color}
	topRight := core.Vertex{Position: center.Add(r).Add(u), TexCoord: math.NewVec2(tile.Max.X, tile.Min.Y), Color: color}
	bottomRight := core.Vertex{Position: center.Add(r).Sub(u), TexCoord: tile.Max, Color: color}

	return append(dst,
		bottomLeft, topLeft, topRight,
		bottomLeft, topRight, bottomRight,
	)
}

// cubeFaces lists right and up for each face; right x up is the outward
// normal.
var cubeFaces = [6][2]math.Vec3{
	{math.NewVec3(0, 0, -1), math.Vec3Up},    // +X
	{math.NewVec3(0, 0, 1), math.Vec3Up},     // -X
	{math.Vec3Right, math.NewVec3(0, 0, -1)}, // +Y
	{math.Vec3Right, math.Vec3Front},         // -Y
	{math.Vec3Right, math.Vec3Up},            // +Z
	{math.NewVec3(-1, 0, 0), math.Vec3Up},    // -Z
}

// Cube appends an axis-aligned cube with edge length size, every face
// showing tile.
func Cube(dst []core.Vertex, center math.Vec3, size float32, tile Tile, color math.Vec3) []core.Vertex {
	half := size / 2
	for _, f := range cubeFaces {
		normal := f[0].Cross(f[1])
		dst = Face(dst, center.Add(normal.Mul(half)), f[0], f[1], half, tile, color)
	}
	return dst
}

// Floor appends an n x n grid of unit squares on the y = 0 plane centered on
// the origin, facing up. Squares alternate between the two colors.
func Floor(dst []core.Vertex, n int, tile Tile, even, odd math.Vec3) []core.Vertex {
	offset := float32(n) / 2
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			color := even
			if (x+z)%2 == 1 {
				color = odd
			}
			center := math.NewVec3(float32(x)-offset+0.5, 0, float32(z)-offset+0.5)
			dst = Face(dst, center, math.Vec3Right, math.NewVec3(0, 0, -1), 0.5, tile, color)
		}
	}
	return dst
}
