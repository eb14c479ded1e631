package softgpu

import (
	"voxel-viewer/math"
)

// Interface of the program this device can execute.
const (
	attrPosition      = "at_position"
	attrTexCoord      = "at_tex_coord"
	attrColor         = "at_color"
	uniformProjection = "u_projection"
	uniformView       = "u_view"
	samplerTexture    = "s_texture"
)

// ShadeVertex is the vertex stage: projection * view * vec4(position, 1).
func ShadeVertex(projection, view math.Mat4, position math.Vec3) math.Vec4 {
	return position.ToVec4(1).MulMat(view.Mul(projection))
}

// ShadeFragment is the fragment stage. A texel whose alpha is exactly zero is
// discarded; any other texel is multiplied by (color, 1).
func ShadeFragment(texel [4]float32, color math.Vec3) ([4]float32, bool) {
	if texel[3] == 0 {
		return [4]float32{}, false
	}
	return [4]float32{
		texel[0] * color.X,
		texel[1] * color.Y,
		texel[2] * color.Z,
		texel[3],
	}, true
}
