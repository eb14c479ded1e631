package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"voxel-viewer/gfx"
)

// uploadTexture creates a GL texture from tightly packed texels, row 0 at
// v = 0. There are no mipmaps.
func uploadTexture(info gfx.TextureInfo, data []byte) (uint32, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return 0, fmt.Errorf("empty texture %dx%d", info.Width, info.Height)
	}
	if want := info.Width * info.Height * info.Format.BytesPerTexel(); len(data) != want {
		return 0, fmt.Errorf("texture data is %d bytes, want %d", len(data), want)
	}

	internal, xtype := int32(gl.RGBA8), uint32(gl.UNSIGNED_BYTE)
	if info.Format == gfx.TextureRGBA32F {
		internal, xtype = gl.RGBA32F, gl.FLOAT
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internal,
		int32(info.Width),
		int32(info.Height),
		0,
		gl.RGBA,
		xtype,
		gl.Ptr(data),
	)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id, nil
}

func newSampler(info gfx.SamplerInfo) uint32 {
	filter, wrap := int32(gl.NEAREST), int32(gl.REPEAT)
	if info.Filter == gfx.FilterBilinear {
		filter = gl.LINEAR
	}
	if info.Wrap == gfx.WrapClamp {
		wrap = gl.CLAMP_TO_EDGE
	}

	var id uint32
	gl.GenSamplers(1, &id)
	gl.SamplerParameteri(id, gl.TEXTURE_MIN_FILTER, filter)
	gl.SamplerParameteri(id, gl.TEXTURE_MAG_FILTER, filter)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_T, wrap)
	return id
}
