package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"voxel-viewer/gfx"
)

var glTypes = map[uint32]gfx.Format{
	gl.FLOAT_VEC2: gfx.Float32x2,
	gl.FLOAT_VEC3: gfx.Float32x3,
	gl.FLOAT_VEC4: gfx.Float32x4,
	gl.FLOAT_MAT4: gfx.Mat4x4,
	gl.SAMPLER_2D: gfx.Sampler2D,
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// reflect lists the active attributes and uniforms of a linked program.
// Fragment outputs cannot be enumerated before GL 4.3; they are probed by
// name in CreatePipeline.
func reflect(prog uint32) gfx.Reflection {
	r := gfx.Reflection{
		Attributes: map[string]gfx.Format{},
		Uniforms:   map[string]gfx.Format{},
	}

	var maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)
	var n int32
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTES, &n)
	for i := uint32(0); i < uint32(n); i++ {
		name, typ := activeName(maxLen, func(buf *uint8, length, size *int32, xtype *uint32) {
			gl.GetActiveAttrib(prog, i, maxLen+1, length, size, xtype, buf)
		})
		r.Attributes[name] = glTypes[typ]
	}

	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &n)
	for i := uint32(0); i < uint32(n); i++ {
		name, typ := activeName(maxLen, func(buf *uint8, length, size *int32, xtype *uint32) {
			gl.GetActiveUniform(prog, i, maxLen+1, length, size, xtype, buf)
		})
		r.Uniforms[name] = glTypes[typ]
	}
	return r
}

func activeName(maxLen int32, query func(buf *uint8, length, size *int32, xtype *uint32)) (string, uint32) {
	buf := make([]uint8, maxLen+1)
	var length, size int32
	var xtype uint32
	query(&buf[0], &length, &size, &xtype)
	return string(buf[:length]), xtype
}

func location(name string) *uint8 {
	return gl.Str(name + "\x00")
}
