package renderer

// Uniform, sampler and output names shared by the shaders and the pipeline
// descriptor.
const (
	UniformProjection = "u_projection"
	UniformView       = "u_view"
	SamplerTexture    = "s_texture"
	OutputColor       = "out_color"
)

// VertexShader projects each vertex by projection * view and passes texture
// coordinate and color through.
var VertexShader = []byte(`
#version 150 core
uniform mat4 u_projection, u_view;
in vec2 at_tex_coord;
in vec3 at_color, at_position;
out vec2 v_tex_coord;
out vec3 v_color;
void main() {
    v_tex_coord = at_tex_coord;
    v_color = at_color;
    gl_Position = u_projection * u_view * vec4(at_position, 1.0);
}
`)

// FragmentShader samples the texture, drops fully transparent texels and
// tints the rest by the vertex color. Alpha passes through unchanged.
var FragmentShader = []byte(`
#version 150 core
out vec4 out_color;
uniform sampler2D s_texture;
in vec2 v_tex_coord;
in vec3 v_color;
void main() {
    vec4 tex_color = texture(s_texture, v_tex_coord);
    if (tex_color.a == 0.0)
        discard;
    out_color = tex_color * vec4(v_color, 1.0);
}
`)
