package softgpu

import (
	"fmt"
	"regexp"
	"strings"

	"voxel-viewer/gfx"
)

var (
	declRe = regexp.MustCompile(`(?m)^\s*(uniform|in|out)\s+(\w+)\s+([\w\s,]+);`)
	mainRe = regexp.MustCompile(`void\s+main\s*\(\s*\)`)
)

var glslTypes = map[string]gfx.Format{
	"vec2":      gfx.Float32x2,
	"vec3":      gfx.Float32x3,
	"vec4":      gfx.Float32x4,
	"mat4":      gfx.Mat4x4,
	"sampler2D": gfx.Sampler2D,
}

type stageDecls struct {
	in       map[string]gfx.Format
	out      map[string]gfx.Format
	outOrder []string
	uniform  map[string]gfx.Format
}

func parseStage(stage string, src []byte) (stageDecls, error) {
	d := stageDecls{
		in:      map[string]gfx.Format{},
		out:     map[string]gfx.Format{},
		uniform: map[string]gfx.Format{},
	}
	if !mainRe.Match(src) {
		return d, fmt.Errorf("%s: no main function", stage)
	}
	for _, m := range declRe.FindAllSubmatch(src, -1) {
		qual, typ := string(m[1]), string(m[2])
		format, ok := glslTypes[typ]
		if !ok {
			return d, fmt.Errorf("%s: unsupported type %q", stage, typ)
		}
		for _, name := range strings.Split(string(m[3]), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			switch qual {
			case "uniform":
				d.uniform[name] = format
			case "in":
				d.in[name] = format
			case "out":
				d.out[name] = format
				d.outOrder = append(d.outOrder, name)
			}
		}
	}
	return d, nil
}

// reflect compiles and links the two stages far enough to report their
// interface: vertex inputs, uniforms of both stages and fragment outputs.
func reflect(vertex, fragment []byte) (gfx.Reflection, error) {
	vs, err := parseStage("vertex", vertex)
	if err != nil {
		return gfx.Reflection{}, err
	}
	fs, err := parseStage("fragment", fragment)
	if err != nil {
		return gfx.Reflection{}, err
	}

	for name, format := range fs.in {
		if got, ok := vs.out[name]; !ok || got != format {
			return gfx.Reflection{}, fmt.Errorf("link: fragment input %q has no matching vertex output", name)
		}
	}

	uniforms := map[string]gfx.Format{}
	for name, format := range vs.uniform {
		uniforms[name] = format
	}
	for name, format := range fs.uniform {
		if got, ok := uniforms[name]; ok && got != format {
			return gfx.Reflection{}, fmt.Errorf("link: uniform %q declared as %v and %v", name, got, format)
		}
		uniforms[name] = format
	}

	return gfx.Reflection{
		Attributes: vs.in,
		Uniforms:   uniforms,
		Outputs:    fs.outOrder,
	}, nil
}
