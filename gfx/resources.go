package gfx

// Handle is the reference-counted core shared by every owned resource. A new
// handle starts with one reference held by whoever created it.
type Handle struct {
	raw  any
	refs int
	free func(raw any)
}

// NewHandle wraps a backend object. free runs once, when the last reference
// is released. It may be nil.
func NewHandle(raw any, free func(raw any)) Handle {
	return Handle{raw: raw, refs: 1, free: free}
}

// Raw returns the backend object, or nil once the handle has been freed.
func (h *Handle) Raw() any {
	return h.raw
}

// Alive reports whether at least one reference remains.
func (h *Handle) Alive() bool {
	return h.refs > 0
}

// Refs returns the current reference count.
func (h *Handle) Refs() int {
	return h.refs
}

// Retain adds a reference.
func (h *Handle) Retain() {
	if h.refs <= 0 {
		panic("gfx: retain of released handle")
	}
	h.refs++
}

// Release drops a reference and frees the backend object when none remain.
// Releasing a dead handle is a no-op.
func (h *Handle) Release() {
	if h.refs <= 0 {
		return
	}
	h.refs--
	if h.refs == 0 {
		if h.free != nil {
			h.free(h.raw)
		}
		h.raw = nil
	}
}

// Program is a linked vertex+fragment shader pair together with what the
// backend reflected from it.
type Program struct {
	Handle
	Reflection Reflection
}

// Buffer is a GPU vertex buffer of Len records laid out as Layout.
type Buffer struct {
	Handle
	Layout VertexLayout
	Len    int
}

// TextureInfo describes texture storage.
type TextureInfo struct {
	Width  int
	Height int
	Format TextureFormat
}

// Texture is GPU texture storage.
type Texture struct {
	Handle
	Info TextureInfo
}

// TextureView is a texture viewed as a shader-readable resource.
type TextureView struct {
	Handle
	Texture *Texture
}

// FilterMethod selects texel filtering.
type FilterMethod int

const (
	// FilterScale picks the nearest texel, without mipmaps.
	FilterScale FilterMethod = iota
	FilterBilinear
)

// WrapMode selects how coordinates outside [0, 1] are resolved.
type WrapMode int

const (
	// WrapTile repeats the texture.
	WrapTile WrapMode = iota
	WrapClamp
)

type SamplerInfo struct {
	Filter FilterMethod
	Wrap   WrapMode
}

// Sampler is a GPU sampler object.
type Sampler struct {
	Handle
	Info SamplerInfo
}

// RenderTarget is a color surface owned by the windowing subsystem. Holders
// never free it; it becomes stale when the window is resized.
type RenderTarget struct {
	Raw    any
	Width  int
	Height int
	Format ColorFormat
}

// DepthTarget is a depth/stencil surface owned by the windowing subsystem.
type DepthTarget struct {
	Raw    any
	Width  int
	Height int
	Format DepthFormat
}

// Targets is the pair of borrowed surfaces a frame renders into.
type Targets struct {
	Color *RenderTarget
	Depth *DepthTarget
}
