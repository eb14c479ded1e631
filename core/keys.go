package core

// Key codes, numerically equal to GLFW's.
const (
	KeySpace     = 32
	KeyA         = 65
	KeyD         = 68
	KeyS         = 83
	KeyW         = 87
	KeyEscape    = 256
	KeyRight     = 262
	KeyLeft      = 263
	KeyDown      = 264
	KeyUp        = 265
	KeyLeftShift = 340
)
