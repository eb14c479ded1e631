// Package gfx is the backend-neutral GPU contract used by the renderer.
//
// A backend provides a Factory that creates resources (programs, pipelines,
// buffers, textures, samplers) and a Device that executes recorded command
// lists. Resource handles are reference counted: the creator holds the first
// reference, bindings and recorded draws retain their own, and the backend
// frees the underlying object when the count drops to zero. Render and depth
// targets are the exception: they belong to the windowing subsystem and are
// only ever borrowed.
//
// Nothing in this package is safe for concurrent use. A single goroutine owns
// the factory, the device and every handle.
package gfx
