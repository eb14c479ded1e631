package scene

import (
	"github.com/chewxy/math32"

	"voxel-viewer/core"
	"voxel-viewer/math"
)

// Radians of yaw or pitch per pixel of mouse motion at sensitivity 1.
const lookRadiansPerPixel = math32.Pi / 1440

// Pitch stays this far short of straight up or down so the view basis never
// degenerates.
const pitchLimit = math32.Pi/2 - 0.001

// Camera is a snapshot of an eye position and an orthonormal basis.
type Camera struct {
	Position math.Vec3
	Forward  math.Vec3
	Right    math.Vec3
	Up       math.Vec3
}

// NewCamera places a camera at position looking along yaw and pitch. Yaw 0
// looks down +Z, yaw π down -Z; positive pitch looks up.
func NewCamera(position math.Vec3, yaw, pitch float32) Camera {
	sy, cy := math32.Sincos(yaw)
	sp, cp := math32.Sincos(pitch)
	c := Camera{
		Position: position,
		Forward:  math.NewVec3(sy*cp, sp, cy*cp),
		Up:       math.NewVec3(-sy*sp, cp, -cy*sp),
	}
	c.Right = c.Forward.Cross(c.Up)
	return c
}

// Orthogonal returns the view matrix of the camera.
func (c Camera) Orthogonal() math.Mat4 {
	return math.Mat4LookAt(c.Position, c.Position.Add(c.Forward), c.Up)
}

type FirstPersonSettings struct {
	MoveForward  int
	MoveBackward int
	StrafeLeft   int
	StrafeRight  int
	FlyUp        int
	FlyDown      int

	SpeedHorizontal  float32
	SpeedVertical    float32
	MouseSensitivity float32
}

// KeyboardWASD binds W/S/A/D to walking, Space to rising and left shift to
// sinking.
func KeyboardWASD() FirstPersonSettings {
	return FirstPersonSettings{
		MoveForward:      core.KeyW,
		MoveBackward:     core.KeyS,
		StrafeLeft:       core.KeyA,
		StrafeRight:      core.KeyD,
		FlyUp:            core.KeySpace,
		FlyDown:          core.KeyLeftShift,
		SpeedHorizontal:  8,
		SpeedVertical:    4,
		MouseSensitivity: 1,
	}
}

// FirstPerson is a flying first-person controller driven by window events.
type FirstPerson struct {
	Position math.Vec3
	Yaw      float32
	Pitch    float32
	Settings FirstPersonSettings

	pressed map[int]bool
}

func NewFirstPerson(position math.Vec3, settings FirstPersonSettings) *FirstPerson {
	return &FirstPerson{
		Position: position,
		Settings: settings,
		pressed:  make(map[int]bool),
	}
}

// Event applies one window event: key state, mouse look, or a fixed update
// step that moves the position.
func (fp *FirstPerson) Event(e core.Event) {
	switch e := e.(type) {
	case core.PressEvent:
		fp.pressed[e.Key] = true
	case core.ReleaseEvent:
		delete(fp.pressed, e.Key)
	case core.MouseRelativeEvent:
		fp.Look(float32(e.Dx), float32(e.Dy))
	case core.UpdateEvent:
		fp.Position = fp.Position.Add(fp.Velocity().Mul(float32(e.Dt)))
	}
}

// Look turns by a mouse motion in pixels. Moving right turns right, moving
// down looks down.
func (fp *FirstPerson) Look(dx, dy float32) {
	scale := fp.Settings.MouseSensitivity * lookRadiansPerPixel
	fp.Yaw = math32.Mod(fp.Yaw-dx*scale, 2*math32.Pi)
	fp.Pitch = max(-pitchLimit, min(pitchLimit, fp.Pitch-dy*scale))
}

func (fp *FirstPerson) axis(positive, negative int) float32 {
	var v float32
	if fp.pressed[positive] {
		v++
	}
	if fp.pressed[negative] {
		v--
	}
	return v
}

// Velocity is the current movement in units per second. Horizontal movement
// follows yaw only and is as fast diagonally as straight.
func (fp *FirstPerson) Velocity() math.Vec3 {
	s := fp.Settings
	forward := fp.axis(s.MoveForward, s.MoveBackward)
	strafe := fp.axis(s.StrafeRight, s.StrafeLeft)
	rise := fp.axis(s.FlyUp, s.FlyDown)

	sy, cy := math32.Sincos(fp.Yaw)
	ahead := math.NewVec3(sy, 0, cy)
	right := math.NewVec3(-cy, 0, sy)

	h := ahead.Mul(forward).Add(right.Mul(strafe)).Normalize().Mul(s.SpeedHorizontal)
	return h.Add(math.Vec3Up.Mul(rise * s.SpeedVertical))
}

// Camera returns the camera dt seconds after the last update, extrapolating
// the current velocity.
func (fp *FirstPerson) Camera(dt float64) Camera {
	pos := fp.Position.Add(fp.Velocity().Mul(float32(dt)))
	return NewCamera(pos, fp.Yaw, fp.Pitch)
}

// Rig turns a controller camera into the viewer's eye: raised to eye height
// and nudged forward along the ground.
type Rig struct {
	EyeHeight    float32
	ForwardNudge float32
}

func DefaultRig() Rig {
	return Rig{EyeHeight: 1.62, ForwardNudge: 0.1}
}

// Eye applies the rig to c. The nudge follows the forward vector flattened
// onto the ground plane; looking straight up or down there is none.
func (r Rig) Eye(c Camera) Camera {
	c.Position.Y += r.EyeHeight
	flat := c.Forward
	flat.Y = 0
	c.Position = c.Position.Add(flat.Normalize().Mul(r.ForwardNudge))
	return c
}

// View returns the view matrix of the rigged camera.
func (r Rig) View(c Camera) math.Mat4 {
	return r.Eye(c).Orthogonal()
}

// Perspective describes a symmetric perspective projection. FOV is the
// vertical field of view in degrees.
type Perspective struct {
	FOV    float32
	Near   float32
	Far    float32
	Aspect float32
}

func DefaultPerspective(width, height int) Perspective {
	p := Perspective{FOV: 70, Near: 0.1, Far: 1000}
	p.SetSize(width, height)
	return p
}

// SetSize derives the aspect ratio from a framebuffer size. A zero height
// leaves it unchanged.
func (p *Perspective) SetSize(width, height int) {
	if height > 0 {
		p.Aspect = float32(width) / float32(height)
	}
}

func (p Perspective) Projection() math.Mat4 {
	return math.Mat4Perspective(math.DegToRad(p.FOV), p.Aspect, p.Near, p.Far)
}
