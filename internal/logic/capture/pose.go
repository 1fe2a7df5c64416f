package capture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	worldUp      = mgl64.Vec3{0, 1, 0}
	worldForward = mgl64.Vec3{0, 0, 1}
)

// Pose is the camera's world transform.
type Pose interface {
	Position() mgl64.Vec3
	Forward() mgl64.Vec3
}

// StaticPose is a fixed transform.
type StaticPose struct {
	Pos mgl64.Vec3
	Fwd mgl64.Vec3
}

func (p StaticPose) Position() mgl64.Vec3 { return p.Pos }
func (p StaticPose) Forward() mgl64.Vec3  { return p.Fwd }

// LookRotation returns the rotation whose +Z axis points along forward
// with +Y kept as close to world up as possible.
func LookRotation(forward mgl64.Vec3) mgl64.Quat {
	if forward.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	z := forward.Normalize()
	up := worldUp
	if math.Abs(z.Dot(up)) > 1-1e-9 {
		// Looking straight up or down.
		up = worldForward
	}
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4())
}

// PrintPlacement returns where a printed photo appears: offset units in
// front of the camera, facing the camera's forward direction.
func PrintPlacement(p Pose, offset float64) (mgl64.Vec3, mgl64.Quat) {
	fwd := p.Forward()
	if fwd.Len() < 1e-9 {
		fwd = worldForward
	}
	fwd = fwd.Normalize()
	return p.Position().Add(fwd.Mul(offset)), LookRotation(fwd)
}
