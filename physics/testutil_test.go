// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// fakeBody is a minimal RigidBody used by this package's own tests - there
// is no scene graph or transform-sync collaborator in this module, so tests
// drive the solver against a bare struct implementing the interface
// directly (SPEC_FULL.md §1, §6).
type fakeBody struct {
	kind       BodyKind
	dominance  Dominance
	locked     LockedAxes
	asleep     bool

	position    mgl64.Vec3
	orientation mgl64.Quat

	linearVelocity  mgl64.Vec3
	angularVelocity mgl64.Vec3

	invMass         float64
	invInertiaLocal mgl64.Mat3
}

func (b *fakeBody) Kind() BodyKind           { return b.kind }
func (b *fakeBody) Dominance() Dominance     { return b.dominance }
func (b *fakeBody) LockedAxes() LockedAxes   { return b.locked }
func (b *fakeBody) Asleep() bool             { return b.asleep }
func (b *fakeBody) Position() mgl64.Vec3     { return b.position }
func (b *fakeBody) Orientation() mgl64.Quat  { return b.orientation }
func (b *fakeBody) SetPosition(p mgl64.Vec3) { b.position = p }
func (b *fakeBody) SetOrientation(q mgl64.Quat) {
	b.orientation = q
}
func (b *fakeBody) LinearVelocity() mgl64.Vec3      { return b.linearVelocity }
func (b *fakeBody) AngularVelocity() mgl64.Vec3     { return b.angularVelocity }
func (b *fakeBody) SetLinearVelocity(v mgl64.Vec3)  { b.linearVelocity = v }
func (b *fakeBody) SetAngularVelocity(v mgl64.Vec3) { b.angularVelocity = v }
func (b *fakeBody) InverseMass() float64            { return b.invMass }
func (b *fakeBody) InverseInertiaLocal() mgl64.Mat3 { return b.invInertiaLocal }

// cubeInverseInertia returns the inverse of a solid cube's inertia tensor
// (side length s, mass m): I = m*s^2/6 per axis.
func cubeInverseInertia(mass, side float64) mgl64.Mat3 {
	i := mass * side * side / 6.0
	return mgl64.Mat3{
		1 / i, 0, 0,
		0, 1 / i, 0,
		0, 0, 1 / i,
	}
}

// sphereInverseInertia returns the inverse of a solid sphere's inertia
// tensor (radius r, mass m): I = 2*m*r^2/5 per axis.
func sphereInverseInertia(mass, radius float64) mgl64.Mat3 {
	i := 2.0 * mass * radius * radius / 5.0
	return mgl64.Mat3{
		1 / i, 0, 0,
		0, 1 / i, 0,
		0, 0, 1 / i,
	}
}

// newDynamicBody creates an awake Dynamic fakeBody with the given inverse
// inertia and inverse mass, at the given position.
func newDynamicBody(position mgl64.Vec3, invInertia mgl64.Mat3, invMass float64) *fakeBody {
	return &fakeBody{
		kind:            Dynamic,
		position:        position,
		orientation:     identityQuat,
		invMass:         invMass,
		invInertiaLocal: invInertia,
	}
}

// newStaticBody creates an immovable fakeBody (zero inverse mass/inertia).
func newStaticBody(position mgl64.Vec3) *fakeBody {
	return &fakeBody{
		kind:        Static,
		position:    position,
		orientation: identityQuat,
	}
}

// applyGravity integrates a constant downward acceleration into every
// dynamic body's linear velocity for one time step of length h - the
// force-integration step this package's caller is responsible for
// (SPEC_FULL.md §1).
func applyGravity(bodies map[int]RigidBody, g, h float64) {
	for _, b := range bodies {
		if b.Kind() != Dynamic {
			continue
		}
		v := b.LinearVelocity()
		v[1] += g * h
		b.SetLinearVelocity(v)
	}
}
