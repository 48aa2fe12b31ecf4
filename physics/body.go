// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// BodyKind classifies a RigidBody for the purposes of the solver: only
// Dynamic bodies accumulate velocity from impulses; Static and Kinematic
// bodies are both treated as having infinite mass/inertia (SPEC_FULL.md §3).
type BodyKind uint8

const (
	Dynamic BodyKind = iota
	Kinematic
	Static
)

// LockedAxes is a bitmask of linear/angular axes a body is not allowed to
// move along/around. Used by SolverBodyInertia to zero rows/columns of the
// inverse inertia tensor (SPEC_FULL.md §3).
type LockedAxes uint8

const (
	LockLinearX LockedAxes = 1 << iota
	LockLinearY
	LockLinearZ
	LockAngularX
	LockAngularY
	LockAngularZ
)

// Dominance is a small signed per-body integer. In a contact or joint
// between two bodies, the one with the higher dominance is treated as
// immovable by the other (SPEC_FULL.md GLOSSARY).
type Dominance int8

// RigidBody is the external, collaborator-owned record the solver reads at
// prepare time and writes back to at finalize time. It is intentionally a
// narrow interface: transforms, mass properties, and solver-relevant flags
// only - scene graph sync, sleeping policy, and force integration live
// outside this package (SPEC_FULL.md §1).
type RigidBody interface {
	Kind() BodyKind
	Dominance() Dominance
	LockedAxes() LockedAxes
	Asleep() bool

	Position() mgl64.Vec3
	Orientation() mgl64.Quat
	SetPosition(mgl64.Vec3)
	SetOrientation(mgl64.Quat)

	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	SetLinearVelocity(mgl64.Vec3)
	SetAngularVelocity(mgl64.Vec3)

	InverseMass() float64
	// InverseInertiaLocal is the inverse inertia tensor expressed in the
	// body's local frame (diagonal for a typical shape-derived tensor).
	InverseInertiaLocal() mgl64.Mat3
}

// dynamic reports whether kind receives impulses (has finite mass/inertia).
func (k BodyKind) dynamic() bool { return k == Dynamic }

// needsSolverBody reports whether kind is awake-eligible for a SolverBody:
// Dynamic and Kinematic bodies both integrate position; Static bodies never
// do (SPEC_FULL.md §3, §4.2).
func (k BodyKind) needsSolverBody() bool { return k == Dynamic || k == Kinematic }
