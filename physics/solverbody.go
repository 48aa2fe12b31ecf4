// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// identityQuat is the zero-rotation quaternion, used as a literal rather
// than a constructor function since mgl64 exposes none (SPEC_FULL.md §11
// restricts this module to mgl64 methods directly observed in the pack).
var identityQuat = mgl64.Quat{W: 1, V: mgl64.Vec3{}}

// SolverBody is the compact, mutable per-body solver state carried across
// one physics step's substep loop (SPEC_FULL.md §3).
type SolverBody struct {
	body RigidBody

	baseOrientation mgl64.Quat // orientation snapshotted at PrepareSolverBodies.
	basePosition    mgl64.Vec3

	deltaPosition mgl64.Vec3 // accumulated across the whole physics step; zero at PrepareSolverBodies.
	deltaRotation mgl64.Quat // accumulated across the whole physics step.

	linearVelocity  mgl64.Vec3
	angularVelocity mgl64.Vec3

	flags    LockedAxes
	dominance Dominance
	kind      BodyKind
}

// fixedSolverBody is the single shared zero-inertia record substituted for
// static, sleeping or dominance-excluded bodies - the "dummy body" pattern
// (SPEC_FULL.md §9), ported from the reference solver's fixedSolverBody().
var fixedSolverBody = &SolverBody{
	deltaRotation: identityQuat,
	kind:          Static,
}

// SolverBodyInertia is the per-substep, read-only derived inertia for a
// SolverBody: inverse mass and inverse inertia tensor rotated into world
// frame, with locked axes zeroed (SPEC_FULL.md §3).
type SolverBodyInertia struct {
	InverseMass    float64
	InverseInertia mgl64.Mat3
}

// zeroInertia is the dummy body's inertia: zero inverse mass, zero inverse
// inertia tensor, so impulses applied against it have no effect.
var zeroInertia = SolverBodyInertia{}

// newSolverBody snapshots a RigidBody's current state into a fresh
// SolverBody. Called by PrepareSolverBodies for every eligible body.
func newSolverBody(b RigidBody) *SolverBody {
	return &SolverBody{
		body:            b,
		baseOrientation: b.Orientation(),
		basePosition:    b.Position(),
		deltaRotation:   identityQuat,
		linearVelocity:  b.LinearVelocity(),
		angularVelocity: b.AngularVelocity(),
		flags:           b.LockedAxes(),
		dominance:       b.Dominance(),
		kind:            b.Kind(),
	}
}

// SolverBodySet holds the SolverBody for every body currently participating
// in a step's solve, keyed by a stable handle the caller supplies (e.g. an
// index into its own body slice).
type SolverBodySet struct {
	bodies map[int]*SolverBody
}

// NewSolverBodySet creates an empty set.
func NewSolverBodySet() *SolverBodySet {
	return &SolverBodySet{bodies: make(map[int]*SolverBody)}
}

// PrepareSolverBodies ensures every awake Dynamic/Kinematic body in handles
// has a SolverBody, and drops entries for bodies no longer eligible
// (SPEC_FULL.md §4.2). It runs once per physics step, before the substep
// loop.
func (s *SolverBodySet) PrepareSolverBodies(handles map[int]RigidBody) {
	for handle, b := range handles {
		if b.Asleep() || !b.Kind().needsSolverBody() {
			delete(s.bodies, handle)
			continue
		}
		s.bodies[handle] = newSolverBody(b)
	}
	for handle := range s.bodies {
		if b, ok := handles[handle]; !ok || b.Asleep() || !b.Kind().needsSolverBody() {
			delete(s.bodies, handle)
		}
	}
}

// Get returns the SolverBody for handle, or the shared dummy fixedSolverBody
// if handle has none (the body is static, asleep, or not in the set).
func (s *SolverBodySet) Get(handle int) *SolverBody {
	if sb, ok := s.bodies[handle]; ok {
		return sb
	}
	return fixedSolverBody
}

// ForEach calls fn once for every SolverBody currently in the set. Used by
// the substep loop's position-integration and finalize phases, which must
// visit every participating body rather than one constraint's two bodies at
// a time.
func (s *SolverBodySet) ForEach(fn func(handle int, sb *SolverBody)) {
	for handle, sb := range s.bodies {
		fn(handle, sb)
	}
}

// dummyFor substitutes the shared zero-inertia record when relative
// dominance excludes a body from the solve, per SPEC_FULL.md §9.
func dummyFor(sb *SolverBody, excluded bool) *SolverBody {
	if excluded || sb == nil {
		return fixedSolverBody
	}
	return sb
}

// relativeDominanceExcludes reports whether body1 or body2 should be
// treated as infinite-mass because of relative dominance: relative_dominance
// = dominance1 - dominance2; a positive value means body1 is the
// higher-dominance body and is excluded (SPEC_FULL.md §3 "For a constraint
// with relative_dominance > 0, body1's inertia is treated as infinite").
// Returns (excludeBody1, excludeBody2).
func relativeDominanceExcludes(d1, d2 Dominance) (excludeBody1, excludeBody2 bool) {
	rel := int(d1) - int(d2)
	return rel > 0, rel < 0
}

// PrepareInertia computes the world-frame inverse inertia for sb from its
// current orientation (base orientation composed with the accumulated
// delta rotation so far this step), zeroing locked axes. Each solver phase
// calls it when it needs a body's inertia, so the result reflects the
// orientation at that point of the substep (SPEC_FULL.md §4.2).
func PrepareInertia(sb *SolverBody) SolverBodyInertia {
	if sb == fixedSolverBody || !sb.kind.dynamic() {
		return zeroInertia
	}
	invMass := sb.body.InverseMass()
	orientation := sb.deltaRotation.Mul(sb.baseOrientation).Normalize()
	r := orientation.Mat4().Mat3()
	invInertia := r.Mul3(sb.body.InverseInertiaLocal()).Mul3(r.Transpose())
	applyLockedAxes(&invMass, &invInertia, sb.flags)
	return SolverBodyInertia{InverseMass: invMass, InverseInertia: invInertia}
}

// applyLockedAxes zeros the inverse-mass axis or inverse-inertia row/column
// for every axis flag set in flags.
func applyLockedAxes(invMass *float64, invInertia *mgl64.Mat3, flags LockedAxes) {
	if flags&(LockLinearX|LockLinearY|LockLinearZ) != 0 {
		// A single scalar inverse mass cannot represent per-axis linear
		// locks; a fully-locked-linear body behaves as non-dynamic for
		// translation. Locking all three axes zeroes mass entirely, which
		// matches the common "kinematic along one axis" use case of
		// freezing all translation.
		if flags&LockLinearX != 0 && flags&LockLinearY != 0 && flags&LockLinearZ != 0 {
			*invMass = 0
		}
	}
	if flags&LockAngularX != 0 {
		zeroInertiaRow(invInertia, 0)
	}
	if flags&LockAngularY != 0 {
		zeroInertiaRow(invInertia, 1)
	}
	if flags&LockAngularZ != 0 {
		zeroInertiaRow(invInertia, 2)
	}
}

// zeroInertiaRow zeros row and column axis of a 3x3 column-major matrix.
func zeroInertiaRow(m *mgl64.Mat3, axis int) {
	for col := 0; col < 3; col++ {
		m[col*3+axis] = 0
		m[axis*3+col] = 0
	}
}

// IntegratePosition applies the biased solve's resulting velocities to the
// body's position/rotation deltas, once per substep (SPEC_FULL.md §4.7).
func IntegratePosition(sb *SolverBody, h float64) {
	if sb == fixedSolverBody || !sb.kind.needsSolverBody() {
		return
	}
	sb.deltaPosition = sb.deltaPosition.Add(sb.linearVelocity.Mul(h))

	// delta_rotation *= Exp(angular_velocity * h), approximated the same
	// way the teacher's quaternion integration does: a first-order
	// quaternion derivative, renormalized.
	dq := mgl64.Quat{W: 0, V: sb.angularVelocity}.Mul(sb.deltaRotation).Scale(0.5 * h)
	sb.deltaRotation = sb.deltaRotation.Add(dq).Normalize()
}

// Finalize writes a SolverBody's accumulated state back to its RigidBody:
// integrates delta_position into world position, composes delta_rotation
// into world orientation (renormalized), and writes back velocities
// (SPEC_FULL.md §4.2). Runs once per physics step, after the substep loop.
func Finalize(sb *SolverBody) {
	if sb == fixedSolverBody || sb.body == nil {
		return
	}
	sb.body.SetPosition(sb.basePosition.Add(sb.deltaPosition))
	sb.body.SetOrientation(sb.deltaRotation.Mul(sb.baseOrientation).Normalize())
	sb.body.SetLinearVelocity(sb.linearVelocity)
	sb.body.SetAngularVelocity(sb.angularVelocity)
}
