// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// Joint is an XPBD constraint between two SolverBody handles, solved once
// per position-iteration pass inside every substep (SPEC_FULL.md §4.8).
// Each concrete joint type owns its own Lagrange-multiplier accumulators
// and resets them at the start of every substep via Prepare.
type Joint interface {
	// Bodies returns the handles of the two bodies this joint constrains.
	Bodies() (handle1, handle2 int)

	// Prepare resets this joint's per-substep Lagrange multipliers. Called
	// once per substep, before the position-iteration passes.
	Prepare()

	// SolvePosition runs one position-iteration pass of XPBD projection
	// against sb1/sb2's current delta_position/delta_rotation.
	SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64)

	// Damping returns this joint's linear and angular damping
	// coefficients, applied once per substep after the position-iteration
	// passes (SPEC_FULL.md §4.9).
	Damping() (linear, angular float64)
}

// jointBase holds the fields every concrete joint family shares: the two
// body handles, local-frame anchors, and compliance. Embedded by each
// concrete joint type.
type jointBase struct {
	handle1, handle2 int

	localAnchor1 mgl64.Vec3
	localAnchor2 mgl64.Vec3

	compliance     float64
	linearDamping  float64
	angularDamping float64
}

func (j jointBase) Bodies() (int, int) { return j.handle1, j.handle2 }

func (j jointBase) Damping() (float64, float64) { return j.linearDamping, j.angularDamping }

// localAnchorWorld returns sb's world-frame anchor offset (relative to its
// center of mass) for localAnchor.
func localAnchorWorld(sb *SolverBody, localAnchor mgl64.Vec3) mgl64.Vec3 {
	return worldAnchorOffset(sb, localAnchor)
}

// relativeOrientation returns body2's orientation expressed relative to
// body1, i.e. inverse(q1) * q2 - used by joints that constrain relative
// rotation (fixed, prismatic axis alignment).
func relativeOrientation(sb1, sb2 *SolverBody) mgl64.Quat {
	q1 := currentOrientation(sb1)
	q2 := currentOrientation(sb2)
	return q1.Inverse().Mul(q2)
}

// currentOrientation returns sb's current world orientation (base composed
// with the delta rotation accumulated so far this step).
func currentOrientation(sb *SolverBody) mgl64.Quat {
	if sb == fixedSolverBody {
		return identityQuat
	}
	return sb.deltaRotation.Mul(sb.baseOrientation).Normalize()
}

// currentPosition returns sb's current world position.
func currentPosition(sb *SolverBody) mgl64.Vec3 {
	if sb == fixedSolverBody {
		return mgl64.Vec3{}
	}
	return sb.basePosition.Add(sb.deltaPosition)
}

// axisInWorld rotates a body-local unit axis into world space using its
// current orientation, mirroring pbd.go's get_axis_in_world_coords.
func axisInWorld(sb *SolverBody, localAxis mgl64.Vec3) mgl64.Vec3 {
	return currentOrientation(sb).Rotate(localAxis)
}

// orientationErrorVector computes the small-angle rotation vector needed to
// bring the relative orientation of sb1/sb2 back to restRelative (body1's
// frame rest pose for body2), using the standard XPBD short-path
// approximation Δθ ≈ 2*q_err.V (Macklin/Müller "Detailed Rigid Body
// Simulation with XPBD"). Used by joints that constrain full or partial
// relative orientation (fixed, prismatic's alignment).
func orientationErrorVector(sb1, sb2 *SolverBody, restRelative mgl64.Quat) mgl64.Vec3 {
	actual := relativeOrientation(sb1, sb2)
	qErr := actual.Mul(restRelative.Inverse())
	if qErr.W < 0 {
		qErr = mgl64.Quat{W: -qErr.W, V: qErr.V.Mul(-1)}
	}
	return qErr.V.Mul(2)
}
