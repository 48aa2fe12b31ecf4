// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// positionalPreprocessed is the per-iteration geometric data a positional
// (point-to-point) XPBD constraint needs: world-frame anchor offsets and
// each body's current world-frame inverse inertia, ported from
// pbd_base_constraints.go's position_Constraint_Preprocessed_Data.
type positionalPreprocessed struct {
	sb1, sb2       *SolverBody
	inertia1       SolverBodyInertia
	inertia2       SolverBodyInertia
	r1wc, r2wc     mgl64.Vec3 // anchor offset from each body's center of mass, world frame.
}

// preparePositional rotates each body's local anchor into the world frame
// relative to its center of mass, for use across one constraint's Δλ/apply
// cycle this substep.
func preparePositional(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, localAnchor1, localAnchor2 mgl64.Vec3) positionalPreprocessed {
	return positionalPreprocessed{
		sb1: sb1, sb2: sb2,
		inertia1: i1, inertia2: i2,
		r1wc: worldAnchorOffset(sb1, localAnchor1),
		r2wc: worldAnchorOffset(sb2, localAnchor2),
	}
}

// worldAnchorOffset rotates a center-of-mass-relative local anchor into the
// world frame using sb's accumulated orientation this step.
func worldAnchorOffset(sb *SolverBody, localAnchor mgl64.Vec3) mgl64.Vec3 {
	if sb == fixedSolverBody {
		return localAnchor
	}
	orientation := sb.deltaRotation.Mul(sb.baseOrientation).Normalize()
	return orientation.Rotate(localAnchor)
}

// positionalDeltaLambda computes the XPBD Lagrange-multiplier increment for
// a positional constraint whose current violation is deltaX (world-space
// displacement that would zero the constraint), given the accumulated
// lambda so far this step, compliance, and substep h. Ported from
// pbd_base_constraints.go's positional_constraint_get_delta_lambda.
//
// Returns (deltaLambda, unitNormal, ok). ok is false when the violation is
// too small to normalize (matching the teacher's c <= 1e-50 early-out).
func positionalDeltaLambda(p positionalPreprocessed, h, compliance, lambda float64, deltaX mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	c := deltaX.Len()
	if c <= 1e-50 {
		return 0, mgl64.Vec3{}, false
	}
	n := deltaX.Mul(1.0 / c)

	w1 := angularPositionalWeight(p.sb1, p.inertia1, p.r1wc, n)
	w2 := angularPositionalWeight(p.sb2, p.inertia2, p.r2wc, n)

	tilCompliance := compliance / (h * h)
	deltaLambda := (-c - tilCompliance*lambda) / (w1 + w2 + tilCompliance)
	return deltaLambda, n, true
}

// angularPositionalWeight computes a body's contribution to the positional
// constraint's effective inverse mass: invMass + (r×n)·(I⁻¹·(r×n)).
func angularPositionalWeight(sb *SolverBody, inertia SolverBodyInertia, r, n mgl64.Vec3) float64 {
	if sb == fixedSolverBody {
		return 0
	}
	rxn := r.Cross(n)
	return inertia.InverseMass + rxn.Dot(inertia.InverseInertia.Mul3x1(rxn))
}

// positionalApply applies a computed deltaLambda*n impulse to both bodies
// of a positional constraint: linear correction to delta_position, angular
// correction via the quaternion-derivative trick, ported from
// pbd_base_constraints.go's positional_constraint_apply.
func positionalApply(p positionalPreprocessed, deltaLambda float64, n mgl64.Vec3) {
	impulse := n.Mul(deltaLambda)
	applyPositionalImpulse(p.sb1, p.inertia1, p.r1wc, impulse, 1)
	applyPositionalImpulse(p.sb2, p.inertia2, p.r2wc, impulse, -1)
}

// applyPositionalImpulse integrates a signed impulse into sb's accumulated
// delta_position and delta_rotation.
func applyPositionalImpulse(sb *SolverBody, inertia SolverBodyInertia, r, impulse mgl64.Vec3, sign float64) {
	if sb == fixedSolverBody || !sb.kind.needsSolverBody() {
		return
	}
	signedImpulse := impulse.Mul(sign)
	sb.deltaPosition = sb.deltaPosition.Add(signedImpulse.Mul(inertia.InverseMass))

	angularImpulse := r.Cross(signedImpulse)
	aux := inertia.InverseInertia.Mul3x1(angularImpulse)
	auxQ := mgl64.Quat{W: 0, V: aux}
	orientation := sb.deltaRotation.Mul(sb.baseOrientation).Normalize()
	dq := orientation.Mul(auxQ).Scale(0.5)
	updated := orientation.Add(dq).Normalize()
	// sb tracks delta_rotation relative to base_orientation, so recover the
	// delta by composing updated with the inverse of base_orientation.
	sb.deltaRotation = updated.Mul(sb.baseOrientation.Inverse()).Normalize()
}

// angularPreprocessed is the per-iteration data an angular (rotation-only)
// XPBD constraint needs: no anchor offsets, just each body's current
// world-frame inverse inertia. Ported from pbd_base_constraints.go's
// angular constraint preprocessing.
type angularPreprocessed struct {
	sb1, sb2 *SolverBody
	inertia1 SolverBodyInertia
	inertia2 SolverBodyInertia
}

func prepareAngular(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia) angularPreprocessed {
	return angularPreprocessed{sb1: sb1, sb2: sb2, inertia1: i1, inertia2: i2}
}

// angularDeltaLambda is the angular-constraint analogue of
// positionalDeltaLambda: deltaTheta is the axis-scaled angle violation
// (magnitude = angle, direction = rotation axis).
func angularDeltaLambda(p angularPreprocessed, h, compliance, lambda float64, deltaTheta mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	c := deltaTheta.Len()
	if c <= 1e-50 {
		return 0, mgl64.Vec3{}, false
	}
	n := deltaTheta.Mul(1.0 / c)

	w1 := angularWeight(p.inertia1, n, p.sb1)
	w2 := angularWeight(p.inertia2, n, p.sb2)

	tilCompliance := compliance / (h * h)
	deltaLambda := (-c - tilCompliance*lambda) / (w1 + w2 + tilCompliance)
	return deltaLambda, n, true
}

func angularWeight(inertia SolverBodyInertia, n mgl64.Vec3, sb *SolverBody) float64 {
	if sb == fixedSolverBody {
		return 0
	}
	return n.Dot(inertia.InverseInertia.Mul3x1(n))
}

// angularApply applies a pure-rotation correction, ported from
// pbd_base_constraints.go's angular_constraint_apply (note the negated
// impulse sign relative to the positional variant).
func angularApply(p angularPreprocessed, deltaLambda float64, n mgl64.Vec3) {
	impulse := n.Mul(-deltaLambda)
	applyAngularImpulse(p.sb1, p.inertia1, impulse, 1)
	applyAngularImpulse(p.sb2, p.inertia2, impulse, -1)
}

func applyAngularImpulse(sb *SolverBody, inertia SolverBodyInertia, impulse mgl64.Vec3, sign float64) {
	if sb == fixedSolverBody || !sb.kind.needsSolverBody() {
		return
	}
	signedImpulse := impulse.Mul(sign)
	aux := inertia.InverseInertia.Mul3x1(signedImpulse)
	auxQ := mgl64.Quat{W: 0, V: aux}
	orientation := sb.deltaRotation.Mul(sb.baseOrientation).Normalize()
	dq := orientation.Mul(auxQ).Scale(0.5)
	updated := orientation.Add(dq).Normalize()
	sb.deltaRotation = updated.Mul(sb.baseOrientation.Inverse()).Normalize()
}

// limitAngle computes the signed angle between n1 and n2 measured around
// axis n (via asin of the triple product, obtuse-corrected), and reports
// the corrective rotation needed to bring it within [lower, upper]. Ported
// from pbd.go's limit_angle, used by hinge/revolute and spherical joint
// angular limits.
func limitAngle(n, n1, n2 mgl64.Vec3, lower, upper float64) (deltaQ mgl64.Vec3, ok bool) {
	triple := n.Dot(n1.Cross(n2))
	phi := math.Asin(clamp(triple, -1, 1))
	if n1.Dot(n2) < 0 {
		phi = math.Pi - phi
	}
	if phi > math.Pi {
		phi -= 2 * math.Pi
	}
	if phi < -math.Pi {
		phi += 2 * math.Pi
	}

	switch {
	case phi < lower:
		phi = phi - lower
	case phi > upper:
		phi = phi - upper
	default:
		return mgl64.Vec3{}, false
	}

	return n.Mul(phi), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
