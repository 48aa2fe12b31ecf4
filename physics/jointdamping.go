// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// applyJointDamping blends sb1/sb2's linear and angular velocities toward
// each other, scaled by the joint's damping coefficients and substep h,
// gated by relative dominance exactly like contact impulses. Ported from
// the reference engine's joint_damping system (SPEC_FULL.md §4.9, §12): a
// fully-dominant body never receives a damping correction.
func applyJointDamping(j Joint, sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	linearDamping, angularDamping := j.Damping()
	if linearDamping <= 0 && angularDamping <= 0 {
		return
	}

	excl1, excl2 := false, false
	if sb1 != fixedSolverBody && sb2 != fixedSolverBody {
		excl1, excl2 = relativeDominanceExcludes(sb1.dominance, sb2.dominance)
	}

	if angularDamping > 0 {
		dampAngular(sb1, sb2, excl1, excl2, clamp(angularDamping*h, 0, 1))
	}
	if linearDamping > 0 {
		dampLinear(sb1, sb2, i1, i2, excl1, excl2, clamp(linearDamping*h, 0, 1))
	}
}

// dampAngular blends angular velocity by a shared delta applied
// symmetrically to both bodies: unlike dampLinear, the reference engine's
// joint_damping does not weight this correction by inverse inertia.
func dampAngular(sb1, sb2 *SolverBody, excl1, excl2 bool, factor float64) {
	dynamic1 := sb1.kind.dynamic() && !excl1
	dynamic2 := sb2.kind.dynamic() && !excl2
	if !dynamic1 && !dynamic2 {
		return
	}
	deltaOmega := angularVelocityOf(sb2).Sub(angularVelocityOf(sb1)).Mul(factor)
	if dynamic1 {
		sb1.angularVelocity = sb1.angularVelocity.Add(deltaOmega)
	}
	if dynamic2 {
		sb2.angularVelocity = sb2.angularVelocity.Sub(deltaOmega)
	}
}

// dampLinear applies a single shared impulse p = deltaV/(w1+w2) to both
// bodies' linear velocity, each scaled by its own inverse mass, so momentum
// is conserved and the lighter body moves more - ported from the reference
// engine's joint_damping.
func dampLinear(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, excl1, excl2 bool, factor float64) {
	w1, w2 := weightFor(sb1, i1.InverseMass, excl1), weightFor(sb2, i2.InverseMass, excl2)
	if w1+w2 <= 1e-10 {
		return
	}

	deltaV := velocityOf(sb2).Sub(velocityOf(sb1)).Mul(factor)
	p := deltaV.Mul(1.0 / (w1 + w2))

	if w1 > 0 {
		sb1.linearVelocity = sb1.linearVelocity.Add(p.Mul(w1))
	}
	if w2 > 0 {
		sb2.linearVelocity = sb2.linearVelocity.Sub(p.Mul(w2))
	}
}

func weightFor(sb *SolverBody, invMass float64, excluded bool) float64 {
	if sb == fixedSolverBody || excluded {
		return 0
	}
	return invMass
}

func velocityOf(sb *SolverBody) mgl64.Vec3 {
	if sb == fixedSolverBody {
		return mgl64.Vec3{}
	}
	return sb.linearVelocity
}

func angularVelocityOf(sb *SolverBody) mgl64.Vec3 {
	if sb == fixedSolverBody {
		return mgl64.Vec3{}
	}
	return sb.angularVelocity
}
