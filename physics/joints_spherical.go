// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// SphericalJoint is a ball-and-socket joint: the anchor points are held
// coincident, and relative rotation is free except for optional swing and
// twist angle limits. Ported from pbd.go's spherical_Joint_Constraint
// (SPEC_FULL.md §4.8).
type SphericalJoint struct {
	jointBase

	swingLimited bool
	swingAxis1   mgl64.Vec3 // cone axis, body1's local frame.
	swingAxis2   mgl64.Vec3 // should coincide with swingAxis1 at rest, body2's local frame.
	swingLower   float64
	swingUpper   float64

	twistLimited    bool
	twistReference1 mgl64.Vec3 // perpendicular to swingAxis1, body1's local frame.
	twistReference2 mgl64.Vec3 // perpendicular to swingAxis2, body2's local frame.
	twistLower      float64
	twistUpper      float64

	positionLambda float64
	swingLambda    float64
	twistLambda    float64
}

// NewSphericalJoint creates an unlimited ball joint.
func NewSphericalJoint(handle1, handle2 int, localAnchor1, localAnchor2 mgl64.Vec3, compliance float64) *SphericalJoint {
	return &SphericalJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
	}
}

// WithSwingLimit adds a cone limit around swingAxis1/swingAxis2.
func (j *SphericalJoint) WithSwingLimit(swingAxis1, swingAxis2 mgl64.Vec3, lower, upper float64) *SphericalJoint {
	j.swingLimited = true
	j.swingAxis1, j.swingAxis2 = swingAxis1, swingAxis2
	j.swingLower, j.swingUpper = lower, upper
	return j
}

// WithTwistLimit adds a twist limit about the swing axis, measured between
// reference axes perpendicular to it.
func (j *SphericalJoint) WithTwistLimit(twistReference1, twistReference2 mgl64.Vec3, lower, upper float64) *SphericalJoint {
	j.twistLimited = true
	j.twistReference1, j.twistReference2 = twistReference1, twistReference2
	j.twistLower, j.twistUpper = lower, upper
	return j
}

func (j *SphericalJoint) Prepare() {
	j.positionLambda = 0
	j.swingLambda = 0
	j.twistLambda = 0
}

func (j *SphericalJoint) SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	p1 := currentPosition(sb1).Add(pos.r1wc)
	p2 := currentPosition(sb2).Add(pos.r2wc)
	deltaX := p1.Sub(p2)
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.positionLambda, deltaX); ok {
		j.positionLambda += dl
		positionalApply(pos, dl, n)
	}

	if j.swingLimited {
		n1 := axisInWorld(sb1, j.swingAxis1)
		n2 := axisInWorld(sb2, j.swingAxis2)
		n := n1.Cross(n2).Normalize()
		if deltaQ, ok := limitAngle(n, n1, n2, j.swingLower, j.swingUpper); ok {
			ang := prepareAngular(sb1, sb2, i1, i2)
			if dl, axis, ok := angularDeltaLambda(ang, h, j.compliance, j.swingLambda, deltaQ); ok {
				j.swingLambda += dl
				angularApply(ang, dl, axis)
			}
		}
	}

	if j.twistLimited {
		a1 := axisInWorld(sb1, j.swingAxis1)
		a2 := axisInWorld(sb2, j.swingAxis2)
		n := a1.Add(a2).Normalize()

		z1 := axisInWorld(sb1, j.twistReference1)
		z2 := axisInWorld(sb2, j.twistReference2)
		n1 := z1.Sub(n.Mul(n.Dot(z1))).Normalize()
		n2 := z2.Sub(n.Mul(n.Dot(z2))).Normalize()

		if deltaQ, ok := limitAngle(n, n1, n2, j.twistLower, j.twistUpper); ok {
			ang := prepareAngular(sb1, sb2, i1, i2)
			if dl, axis, ok := angularDeltaLambda(ang, h, j.compliance, j.twistLambda, deltaQ); ok {
				j.twistLambda += dl
				angularApply(ang, dl, axis)
			}
		}
	}
}
