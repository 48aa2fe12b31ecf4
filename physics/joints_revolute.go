// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// RevoluteJoint constrains two bodies to rotate relative to each other
// about a single shared axis, holding a shared anchor point coincident and
// optionally clamping the relative swing angle about that axis. Ported
// from pbd.go's hinge_Joint_Constraint (SPEC_FULL.md §4.8).
type RevoluteJoint struct {
	jointBase

	localAxis1 mgl64.Vec3 // hinge axis, body1's local frame.
	localAxis2 mgl64.Vec3 // hinge axis, body2's local frame; should track axis1 when aligned.

	limited         bool
	lowerLimit      float64
	upperLimit      float64
	referenceAxis1  mgl64.Vec3 // body1-local axis used to measure swing angle, perpendicular to localAxis1.
	referenceAxis2  mgl64.Vec3 // body2-local counterpart.

	alignLambda    float64
	positionLambda float64
	limitLambda    float64
}

// NewRevoluteJoint creates an unlimited hinge about localAxis1/localAxis2.
func NewRevoluteJoint(handle1, handle2 int, localAnchor1, localAnchor2, localAxis1, localAxis2 mgl64.Vec3, compliance float64) *RevoluteJoint {
	return &RevoluteJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
		localAxis1: localAxis1,
		localAxis2: localAxis2,
	}
}

// WithLimit adds an angular swing limit to the hinge, measured between
// referenceAxis1/referenceAxis2 (each perpendicular to the hinge axis in
// its own body's local frame).
func (j *RevoluteJoint) WithLimit(referenceAxis1, referenceAxis2 mgl64.Vec3, lower, upper float64) *RevoluteJoint {
	j.limited = true
	j.referenceAxis1 = referenceAxis1
	j.referenceAxis2 = referenceAxis2
	j.lowerLimit = lower
	j.upperLimit = upper
	return j
}

func (j *RevoluteJoint) Prepare() {
	j.alignLambda = 0
	j.positionLambda = 0
	j.limitLambda = 0
}

func (j *RevoluteJoint) SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	// Align the two hinge axes (2 rotational degrees of freedom removed,
	// leaving free rotation about the shared axis).
	ang := prepareAngular(sb1, sb2, i1, i2)
	a1 := axisInWorld(sb1, j.localAxis1)
	a2 := axisInWorld(sb2, j.localAxis2)
	deltaTheta := a1.Cross(a2)
	if dl, n, ok := angularDeltaLambda(ang, h, j.compliance, j.alignLambda, deltaTheta); ok {
		j.alignLambda += dl
		angularApply(ang, dl, n)
	}

	// Hold the anchor points coincident.
	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	p1 := currentPosition(sb1).Add(pos.r1wc)
	p2 := currentPosition(sb2).Add(pos.r2wc)
	deltaX := p1.Sub(p2)
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.positionLambda, deltaX); ok {
		j.positionLambda += dl
		positionalApply(pos, dl, n)
	}

	if !j.limited {
		return
	}
	n := axisInWorld(sb1, j.localAxis1)
	n1 := axisInWorld(sb1, j.referenceAxis1)
	n2 := axisInWorld(sb2, j.referenceAxis2)
	if deltaQ, ok := limitAngle(n, n1, n2, j.lowerLimit, j.upperLimit); ok {
		limAng := prepareAngular(sb1, sb2, i1, i2)
		if dl, axis, ok := angularDeltaLambda(limAng, h, j.compliance, j.limitLambda, deltaQ); ok {
			j.limitLambda += dl
			angularApply(limAng, dl, axis)
		}
	}
}
