// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// PrismaticJoint constrains two bodies to slide relative to each other
// along a single shared axis, holding relative orientation fixed and the
// anchor points coincident except along that axis, with an optional linear
// travel limit. Generalized from pbd.go's hinge_Joint_Constraint pattern
// (angular alignment + positional anchor) by swapping which degree of
// freedom stays free: a hinge frees one rotation, a prismatic joint frees
// one translation (SPEC_FULL.md §4.8).
type PrismaticJoint struct {
	jointBase

	restRelativeOrientation mgl64.Quat
	localAxis1              mgl64.Vec3 // slide axis, body1's local frame.

	limited    bool
	lowerLimit float64
	upperLimit float64

	angleLambda    float64
	positionLambda float64
	limitLambda    float64
}

// NewPrismaticJoint creates an unlimited slider joint along localAxis1.
func NewPrismaticJoint(handle1, handle2 int, localAnchor1, localAnchor2, localAxis1 mgl64.Vec3, restRelativeOrientation mgl64.Quat, compliance float64) *PrismaticJoint {
	return &PrismaticJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
		restRelativeOrientation: restRelativeOrientation,
		localAxis1:              localAxis1,
	}
}

// WithLimit adds a linear travel limit along the slide axis, measured as
// signed displacement from the anchor separation at rest.
func (j *PrismaticJoint) WithLimit(lower, upper float64) *PrismaticJoint {
	j.limited = true
	j.lowerLimit = lower
	j.upperLimit = upper
	return j
}

func (j *PrismaticJoint) Prepare() {
	j.angleLambda = 0
	j.positionLambda = 0
	j.limitLambda = 0
}

func (j *PrismaticJoint) SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	ang := prepareAngular(sb1, sb2, i1, i2)
	deltaTheta := orientationErrorVector(sb1, sb2, j.restRelativeOrientation)
	if dl, n, ok := angularDeltaLambda(ang, h, j.compliance, j.angleLambda, deltaTheta); ok {
		j.angleLambda += dl
		angularApply(ang, dl, n)
	}

	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	p1 := currentPosition(sb1).Add(pos.r1wc)
	p2 := currentPosition(sb2).Add(pos.r2wc)
	axis := axisInWorld(sb1, j.localAxis1)
	separation := p1.Sub(p2)
	// Project out the along-axis component: only the perpendicular
	// displacement is constrained, leaving sliding along axis free.
	alongAxis := separation.Dot(axis)
	deltaX := separation.Sub(axis.Mul(alongAxis))
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.positionLambda, deltaX); ok {
		j.positionLambda += dl
		positionalApply(pos, dl, n)
	}

	if !j.limited {
		return
	}
	switch {
	case alongAxis < j.lowerLimit:
		j.applyLinearLimit(sb1, sb2, i1, i2, h, axis, alongAxis-j.lowerLimit)
	case alongAxis > j.upperLimit:
		j.applyLinearLimit(sb1, sb2, i1, i2, h, axis, alongAxis-j.upperLimit)
	}
}

func (j *PrismaticJoint) applyLinearLimit(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64, axis mgl64.Vec3, violation float64) {
	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	deltaX := axis.Mul(violation)
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.limitLambda, deltaX); ok {
		j.limitLambda += dl
		positionalApply(pos, dl, n)
	}
}
