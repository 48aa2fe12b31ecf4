// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// FixedJoint welds two bodies together: zero relative translation and zero
// relative rotation relative to the rest pose captured at creation, ported
// from pbd.go's mutual_Orientation_Constraint combined with a positional
// anchor constraint (SPEC_FULL.md §4.8).
type FixedJoint struct {
	jointBase
	restRelativeOrientation mgl64.Quat

	positionLambda float64
	angleLambda    float64
}

// NewFixedJoint creates a weld joint anchored at localAnchor1/localAnchor2
// (each relative to its body's center of mass), holding body2's orientation
// relative to body1 at restRelativeOrientation.
func NewFixedJoint(handle1, handle2 int, localAnchor1, localAnchor2 mgl64.Vec3, restRelativeOrientation mgl64.Quat, compliance float64) *FixedJoint {
	return &FixedJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
		restRelativeOrientation: restRelativeOrientation,
	}
}

func (j *FixedJoint) Prepare() {
	j.positionLambda = 0
	j.angleLambda = 0
}

func (j *FixedJoint) SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	ang := prepareAngular(sb1, sb2, i1, i2)
	deltaTheta := orientationErrorVector(sb1, sb2, j.restRelativeOrientation)
	if dl, n, ok := angularDeltaLambda(ang, h, j.compliance, j.angleLambda, deltaTheta); ok {
		j.angleLambda += dl
		angularApply(ang, dl, n)
	}

	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	p1 := currentPosition(sb1).Add(pos.r1wc)
	p2 := currentPosition(sb2).Add(pos.r2wc)
	deltaX := p1.Sub(p2)
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.positionLambda, deltaX); ok {
		j.positionLambda += dl
		positionalApply(pos, dl, n)
	}
}
