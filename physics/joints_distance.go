// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// DistanceJoint holds two anchor points at a fixed (or ranged) distance
// apart, with no constraint on relative orientation - the simplest XPBD
// positional constraint, ported directly from
// pbd_base_constraints.go's positional primitives applied to a distance
// violation rather than a coincidence violation (SPEC_FULL.md §4.8).
type DistanceJoint struct {
	jointBase

	restLength float64
	minLength  float64 // used instead of restLength when ranged is set (rope/rod).
	maxLength  float64
	ranged     bool

	lambda float64
}

// NewDistanceJoint creates a fixed-length distance joint.
func NewDistanceJoint(handle1, handle2 int, localAnchor1, localAnchor2 mgl64.Vec3, restLength, compliance float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
		restLength: restLength,
	}
}

// NewRangedDistanceJoint creates a distance joint that only engages outside
// [minLength, maxLength] (slack rope behavior), disengaging entirely within
// the range.
func NewRangedDistanceJoint(handle1, handle2 int, localAnchor1, localAnchor2 mgl64.Vec3, minLength, maxLength, compliance float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase: jointBase{
			handle1: handle1, handle2: handle2,
			localAnchor1: localAnchor1, localAnchor2: localAnchor2,
			compliance: compliance,
		},
		minLength: minLength,
		maxLength: maxLength,
		ranged:    true,
	}
}

func (j *DistanceJoint) Prepare() {
	j.lambda = 0
}

func (j *DistanceJoint) SolvePosition(sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, h float64) {
	pos := preparePositional(sb1, sb2, i1, i2, j.localAnchor1, j.localAnchor2)
	p1 := currentPosition(sb1).Add(pos.r1wc)
	p2 := currentPosition(sb2).Add(pos.r2wc)
	separation := p1.Sub(p2)
	length := separation.Len()

	target := j.restLength
	if j.ranged {
		switch {
		case length < j.minLength:
			target = j.minLength
		case length > j.maxLength:
			target = j.maxLength
		default:
			return // within slack range: joint exerts no force.
		}
	}
	if length <= 1e-12 {
		return
	}

	deltaX := separation.Mul((length - target) / length)
	if dl, n, ok := positionalDeltaLambda(pos, h, j.compliance, j.lambda, deltaX); ok {
		j.lambda += dl
		positionalApply(pos, dl, n)
	}
}
