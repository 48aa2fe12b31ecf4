// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ContactFeatureID is a stable opaque identity assigned by the narrow-phase
// collaborator to one contact point, used to key warm-start persistence
// across frames even when manifold point order shifts (SPEC_FULL.md §9,
// §11). The zero value (uuid.Nil) marks a point the narrow phase does not
// track across frames; such points always cold-start.
type ContactFeatureID = uuid.UUID

// ContactPoint is one point of a ContactManifold, as produced by the
// narrow-phase collaborator (SPEC_FULL.md §3).
type ContactPoint struct {
	FeatureID ContactFeatureID

	// LocalAnchor1/2 are the contact point expressed relative to each
	// body's center of mass, in that body's local frame.
	LocalAnchor1 mgl64.Vec3
	LocalAnchor2 mgl64.Vec3

	// Penetration is signed separation along Normal: positive means the
	// two colliders overlap by this depth, negative means they are this
	// far apart (a speculative, not-yet-touching contact).
	Penetration float64

	// NormalImpulse and TangentImpulse are persisted warm-start impulses:
	// read at ContactConstraint preparation, overwritten by StoreImpulses
	// at the end of the step that produced them.
	NormalImpulse   float64
	TangentImpulse  mgl64.Vec2
}

// ContactManifold is the narrow phase's output for one colliding pair: a
// shared normal and up to four contact points (SPEC_FULL.md §3).
type ContactManifold struct {
	ColliderA, ColliderB int // narrow-phase collider identity, opaque to this package.
	Body1, Body2         int // SolverBodySet handles.

	// Normal points from body1 toward body2, world frame, shared by every
	// point in this manifold.
	Normal mgl64.Vec3

	Friction          float64
	Restitution       float64
	SpeculativeMargin float64

	Points []ContactPoint
}

// contactPointState is the per-point working state a ContactConstraint
// carries through one physics step's substep loop.
type contactPointState struct {
	localAnchor1, localAnchor2 mgl64.Vec3

	// anchor1At0, anchor2At0 are the world-space contact points at
	// prepare time, used to track separation drift as the substep loop
	// integrates positions (Soft-TGS, SPEC_FULL.md §4.5).
	anchor1At0, anchor2At0 mgl64.Vec3
	baseSeparation         float64

	normalMass     float64
	tangentMass    [2]float64
	tangent1       mgl64.Vec3
	tangent2       mgl64.Vec3

	normalImpulse  float64
	tangentImpulse mgl64.Vec2

	// relativeVelocityAtPrepare is the pre-step normal-relative velocity,
	// recorded once at PrepareContactConstraints and consumed by
	// ApplyRestitution (SPEC_FULL.md §4.10).
	relativeVelocityAtPrepare float64

	featureID ContactFeatureID
}

// ContactConstraint is prepared once per physics step from a ContactManifold
// and solved across every substep (SPEC_FULL.md §3).
type ContactConstraint struct {
	manifold *ContactManifold

	body1, body2      int
	excludeBody1      bool // relative dominance treats this body as infinite-mass.
	excludeBody2      bool
	relativeDominance int

	friction    float64
	restitution float64
	softness    Softness

	points []contactPointState
}

const contactEpsilon = 1e-10

// PrepareContactConstraints builds one ContactConstraint per manifold,
// computing world-space anchors, effective masses, and softness for the
// current step, and copying warm-start impulses from each manifold's
// persisted values (SPEC_FULL.md §4.3). Runs once per physics step, before
// the substep loop; inertia is evaluated at the bodies' orientation as of
// this call (delta rotation is always identity at this point in the step).
func PrepareContactConstraints(manifolds []*ContactManifold, bodies *SolverBodySet, cache *ImpulseCache, coefficients SoftnessCoefficients) []*ContactConstraint {
	constraints := make([]*ContactConstraint, 0, len(manifolds))
	for _, m := range manifolds {
		if len(m.Points) == 0 {
			continue // contract violation (SPEC_FULL.md §7): empty point list, skip rather than panic in release.
		}
		constraints = append(constraints, prepareContactConstraint(m, bodies, cache, coefficients))
	}
	return constraints
}

func prepareContactConstraint(m *ContactManifold, bodies *SolverBodySet, cache *ImpulseCache, coefficients SoftnessCoefficients) *ContactConstraint {
	sb1, sb2 := bodies.Get(m.Body1), bodies.Get(m.Body2)
	excl1, excl2 := false, false
	relDominance := 0
	if sb1 != fixedSolverBody && sb2 != fixedSolverBody {
		excl1, excl2 = relativeDominanceExcludes(sb1.dominance, sb2.dominance)
		relDominance = int(sb1.dominance) - int(sb2.dominance)
	}
	i1, i2 := PrepareInertia(dummyFor(sb1, excl1)), PrepareInertia(dummyFor(sb2, excl2))

	cc := &ContactConstraint{
		manifold:          m,
		body1:             m.Body1,
		body2:             m.Body2,
		excludeBody1:      excl1,
		excludeBody2:      excl2,
		relativeDominance: relDominance,
		friction:          m.Friction,
		restitution:       m.Restitution,
		softness:          coefficients.forKinds(kindOf(sb1), kindOf(sb2)),
		points:            make([]contactPointState, len(m.Points)),
	}

	for idx := range m.Points {
		cc.points[idx] = prepareContactPoint(&m.Points[idx], sb1, sb2, i1, i2, excl1, excl2, cache, m.Normal, m.SpeculativeMargin)
	}
	return cc
}

func kindOf(sb *SolverBody) BodyKind {
	if sb == fixedSolverBody {
		return Static
	}
	return sb.kind
}

func prepareContactPoint(p *ContactPoint, sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, excl1, excl2 bool, cache *ImpulseCache, normal mgl64.Vec3, margin float64) contactPointState {
	b1, b2 := dummyFor(sb1, excl1), dummyFor(sb2, excl2)

	r1 := worldAnchorOffset(b1, p.LocalAnchor1)
	r2 := worldAnchorOffset(b2, p.LocalAnchor2)
	anchor1 := currentPosition(b1).Add(r1)
	anchor2 := currentPosition(b2).Add(r2)

	normalImpulse, tangentImpulse := p.NormalImpulse, p.TangentImpulse
	if cache != nil && p.FeatureID != uuid.Nil {
		if cached, ok := cache.get(p.FeatureID); ok {
			normalImpulse, tangentImpulse = cached.NormalImpulse, cached.TangentImpulse
		}
	}

	t1, t2 := chooseTangentBasis(normal, relativeVelocityAt(b1, b2, r1, r2))

	state := contactPointState{
		localAnchor1:   p.LocalAnchor1,
		localAnchor2:   p.LocalAnchor2,
		anchor1At0:     anchor1,
		anchor2At0:     anchor2,
		baseSeparation: -p.Penetration + margin,
		normalMass:     effectiveMass(r1, r2, normal, i1, i2),
		tangent1:       t1,
		tangent2:       t2,
		normalImpulse:  normalImpulse,
		tangentImpulse: tangentImpulse,
		featureID:      p.FeatureID,
	}
	state.tangentMass[0] = effectiveMass(r1, r2, t1, i1, i2)
	state.tangentMass[1] = effectiveMass(r1, r2, t2, i1, i2)

	relVel := relativeVelocityAt(b1, b2, r1, r2)
	state.relativeVelocityAtPrepare = relVel.Dot(normal)
	return state
}

// effectiveMass computes the Jacobian-weighted inverse mass along direction
// d for a two-body constraint with current anchor offsets r1, r2
// (SPEC_FULL.md §4.3: m_n/m_t formula).
func effectiveMass(r1, r2, d mgl64.Vec3, i1, i2 SolverBodyInertia) float64 {
	angular1 := angularEffectiveTerm(i1, r1, d)
	angular2 := angularEffectiveTerm(i2, r2, d)
	denom := i1.InverseMass + i2.InverseMass + angular1 + angular2
	if denom <= contactEpsilon {
		return 0
	}
	return 1.0 / denom
}

func angularEffectiveTerm(i SolverBodyInertia, r, d mgl64.Vec3) float64 {
	rxd := r.Cross(d)
	return d.Dot(i.InverseInertia.Mul3x1(rxd).Cross(r))
}

// relativeVelocityAt computes v2 + w2xr2 - (v1 + w1xr1) for the current
// linear/angular velocities of b1, b2.
func relativeVelocityAt(b1, b2 *SolverBody, r1, r2 mgl64.Vec3) mgl64.Vec3 {
	v1 := velocityOf(b1).Add(angularVelocityOf(b1).Cross(r1))
	v2 := velocityOf(b2).Add(angularVelocityOf(b2).Cross(r2))
	return v2.Sub(v1)
}

// chooseTangentBasis picks the primary tangent along the projection of
// relative tangential velocity onto the normal's plane, falling back to an
// arbitrary stable orthonormal basis when that projection is too small to
// normalize (SPEC_FULL.md §4.6, open-question decision in SPEC_FULL.md §9).
func chooseTangentBasis(normal, relVel mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangential := relVel.Sub(normal.Mul(relVel.Dot(normal)))
	if tangential.Len() > 1e-6 {
		t1 := tangential.Normalize()
		return t1, normal.Cross(t1)
	}
	return arbitraryTangent(normal)
}

// arbitraryTangent generates two vectors perpendicular to normal and to
// each other, ported from the teacher's math/lin.V3.Plane (itself a port of
// Bullet's btVector3::btPlaneSpace1).
func arbitraryTangent(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	const sqrt12 = 0.7071067811865475244008443621048490
	if math.Abs(n[2]) > sqrt12 {
		a := n[1]*n[1] + n[2]*n[2]
		k := 1 / math.Sqrt(a)
		p := mgl64.Vec3{0, -n[2] * k, n[1] * k}
		q := mgl64.Vec3{a * k, -n[0] * p[2], n[0] * p[1]}
		return p, q
	}
	a := n[0]*n[0] + n[1]*n[1]
	k := 1 / math.Sqrt(a)
	p := mgl64.Vec3{-n[1] * k, n[0] * k, 0}
	q := mgl64.Vec3{-n[2] * p[1], n[2] * p[0], a * k}
	return p, q
}

// WarmStart applies every ContactConstraint's persisted impulses to body
// velocities, scaled by coefficient (SolverConfig.WarmStartCoefficient). It
// never touches position deltas (SPEC_FULL.md §4.4). Runs once per substep,
// before the biased solve.
func WarmStart(cc *ContactConstraint, bodies *SolverBodySet, coefficient float64) {
	sb1, sb2 := cc.solverBodies(bodies)
	i1, i2 := PrepareInertia(sb1), PrepareInertia(sb2)
	normal := cc.manifold.Normal

	for idx := range cc.points {
		p := &cc.points[idx]
		r1 := worldAnchorOffset(sb1, p.localAnchor1)
		r2 := worldAnchorOffset(sb2, p.localAnchor2)

		impulse := normal.Mul(p.normalImpulse).
			Add(p.tangent1.Mul(p.tangentImpulse[0])).
			Add(p.tangent2.Mul(p.tangentImpulse[1])).
			Mul(coefficient)

		applyContactImpulse(sb1, i1, r1, impulse, -1)
		applyContactImpulse(sb2, i2, r2, impulse, 1)
	}
}

// SolveConstraints runs one Gauss-Seidel pass over every contact point of
// cc: the biased pass (useBias true, called after warm start and before
// position integration) or the relaxation pass (useBias false, zero bias,
// hard subtraction, called after position integration) - SPEC_FULL.md §4.5.
func SolveConstraints(cc *ContactConstraint, bodies *SolverBodySet, h, maxOverlapSolveSpeed, lengthUnit float64, useBias bool) {
	sb1, sb2 := cc.solverBodies(bodies)
	i1, i2 := PrepareInertia(sb1), PrepareInertia(sb2)
	normal := cc.manifold.Normal
	maxPush := maxOverlapSolveSpeed * lengthUnit

	for idx := range cc.points {
		p := &cc.points[idx]
		r1 := worldAnchorOffset(sb1, p.localAnchor1)
		r2 := worldAnchorOffset(sb2, p.localAnchor2)

		solveNormal(p, sb1, sb2, i1, i2, r1, r2, normal, cc.softness, h, maxPush, useBias)
		solveFriction(p, sb1, sb2, i1, i2, r1, r2, cc.friction)
	}
}

func solveNormal(p *contactPointState, sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, r1, r2, normal mgl64.Vec3, soft Softness, h, maxPush float64, useBias bool) {
	if p.normalMass <= 0 {
		return
	}
	relVel := relativeVelocityAt(sb1, sb2, r1, r2)
	vn := relVel.Dot(normal)

	// Track separation drift since prepare time along the normal (Soft-TGS):
	// both anchors may have moved during this step's position integration.
	drift2 := currentPosition(sb2).Add(r2).Sub(p.anchor2At0).Dot(normal)
	drift1 := currentPosition(sb1).Add(r1).Sub(p.anchor1At0).Dot(normal)
	separation := p.baseSeparation + (drift2 - drift1)

	// Velocity bias: push out at most maxPush per second (SPEC_FULL.md §4.5
	// point 2). Only the biased pass applies softness; the relaxation pass
	// uses bias=0, gamma=0 (hard solve) to cancel warm-start overshoot.
	bias, gamma := 0.0, 0.0
	if useBias {
		bias = soft.BiasRate * math.Min(separation+maxPush*h, 0) / h
		gamma = soft.MassScale
	}

	deltaVn := -(vn + bias)
	lambda := p.normalMass*deltaVn - gamma*p.normalImpulse
	newImpulse := math.Max(p.normalImpulse+lambda, 0)
	applied := newImpulse - p.normalImpulse
	p.normalImpulse = newImpulse

	impulse := normal.Mul(applied)
	applyContactImpulse(sb1, i1, r1, impulse, -1)
	applyContactImpulse(sb2, i2, r2, impulse, 1)
}

func solveFriction(p *contactPointState, sb1, sb2 *SolverBody, i1, i2 SolverBodyInertia, r1, r2 mgl64.Vec3, friction float64) {
	maxFriction := friction * p.normalImpulse
	for i, t := range [2]mgl64.Vec3{p.tangent1, p.tangent2} {
		if p.tangentMass[i] <= 0 {
			continue
		}
		relVel := relativeVelocityAt(sb1, sb2, r1, r2)
		vt := relVel.Dot(t)

		raw := -p.tangentMass[i] * vt
		current := p.tangentImpulse[i]
		newImpulse := clamp(current+raw, -maxFriction, maxFriction)
		applied := newImpulse - current
		p.tangentImpulse[i] = newImpulse

		impulse := t.Mul(applied)
		applyContactImpulse(sb1, i1, r1, impulse, -1)
		applyContactImpulse(sb2, i2, r2, impulse, 1)
	}
}

// applyContactImpulse applies impulse*sign to sb's linear/angular velocity
// through its inverse mass/inertia. sign is -1 for body1 (impulse points
// from 1 to 2, so body1 receives the negated impulse) and +1 for body2.
func applyContactImpulse(sb *SolverBody, i SolverBodyInertia, r, impulse mgl64.Vec3, sign float64) {
	if sb == fixedSolverBody || !sb.kind.needsSolverBody() {
		return
	}
	signed := impulse.Mul(sign)
	sb.linearVelocity = sb.linearVelocity.Add(signed.Mul(i.InverseMass))
	sb.angularVelocity = sb.angularVelocity.Add(i.InverseInertia.Mul3x1(r.Cross(signed)))
}

// ApplyRestitution adds a bounce impulse to every point whose pre-step
// normal-relative velocity exceeded the configured threshold, iterating
// SolverConfig.RestitutionIterations times when the manifold has more than
// one point (SPEC_FULL.md §4.10). Runs once per physics step, after the
// substep loop.
func ApplyRestitution(cc *ContactConstraint, bodies *SolverBodySet, cfg SolverConfig) {
	if cc.restitution <= 0 {
		return
	}
	threshold := -cfg.RestitutionThreshold * cfg.PhysicsLengthUnit

	iterations := 1
	if len(cc.points) > 1 {
		iterations = cfg.RestitutionIterations
	}

	sb1, sb2 := cc.solverBodies(bodies)
	i1, i2 := PrepareInertia(sb1), PrepareInertia(sb2)
	normal := cc.manifold.Normal

	for iter := 0; iter < iterations; iter++ {
		for idx := range cc.points {
			p := &cc.points[idx]
			if p.normalMass <= 0 || p.relativeVelocityAtPrepare > threshold {
				continue
			}
			r1 := worldAnchorOffset(sb1, p.localAnchor1)
			r2 := worldAnchorOffset(sb2, p.localAnchor2)
			relVel := relativeVelocityAt(sb1, sb2, r1, r2)
			vn := relVel.Dot(normal)

			impulseMagnitude := -p.normalMass * (cc.restitution*p.relativeVelocityAtPrepare + vn)
			newImpulse := math.Max(p.normalImpulse+impulseMagnitude, 0)
			applied := newImpulse - p.normalImpulse
			p.normalImpulse = newImpulse

			impulse := normal.Mul(applied)
			applyContactImpulse(sb1, i1, r1, impulse, -1)
			applyContactImpulse(sb2, i2, r2, impulse, 1)
		}
	}
}

// StoreImpulses writes cc's accumulated per-point impulses back to its
// source manifold and, for points with a tracked feature ID, into cache
// (SPEC_FULL.md §4.11). Runs once per physics step, as the last operation.
func StoreImpulses(cc *ContactConstraint, cache *ImpulseCache) {
	for idx := range cc.points {
		p := &cc.points[idx]
		cc.manifold.Points[idx].NormalImpulse = p.normalImpulse
		cc.manifold.Points[idx].TangentImpulse = p.tangentImpulse
		if cache != nil && p.featureID != uuid.Nil {
			cache.put(p.featureID, PersistedImpulse{NormalImpulse: p.normalImpulse, TangentImpulse: p.tangentImpulse})
		}
	}
}

// solverBodies resolves cc's two bodies to their SolverBody (or the shared
// dummy when relative dominance excludes them).
func (cc *ContactConstraint) solverBodies(bodies *SolverBodySet) (*SolverBody, *SolverBody) {
	sb1 := dummyFor(bodies.Get(cc.body1), cc.excludeBody1)
	sb2 := dummyFor(bodies.Get(cc.body2), cc.excludeBody2)
	return sb1, sb2
}

// updateTangents recomputes each point's tangent basis from the current
// relative velocity, called before every WarmStart/SolveConstraints pass so
// friction tracks the dominant slip direction (SPEC_FULL.md §4.6).
func updateTangents(cc *ContactConstraint, bodies *SolverBodySet) {
	sb1, sb2 := cc.solverBodies(bodies)
	normal := cc.manifold.Normal
	for idx := range cc.points {
		p := &cc.points[idx]
		r1 := worldAnchorOffset(sb1, p.localAnchor1)
		r2 := worldAnchorOffset(sb2, p.localAnchor2)
		p.tangent1, p.tangent2 = chooseTangentBasis(normal, relativeVelocityAt(sb1, sb2, r1, r2))
	}
}
