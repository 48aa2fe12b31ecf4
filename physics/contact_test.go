// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boxOnGroundManifold builds a dynamic box resting 0.01 units into a static
// ground plane, falling straight down, with one contact point directly below
// its center of mass.
func boxOnGroundManifold(bodies map[int]RigidBody) *ContactManifold {
	box := newDynamicBody(mgl64.Vec3{0, 0.99, 0}, cubeInverseInertia(1, 1), 1)
	box.linearVelocity = mgl64.Vec3{0, -2, 0}
	ground := newStaticBody(mgl64.Vec3{})
	bodies[1], bodies[2] = box, ground

	return &ContactManifold{
		Body1: 1,
		Body2: 2,
		// Normal points from body1 (the box) to body2 (the ground): downward.
		Normal:      mgl64.Vec3{0, -1, 0},
		Friction:    0.5,
		Restitution: 0,
		Points: []ContactPoint{
			{
				LocalAnchor1: mgl64.Vec3{0, -0.5, 0},
				LocalAnchor2: mgl64.Vec3{0, 0, 0},
				Penetration:  0.01,
			},
		},
	}
}

func TestPrepareContactConstraints_SkipsEmptyManifold(t *testing.T) {
	set := NewSolverBodySet()
	bodies := map[int]RigidBody{}
	m := boxOnGroundManifold(bodies)
	m.Points = nil
	set.PrepareSolverBodies(bodies)

	ccs := PrepareContactConstraints([]*ContactManifold{m}, set, nil, SoftnessCoefficients{})
	assert.Empty(t, ccs)
}

func TestSolveConstraints_NormalImpulseStaysNonNegative(t *testing.T) {
	set := NewSolverBodySet()
	bodies := map[int]RigidBody{}
	m := boxOnGroundManifold(bodies)
	cfg := DefaultSolverConfig()
	dt := 1.0 / 60
	h := dt / 4

	set.PrepareSolverBodies(bodies)
	coeffs := computeSoftnessCoefficients(cfg, dt, h)
	ccs := PrepareContactConstraints([]*ContactManifold{m}, set, nil, coeffs)
	require.Len(t, ccs, 1)
	cc := ccs[0]

	for substep := 0; substep < 4; substep++ {
		updateTangents(cc, set)
		WarmStart(cc, set, cfg.WarmStartCoefficient)
		updateTangents(cc, set)
		SolveConstraints(cc, set, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, true)
		set.ForEach(func(_ int, sb *SolverBody) { IntegratePosition(sb, h) })
		updateTangents(cc, set)
		SolveConstraints(cc, set, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, false)

		require.GreaterOrEqual(t, cc.points[0].normalImpulse, 0.0)
	}
}

func TestSolveConstraints_FrictionStaysWithinCoulombCone(t *testing.T) {
	set := NewSolverBodySet()
	bodies := map[int]RigidBody{}
	m := boxOnGroundManifold(bodies)
	m.Friction = 0.6
	box := bodies[1].(*fakeBody)
	box.linearVelocity[0] = 3 // sliding sideways on contact.

	cfg := DefaultSolverConfig()
	dt := 1.0 / 60
	h := dt / 4

	set.PrepareSolverBodies(bodies)
	coeffs := computeSoftnessCoefficients(cfg, dt, h)
	ccs := PrepareContactConstraints([]*ContactManifold{m}, set, nil, coeffs)
	require.Len(t, ccs, 1)
	cc := ccs[0]

	for substep := 0; substep < 4; substep++ {
		updateTangents(cc, set)
		WarmStart(cc, set, cfg.WarmStartCoefficient)
		updateTangents(cc, set)
		SolveConstraints(cc, set, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, true)
		set.ForEach(func(_ int, sb *SolverBody) { IntegratePosition(sb, h) })
		updateTangents(cc, set)
		SolveConstraints(cc, set, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, false)

		p := cc.points[0]
		maxFriction := cc.friction * p.normalImpulse
		cone := math.Hypot(p.tangentImpulse[0], p.tangentImpulse[1])
		assert.LessOrEqual(t, cone, maxFriction+1e-9)
	}
}

func TestChooseTangentBasis_FallsBackToArbitraryWhenRelativeVelocityIsZero(t *testing.T) {
	normal := mgl64.Vec3{0, 1, 0}
	t1, t2 := chooseTangentBasis(normal, mgl64.Vec3{})

	assert.InDelta(t, 0.0, t1.Dot(normal), 1e-9)
	assert.InDelta(t, 0.0, t2.Dot(normal), 1e-9)
	assert.InDelta(t, 0.0, t1.Dot(t2), 1e-9)
	assert.InDelta(t, 1.0, t1.Len(), 1e-9)
	assert.InDelta(t, 1.0, t2.Len(), 1e-9)
}

func TestChooseTangentBasis_PicksSlipDirectionWhenMoving(t *testing.T) {
	normal := mgl64.Vec3{0, 1, 0}
	relVel := mgl64.Vec3{1, 0, 0}
	t1, _ := chooseTangentBasis(normal, relVel)

	assert.InDelta(t, 1.0, t1.Dot(mgl64.Vec3{1, 0, 0}), 1e-9)
}

func TestWarmStart_ReducesFirstIterationResidualVsColdStart(t *testing.T) {
	cfg := DefaultSolverConfig()
	dt := 1.0 / 60
	h := dt / 4

	run := func(seedImpulse float64) float64 {
		set := NewSolverBodySet()
		bodies := map[int]RigidBody{}
		m := boxOnGroundManifold(bodies)
		m.Points[0].NormalImpulse = seedImpulse

		set.PrepareSolverBodies(bodies)
		coeffs := computeSoftnessCoefficients(cfg, dt, h)
		ccs := PrepareContactConstraints([]*ContactManifold{m}, set, nil, coeffs)
		cc := ccs[0]

		updateTangents(cc, set)
		WarmStart(cc, set, cfg.WarmStartCoefficient)
		updateTangents(cc, set)
		sb1, _ := cc.solverBodies(set)
		before := sb1.linearVelocity[1]
		SolveConstraints(cc, set, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, true)

		return math.Abs(sb1.linearVelocity[1] - before)
	}

	cold := run(0)
	// A warm-started impulse close to the converged solution should leave the
	// first biased solve with a much smaller velocity correction to make.
	warm := run(2.0)
	assert.Less(t, warm, cold)
}

func TestStoreImpulses_RoundTripsThroughManifoldAndCache(t *testing.T) {
	set := NewSolverBodySet()
	bodies := map[int]RigidBody{}
	m := boxOnGroundManifold(bodies)
	m.Points[0].FeatureID = uuid.New()
	cache := NewImpulseCache()

	set.PrepareSolverBodies(bodies)
	coeffs := computeSoftnessCoefficients(DefaultSolverConfig(), 1.0/60, 1.0/240)
	ccs := PrepareContactConstraints([]*ContactManifold{m}, set, cache, coeffs)
	cc := ccs[0]
	cc.points[0].normalImpulse = 1.23
	cc.points[0].tangentImpulse = mgl64.Vec2{0.1, -0.2}

	StoreImpulses(cc, cache)

	assert.InDelta(t, 1.23, m.Points[0].NormalImpulse, 1e-12)
	cached, ok := cache.get(m.Points[0].FeatureID)
	require.True(t, ok)
	assert.InDelta(t, 1.23, cached.NormalImpulse, 1e-12)
}
