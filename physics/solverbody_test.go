// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareSolverBodies_CreatesForAwakeDynamicAndKinematic(t *testing.T) {
	set := NewSolverBodySet()
	dyn := newDynamicBody(mgl64.Vec3{0, 1, 0}, cubeInverseInertia(1, 1), 1)
	kin := &fakeBody{kind: Kinematic, orientation: identityQuat}
	stat := newStaticBody(mgl64.Vec3{})
	asleep := newDynamicBody(mgl64.Vec3{}, cubeInverseInertia(1, 1), 1)
	asleep.asleep = true

	bodies := map[int]RigidBody{1: dyn, 2: kin, 3: stat, 4: asleep}
	set.PrepareSolverBodies(bodies)

	require.NotNil(t, set.Get(1))
	assert.NotSame(t, fixedSolverBody, set.Get(1))
	assert.NotSame(t, fixedSolverBody, set.Get(2))
	assert.Same(t, fixedSolverBody, set.Get(3), "static bodies get the dummy, not a SolverBody")
	assert.Same(t, fixedSolverBody, set.Get(4), "sleeping bodies get the dummy")
}

func TestPrepareSolverBodies_EvictsNoLongerEligible(t *testing.T) {
	set := NewSolverBodySet()
	dyn := newDynamicBody(mgl64.Vec3{}, cubeInverseInertia(1, 1), 1)
	bodies := map[int]RigidBody{1: dyn}
	set.PrepareSolverBodies(bodies)
	assert.NotSame(t, fixedSolverBody, set.Get(1))

	dyn.asleep = true
	set.PrepareSolverBodies(bodies)
	assert.Same(t, fixedSolverBody, set.Get(1))
}

func TestPrepareInertia_DummyBodyIsZero(t *testing.T) {
	i := PrepareInertia(fixedSolverBody)
	assert.Equal(t, zeroInertia, i)
}

func TestPrepareInertia_LockedAngularAxisZeroesRowAndColumn(t *testing.T) {
	set := NewSolverBodySet()
	body := newDynamicBody(mgl64.Vec3{}, cubeInverseInertia(1, 1), 1)
	body.locked = LockAngularY
	set.PrepareSolverBodies(map[int]RigidBody{1: body})

	inertia := PrepareInertia(set.Get(1))
	assert.Zero(t, inertia.InverseInertia[4]) // (1,1) in column-major 3x3.
	assert.Zero(t, inertia.InverseInertia[1])
	assert.Zero(t, inertia.InverseInertia[7])
	assert.NotZero(t, inertia.InverseInertia[0])
}

func TestFinalize_IntegratesPositionAndNormalizesOrientation(t *testing.T) {
	set := NewSolverBodySet()
	body := newDynamicBody(mgl64.Vec3{0, 5, 0}, cubeInverseInertia(1, 1), 1)
	body.linearVelocity = mgl64.Vec3{1, 0, 0}
	set.PrepareSolverBodies(map[int]RigidBody{1: body})

	sb := set.Get(1)
	IntegratePosition(sb, 1.0/60)
	Finalize(sb)

	assert.InDelta(t, 5.0, body.Position()[1], 1e-9)
	assert.Greater(t, body.Position()[0], 0.0)
	assert.InDelta(t, 1.0, body.Orientation().W*body.Orientation().W+body.Orientation().V.Len()*body.Orientation().V.Len(), 1e-9)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, body.LinearVelocity())
}

func TestFinalize_DummyBodyIsNoOp(t *testing.T) {
	// Finalize on the shared dummy must never write through to a RigidBody;
	// it has none, and the dummy is shared across every excluded
	// constraint this step.
	require.NotPanics(t, func() { Finalize(fixedSolverBody) })
}

func TestRelativeDominanceExcludes(t *testing.T) {
	// relative_dominance = d1 - d2 > 0 means body1 is the higher-dominance
	// body and is the one excluded/immovable (SPEC_FULL.md §3, §8.6).
	excl1, excl2 := relativeDominanceExcludes(10, 0)
	assert.True(t, excl1)
	assert.False(t, excl2)

	excl1, excl2 = relativeDominanceExcludes(0, 10)
	assert.False(t, excl1)
	assert.True(t, excl2)

	excl1, excl2 = relativeDominanceExcludes(0, 0)
	assert.False(t, excl1)
	assert.False(t, excl2)
}
