// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// StepDiagnostics reports per-phase durations for one Step call, named after
// the reference solver's own counters (SPEC_FULL.md §6, §12).
type StepDiagnostics struct {
	WarmStart        time.Duration
	SolveConstraints time.Duration
	RelaxVelocities  time.Duration
	ApplyRestitution time.Duration
	StoreImpulses    time.Duration
}

// add accumulates another substep/phase's timings into d.
func (d *StepDiagnostics) add(other StepDiagnostics) {
	d.WarmStart += other.WarmStart
	d.SolveConstraints += other.SolveConstraints
	d.RelaxVelocities += other.RelaxVelocities
	d.ApplyRestitution += other.ApplyRestitution
	d.StoreImpulses += other.StoreImpulses
}

// Step advances bodies, manifolds, and joints by one physics step of length
// dt, split into the given number of substeps, orchestrating the full
// pipeline described in SPEC_FULL.md §2/§9: PrepareSolverBodies, then per
// substep {WarmStart, SolveBiased, IntegratePosition, Relax, SolveJoints,
// ProjectJointVelocities}, then ApplyRestitution once, then Finalize and
// StoreImpulses.
//
// Step never blocks and never selects on ctx.Done() mid-step (SPEC_FULL.md
// §5); ctx exists purely so a host embedding this solver in a server loop
// can carry request-scoped tracing/deadlines through the call, matching the
// teacher's eng.go/app.go convention of threading a context end-to-end even
// on a hot path that never waits on it.
//
// Velocity integration of external forces (gravity, applied forces/torques)
// is the caller's responsibility and must happen before Step is called -
// SPEC_FULL.md §1 places force integration out of this package's scope.
//
// bodies supplies every body handle participating in this step (even ones
// asleep or non-dynamic, so PrepareSolverBodies can evict stale entries);
// solverBodies is the caller-owned cache reused across steps for locality.
// cache may be nil if the host relies solely on each ContactManifold's own
// persisted per-point impulses for warm start.
func Step(ctx context.Context, bodies map[int]RigidBody, solverBodies *SolverBodySet, manifolds []*ContactManifold, joints []Joint, cache *ImpulseCache, cfg SolverConfig, dt float64, substeps int) StepDiagnostics {
	var diag StepDiagnostics
	if dt <= 0 || substeps <= 0 {
		slog.Error("physics: invalid step", "dt", dt, "substeps", substeps)
		return diag
	}
	cfg.Validate()
	h := dt / float64(substeps)
	softness := computeSoftnessCoefficients(cfg, dt, h)

	if cache != nil {
		cache.BeginStep()
	}

	solverBodies.PrepareSolverBodies(bodies)
	constraints := PrepareContactConstraints(manifolds, solverBodies, cache, softness)
	orderedJoints := orderedJointList(joints)

	for substep := 0; substep < substeps; substep++ {
		runSubstep(&diag, solverBodies, constraints, orderedJoints, cfg, h)
	}

	restitutionStart := time.Now()
	for _, cc := range constraints {
		ApplyRestitution(cc, solverBodies, cfg)
	}
	diag.ApplyRestitution = time.Since(restitutionStart)

	solverBodies.ForEach(func(_ int, sb *SolverBody) { Finalize(sb) })

	storeStart := time.Now()
	for _, cc := range constraints {
		StoreImpulses(cc, cache)
	}
	if cache != nil {
		cache.Sweep()
	}
	diag.StoreImpulses += time.Since(storeStart)

	return diag
}

// runSubstep runs one iteration of {WarmStart, SolveBiased, IntegratePosition,
// Relax, SolveJoints, ProjectJointVelocities} and accumulates its phase
// timings into diag.
func runSubstep(diag *StepDiagnostics, bodies *SolverBodySet, constraints []*ContactConstraint, joints []Joint, cfg SolverConfig, h float64) {
	warmStart := time.Now()
	for _, cc := range constraints {
		updateTangents(cc, bodies)
		WarmStart(cc, bodies, cfg.WarmStartCoefficient)
	}
	diag.WarmStart += time.Since(warmStart)

	solveStart := time.Now()
	for _, cc := range constraints {
		updateTangents(cc, bodies)
		SolveConstraints(cc, bodies, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, true)
	}
	diag.SolveConstraints += time.Since(solveStart)

	bodies.ForEach(func(_ int, sb *SolverBody) { IntegratePosition(sb, h) })

	relaxStart := time.Now()
	for _, cc := range constraints {
		updateTangents(cc, bodies)
		SolveConstraints(cc, bodies, h, cfg.MaxOverlapSolveSpeed, cfg.PhysicsLengthUnit, false)
	}
	diag.RelaxVelocities += time.Since(relaxStart)

	solveJoints(bodies, joints, h)
}

// jointPreState snapshots a body's delta_position/delta_rotation before this
// substep's joint solve, so ProjectJointVelocities can derive the velocity
// the joint correction implies (SPEC_FULL.md §4.8 step 1, §4.9).
type jointPreState struct {
	deltaPosition mgl64.Vec3
	deltaRotation mgl64.Quat
}

// solveJoints runs SPEC_FULL.md §4.8's SolveJoints phase followed by §4.9's
// ProjectJointVelocities phase (including joint damping) for one substep.
func solveJoints(bodies *SolverBodySet, joints []Joint, h float64) {
	if len(joints) == 0 {
		return
	}

	pre := make(map[int]jointPreState)
	snapshot := func(handle int) {
		if _, ok := pre[handle]; ok {
			return
		}
		sb := bodies.Get(handle)
		if sb == fixedSolverBody {
			return
		}
		pre[handle] = jointPreState{deltaPosition: sb.deltaPosition, deltaRotation: sb.deltaRotation}
	}
	for _, j := range joints {
		h1, h2 := j.Bodies()
		snapshot(h1)
		snapshot(h2)
	}

	for _, j := range joints {
		j.Prepare()
	}
	for _, j := range joints {
		h1, h2 := j.Bodies()
		sb1, sb2 := bodies.Get(h1), bodies.Get(h2)
		i1, i2 := PrepareInertia(sb1), PrepareInertia(sb2)
		j.SolvePosition(sb1, sb2, i1, i2, h)
	}

	for handle, snap := range pre {
		projectJointVelocity(bodies.Get(handle), snap, h)
	}

	for _, j := range joints {
		h1, h2 := j.Bodies()
		sb1, sb2 := bodies.Get(h1), bodies.Get(h2)
		i1, i2 := PrepareInertia(sb1), PrepareInertia(sb2)
		applyJointDamping(j, sb1, sb2, i1, i2, h)
	}
}

// projectJointVelocity derives sb's linear/angular velocity from the
// position/rotation change the joint solve produced this substep
// (SPEC_FULL.md §4.9).
func projectJointVelocity(sb *SolverBody, pre jointPreState, h float64) {
	if sb == fixedSolverBody || !sb.kind.needsSolverBody() {
		return
	}
	sb.linearVelocity = sb.deltaPosition.Sub(pre.deltaPosition).Mul(1.0 / h)

	deltaRot := sb.deltaRotation.Mul(pre.deltaRotation.Inverse())
	sb.angularVelocity = quatToAngularVelocity(deltaRot, h)
}

// quatToAngularVelocity converts a rotation-delta quaternion accumulated
// over duration h into an average angular velocity (axis * angle / h),
// taking the shortest rotational path.
func quatToAngularVelocity(q mgl64.Quat, h float64) mgl64.Vec3 {
	if q.W < 0 {
		q = mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	w := clamp(q.W, -1, 1)
	sinHalfAngle := math.Sqrt(1 - w*w)
	if sinHalfAngle < 1e-9 {
		return mgl64.Vec3{}
	}
	angle := 2 * math.Acos(w)
	axis := q.V.Mul(1.0 / sinHalfAngle)
	return axis.Mul(angle / h)
}

// jointFamilyOrder is the fixed joint-solve order used to reduce
// order-dependence artifacts (SPEC_FULL.md §4.8, §12).
func jointFamilyOrder(j Joint) int {
	switch j.(type) {
	case *FixedJoint:
		return 0
	case *RevoluteJoint:
		return 1
	case *SphericalJoint:
		return 2
	case *PrismaticJoint:
		return 3
	case *DistanceJoint:
		return 4
	default:
		return 5
	}
}

// orderedJointList returns a copy of joints sorted into the fixed family
// order, stable within a family so registration order is deterministic
// (SPEC_FULL.md §4.8 "chained iteration order is deterministic").
func orderedJointList(joints []Joint) []Joint {
	ordered := make([]Joint, len(joints))
	copy(ordered, joints)
	sort.SliceStable(ordered, func(i, k int) bool {
		return jointFamilyOrder(ordered[i]) < jointFamilyOrder(ordered[k])
	})
	return ordered
}
