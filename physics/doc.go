// Copyright © 2024 Galvanized Logic Inc.

// Package physics implements the constraint-solver core of a 3D rigid-body
// engine: a substepped, warm-started, impulse-based contact solver (soft
// constraints, biased solve, relaxation, restitution) and an Extended
// Position-Based Dynamics (XPBD) joint solver, scheduled together inside one
// substep loop.
//
// Package physics does not do broad phase, narrow phase, continuous
// collision detection, scene graph sync, sleeping/islands, or force
// integration from external sources - those are the job of collaborators
// that hand this package RigidBody records, ContactManifolds, and Joints
// and read back the mutated velocities/transforms/impulses.
//
// The solver core was ported from the sequential-impulse and XPBD
// techniques of the vu (virtual universe) engine's own physics package,
// generalized from a single fixed numerical recipe into the phase pipeline
// described by the constraint-solver specification this package implements:
//
//	contact.go          : contact constraint prepare / warm start / biased
//	                      solve / relaxation / restitution, ported from
//	                      solver.go (itself ported from Bullet's
//	                      btSequentialImpulseConstraintSolver).
//	joint_base.go       : positional/angular XPBD primitives, ported from
//	                      pbd_base_constraints.go.
//	joints_*.go         : concrete XPBD joint families, ported from the
//	                      constraint variants in pbd.go.
//	jointdamping.go     : joint damping, ported from the reference
//	                      Rust joint_damping system.
//	solver.go           : SolverLoop - phase scheduling for the substep
//	                      loop, ported from Simulate/pbd_simulate.
//	impulsecache.go     : cross-frame warm-start cache keyed by stable
//	                      contact feature identity.
package physics
