// Copyright © 2024 Galvanized Logic Inc.

package physics

import "math"

// Softness holds the (bias, mass, impulse) coefficients a soft constraint
// uses to behave like a critically-or-over-damped spring at a chosen
// natural frequency. See SPEC_FULL.md §4.1.
type Softness struct {
	BiasRate     float64 // beta: scales velocity bias.
	MassScale    float64 // gamma: scales effective mass in the soft subtraction.
	ImpulseScale float64 // alpha: pure impulse-scale view of the same spring.
}

// rigidSoftness is the degenerate (non-soft, hard-constraint) coefficient
// set used when zeta or hz is zero.
var rigidSoftness = Softness{BiasRate: 0, MassScale: 0, ImpulseScale: 0}

// computeSoftness derives soft-constraint coefficients for a damping ratio
// zeta, an un-clamped natural frequency hz, and a substep time h, given the
// physics step's dt for the Nyquist clamp. See SPEC_FULL.md §4.1.
func computeSoftness(zeta, hz, dt, h float64) Softness {
	if zeta < 0 {
		zeta = 0
	}
	if zeta == 0 || hz <= 0 || h <= 0 || dt <= 0 {
		return rigidSoftness
	}

	maxHz := 0.25 / h
	if dt > 0 {
		if nyquist := 1.0 / (2.0 * dt); nyquist < maxHz {
			maxHz = nyquist
		}
	}
	if hz > maxHz {
		hz = maxHz
	}
	if hz <= 0 {
		return rigidSoftness
	}

	omega := 2.0 * math.Pi * hz
	a1 := 2.0*zeta + h*omega
	a2 := h * omega * a1
	a3 := 1.0 / (1.0 + a2)

	return Softness{
		BiasRate:     h * omega * a1 * a3,
		MassScale:    a3,
		ImpulseScale: a2 * a3,
	}
}

// SoftnessCoefficients bundles the dynamic-vs-dynamic and dynamic-vs-non-
// dynamic softness variants the contact solver chooses between per
// constraint, matching the reference solver's ContactSoftnessCoefficients
// resource (SPEC_FULL.md §12).
type SoftnessCoefficients struct {
	Dynamic    Softness
	NonDynamic Softness
}

// computeSoftnessCoefficients recomputes both variants from config and the
// current physics/substep timestep. Called once per step (SPEC_FULL.md §5:
// "recomputed (if dirty) before the step begins").
func computeSoftnessCoefficients(cfg SolverConfig, dt, h float64) SoftnessCoefficients {
	hz := cfg.ContactFrequencyFactor / h
	return SoftnessCoefficients{
		Dynamic:    computeSoftness(cfg.ContactDampingRatio, hz, dt, h),
		NonDynamic: computeSoftness(cfg.ContactDampingRatio, hz*nonDynamicFrequencyMultiplier, dt, h),
	}
}

// forKinds selects the dynamic or non-dynamic softness variant based on
// whether both sides of a contact are Dynamic bodies.
func (sc SoftnessCoefficients) forKinds(k1, k2 BodyKind) Softness {
	if k1 == Dynamic && k2 == Dynamic {
		return sc.Dynamic
	}
	return sc.NonDynamic
}
