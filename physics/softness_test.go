// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSoftness_DegeneratesToRigidWhenZetaOrHzZero(t *testing.T) {
	s := computeSoftness(0, 60, 1.0/60, 1.0/480)
	assert.Equal(t, rigidSoftness, s)

	s = computeSoftness(10, 0, 1.0/60, 1.0/480)
	assert.Equal(t, rigidSoftness, s)
}

func TestComputeSoftness_CoefficientsInRange(t *testing.T) {
	dt := 1.0 / 60
	h := dt / 8
	s := computeSoftness(10, 1.5/h, dt, h)

	assert.GreaterOrEqual(t, s.BiasRate, 0.0)
	assert.LessOrEqual(t, s.BiasRate, 1.0)
	assert.GreaterOrEqual(t, s.MassScale, 0.0)
	assert.LessOrEqual(t, s.MassScale, 1.0)
	assert.GreaterOrEqual(t, s.ImpulseScale, 0.0)
	assert.LessOrEqual(t, s.ImpulseScale, 1.0)
}

func TestComputeSoftness_NyquistClampsExtremeFrequency(t *testing.T) {
	dt := 1.0 / 60
	h := dt / 8

	unclamped := computeSoftness(10, 1e6, dt, h)
	clamped := computeSoftness(10, 0.25/h, dt, h)

	assert.InDelta(t, clamped.BiasRate, unclamped.BiasRate, 1e-9)
	assert.InDelta(t, clamped.MassScale, unclamped.MassScale, 1e-9)
}

func TestComputeSoftnessCoefficients_NonDynamicIsStiffer(t *testing.T) {
	cfg := DefaultSolverConfig()
	dt := 1.0 / 60
	h := dt / 8

	coeffs := computeSoftnessCoefficients(cfg, dt, h)

	// A stiffer (higher effective frequency) spring has a larger bias rate
	// for the same damping ratio, up to the Nyquist clamp.
	assert.GreaterOrEqual(t, coeffs.NonDynamic.BiasRate, coeffs.Dynamic.BiasRate)
}

func TestSoftnessCoefficients_ForKinds(t *testing.T) {
	coeffs := SoftnessCoefficients{
		Dynamic:    Softness{BiasRate: 1},
		NonDynamic: Softness{BiasRate: 2},
	}

	assert.Equal(t, coeffs.Dynamic, coeffs.forKinds(Dynamic, Dynamic))
	assert.Equal(t, coeffs.NonDynamic, coeffs.forKinds(Dynamic, Static))
	assert.Equal(t, coeffs.NonDynamic, coeffs.forKinds(Static, Dynamic))
	assert.Equal(t, coeffs.NonDynamic, coeffs.forKinds(Kinematic, Kinematic))
}
