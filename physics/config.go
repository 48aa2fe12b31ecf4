// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// SolverConfig is the user-tunable contract for a physics step. Defaults
// match the reference solver this package's softness/restitution math is
// ported from; see SPEC_FULL.md §6.
type SolverConfig struct {
	ContactDampingRatio     float64 `yaml:"contact_damping_ratio"`
	ContactFrequencyFactor  float64 `yaml:"contact_frequency_factor"`
	MaxOverlapSolveSpeed    float64 `yaml:"max_overlap_solve_speed"`
	WarmStartCoefficient    float64 `yaml:"warm_start_coefficient"`
	RestitutionThreshold    float64 `yaml:"restitution_threshold"`
	RestitutionIterations   int     `yaml:"restitution_iterations"`

	// PhysicsLengthUnit is the world scale, units per meter. It scales
	// length-based thresholds (MaxOverlapSolveSpeed, RestitutionThreshold).
	// Owned here rather than by a separate resource - see SPEC_FULL.md §9.
	PhysicsLengthUnit float64 `yaml:"physics_length_unit"`
}

// nonDynamicFrequencyMultiplier scales the dynamic contact frequency for
// contacts against non-dynamic bodies (stiffer against immovable surfaces).
// Not exposed as a config field - see SPEC_FULL.md §9 open-question decision.
const nonDynamicFrequencyMultiplier = 2.0

// DefaultSolverConfig returns the documented default tuning.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		ContactDampingRatio:    10.0,
		ContactFrequencyFactor: 1.5,
		MaxOverlapSolveSpeed:   4.0,
		WarmStartCoefficient:   1.0,
		RestitutionThreshold:   1.0,
		RestitutionIterations:  1,
		PhysicsLengthUnit:      1.0,
	}
}

// Validate clamps out-of-range user configuration per SPEC_FULL.md §7:
// negative damping ratios/frequencies become 0, warm start is clamped to
// [0,1], the iteration count is floored at 1, and a non-positive length
// unit is reset to 1.
func (c *SolverConfig) Validate() {
	if c.ContactDampingRatio < 0 {
		slog.Warn("physics: negative contact damping ratio clamped to 0")
		c.ContactDampingRatio = 0
	}
	if c.ContactFrequencyFactor < 0 {
		slog.Warn("physics: negative contact frequency factor clamped to 0")
		c.ContactFrequencyFactor = 0
	}
	if c.WarmStartCoefficient < 0 {
		c.WarmStartCoefficient = 0
	} else if c.WarmStartCoefficient > 1 {
		c.WarmStartCoefficient = 1
	}
	if c.RestitutionIterations < 1 {
		c.RestitutionIterations = 1
	}
	if c.PhysicsLengthUnit <= 0 {
		slog.Warn("physics: non-positive length unit reset to 1.0")
		c.PhysicsLengthUnit = 1.0
	}
}

// LoadSolverConfig reads a SolverConfig from YAML, the vu engine's own
// asset/scene configuration format (vu/load), applying defaults for any
// field the document omits and validating the result.
func LoadSolverConfig(r io.Reader) (SolverConfig, error) {
	cfg := DefaultSolverConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return SolverConfig{}, fmt.Errorf("physics: decode solver config: %w", err)
	}
	cfg.Validate()
	return cfg, nil
}

// SaveSolverConfig writes cfg as YAML, the inverse of LoadSolverConfig.
func SaveSolverConfig(w io.Writer, cfg SolverConfig) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("physics: encode solver config: %w", err)
	}
	return nil
}
