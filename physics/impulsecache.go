// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/go-gl/mathgl/mgl64"

// PersistedImpulse is the warm-start state ImpulseCache keeps for one
// contact feature across frames.
type PersistedImpulse struct {
	NormalImpulse  float64
	TangentImpulse mgl64.Vec2
}

// ImpulseCache is the warm-start cache described in SPEC_FULL.md §9: contact
// impulses keyed by a stable feature ID supplied by the narrow phase,
// surviving manifold point reordering across frames. A ContactManifold's own
// per-point NormalImpulse/TangentImpulse fields remain the primary warm-start
// path (SPEC_FULL.md §4.3); ImpulseCache is an optional additional layer a
// host can use when its narrow phase does not guarantee point-index
// stability but does assign stable feature IDs.
//
// ImpulseCache is not safe for concurrent use; the solver's scheduling model
// is single-threaded per physics step (SPEC_FULL.md §5).
type ImpulseCache struct {
	entries map[ContactFeatureID]PersistedImpulse
	touched map[ContactFeatureID]bool
}

// NewImpulseCache creates an empty cache.
func NewImpulseCache() *ImpulseCache {
	return &ImpulseCache{
		entries: make(map[ContactFeatureID]PersistedImpulse),
		touched: make(map[ContactFeatureID]bool),
	}
}

// get returns the persisted impulse for id, if any. A feature ID that was
// never stored, or whose manifold disappeared and was swept by Sweep, is a
// cache miss: the caller falls back to the manifold's own persisted value
// (typically zero for a newly-appeared contact feature).
func (c *ImpulseCache) get(id ContactFeatureID) (PersistedImpulse, bool) {
	v, ok := c.entries[id]
	return v, ok
}

// put records id's impulse for next step's warm start and marks it touched
// for the current sweep generation.
func (c *ImpulseCache) put(id ContactFeatureID, impulse PersistedImpulse) {
	c.entries[id] = impulse
	c.touched[id] = true
}

// BeginStep clears the touched set; call once per physics step before
// StoreImpulses runs, so Sweep can tell which features survived this step.
func (c *ImpulseCache) BeginStep() {
	for id := range c.touched {
		delete(c.touched, id)
	}
}

// Sweep evicts every cached feature that was not touched (written via
// StoreImpulses) since the last BeginStep: contacts whose narrow-phase
// feature disappeared between frames zero-initialize on their next
// appearance rather than reusing a stale impulse (SPEC_FULL.md §9).
func (c *ImpulseCache) Sweep() {
	for id := range c.entries {
		if !c.touched[id] {
			delete(c.entries, id)
		}
	}
}

// Len reports the number of cached features, for diagnostics/tests.
func (c *ImpulseCache) Len() int { return len(c.entries) }
