// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpulseCache_PutGetRoundTrip(t *testing.T) {
	cache := NewImpulseCache()
	id := uuid.New()

	_, ok := cache.get(id)
	assert.False(t, ok, "unknown feature is a cache miss")

	cache.put(id, PersistedImpulse{NormalImpulse: 1.5, TangentImpulse: mgl64.Vec2{0.1, 0.2}})
	got, ok := cache.get(id)
	require.True(t, ok)
	assert.Equal(t, 1.5, got.NormalImpulse)
	assert.Equal(t, mgl64.Vec2{0.1, 0.2}, got.TangentImpulse)
	assert.Equal(t, 1, cache.Len())
}

func TestImpulseCache_SweepEvictsUntouchedFeatures(t *testing.T) {
	cache := NewImpulseCache()
	stale := uuid.New()
	fresh := uuid.New()
	cache.put(stale, PersistedImpulse{NormalImpulse: 1})
	cache.put(fresh, PersistedImpulse{NormalImpulse: 2})

	// Next step: only "fresh" appears in the manifold and gets re-stored.
	cache.BeginStep()
	cache.put(fresh, PersistedImpulse{NormalImpulse: 2.5})
	cache.Sweep()

	_, staleOk := cache.get(stale)
	freshImpulse, freshOk := cache.get(fresh)
	assert.False(t, staleOk, "a feature absent from a step's StoreImpulses calls is evicted")
	require.True(t, freshOk)
	assert.Equal(t, 2.5, freshImpulse.NormalImpulse)
	assert.Equal(t, 1, cache.Len())
}

func TestImpulseCache_BeginStepClearsTouchedWithoutEvicting(t *testing.T) {
	cache := NewImpulseCache()
	id := uuid.New()
	cache.put(id, PersistedImpulse{NormalImpulse: 3})

	cache.BeginStep()
	assert.Equal(t, 1, cache.Len(), "BeginStep alone does not evict")
	// Sweep before anything re-touches id this step: it is now untouched and
	// must be evicted, matching a contact feature that disappeared between
	// frames (SPEC_FULL.md §9).
	cache.Sweep()

	_, ok := cache.get(id)
	assert.False(t, ok)
}
