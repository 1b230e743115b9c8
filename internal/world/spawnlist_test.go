package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp8/engine/internal/data"
)

func TestPlaceSpawnsScattersAndOwns(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	load(t, w, `<world>
		<template name="carrier"/>
		<template name="drone"/>
	</world>`)

	entries, err := data.ParseSpawnList([]byte(`
spawns:
  - template: carrier
    x: 100
    y: -50
  - template: drone
    count: 5
    x: 10
    y: 20
    spread_x: 4
    spread_y: 2
    angle: 90
    owner: carrier
  - template: missing
    count: 3
`))
	require.NoError(t, err)

	assert.Equal(t, 6, w.PlaceSpawns(entries))

	carrier := w.firstOf("carrier")
	require.NotZero(t, carrier)
	assert.Equal(t, 100.0, w.Entity(carrier).Transform.P.X)

	drone, _ := w.TemplateID("drone")
	n := 0
	for id, e := range w.Entities.All() {
		if w.TemplateOf(id) != drone {
			continue
		}
		n++
		assert.Equal(t, carrier, w.Owner(id))
		assert.InDelta(t, 10, e.Transform.P.X, 4)
		assert.InDelta(t, 20, e.Transform.P.Y, 2)
		assert.InDelta(t, 1.5708, e.Transform.Angle, 1e-4)
	}
	assert.Equal(t, 5, n)
}
