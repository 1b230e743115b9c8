package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.N) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	assert.Equal(t, 2, b.Pending())
	b.DispatchAll()
	assert.Empty(t, got)

	b.SwapBuffers()
	assert.Equal(t, 0, b.Pending())
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)
}

func TestBusTypeOrderIsStable(t *testing.T) {
	b := NewBus()
	var log []string
	Subscribe(b, func(SoundCue) { log = append(log, "cue") })
	Subscribe(b, func(EntityDied) { log = append(log, "died") })

	for i := 0; i < 20; i++ {
		Emit(b, EntityDied{})
		Emit(b, SoundCue{})
	}
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, "died", log[0])
	assert.Equal(t, "cue", log[len(log)-1])
}
