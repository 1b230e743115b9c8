package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	phase Phase
	log   *[]string
	name  string
}

func (r recorder) Phase() Phase { return r.phase }
func (r recorder) Update(*Clock) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{PhaseCleanup, &log, "cleanup"})
	r.Register(recorder{PhaseControl, &log, "control"})
	r.Register(recorder{PhaseSimulate, &log, "simulate"})
	r.Register(recorder{PhaseUpdate, &log, "update-a"})
	r.Register(recorder{PhaseCollide, &log, "collide"})
	r.Register(recorder{PhaseUpdate, &log, "update-b"})

	clk := NewClock(60)
	r.Tick(clk)
	assert.Equal(t, []string{"simulate", "collide", "update-a", "update-b", "control", "cleanup"}, log)
	assert.Equal(t, uint32(1), clk.Turn)

	log = nil
	r.TickPhase(PhaseUpdate, clk)
	assert.Equal(t, []string{"update-a", "update-b"}, log)
	assert.Equal(t, uint32(1), clk.Turn)
}

func TestClockAccumulate(t *testing.T) {
	clk := NewClock(10)
	assert.Equal(t, 0, clk.Accumulate(50*time.Millisecond))
	assert.InDelta(t, 0.5, clk.Fraction, 1e-9)
	assert.Equal(t, 2, clk.Accumulate(175*time.Millisecond))
	assert.InDelta(t, 0.25, clk.Fraction, 1e-6)

	assert.Equal(t, 8, clk.Accumulate(10*time.Second))
	assert.Zero(t, clk.Fraction)
}

func TestClockVariableStepIsClamped(t *testing.T) {
	clk := NewClock(50)
	clk.Variable = true
	clk.MaxStep = 0.05
	assert.Equal(t, 1, clk.Accumulate(200*time.Millisecond))
	clk.Advance()
	assert.InDelta(t, 0.05, clk.Step, 1e-9)
	clk.Accumulate(10 * time.Millisecond)
	clk.Advance()
	assert.InDelta(t, 0.01, clk.Step, 1e-9)
}
