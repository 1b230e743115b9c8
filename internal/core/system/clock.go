package system

import "time"

// Clock carries the simulation time for one world. It is passed to every
// tick-driven call instead of living in globals.
type Clock struct {
	Turn     uint32
	Rate     float64 // ticks per second
	Step     float64 // seconds simulated by the current tick
	Fraction float64 // render interpolation between the last two ticks, 0..1

	MaxStep  float64 // upper bound for variable steps
	Variable bool
	// MaxCatchup bounds the ticks Accumulate returns for one frame.
	MaxCatchup int

	pending float64 // variable mode: elapsed time for the next tick
	acc     float64
}

// NewClock creates a fixed-step clock running at rate ticks per second.
func NewClock(rate float64) *Clock {
	if rate <= 0 {
		rate = 60
	}
	return &Clock{
		Rate:       rate,
		Step:       1 / rate,
		MaxStep:    4 / rate,
		MaxCatchup: 8,
	}
}

// Advance starts the next tick.
func (c *Clock) Advance() {
	c.Turn++
	if c.Variable {
		step := c.pending
		if step <= 0 {
			step = 1 / c.Rate
		}
		if c.MaxStep > 0 && step > c.MaxStep {
			step = c.MaxStep
		}
		c.Step = step
		c.pending = 0
		return
	}
	c.Step = 1 / c.Rate
}

// Accumulate converts elapsed wall time into the number of ticks to run
// now and updates Fraction for interpolation.
func (c *Clock) Accumulate(elapsed time.Duration) int {
	dt := elapsed.Seconds()
	if c.Variable {
		c.pending = dt
		c.Fraction = 1
		return 1
	}
	step := 1 / c.Rate
	c.acc += dt
	n := int(c.acc / step)
	if c.MaxCatchup > 0 && n > c.MaxCatchup {
		n = c.MaxCatchup
		c.acc = 0
	} else {
		c.acc -= float64(n) * step
	}
	c.Fraction = c.acc / step
	return n
}

// Seconds converts the elapsed turn count into simulated seconds at the fixed rate.
func (c *Clock) Seconds() float64 { return float64(c.Turn) / c.Rate }
