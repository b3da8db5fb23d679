package main

import "math"

// Toy leaky integrate-and-fire parameters. The drive current scales with
// rank so each rank fires at a different rate, which gives the
// signal-to-noise comparison something to measure.
const (
	restPotential   = -65.0 // mV
	spikeThreshold  = -50.0 // mV
	membraneTau     = 10.0  // ms
	inputResistance = 10.0  // MOhm
	baseCurrent     = 1.6   // nA
	currentPerRank  = 0.4   // nA

	// quietWindow silences the drive for this many ms at the end of each
	// quietPeriod, inducing the pauses the burst analysis looks for.
	quietWindow = 100.0 // ms
	quietPeriod = 250.0 // ms
)

// cell is a single leaky integrate-and-fire neuron stepped by the engine's
// OnStep hook. It records its spike times in simulated ms.
type cell struct {
	rank    int
	horizon float64
	prev    float64
	spikes  []float64
}

func newCell(rank int, horizon float64) *cell {
	return &cell{rank: rank, horizon: horizon}
}

// reset clears recorded state when the engine initializes.
func (c *cell) reset(float64) {
	c.prev = 0
	c.spikes = c.spikes[:0]
}

// step advances the membrane by one engine step using forward Euler.
func (c *cell) step(t float64, v *float64) {
	dt := t - c.prev
	if dt <= 0 {
		dt = 1.0
	}
	c.prev = t

	current := baseCurrent + currentPerRank*float64(c.rank)
	if math.Mod(t, quietPeriod) >= quietPeriod-quietWindow {
		current = 0
	}

	dv := (-(*v - restPotential) + inputResistance*current) / membraneTau * dt
	*v += dv
	if *v >= spikeThreshold {
		*v = restPotential
		c.spikes = append(c.spikes, t)
	}
}
