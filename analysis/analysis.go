// Package analysis provides stateless numeric helpers for post-hoc
// analysis of recorded spike trains.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrVariableThreshold is returned when FirstBurstPause is asked to derive
// the pause threshold from the spike train itself, which is not
// implemented.
var ErrVariableThreshold = errors.New("analysis: variable pause threshold is not implemented")

// ErrEmptySample is returned when a statistic is requested over no data.
var ErrEmptySample = errors.New("analysis: empty sample")

// ErrUnsortedSpikes is returned when spike timestamps are not
// monotonically non-decreasing.
var ErrUnsortedSpikes = errors.New("analysis: spike times must be non-decreasing")

// SignalToNoise computes the signal-to-noise ratio between two samples:
//
//	2 * (mean(b) - mean(a))^2 / (var(b) + var(a))
//
// with population variances. The result is non-negative and zero when
// the means coincide. Two constant samples follow IEEE division: +Inf
// when their means differ, NaN when they are equal. Both samples must be
// non-empty.
func SignalToNoise(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return math.NaN(), ErrEmptySample
	}
	ma := stat.Mean(a, nil)
	mb := stat.Mean(b, nil)
	va := stat.PopVariance(a, nil)
	vb := stat.PopVariance(b, nil)
	d := mb - ma
	return 2 * d * d / (vb + va), nil
}

// BurstPauseOptions configures FirstBurstPause. Zero-valued fields take
// the defaults used in cerebellar recording protocols: discard the first
// 5000 ms, 1000 ms epochs, 20 ms pause threshold.
type BurstPauseOptions struct {
	// Cutoff discards all spikes earlier than this time.
	Cutoff float64

	// EpochDuration is the fixed width of each analysis epoch.
	EpochDuration float64

	// PauseThreshold is the smallest inter-spike interval counted as a
	// pause.
	PauseThreshold float64

	// VariableThreshold would derive the pause threshold from the train
	// itself. Not implemented; setting it is an error, never silently
	// ignored.
	VariableThreshold bool
}

func (o *BurstPauseOptions) defaults() {
	if o.Cutoff == 0 {
		o.Cutoff = 5000
	}
	if o.EpochDuration == 0 {
		o.EpochDuration = 1000
	}
	if o.PauseThreshold == 0 {
		o.PauseThreshold = 20
	}
}

// BurstPause holds the per-epoch segmentation result. The three slices are
// parallel: one triple per epoch that contained a qualifying pause.
type BurstPause struct {
	// First is the time of the first spike in the epoch.
	First []float64

	// Burst is the duration from the first spike to the spike preceding
	// the first qualifying pause.
	Burst []float64

	// Pause is the duration of that pause.
	Pause []float64
}

// FirstBurstPause segments a spike train into per-epoch first-spike /
// burst / pause triples.
//
// Spikes earlier than the cutoff are discarded. The remainder falls into
// fixed-width epochs (epoch id = floor(t / EpochDuration)). Within each
// epoch, the first spike marks the burst start; the first inter-spike gap
// of at least PauseThreshold whose leading spike lies in the epoch marks
// the burst end, and the trailing spike marks the pause end. Epochs with
// no qualifying gap contribute no entry.
func FirstBurstPause(spiketimes []float64, opts BurstPauseOptions) (BurstPause, error) {
	var res BurstPause
	if opts.VariableThreshold {
		return res, ErrVariableThreshold
	}
	opts.defaults()
	if opts.EpochDuration <= 0 {
		return res, fmt.Errorf("analysis: epoch duration must be positive, got %v", opts.EpochDuration)
	}
	if opts.PauseThreshold <= 0 {
		return res, fmt.Errorf("analysis: pause threshold must be positive, got %v", opts.PauseThreshold)
	}
	if !sort.Float64sAreSorted(spiketimes) {
		return res, ErrUnsortedSpikes
	}

	cut := spiketimes[sort.SearchFloat64s(spiketimes, opts.Cutoff):]
	n := len(cut)
	epoch := func(t float64) int {
		return int(math.Floor(t / opts.EpochDuration))
	}

	i := 0
	for i < n {
		e := epoch(cut[i])
		first := cut[i]
		found := false
		j := i
		for j < n && epoch(cut[j]) == e {
			if !found && j+1 < n {
				if gap := cut[j+1] - cut[j]; gap >= opts.PauseThreshold {
					res.First = append(res.First, first)
					res.Burst = append(res.Burst, cut[j]-first)
					res.Pause = append(res.Pause, gap)
					found = true
				}
			}
			j++
		}
		i = j
	}
	return res, nil
}
