package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the discrete
// Fourier transform of data, after removing its mean. Any length is
// accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantPeriod estimates the period of a uniformly sampled series from
// the strongest non-zero frequency bin. The resolution is limited by the
// sampled span: periods longer than half the span are not resolved.
func DominantPeriod(times, values []float64) (float64, bool) {
	n := min(len(times), len(values))
	if n < 4 {
		return 0, false
	}
	dt := (times[n-1] - times[0]) / float64(n-1)
	if dt <= 0 || math.IsNaN(dt) {
		return 0, false
	}

	ps := PowerSpectrum(values[:n])
	best, bin := 0.0, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, bin = ps[k], k
		}
	}
	if bin < 2 {
		return 0, false
	}
	return float64(n) * dt / float64(bin), true
}
