package analysis

import (
	"errors"
	"math/bits"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms a real signal of any length.
func FFT(data []float64) []complex128 {
	return fft.FFTReal(data)
}

func PowerSpectrum(data []float64) []float64 {
	spectrum := FFT(data)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// padFactor oversamples the spectrum by zero padding.
const padFactor = 8

var ErrNoOscillation = errors.New("analysis: no oscillation in signal")

// DominantPeriod returns the period of the strongest non-constant component
// of values sampled every dt seconds. The mean is removed and the record
// zero-padded; the peak is refined by parabolic interpolation.
func DominantPeriod(values []float64, dt float64) (float64, error) {
	if len(values) < 4 || dt <= 0 {
		return 0, ErrNoOscillation
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	n := (1 << bits.Len(uint(len(values)-1))) * padFactor
	buf := make([]float64, n)
	for i, v := range values {
		buf[i] = v - mean
	}
	ps := PowerSpectrum(buf)

	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] <= 1e-12*float64(len(values)) {
		return 0, ErrNoOscillation
	}

	k := float64(peak)
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if d := a - 2*b + c; d != 0 {
			k += 0.5 * (a - c) / d
		}
	}
	return float64(n) * dt / k, nil
}
