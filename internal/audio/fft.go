package audio

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"
)

// PeriodicHann returns the length-n periodic Hann window used for spectral
// analysis, w[i] = 0.5 - 0.5cos(2πi/n).
func PeriodicHann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// centerPad returns x with pad zeros on both sides.
func centerPad(x []float64, pad int) []float64 {
	out := make([]float64, len(x)+2*pad)
	copy(out[pad:], x)
	return out
}

// frameCount is the number of hop-spaced frames of length frameLen that fit
// in n samples once centre padding of frameLen/2 is applied.
func frameCount(n, frameLen, hop int) int {
	padded := n + 2*(frameLen/2)
	if padded < frameLen || hop <= 0 {
		return 0
	}
	return 1 + (padded-frameLen)/hop
}

// PowerSpectrogram computes the centred short-time power spectrum |X|² of
// x. The result is indexed [frame][bin] with nfft/2+1 bins. nfft must be
// a power of two.
func PowerSpectrogram(x []float64, nfft, hop int, progress func(done, total int)) ([][]float64, error) {
	if nfft <= 0 || nfft&(nfft-1) != 0 {
		return nil, fmt.Errorf("FFT size %d is not a power of two", nfft)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("hop length %d must be positive", hop)
	}
	if err := gofft.Prepare(nfft); err != nil {
		return nil, fmt.Errorf("preparing FFT: %w", err)
	}

	padded := centerPad(x, nfft/2)
	frames := frameCount(len(x), nfft, hop)
	window := PeriodicHann(nfft)
	bins := nfft/2 + 1

	spec := make([][]float64, frames)
	buf := make([]complex128, nfft)
	for f := 0; f < frames; f++ {
		offset := f * hop
		for i := 0; i < nfft; i++ {
			buf[i] = complex(padded[offset+i]*window[i], 0)
		}
		if err := gofft.FFT(buf); err != nil {
			return nil, fmt.Errorf("FFT of frame %d: %w", f, err)
		}

		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			re, im := real(buf[k]), imag(buf[k])
			row[k] = re*re + im*im
		}
		spec[f] = row

		if progress != nil && (f%64 == 0 || f == frames-1) {
			progress(f+1, frames)
		}
	}
	return spec, nil
}
