package audio

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return melFSp * mel
}

// MelFilterbank builds nMels triangular filters spanning 0 Hz to Nyquist
// over the nfft/2+1 bins of a real FFT, each scaled to unit area (Slaney
// normalisation). The result is indexed [band][bin].
func MelFilterbank(sampleRate, nfft, nMels int) [][]float64 {
	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}

	maxMel := HzToMel(float64(sampleRate) / 2)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = MelToHz(maxMel * float64(i) / float64(nMels+1))
	}

	weights := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		lowerWidth := melF[m+1] - melF[m]
		upperWidth := melF[m+2] - melF[m+1]
		enorm := 2.0 / (melF[m+2] - melF[m])

		row := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - melF[m]) / lowerWidth
			upper := (melF[m+2] - f) / upperWidth
			w := math.Max(0, math.Min(lower, upper))
			row[k] = w * enorm
		}
		weights[m] = row
	}
	return weights
}

// applyFilterbank projects a power spectrogram [frame][bin] onto mel bands,
// giving [frame][band].
func applyFilterbank(spec [][]float64, bank [][]float64) [][]float64 {
	out := make([][]float64, len(spec))
	for f, frame := range spec {
		row := make([]float64, len(bank))
		for m, filter := range bank {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * frame[k]
				}
			}
			row[m] = sum
		}
		out[f] = row
	}
	return out
}

const (
	powerAmin = 1e-10
	topDB     = 80.0
)

// PowerToDB converts power values to decibels relative to the largest
// value, flooring at topDB below that maximum. The table is modified in
// place and the maximum input power is returned.
func PowerToDB(table [][]float64) float64 {
	ref := 0.0
	for _, row := range table {
		for _, v := range row {
			ref = math.Max(ref, v)
		}
	}

	refDB := 10 * math.Log10(math.Max(powerAmin, ref))
	peakDB := math.Inf(-1)
	for _, row := range table {
		for i, v := range row {
			db := 10*math.Log10(math.Max(powerAmin, v)) - refDB
			row[i] = db
			peakDB = math.Max(peakDB, db)
		}
	}

	floor := peakDB - topDB
	for _, row := range table {
		for i, v := range row {
			if v < floor {
				row[i] = floor
			}
		}
	}
	return ref
}
