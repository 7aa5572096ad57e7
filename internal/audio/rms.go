package audio

import "math"

// RMSEnergy computes the centred short-time root-mean-square energy of x
// with zero padding of frameLen/2 on both sides.
func RMSEnergy(x []float64, frameLen, hop int) []float64 {
	padded := centerPad(x, frameLen/2)
	frames := frameCount(len(x), frameLen, hop)

	out := make([]float64, frames)
	for f := range out {
		seg := padded[f*hop : f*hop+frameLen]
		var sum float64
		for _, v := range seg {
			sum += v * v
		}
		out[f] = math.Sqrt(sum / float64(frameLen))
	}
	return out
}
