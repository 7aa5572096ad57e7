package audio

import (
	"math"
	"testing"
)

func TestPeriodicHann(t *testing.T) {
	w := PeriodicHann(8)
	want := []float64{0, 0.1464466, 0.5, 0.8535534, 1, 0.8535534, 0.5, 0.1464466}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-6 {
			t.Errorf("w[%d] = %f, want %f", i, w[i], want[i])
		}
	}
}

func TestFrameCount(t *testing.T) {
	testCases := []struct {
		n, frameLen, hop int
		want             int
	}{
		{n: 44100, frameLen: 2048, hop: 735, want: 61},
		{n: 0, frameLen: 2048, hop: 512, want: 1},
		{n: 1024, frameLen: 1024, hop: 512, want: 3},
		{n: 100, frameLen: 2048, hop: 0, want: 0},
	}
	for _, tc := range testCases {
		if got := frameCount(tc.n, tc.frameLen, tc.hop); got != tc.want {
			t.Errorf("frameCount(%d, %d, %d) = %d, want %d", tc.n, tc.frameLen, tc.hop, got, tc.want)
		}
	}
}

func TestPowerSpectrogram_PeakBin(t *testing.T) {
	const sr = 44100
	x := sine(sr, 1.0, 440)

	spec, err := PowerSpectrogram(x, 2048, 735, nil)
	if err != nil {
		t.Fatalf("PowerSpectrogram() error: %v", err)
	}
	if len(spec) != 61 {
		t.Fatalf("frames = %d, want 61", len(spec))
	}
	if len(spec[0]) != 1025 {
		t.Fatalf("bins = %d, want 1025", len(spec[0]))
	}

	// 440 Hz lands between bins 20 and 21 at this resolution
	mid := spec[30]
	peak := 0
	for k := range mid {
		if mid[k] > mid[peak] {
			peak = k
		}
	}
	if peak != 20 && peak != 21 {
		t.Errorf("peak bin = %d, want 20 or 21", peak)
	}
}

func TestPowerSpectrogram_Progress(t *testing.T) {
	var last, total int
	_, err := PowerSpectrogram(make([]float64, 8000), 1024, 100, func(done, n int) {
		last, total = done, n
	})
	if err != nil {
		t.Fatalf("PowerSpectrogram() error: %v", err)
	}
	if last != total || total != frameCount(8000, 1024, 100) {
		t.Errorf("final progress %d/%d", last, total)
	}
}

func TestPowerSpectrogram_InvalidSizes(t *testing.T) {
	testCases := []struct {
		name      string
		nfft, hop int
	}{
		{name: "non power of two", nfft: 1000, hop: 256},
		{name: "zero fft", nfft: 0, hop: 256},
		{name: "zero hop", nfft: 1024, hop: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PowerSpectrogram(make([]float64, 4096), tc.nfft, tc.hop, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRMSEnergy(t *testing.T) {
	x := make([]float64, 4096)
	for i := range x {
		x[i] = 0.5
	}
	energy := RMSEnergy(x, 1024, 512)
	if len(energy) != frameCount(len(x), 1024, 512) {
		t.Fatalf("frames = %d", len(energy))
	}
	// Edge frames see half padding
	if math.Abs(energy[0]-0.5*math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("edge frame = %f", energy[0])
	}
	if math.Abs(energy[4]-0.5) > 1e-9 {
		t.Errorf("interior frame = %f, want 0.5", energy[4])
	}
}
