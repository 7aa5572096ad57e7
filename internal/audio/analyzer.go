package audio

import (
	"math"
	"os"
	"time"

	"github.com/linuxmatters/jivereel/internal/config"
)

// AmplitudeTable holds one row per output frame and one column per bar,
// every value in [0, 1].
type AmplitudeTable [][]float64

// NewAmplitudeTable returns an all-zero table of the given shape.
func NewAmplitudeTable(frames, bars int) AmplitudeTable {
	if frames < 0 {
		frames = 0
	}
	if bars < 0 {
		bars = 0
	}
	backing := make([]float64, frames*bars)
	t := make(AmplitudeTable, frames)
	for i := range t {
		t[i] = backing[i*bars : (i+1)*bars : (i+1)*bars]
	}
	return t
}

// Frames returns the number of rows.
func (t AmplitudeTable) Frames() int { return len(t) }

// Bars returns the number of columns.
func (t AmplitudeTable) Bars() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Row returns the amplitudes for frame i, or nil when out of range.
func (t AmplitudeTable) Row(i int) []float64 {
	if i < 0 || i >= len(t) {
		return nil
	}
	return t[i]
}

// Request describes one amplitude extraction.
type Request struct {
	Path      string
	Start     float64
	End       float64
	FPS       int
	Bars      int
	Mode      config.AnalysisMode
	Smoothing float64
	MinDB     float64
	MaxDB     float64
}

// RequestFromConfig builds the extraction request for a normalised config.
func RequestFromConfig(c config.RenderConfig) Request {
	return Request{
		Path:      c.AudioPath,
		Start:     c.Start,
		End:       c.End,
		FPS:       c.FPS,
		Bars:      c.Waveform.Bars,
		Mode:      c.Waveform.Mode,
		Smoothing: c.Waveform.Smoothing,
		MinDB:     c.Waveform.MinDB,
		MaxDB:     c.Waveform.MaxDB,
	}
}

// Frames is the target row count, round((end-start) * fps).
func (r Request) Frames() int {
	return config.FrameCount(r.Start, r.End, r.FPS)
}

// Analysis is the result of ExtractAmplitudes.
type Analysis struct {
	Table AmplitudeTable

	SampleRate   int
	HopLength    int
	Duration     float64 // Seconds of audio actually decoded
	Peak         float64 // Largest absolute sample
	RMS          float64 // RMS of the whole window
	AnalysisTime time.Duration

	// Degraded is set when the table is all zeros because the audio
	// could not be analysed.
	Degraded bool
}

// PeakDB returns the peak level in dBFS, -Inf for silence.
func (a *Analysis) PeakDB() float64 { return 20 * math.Log10(a.Peak) }

// RMSDB returns the RMS level in dBFS, -Inf for silence.
func (a *Analysis) RMSDB() float64 { return 20 * math.Log10(a.RMS) }

// ProgressCallback is called with progress updates during analysis
type ProgressCallback func(frame, totalFrames int, elapsed time.Duration)

// ExtractAmplitudes decodes the requested window and converts it to an
// amplitude table of exactly req.Frames() rows and req.Bars columns. It
// never fails: unreadable audio produces a zero table and a warning.
func ExtractAmplitudes(req Request, progress ProgressCallback) *Analysis {
	startTime := time.Now()
	frames := req.Frames()

	degrade := func(format string, args ...interface{}) *Analysis {
		warnf(format, args...)
		return &Analysis{
			Table:        NewAmplitudeTable(frames, req.Bars),
			AnalysisTime: time.Since(startTime),
			Degraded:     true,
		}
	}

	if _, err := os.Stat(req.Path); err != nil {
		return degrade("audio file not found: %s", req.Path)
	}

	sig, err := ReadWindow(req.Path, req.Start, req.End)
	if err != nil {
		return degrade("cannot decode audio %s: %v", req.Path, err)
	}
	if len(sig.Samples) == 0 {
		return degrade("audio window [%.3fs, %.3fs) of %s is empty", req.Start, req.End, req.Path)
	}

	var cb func(done, total int)
	if progress != nil {
		cb = func(done, total int) { progress(done, total, time.Since(startTime)) }
	}

	table, hop := AmplitudesFromSignal(sig, req, cb)
	peak, rms := levels(sig.Samples)

	a := &Analysis{
		Table:        table,
		SampleRate:   sig.SampleRate,
		HopLength:    hop,
		Duration:     sig.Duration(),
		Peak:         peak,
		RMS:          rms,
		AnalysisTime: time.Since(startTime),
	}
	debugf("audio: %s analysis of %d frames x %d bars, hop %d, %.3fs decoded",
		req.Mode, table.Frames(), table.Bars(), hop, a.Duration)
	return a
}

// HopLength is round(sampleRate/fps), or the fallback hop when that is zero.
func HopLength(sampleRate, fps int) int {
	if fps <= 0 {
		return config.FallbackHop
	}
	hop := int(math.Round(float64(sampleRate) / float64(fps)))
	if hop <= 0 {
		return config.FallbackHop
	}
	return hop
}

func rmsFrameLength(hop int) int {
	return max(2*hop, config.MinRMSFrameSize)
}

// AmplitudesFromSignal runs the configured analysis on an in-memory signal
// and returns the reconciled table together with the hop length used.
func AmplitudesFromSignal(sig *Signal, req Request, progress func(done, total int)) (AmplitudeTable, int) {
	frames := req.Frames()
	hop := HopLength(sig.SampleRate, req.FPS)

	var raw AmplitudeTable
	switch req.Mode {
	case config.AnalysisMel:
		raw = melAmplitudes(sig, req, hop, progress)
	case config.AnalysisRMS:
		raw = rmsAmplitudes(sig, req.Bars, hop)
	default:
		warnf("unknown waveform analysis mode %q, bars will stay flat", req.Mode)
		return NewAmplitudeTable(frames, req.Bars), hop
	}

	Smooth(raw, req.Smoothing)
	return Reconcile(raw, frames, req.Bars), hop
}

func melAmplitudes(sig *Signal, req Request, hop int, progress func(done, total int)) AmplitudeTable {
	spec, err := PowerSpectrogram(sig.Samples, config.FFTSize, hop, progress)
	if err != nil {
		warnf("spectrogram failed: %v", err)
		return nil
	}

	mel := applyFilterbank(spec, MelFilterbank(sig.SampleRate, config.FFTSize, req.Bars))
	if maxPower := PowerToDB(mel); maxPower < powerAmin {
		// Digital silence: every band sits at the reference level, which
		// would otherwise normalise to full-height bars.
		return NewAmplitudeTable(len(mel), req.Bars)
	}

	lo, hi := req.MinDB, req.MaxDB
	if hi == lo {
		warnf("waveform dB range [%.1f, %.1f] is empty, using [%.1f, %.1f]", lo, hi, config.MinDB, config.MaxDB)
		lo, hi = config.MinDB, config.MaxDB
	}
	for _, row := range mel {
		for i, db := range row {
			row[i] = clamp01((db - lo) / (hi - lo))
		}
	}
	return AmplitudeTable(mel)
}

func rmsAmplitudes(sig *Signal, bars, hop int) AmplitudeTable {
	energy := RMSEnergy(sig.Samples, rmsFrameLength(hop), hop)

	peak := 0.0
	for _, e := range energy {
		peak = math.Max(peak, e)
	}

	table := NewAmplitudeTable(len(energy), bars)
	if peak <= 0 {
		return table
	}
	for f, e := range energy {
		v := e / peak
		for b := range table[f] {
			table[f][b] = v
		}
	}
	return table
}

// Smooth applies per-column exponential smoothing in place:
// s[0] = v[0], s[i] = alpha*s[i-1] + (1-alpha)*v[i]. It does nothing when
// alpha is 0 or the table has fewer than two rows.
func Smooth(t AmplitudeTable, alpha float64) {
	if alpha == 0 || len(t) < 2 {
		return
	}
	for i := 1; i < len(t); i++ {
		prev, cur := t[i-1], t[i]
		for b := range cur {
			cur[b] = clamp01(alpha*prev[b] + (1-alpha)*cur[b])
		}
	}
}

// Reconcile pads t with zero rows or truncates it to exactly frames rows of
// bars columns. Rows are copied so the result never aliases t.
func Reconcile(t AmplitudeTable, frames, bars int) AmplitudeTable {
	out := NewAmplitudeTable(frames, bars)
	for i := 0; i < frames && i < len(t); i++ {
		copy(out[i], t[i])
	}
	return out
}

func levels(samples []float64) (peak, rms float64) {
	var sum float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(s))
		sum += s * s
	}
	if len(samples) > 0 {
		rms = math.Sqrt(sum / float64(len(samples)))
	}
	return peak, rms
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
