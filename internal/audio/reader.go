package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
)

const readChunkSize = 8192

// Signal is a mono buffer at its native sample rate.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration of the signal in seconds.
func (s *Signal) Duration() float64 {
	if s == nil || s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// sampleSkipper is implemented by decoders that can jump ahead cheaply.
type sampleSkipper interface {
	SkipSamples(n int64) error
}

// ReadWindow decodes the mono samples of path in [start, end) seconds.
// The window boundaries are rounded to the nearest sample. A window that
// runs past the end of the file yields a shorter signal.
func ReadWindow(path string, start, end float64) (*Signal, error) {
	dec, err := OpenDecoder(path)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sr := dec.SampleRate()
	if sr <= 0 {
		return nil, fmt.Errorf("%s reports sample rate %d", path, sr)
	}

	first := int64(math.Round(start * float64(sr)))
	if first < 0 {
		first = 0
	}
	want := int64(math.Round((end - start) * float64(sr)))
	if want <= 0 {
		return &Signal{SampleRate: sr}, nil
	}

	if err := skip(dec, first); err != nil {
		return nil, err
	}

	capHint := want
	if total := dec.NumSamples(); total > 0 && total-first < capHint {
		capHint = max(total-first, 0)
	}
	samples := make([]float64, 0, capHint)

	for int64(len(samples)) < want {
		n := int(min(want-int64(len(samples)), readChunkSize))
		chunk, err := dec.ReadChunk(n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		samples = append(samples, chunk...)
	}

	if int64(len(samples)) > want {
		samples = samples[:want]
	}
	debugf("audio: read %d samples at %d Hz from %s [%.3fs, %.3fs)", len(samples), sr, path, start, end)
	return &Signal{Samples: samples, SampleRate: sr}, nil
}

// skip discards n leading samples.
func skip(dec Decoder, n int64) error {
	if n <= 0 {
		return nil
	}
	if s, ok := dec.(sampleSkipper); ok {
		return s.SkipSamples(n)
	}
	for n > 0 {
		chunk, err := dec.ReadChunk(int(min(n, readChunkSize)))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("skipping to window start: %w", err)
		}
		n -= int64(len(chunk))
	}
	return nil
}

// Duration returns the length of the audio file in seconds. When the
// decoder cannot report a length the stream is decoded to count samples.
func Duration(path string) (float64, error) {
	dec, err := OpenDecoder(path)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	sr := dec.SampleRate()
	if sr <= 0 {
		return 0, fmt.Errorf("%s reports sample rate %d", path, sr)
	}
	if n := dec.NumSamples(); n > 0 {
		return float64(n) / float64(sr), nil
	}

	var count int64
	for {
		chunk, err := dec.ReadChunk(readChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decoding %s: %w", path, err)
		}
		count += int64(len(chunk))
	}
	return float64(count) / float64(sr), nil
}
