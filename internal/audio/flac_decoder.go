package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numSamples  int64
	numChannels int
	pending     []float64 // Decoded samples of the last frame not yet returned
}

// NewFLACDecoder opens a FLAC file, taking format details from STREAMINFO
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numSamples:  int64(stream.Info.NSamples),
		numChannels: int(stream.Info.NChannels),
	}, nil
}

// ReadChunk reads the next chunk, parsing as many FLAC frames as needed
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	samples := make([]float64, 0, numSamples)

	for len(samples) < numSamples {
		if len(d.pending) == 0 {
			frame, err := d.stream.ParseNext()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
			}
			if len(frame.Subframes) == 0 {
				continue
			}

			maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
			count := len(frame.Subframes[0].Samples)
			decoded := make([]float64, count)
			for i := 0; i < count; i++ {
				var sum int64
				for _, sub := range frame.Subframes {
					sum += int64(sub.Samples[i])
				}
				decoded[i] = float64(sum) / float64(len(frame.Subframes)) / maxVal
			}
			d.pending = decoded
		}

		take := min(numSamples-len(samples), len(d.pending))
		samples = append(samples, d.pending[:take]...)
		d.pending = d.pending[take:]
	}

	if len(samples) == 0 {
		return nil, io.EOF
	}
	return samples, nil
}

func (d *FLACDecoder) SampleRate() int   { return d.sampleRate }
func (d *FLACDecoder) NumSamples() int64 { return d.numSamples }
func (d *FLACDecoder) NumChannels() int  { return d.numChannels }

// Close closes the stream and the underlying file
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
