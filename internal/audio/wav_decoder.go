package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder implements Decoder for PCM WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	numChans   int
	numSamples int64
	intBuf     *audio.IntBuffer
}

// NewWAVDecoder opens a WAV file and positions it at the PCM data
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", filename)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	numChans := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if numChans == 0 || bitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("WAV header has %d channels at %d bits", numChans, bitDepth)
	}

	bytesPerFrame := int64(bitDepth/8) * int64(numChans)
	var numSamples int64
	if bytesPerFrame > 0 {
		numSamples = decoder.PCMLen() / bytesPerFrame
	}

	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		numChans:   numChans,
		numSamples: numSamples,
	}, nil
}

// ReadChunk reads the next chunk, downmixed to mono
func (d *WAVDecoder) ReadChunk(numSamples int) ([]float64, error) {
	// Interleaved data needs numSamples × numChans slots
	bufSize := numSamples * d.numChans
	if d.intBuf == nil || cap(d.intBuf.Data) < bufSize {
		d.intBuf = &audio.IntBuffer{
			Data: make([]int, bufSize),
			Format: &audio.Format{
				NumChannels: d.numChans,
				SampleRate:  d.sampleRate,
			},
		}
	}
	d.intBuf.Data = d.intBuf.Data[:bufSize]

	n, err := d.decoder.PCMBuffer(d.intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))
	return downmixInts(d.intBuf.Data[:n], d.numChans, maxVal), nil
}

// downmixInts converts interleaved integer PCM to mono floats.
func downmixInts(data []int, numChans int, maxVal float64) []float64 {
	frames := len(data) / numChans
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < numChans; ch++ {
			sum += float64(data[i*numChans+ch])
		}
		samples[i] = sum / float64(numChans) / maxVal
	}
	return samples
}

func (d *WAVDecoder) SampleRate() int   { return d.sampleRate }
func (d *WAVDecoder) NumSamples() int64 { return d.numSamples }
func (d *WAVDecoder) NumChannels() int  { return d.numChans }

// Close closes the underlying file
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
