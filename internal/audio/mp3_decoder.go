package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian interleaved stereo.
const mp3BytesPerFrame = 4

// MP3Decoder implements Decoder for MP3 files
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	buf        []byte
}

// NewMP3Decoder opens an MP3 file for decoding
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
	}, nil
}

// ReadChunk reads the next chunk, averaging left and right
func (d *MP3Decoder) ReadChunk(numSamples int) ([]float64, error) {
	want := numSamples * mp3BytesPerFrame
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}
	buf := d.buf[:want]

	// Read can return short counts mid-stream; fill as much as possible
	n, err := io.ReadFull(d.decoder, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	frames := n / mp3BytesPerFrame
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		b := buf[i*mp3BytesPerFrame:]
		left := float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768.0
		right := float64(int16(uint16(b[2])|uint16(b[3])<<8)) / 32768.0
		samples[i] = (left + right) / 2.0
	}
	return samples, nil
}

// SkipSamples seeks forward by n samples without decoding them to floats
func (d *MP3Decoder) SkipSamples(n int64) error {
	pos, err := d.decoder.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("failed to seek MP3: %w", err)
	}
	target := pos + n*mp3BytesPerFrame
	if l := d.decoder.Length(); l > 0 && target > l {
		target = l
	}
	if _, err := d.decoder.Seek(target, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek MP3: %w", err)
	}
	return nil
}

func (d *MP3Decoder) SampleRate() int { return d.sampleRate }

// NumSamples derives the sample count from the decoded stream length
func (d *MP3Decoder) NumSamples() int64 {
	if l := d.decoder.Length(); l > 0 {
		return l / mp3BytesPerFrame
	}
	return 0
}

// NumChannels reports the decoded layout, which go-mp3 fixes at stereo
func (d *MP3Decoder) NumChannels() int { return 2 }

// Close closes the underlying file
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
