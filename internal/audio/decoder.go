package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Decoder streams mono samples in [-1, 1] from an audio file. Multichannel
// sources are downmixed by averaging the channels.
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples. It returns io.EOF
	// once the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the native sample rate in Hz
	SampleRate() int

	// NumSamples returns the length in samples per channel, 0 if unknown
	NumSamples() int64

	// NumChannels returns the channel count of the source
	NumChannels() int

	Close() error
}

// Format is the container family chosen for decoding.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatMP3    Format = "mp3"
	FormatFLAC   Format = "flac"
	FormatFFmpeg Format = "ffmpeg" // Anything else, decoded by an ffmpeg subprocess
)

// DetectFormat identifies the container by its magic bytes, falling back
// to the file extension when the header is not recognised.
func DetectFormat(path string) (Format, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return "", fmt.Errorf("reading header of %s: %w", path, err)
	}

	ext := kind.Extension
	if kind == filetype.Unknown {
		ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	switch ext {
	case "wav":
		return FormatWAV, nil
	case "mp3":
		return FormatMP3, nil
	case "flac":
		return FormatFLAC, nil
	default:
		return FormatFFmpeg, nil
	}
}

// OpenDecoder opens path with the decoder matching its format.
func OpenDecoder(path string) (Decoder, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	debugf("audio: %s detected as %s", path, format)

	switch format {
	case FormatWAV:
		return NewWAVDecoder(path)
	case FormatMP3:
		return NewMP3Decoder(path)
	case FormatFLAC:
		return NewFLACDecoder(path)
	default:
		return NewFFmpegDecoder(path)
	}
}
