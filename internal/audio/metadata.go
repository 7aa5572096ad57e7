package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// AudioMetadata holds stream and tag information about an audio file
type AudioMetadata struct {
	Format     Format
	SampleRate int
	Channels   int
	NumSamples int64
	Duration   float64 // in seconds

	Title  string
	Artist string
	Album  string
}

// GetAudioMetadata opens path to read its stream layout and, when present,
// its ID3/Vorbis/MP4 tags. Missing tags are not an error.
func GetAudioMetadata(path string) (*AudioMetadata, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	dec, err := OpenDecoder(path)
	if err != nil {
		return nil, err
	}
	meta := &AudioMetadata{
		Format:     format,
		SampleRate: dec.SampleRate(),
		Channels:   dec.NumChannels(),
		NumSamples: dec.NumSamples(),
	}
	dec.Close()

	if meta.SampleRate > 0 && meta.NumSamples > 0 {
		meta.Duration = float64(meta.NumSamples) / float64(meta.SampleRate)
	}

	if tags, err := readTags(path); err == nil {
		meta.Title = strings.TrimSpace(tags.Title())
		meta.Artist = strings.TrimSpace(tags.Artist())
		meta.Album = strings.TrimSpace(tags.Album())
	} else {
		debugf("audio: no tags in %s: %v", path, err)
	}
	return meta, nil
}

func readTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return m, nil
}

// DisplayTitle returns "Artist - Title", the bare title, or the file name
// without extension, whichever is available first.
func (m *AudioMetadata) DisplayTitle(path string) string {
	switch {
	case m != nil && m.Title != "" && m.Artist != "":
		return m.Artist + " - " + m.Title
	case m != nil && m.Title != "":
		return m.Title
	default:
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
}
