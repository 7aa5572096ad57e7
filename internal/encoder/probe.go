package encoder

import (
	"fmt"
	"os"

	"github.com/abema/go-mp4"
)

// TrackInfo describes one track of an encoded MP4.
type TrackInfo struct {
	ID       uint32
	Codec    string // "avc1", "mp4a" or "unknown"
	Duration float64
	Samples  int
	Width    int
	Height   int
}

// OutputInfo summarises an encoded MP4 file.
type OutputInfo struct {
	Duration  float64
	FastStart bool
	Tracks    []TrackInfo
}

// Video returns the first H.264 track, if any
func (o *OutputInfo) Video() (TrackInfo, bool) {
	for _, t := range o.Tracks {
		if t.Codec == "avc1" {
			return t, true
		}
	}
	return TrackInfo{}, false
}

// HasAudio reports whether the file carries an AAC track
func (o *OutputInfo) HasAudio() bool {
	for _, t := range o.Tracks {
		if t.Codec == "mp4a" {
			return true
		}
	}
	return false
}

// ProbeOutput reads the moov box of an MP4 file and reports its duration
// and tracks.
func ProbeOutput(path string) (*OutputInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}

	out := &OutputInfo{FastStart: info.FastStart}
	if info.Timescale > 0 {
		out.Duration = float64(info.Duration) / float64(info.Timescale)
	}

	for _, track := range info.Tracks {
		ti := TrackInfo{
			ID:      track.TrackID,
			Codec:   codecName(track.Codec),
			Samples: len(track.Samples),
		}
		if track.Timescale > 0 {
			var ticks uint64
			for _, sample := range track.Samples {
				ticks += uint64(sample.TimeDelta)
			}
			ti.Duration = float64(ticks) / float64(track.Timescale)
		}
		if track.AVC != nil {
			ti.Width = int(track.AVC.Width)
			ti.Height = int(track.AVC.Height)
		}
		out.Tracks = append(out.Tracks, ti)
	}

	return out, nil
}

func codecName(c mp4.Codec) string {
	switch c {
	case mp4.CodecAVC1:
		return "avc1"
	case mp4.CodecMP4A:
		return "mp4a"
	default:
		return "unknown"
	}
}
