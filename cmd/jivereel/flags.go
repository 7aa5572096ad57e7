package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/jivereel/internal/config"
)

// Options is the command line. Render settings are left at their zero
// value unless given; only flags that were set override the profile.
type Options struct {
	Image  string `arg:"" name:"image" help:"Cover image (PNG, JPEG, GIF, WebP, BMP or TIFF)" optional:""`
	Audio  string `arg:"" name:"audio" help:"Audio file (WAV, MP3, FLAC or anything ffmpeg decodes)" optional:""`
	Output string `arg:"" name:"output" help:"Output MP4 file, or PNG with --snapshot" optional:""`

	Profiles     string `help:"YAML file of video profiles" type:"path" env:"JIVEREEL_PROFILES" group:"Profiles"`
	Profile      string `help:"Profile to apply instead of the file's default_profile" env:"JIVEREEL_PROFILE" group:"Profiles"`
	ListProfiles bool   `help:"List the profiles in --profiles and exit" group:"Profiles"`
	DumpProfile  bool   `help:"Print the resolved settings as a profiles document and exit" group:"Profiles"`

	Start            string `help:"Clip start (SS, MM:SS or HH:MM:SS)" group:"Clip"`
	End              string `help:"Clip end (SS, MM:SS or HH:MM:SS)" group:"Clip"`
	UseAudioDuration bool   `help:"Render the whole audio file" group:"Clip"`

	FPS    int `name:"fps" help:"Frames per second" group:"Video"`
	Width  int `help:"Video width in pixels" group:"Video"`
	Height int `help:"Video height in pixels" group:"Video"`

	Background      string  `help:"Background mode: solid or blur_image" group:"Background"`
	BlurRadius      float64 `help:"Background blur radius" group:"Background"`
	Fit             string  `help:"Background fit: stretch, crop or fill" group:"Background"`
	BackgroundColor string  `help:"Solid background colour as #RRGGBB" group:"Background"`

	ImageWidth   float64 `help:"Image width as a percentage of the video width" group:"Image"`
	CornerRadius int     `help:"Image corner radius in pixels" group:"Image"`
	X            int     `help:"Image left edge, -1 centres" group:"Image"`
	Y            int     `help:"Image top edge, -1 centres" group:"Image"`

	ShadowOffsetX  int     `name:"shadow-offset-x" help:"Shadow horizontal offset" group:"Image"`
	ShadowOffsetY  int     `name:"shadow-offset-y" help:"Shadow vertical offset" group:"Image"`
	ShadowBlur     float64 `help:"Shadow blur radius" group:"Image"`
	ShadowDarkness float64 `help:"Shadow darkness from 0 to 1" group:"Image"`

	NoWaveform    bool    `help:"Disable the waveform bars" group:"Waveform"`
	Analysis      string  `help:"Audio feature: melspectrogram or rms" group:"Waveform"`
	Bars          int     `help:"Number of waveform bars" group:"Waveform"`
	BarSpacing    float64 `help:"Gap between bars as a fraction of the bar pitch" group:"Waveform"`
	Smoothing     float64 `help:"Temporal smoothing factor from 0 to 1" group:"Waveform"`
	WaveColorMode string  `help:"Bar colour: contrast, custom, white or black" group:"Waveform"`
	WaveColor     string  `help:"Custom bar colour as #RRGGBB" group:"Waveform"`
	WaveHeight    float64 `help:"Maximum bar height as a percentage of the video height" group:"Waveform"`
	WaveSpacing   int     `help:"Gap between image and waveform in pixels" group:"Waveform"`
	MinDB         float64 `name:"min-db" help:"Level mapped to an empty bar" group:"Waveform"`
	MaxDB         float64 `name:"max-db" help:"Level mapped to a full bar" group:"Waveform"`

	Snapshot bool   `help:"Write a single PNG frame instead of a video" group:"Output"`
	At       string `help:"Snapshot time into the clip" default:"1" group:"Output"`
	NoPoster bool   `help:"Skip the PNG poster written next to the video" group:"Output"`
	Title    string `help:"Poster title (default: the audio file's tags)" group:"Output"`

	Encoder      string `help:"Video encoder: auto, software, nvenc, qsv, vaapi or videotoolbox" default:"auto" env:"JIVEREEL_ENCODER" group:"Encoding"`
	ListEncoders bool   `help:"Show hardware encoder status and exit" group:"Encoding"`
	Workers      int    `help:"Parallel frame compositors (default: all CPUs)" env:"JIVEREEL_WORKERS" group:"Encoding"`
	NoPreview    bool   `help:"Disable video preview during encoding" env:"JIVEREEL_NO_PREVIEW"`
	Debug        string `help:"Write debug tracing to this file" type:"path" env:"JIVEREEL_DEBUG"`
	Version      bool   `help:"Show version information"`
}

// applyFlags overlays the flags named in set onto c.
func applyFlags(c config.RenderConfig, o *Options, set map[string]bool) (config.RenderConfig, error) {
	if o.Image != "" {
		c.ImagePath = o.Image
	}
	if o.Audio != "" {
		c.AudioPath = o.Audio
	}
	if o.Output != "" {
		c.OutputPath = o.Output
	}

	if set["start"] {
		c.Start = config.ParseTimecode(o.Start)
	}
	if set["end"] {
		c.End = config.ParseTimecode(o.End)
	}
	if set["use-audio-duration"] {
		c.UseAudioDuration = o.UseAudioDuration
	}

	setInt(set, "fps", &c.FPS, o.FPS)
	setInt(set, "width", &c.Width, o.Width)
	setInt(set, "height", &c.Height, o.Height)

	if set["background"] {
		c.Background = config.BackgroundMode(o.Background)
	}
	setFloat(set, "blur-radius", &c.BlurRadius, o.BlurRadius)
	if set["fit"] {
		c.Fit = config.FitMode(o.Fit)
	}
	if set["background-color"] {
		rgb, err := config.RGBFromHex(o.BackgroundColor)
		if err != nil {
			return c, fmt.Errorf("--background-color: %w", err)
		}
		c.BackgroundColor = &rgb
	}

	setFloat(set, "image-width", &c.ImageWidthPercent, o.ImageWidth)
	setInt(set, "corner-radius", &c.CornerRadius, o.CornerRadius)
	setInt(set, "x", &c.X, o.X)
	setInt(set, "y", &c.Y, o.Y)

	setInt(set, "shadow-offset-x", &c.Shadow.OffsetX, o.ShadowOffsetX)
	setInt(set, "shadow-offset-y", &c.Shadow.OffsetY, o.ShadowOffsetY)
	setFloat(set, "shadow-blur", &c.Shadow.BlurRadius, o.ShadowBlur)
	setFloat(set, "shadow-darkness", &c.Shadow.Darkness, o.ShadowDarkness)

	if set["no-waveform"] {
		c.Waveform.Enabled = !o.NoWaveform
	}
	if set["analysis"] {
		c.Waveform.Mode = config.AnalysisMode(o.Analysis)
	}
	setInt(set, "bars", &c.Waveform.Bars, o.Bars)
	setFloat(set, "bar-spacing", &c.Waveform.SpacingRatio, o.BarSpacing)
	setFloat(set, "smoothing", &c.Waveform.Smoothing, o.Smoothing)
	if set["wave-color-mode"] {
		c.Waveform.ColorMode = config.ColorMode(o.WaveColorMode)
	}
	if set["wave-color"] {
		rgb, err := config.RGBFromHex(o.WaveColor)
		if err != nil {
			return c, fmt.Errorf("--wave-color: %w", err)
		}
		c.Waveform.Color = rgb
		if !set["wave-color-mode"] {
			c.Waveform.ColorMode = config.ColorCustom
		}
	}
	setFloat(set, "wave-height", &c.Waveform.HeightPercent, o.WaveHeight)
	setInt(set, "wave-spacing", &c.Waveform.Spacing, o.WaveSpacing)
	setFloat(set, "min-db", &c.Waveform.MinDB, o.MinDB)
	setFloat(set, "max-db", &c.Waveform.MaxDB, o.MaxDB)

	return c, nil
}

func setInt(set map[string]bool, name string, dst *int, v int) {
	if set[name] {
		*dst = v
	}
}

func setFloat(set map[string]bool, name string, dst *float64, v float64) {
	if set[name] {
		*dst = v
	}
}

// posterPath puts the poster next to the video with a .png extension
func posterPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".png"
}
