package config

import (
	"errors"
	"fmt"
	"math"
)

// WarnLog receives configuration fallbacks. Nil discards them.
var WarnLog func(format string, args ...interface{})

func warnf(format string, args ...interface{}) {
	if WarnLog != nil {
		WarnLog(format, args...)
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid render configuration")

// BackgroundMode selects how the canvas behind the image is produced.
type BackgroundMode string

const (
	BackgroundSolid     BackgroundMode = "solid"
	BackgroundBlurImage BackgroundMode = "blur_image"
)

// FitMode maps the source aspect ratio onto the canvas for blur_image.
type FitMode string

const (
	FitStretch FitMode = "stretch"
	FitCrop    FitMode = "crop"
	FitFill    FitMode = "fill"
)

// AnalysisMode selects the audio feature driving the bars.
type AnalysisMode string

const (
	AnalysisMel AnalysisMode = "melspectrogram"
	AnalysisRMS AnalysisMode = "rms"
)

// ColorMode selects how the bar colour is resolved.
type ColorMode string

const (
	ColorCustom   ColorMode = "custom"
	ColorContrast ColorMode = "contrast"
	ColorWhite    ColorMode = "white"
	ColorBlack    ColorMode = "black"
)

// ShadowConfig describes the drop shadow under the image and the bars.
type ShadowConfig struct {
	OffsetX    int
	OffsetY    int
	BlurRadius float64
	Darkness   float64 // 0 keeps the base colour, 1 is black
}

// WaveformConfig describes the audio-reactive bars.
type WaveformConfig struct {
	Enabled       bool
	Mode          AnalysisMode
	Bars          int
	SpacingRatio  float64
	Smoothing     float64
	ColorMode     ColorMode
	Color         RGB
	HeightPercent float64
	MinDB         float64
	MaxDB         float64
	Spacing       int // Gap in pixels between image bottom and waveform top
}

// RenderConfig holds every parameter of one render.
type RenderConfig struct {
	ImagePath  string
	AudioPath  string
	OutputPath string

	// Audio window in seconds, [Start, End)
	Start            float64
	End              float64
	UseAudioDuration bool

	FPS    int
	Width  int
	Height int

	Background      BackgroundMode
	BlurRadius      float64
	Fit             FitMode
	BackgroundColor *RGB // nil uses the predominant colour of the image

	ImageWidthPercent float64
	CornerRadius      int
	X                 int
	Y                 int

	Shadow   ShadowConfig
	Waveform WaveformConfig
}

// Default returns the stock vertical-short configuration.
func Default() RenderConfig {
	return RenderConfig{
		Start:             0,
		End:               30,
		FPS:               FPS,
		Width:             Width,
		Height:            Height,
		Background:        BackgroundBlurImage,
		BlurRadius:        BlurRadius,
		Fit:               FitStretch,
		ImageWidthPercent: ImageWidthPercent,
		CornerRadius:      CornerRadius,
		X:                 AutoPosition,
		Y:                 AutoPosition,
		Shadow: ShadowConfig{
			OffsetX:    ShadowOffsetX,
			OffsetY:    ShadowOffsetY,
			BlurRadius: ShadowBlurRadius,
			Darkness:   ShadowDarkness,
		},
		Waveform: WaveformConfig{
			Enabled:       true,
			Mode:          AnalysisMel,
			Bars:          NumBars,
			SpacingRatio:  BarSpacingRatio,
			Smoothing:     SmoothingFactor,
			ColorMode:     ColorContrast,
			Color:         White,
			HeightPercent: WaveHeightPercent,
			MinDB:         MinDB,
			MaxDB:         MaxDB,
			Spacing:       WaveSpacing,
		},
	}
}

// Normalize is the single place where the audio window is clamped and
// unknown enum values are mapped to their fallbacks. It is idempotent.
func (c RenderConfig) Normalize() RenderConfig {
	if c.Start < 0 {
		c.Start = 0
	}
	if c.End <= c.Start {
		warnf("end time %.3fs is not after start %.3fs, using %.3fs", c.End, c.Start, c.Start+1)
		c.End = c.Start + 1
	}

	switch c.Background {
	case BackgroundSolid, BackgroundBlurImage:
	default:
		warnf("unknown background mode %q, using %q", c.Background, BackgroundSolid)
		c.Background = BackgroundSolid
	}

	switch c.Fit {
	case FitStretch, FitCrop, FitFill:
	default:
		warnf("unknown image fit %q, using %q", c.Fit, FitStretch)
		c.Fit = FitStretch
	}

	switch c.Waveform.ColorMode {
	case ColorCustom, ColorContrast, ColorWhite, ColorBlack:
	default:
		warnf("unknown waveform colour mode %q, using %q", c.Waveform.ColorMode, ColorCustom)
		c.Waveform.ColorMode = ColorCustom
	}

	if d := c.Shadow.Darkness; d < 0 || d > 1 || math.IsNaN(d) {
		clamped := math.Min(math.Max(d, 0), 1)
		if math.IsNaN(d) {
			clamped = ShadowDarkness
		}
		warnf("shadow darkness %.2f is outside [0, 1], using %.2f", d, clamped)
		c.Shadow.Darkness = clamped
	}

	if c.BackgroundColor != nil {
		bg := *c.BackgroundColor
		c.BackgroundColor = &bg
	}
	return c
}

// Validate reports parameters the renderer cannot represent at all.
func (c RenderConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidConfig, c.FPS)
	case c.Waveform.Enabled && c.Waveform.Bars < 1:
		return fmt.Errorf("%w: bar count %d", ErrInvalidConfig, c.Waveform.Bars)
	case c.ImageWidthPercent <= 0:
		return fmt.Errorf("%w: image width %.1f%%", ErrInvalidConfig, c.ImageWidthPercent)
	}
	return nil
}

// Duration is the length of the audio window in seconds.
func (c RenderConfig) Duration() float64 {
	return c.End - c.Start
}

// FrameCount is the number of output frames, round(duration * fps).
func (c RenderConfig) FrameCount() int {
	return FrameCount(c.Start, c.End, c.FPS)
}

// FrameCount returns round((end-start) * fps), never negative.
func FrameCount(start, end float64, fps int) int {
	n := int(math.Round((end - start) * float64(fps)))
	if n < 0 {
		return 0
	}
	return n
}

// WaveHeight is the maximum bar height in pixels, 0 when disabled.
func (c RenderConfig) WaveHeight() int {
	if !c.Waveform.Enabled {
		return 0
	}
	return int(float64(c.Height) * c.Waveform.HeightPercent / 100)
}
