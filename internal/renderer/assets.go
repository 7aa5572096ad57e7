package renderer

import (
	"image"
	"image/draw"
	"time"

	"github.com/linuxmatters/jivereel/internal/audio"
	"github.com/linuxmatters/jivereel/internal/config"
)

// Assets is everything a frame needs that does not depend on time. It is
// built once by Precompute and only read afterwards, so any number of
// goroutines may compose frames from the same Assets.
type Assets struct {
	Config config.RenderConfig // Normalised

	SolidColor config.RGB   // Configured background colour or the image's predominant colour
	Background *image.NRGBA // Nil when the blur source could not be read
	Foreground *image.NRGBA // Nil when the image could not be read
	Shadow     *image.NRGBA // Silhouette clipped to the rounded corners
	Layout     Layout
	Base       *image.RGBA // Background, shadow and image flattened
	BarColor   config.RGB  // Resolved against Base under the waveform area

	Amplitudes audio.AmplitudeTable
	Analysis   *audio.Analysis // Nil when the waveform is disabled
	Frames     int

	PrecomputeTime time.Duration
}

// Precompute normalises c, then loads and prepares every static layer and
// the amplitude table. Unreadable image or audio files degrade to safe
// defaults with a warning; only an unrepresentable configuration is an
// error. progress, when non-nil, receives audio analysis updates.
func Precompute(c config.RenderConfig, progress audio.ProgressCallback) (*Assets, error) {
	start := time.Now()

	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	a := &Assets{Config: c, Frames: c.FrameCount()}

	src, err := LoadImage(c.ImagePath)
	if err != nil {
		warnf("cannot read image, using a plain background: %v", err)
		src = nil
	}

	a.SolidColor = config.Black
	if src != nil {
		if mean, ok := meanColor(src); ok {
			a.SolidColor = mean
		} else {
			warnf("image %s is fully transparent, using black", c.ImagePath)
		}
	}
	if c.BackgroundColor != nil {
		a.SolidColor = *c.BackgroundColor
	}

	a.Background = BuildBackground(c, src, a.SolidColor)

	var imgW, imgH int
	if src != nil {
		a.Foreground, a.Shadow = ProcessForeground(c, src, ShadowColor(c, a.SolidColor))
		if a.Foreground != nil {
			imgW, imgH = a.Foreground.Rect.Dx(), a.Foreground.Rect.Dy()
		}
		if a.Shadow != nil && c.CornerRadius > 0 {
			maskAlpha(a.Shadow, RoundedMask(imgW, imgH, c.CornerRadius))
		}
	}
	a.Layout = ComputeLayout(c, imgW, imgH)

	if c.Waveform.Enabled {
		a.Analysis = audio.ExtractAmplitudes(audio.RequestFromConfig(c), progress)
		a.Amplitudes = a.Analysis.Table
	}

	a.Base = a.composeStatic()
	a.BarColor = a.resolveBarColor()
	a.PrecomputeTime = time.Since(start)

	debugf("renderer: precomputed %d frames, image %v, wave %v, bar colour %s in %s",
		a.Frames, a.Layout.Image, a.Layout.Wave, a.BarColor.Hex(), a.PrecomputeTime)
	return a, nil
}

// composeStatic paints the background, the image shadow and the image onto
// a new canvas.
func (a *Assets) composeStatic() *image.RGBA {
	c := a.Config
	canvas := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))

	if a.Background != nil && a.Background.Rect.Eq(canvas.Rect) {
		// Background is opaque so straight and premultiplied bytes agree
		copy(canvas.Pix, a.Background.Pix)
	} else {
		fillSolid(canvas, a.SolidColor)
	}

	if a.Shadow != nil {
		at := a.Layout.Image.Min.Add(image.Pt(c.Shadow.OffsetX, c.Shadow.OffsetY))
		paste(canvas, a.Shadow, at)
	}
	if a.Foreground != nil {
		paste(canvas, a.Foreground, a.Layout.Image.Min)
	}
	return canvas
}

// resolveBarColor returns the bar colour for the configured colour mode.
// Contrast mode samples the static canvas under the waveform area.
func (a *Assets) resolveBarColor() config.RGB {
	wf := a.Config.Waveform
	switch wf.ColorMode {
	case config.ColorWhite:
		return config.White
	case config.ColorBlack:
		return config.Black
	case config.ColorContrast:
		region := a.Layout.Wave.Intersect(a.Base.Rect)
		if region.Empty() {
			return ContrastColor(a.SolidColor)
		}
		sample := regionMean(a.Base, region)
		debugf("renderer: waveform area averages %s", sample.Hex())
		return ContrastColor(sample)
	default:
		return wf.Color
	}
}

// paste composites src over dst with its top-left corner at at.
func paste(dst *image.RGBA, src *image.NRGBA, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Rect.Size())}
	draw.Draw(dst, r, src, src.Rect.Min, draw.Over)
}

func fillSolid(img *image.RGBA, c config.RGB) {
	if len(img.Pix) == 0 {
		return
	}
	px := [4]uint8{c.R, c.G, c.B, 255}
	copy(img.Pix, px[:])
	// Double the filled prefix until the buffer is full
	for n := 4; n < len(img.Pix); n *= 2 {
		copy(img.Pix[n:], img.Pix[:n])
	}
}
