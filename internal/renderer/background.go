package renderer

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/linuxmatters/jivereel/internal/config"
)

// BuildBackground produces the canvas-sized layer behind the image. Solid
// mode fills with solid. Blur mode fits src to the canvas and blurs it; it
// returns nil when src is nil so the compositor falls back to solid.
func BuildBackground(c config.RenderConfig, src image.Image, solid config.RGB) *image.NRGBA {
	if c.Background != config.BackgroundBlurImage {
		return imaging.New(c.Width, c.Height, color.NRGBA{R: solid.R, G: solid.G, B: solid.B, A: 255})
	}
	if src == nil {
		return nil
	}

	bg := fitToCanvas(src, c.Width, c.Height, c.Fit)
	if c.BlurRadius > 0 {
		bg = imaging.Blur(bg, c.BlurRadius)
	}
	opaque(bg)
	debugf("renderer: background %dx%d fit=%s blur=%.1f", c.Width, c.Height, c.Fit, c.BlurRadius)
	return bg
}

// fitToCanvas maps src onto a w×h canvas. Crop and fill scale to cover the
// canvas and trim the overflow evenly; stretch ignores the aspect ratio.
func fitToCanvas(src image.Image, w, h int, fit config.FitMode) *image.NRGBA {
	switch fit {
	case config.FitCrop, config.FitFill:
		return imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
	default:
		return imaging.Resize(src, w, h, imaging.Lanczos)
	}
}

// opaque discards the alpha channel, keeping the straight colour values.
func opaque(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
}
