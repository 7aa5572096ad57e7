package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/linuxmatters/jivereel/internal/config"
)

// ForegroundSize is the resized image size: the configured share of the
// canvas width, with the height following the source aspect ratio.
func ForegroundSize(c config.RenderConfig, src image.Rectangle) (w, h int) {
	if src.Dx() <= 0 || src.Dy() <= 0 {
		return 0, 0
	}
	w = int(float64(c.Width) * c.ImageWidthPercent / 100)
	h = int(float64(w) * float64(src.Dy()) / float64(src.Dx()))
	return max(w, 1), max(h, 1)
}

// ProcessForeground resizes src, rounds its corners and builds the blurred
// shadow silhouette in shadowColor. Both layers have the same size.
func ProcessForeground(c config.RenderConfig, src image.Image, shadowColor config.RGB) (fg, shadow *image.NRGBA) {
	w, h := ForegroundSize(c, src.Bounds())
	if w == 0 || h == 0 {
		return nil, nil
	}

	fg = imaging.Resize(src, w, h, imaging.Lanczos)
	if c.CornerRadius > 0 {
		applyMask(fg, RoundedMask(w, h, c.CornerRadius))
	}

	shadow = image.NewNRGBA(fg.Bounds())
	for i := 0; i < len(fg.Pix); i += 4 {
		shadow.Pix[i] = shadowColor.R
		shadow.Pix[i+1] = shadowColor.G
		shadow.Pix[i+2] = shadowColor.B
		shadow.Pix[i+3] = fg.Pix[i+3]
	}
	if c.Shadow.BlurRadius > 0 {
		shadow = imaging.Blur(shadow, c.Shadow.BlurRadius)
	}
	debugf("renderer: foreground %dx%d radius=%d shadow=%s", w, h, c.CornerRadius, shadowColor.Hex())
	return fg, shadow
}

// ShadowColor is black over a blurred image, otherwise the solid colour
// darkened by the configured factor.
func ShadowColor(c config.RenderConfig, solid config.RGB) config.RGB {
	if c.Background == config.BackgroundBlurImage {
		return config.Black
	}
	k := 1 - math.Min(math.Max(c.Shadow.Darkness, 0), 1)
	return config.RGB{
		R: uint8(float64(solid.R) * k),
		G: uint8(float64(solid.G) * k),
		B: uint8(float64(solid.B) * k),
	}
}

// RoundedMask returns a w×h coverage mask of a rectangle with corners of
// the given radius. Edge pixels are anti-aliased by their centre distance.
// A radius of zero or less gives a fully opaque mask.
func RoundedMask(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	r := float64(min(radius, w/2, h/2))
	if r <= 0 {
		return mask
	}

	corner := int(math.Ceil(r))
	for y := 0; y < corner; y++ {
		for x := 0; x < corner; x++ {
			// Distance from the pixel centre to the corner arc centre
			dx := r - (float64(x) + 0.5)
			dy := r - (float64(y) + 0.5)
			cov := math.Max(0, math.Min(1, r-math.Hypot(dx, dy)+0.5))
			if dx <= 0 || dy <= 0 {
				cov = 1
			}
			a := uint8(math.Round(cov * 255))
			mask.SetAlpha(x, y, color.Alpha{A: a})
			mask.SetAlpha(w-1-x, y, color.Alpha{A: a})
			mask.SetAlpha(x, h-1-y, color.Alpha{A: a})
			mask.SetAlpha(w-1-x, h-1-y, color.Alpha{A: a})
		}
	}
	return mask
}

// applyMask replaces the alpha channel of img with mask.
func applyMask(img *image.NRGBA, mask *image.Alpha) {
	for i, a := range mask.Pix {
		img.Pix[i*4+3] = a
	}
}

// maskAlpha multiplies the alpha channel of img by mask in place.
func maskAlpha(img *image.NRGBA, mask *image.Alpha) {
	for i, a := range mask.Pix {
		p := &img.Pix[i*4+3]
		*p = uint8((uint16(*p)*uint16(a) + 127) / 255)
	}
}
