package renderer

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/linuxmatters/jivereel/internal/config"
)

// BarGeometry is the horizontal layout of the bars inside the waveform area.
type BarGeometry struct {
	Width   int // Width of each bar
	Spacing int // Gap between adjacent bars
	StartX  int // Left edge of the first bar
}

// ComputeBarGeometry divides a canvas of the given width into bars slots.
func ComputeBarGeometry(canvasWidth, bars int, spacingRatio float64) BarGeometry {
	slot := float64(canvasWidth) / float64(bars)
	barWidth := int(slot / (1 + spacingRatio))
	// Spacing follows the unclamped width, so sub-pixel slots get no gap.
	spacing := int(float64(barWidth) * spacingRatio)
	if barWidth < 1 {
		barWidth = 1
	}
	if spacing < 0 {
		spacing = 0
	}
	total := bars*barWidth + (bars-1)*spacing
	return BarGeometry{
		Width:   barWidth,
		Spacing: spacing,
		StartX:  floorDiv(canvasWidth-total, 2),
	}
}

// DrawBars paints one bar per amplitude onto a transparent w×h canvas.
// Bars grow upward from the bottom edge; an amplitude that rounds to less
// than one pixel draws nothing. It returns nil when there is nothing to
// lay out.
func DrawBars(amplitudes []float64, w, h int, spacingRatio float64, col config.RGB) *image.NRGBA {
	if len(amplitudes) == 0 || w <= 0 || h <= 0 {
		return nil
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	geo := ComputeBarGeometry(w, len(amplitudes), spacingRatio)
	pixel := [4]uint8{col.R, col.G, col.B, 255}

	x := geo.StartX
	for _, amp := range amplitudes {
		barH := int(float64(h) * amp)
		if barH >= 1 {
			fillRect(canvas, image.Rect(x, h-barH, x+geo.Width, h), pixel)
		}
		x += geo.Width + geo.Spacing
	}
	return canvas
}

// barShadow turns the bar silhouette into a translucent black layer blurred
// like the image shadow.
func barShadow(bars *image.NRGBA, blurRadius float64) *image.NRGBA {
	shadow := image.NewNRGBA(bars.Bounds())
	for i := 3; i < len(bars.Pix); i += 4 {
		if bars.Pix[i] != 0 {
			shadow.Pix[i] = uint8(uint16(bars.Pix[i]) * config.BarShadowAlpha / 255)
		}
	}
	if blurRadius > 0 {
		shadow = imaging.Blur(shadow, blurRadius)
	}
	return shadow
}

// fillRect sets every pixel of r, clipped to img, to pixel.
func fillRect(img *image.NRGBA, r image.Rectangle, pixel [4]uint8) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	rowLen := r.Dx() * 4
	first := img.Pix[img.PixOffset(r.Min.X, r.Min.Y):][:rowLen]
	for i := 0; i < rowLen; i += 4 {
		copy(first[i:i+4], pixel[:])
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		copy(img.Pix[off:off+rowLen], first)
	}
}
