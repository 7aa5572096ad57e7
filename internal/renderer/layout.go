package renderer

import (
	"image"

	"github.com/linuxmatters/jivereel/internal/config"
)

// Layout holds the resolved placement of the image and the waveform area
// on the canvas.
type Layout struct {
	Image image.Rectangle
	Wave  image.Rectangle
}

// ComputeLayout places an imgW×imgH image and the waveform area below it.
// Auto positions centre the image horizontally and centre the image plus
// waveform block vertically.
func ComputeLayout(c config.RenderConfig, imgW, imgH int) Layout {
	waveH := c.WaveHeight()

	x := c.X
	if x == config.AutoPosition {
		x = floorDiv(c.Width-imgW, 2)
	}

	y := c.Y
	if y == config.AutoPosition {
		total := imgH
		if c.Waveform.Enabled && waveH > 0 {
			total += c.Waveform.Spacing + waveH
		}
		y = floorDiv(c.Height-total, 2)
	}

	waveTop := y + imgH + c.Waveform.Spacing
	return Layout{
		Image: image.Rect(x, y, x+imgW, y+imgH),
		Wave:  image.Rect(x, waveTop, x+imgW, waveTop+waveH),
	}
}

// floorDiv rounds towards negative infinity so oversized content is
// centred the same way on both sides of zero.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
