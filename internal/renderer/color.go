package renderer

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/linuxmatters/jivereel/internal/config"
)

// contrastThreshold is the minimum luminance gap for a colour to count as
// distinct from the background.
const contrastThreshold = 60.0

// PredominantColor returns the alpha-masked mean colour of the image at
// path. Missing, undecodable or fully transparent images give black.
func PredominantColor(path string) config.RGB {
	img, err := LoadImage(path)
	if err != nil {
		warnf("cannot read image for predominant colour, using black: %v", err)
		return config.Black
	}
	c, ok := meanColor(img)
	if !ok {
		warnf("image %s is fully transparent, using black", path)
		return config.Black
	}
	debugf("renderer: predominant colour of %s is %s", path, c.Hex())
	return c
}

// meanColor averages the straight-alpha RGB of every pixel whose alpha is
// non-zero; the alpha channel acts as a mask. It reports false when no
// pixel is visible.
func meanColor(img image.Image) (config.RGB, bool) {
	n := imaging.Clone(img)

	var sumR, sumG, sumB, count uint64
	for i := 0; i+3 < len(n.Pix); i += 4 {
		if n.Pix[i+3] == 0 {
			continue
		}
		sumR += uint64(n.Pix[i])
		sumG += uint64(n.Pix[i+1])
		sumB += uint64(n.Pix[i+2])
		count++
	}
	if count == 0 {
		return config.Black, false
	}
	return config.RGB{
		R: uint8(sumR / count),
		G: uint8(sumG / count),
		B: uint8(sumB / count),
	}, true
}

// regionMean is the truncated mean RGB of r on an opaque canvas.
func regionMean(img *image.RGBA, r image.Rectangle) config.RGB {
	var sumR, sumG, sumB uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			sumR += uint64(row[i])
			sumG += uint64(row[i+1])
			sumB += uint64(row[i+2])
		}
	}
	n := uint64(r.Dx() * r.Dy())
	return config.RGB{R: uint8(sumR / n), G: uint8(sumG / n), B: uint8(sumB / n)}
}

// ContrastColor picks a bar colour that stands out against bg. It tries the
// inverted colour first, then a light or dark complementary hue, and finally
// falls back to black or white.
func ContrastColor(bg config.RGB) config.RGB {
	bgLum := bg.Luminance()

	inv := config.RGB{R: 255 - bg.R, G: 255 - bg.G, B: 255 - bg.B}
	if math.Abs(bgLum-inv.Luminance()) > contrastThreshold {
		return inv
	}

	h, l, s := rgbToHLS(float64(bg.R)/255, float64(bg.G)/255, float64(bg.B)/255)
	h = math.Mod(h+0.5, 1)
	if l < 0.5 {
		l = 0.8
	} else {
		l = 0.2
	}
	s = math.Max(0.5, s)

	r, g, b := hlsToRGB(h, l, s)
	comp := config.RGB{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255)}
	if math.Abs(bgLum-comp.Luminance()) > contrastThreshold {
		return comp
	}

	if bgLum > 128 {
		return config.Black
	}
	return config.White
}

// rgbToHLS converts channels in [0,1] to hue, lightness and saturation,
// all in [0,1].
func rgbToHLS(r, g, b float64) (h, l, s float64) {
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	l = (maxc + minc) / 2
	if maxc == minc {
		return 0, l, 0
	}

	delta := maxc - minc
	if l <= 0.5 {
		s = delta / (maxc + minc)
	} else {
		s = delta / (2 - maxc - minc)
	}

	rc := (maxc - r) / delta
	gc := (maxc - g) / delta
	bc := (maxc - b) / delta
	switch {
	case r == maxc:
		h = bc - gc
	case g == maxc:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	h = math.Mod(h/6, 1)
	if h < 0 {
		h++
	}
	return h, l, s
}

func hlsToRGB(h, l, s float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueChannel(m1, m2, h+1.0/3), hueChannel(m1, m2, h), hueChannel(m1, m2, h-1.0/3)
}

func hueChannel(m1, m2, hue float64) float64 {
	hue = math.Mod(hue, 1)
	if hue < 0 {
		hue++
	}
	switch {
	case hue < 1.0/6:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-hue)*6
	}
	return m1
}
