package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/jivereel/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// posterTextColor returns the brand yellow used for the poster title
func posterTextColor() color.RGBA {
	return color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255}
}

// GeneratePoster writes a PNG cover image: the first frame of the video
// with the title set above the image.
func GeneratePoster(outputPath string, a *Assets, title string) error {
	img := ComposeImage(0, a)

	title = cases.Title(language.English).String(strings.TrimSpace(title))
	if title != "" {
		parsedFont, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return fmt.Errorf("failed to parse font: %w", err)
		}

		line1, line2 := splitTitle(title)
		area := posterTextArea(a)
		fontSize := findOptimalFontSize(parsedFont, line1, line2, area)

		face := truetype.NewFace(parsedFont, &truetype.Options{
			Size: fontSize,
			DPI:  72,
		})
		defer face.Close()

		drawPosterText(img, face, line1, line2, area)
	}

	if err := SavePNG(outputPath, img); err != nil {
		return fmt.Errorf("failed to save poster: %w", err)
	}
	debugf("renderer: poster %q written to %s", title, outputPath)
	return nil
}

// posterTextArea is the band above the image that the title may occupy.
// When the image sits near the top the band falls back to the top fifth
// of the canvas.
func posterTextArea(a *Assets) image.Rectangle {
	c := a.Config
	bottom := a.Layout.Image.Min.Y - config.PosterMargin/2
	if bottom < c.Height/5 {
		bottom = c.Height / 5
	}
	return image.Rect(config.PosterMargin, config.PosterMargin, c.Width-config.PosterMargin, bottom)
}

// splitTitle splits the title into 2 roughly equal lines
func splitTitle(title string) (string, string) {
	words := strings.Fields(title)
	if len(words) == 0 {
		return "", ""
	}
	if len(words) == 1 {
		return words[0], ""
	}

	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

// findOptimalFontSize finds the largest font size at which both lines fit
// the width of area and line 2 ends above its bottom edge.
func findOptimalFontSize(parsedFont *truetype.Font, line1, line2 string, area image.Rectangle) float64 {
	for size := config.PosterMaxFontSize; size > 10.0; size -= 2.0 {
		face := truetype.NewFace(parsedFont, &truetype.Options{
			Size: size,
			DPI:  72,
		})

		width1, bounds1 := measureText(face, line1)
		width2, bounds2 := measureText(face, line2)
		face.Close()

		if width1 > area.Dx() || width2 > area.Dx() {
			continue
		}

		lineSpacing := int(size * 0.5)
		height1 := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
		height2 := (bounds2.Max.Y - bounds2.Min.Y).Ceil()

		if area.Min.Y+height1+lineSpacing+height2 <= area.Max.Y {
			return size
		}
	}

	return 10.0
}

// measureText returns the width and bounds of rendered text. Min.Y of the
// bounds is negative (ascent) and Max.Y positive (descent).
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	return width, bounds
}

// drawPosterText draws the two title lines centred on the canvas with a
// slight clockwise tilt, the highest point of the text touching the top
// of area.
func drawPosterText(img *image.RGBA, face font.Face, line1, line2 string, area image.Rectangle) {
	width1, bounds1 := measureText(face, line1)
	width2, bounds2 := measureText(face, line2)

	metrics := face.Metrics()
	fontSize := float64(metrics.Height) / 64.0
	lineSpacing := int(fontSize * 0.5)

	height1 := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
	height2 := (bounds2.Max.Y - bounds2.Min.Y).Ceil()
	totalHeight := height1 + lineSpacing + height2

	// Oversized scratch canvas so the rotation never clips
	tempSize := int(float64(max(width1, width2)+totalHeight) * 1.5)
	tempImg := image.NewRGBA(image.Rect(0, 0, tempSize, tempSize))
	tempCenterY := tempSize / 2

	line1VisualTop := tempCenterY - totalHeight/2
	line1BaselineY := line1VisualTop - bounds1.Min.Y.Ceil()
	line2VisualTop := line1VisualTop + height1 + lineSpacing
	line2BaselineY := line2VisualTop - bounds2.Min.Y.Ceil()

	drawCenteredLine(tempImg, face, line1, tempSize, line1BaselineY)
	drawCenteredLine(tempImg, face, line2, tempSize, line2BaselineY)

	angle := -config.PosterTextRotationDegrees * math.Pi / 180.0
	cos, sin := math.Cos(angle), math.Sin(angle)
	cx, cy := float64(tempSize)/2.0, float64(tempSize)/2.0

	// Rotate about the scratch canvas centre
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	rotatedImg := image.NewRGBA(tempImg.Bounds())
	draw.BiLinear.Transform(rotatedImg, m, tempImg, tempImg.Bounds(), draw.Over, nil)

	// The top-right corner of line 1 ends up highest after a clockwise turn
	topRightX := float64(width1) / 2.0
	topRightY := float64(line1VisualTop) - cy
	highestPointY := sin*topRightX + cos*topRightY + cy

	destX := (img.Rect.Dx() - tempSize) / 2
	destY := int(float64(area.Min.Y) - highestPointY)

	destRect := image.Rect(destX, destY, destX+tempSize, destY+tempSize)
	draw.Draw(img, destRect, rotatedImg, image.Point{}, draw.Over)
}

// drawCenteredLine draws a line of text horizontally centred on img
func drawCenteredLine(img *image.RGBA, face font.Face, text string, imgWidth, baselineY int) {
	if text == "" {
		return
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(posterTextColor()),
		Face: face,
	}

	textWidth, _ := measureText(face, text)
	d.Dot = freetype.Pt((imgWidth-textWidth)/2, baselineY)
	d.DrawString(text)
}
