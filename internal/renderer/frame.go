package renderer

import (
	"image"
	"math"
	"sync"
)

// Frame is one composed video frame as packed 8-bit RGB, row-major, with
// no padding between rows.
type Frame struct {
	Index  int
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates a black w×h frame.
func NewFrame(index, w, h int) *Frame {
	return &Frame{Index: index, Width: w, Height: h, Pix: make([]byte, w*h*3)}
}

// RGBA returns an opaque copy of the frame as an image.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i+2]
		img.Pix[j+3] = 255
	}
	return img
}

// RGBAt returns the colour of pixel (x, y).
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// FrameIndex maps a timestamp to its frame, floor(t * fps).
func FrameIndex(t float64, fps int) int {
	return int(math.Floor(t * float64(fps)))
}

// canvasPool recycles working canvases between ComposeFrame calls. Each
// canvas is owned by exactly one call at a time.
var canvasPool sync.Pool

func getCanvas(r image.Rectangle) *image.RGBA {
	if v := canvasPool.Get(); v != nil {
		if img := v.(*image.RGBA); img.Rect.Eq(r) {
			return img
		}
	}
	return image.NewRGBA(r)
}

func putCanvas(img *image.RGBA) {
	canvasPool.Put(img)
}

// packRGB drops the alpha channel of an opaque canvas into f.
func packRGB(f *Frame, img *image.RGBA) {
	for i, j := 0, 0; j < len(img.Pix); i, j = i+3, j+4 {
		f.Pix[i] = img.Pix[j]
		f.Pix[i+1] = img.Pix[j+1]
		f.Pix[i+2] = img.Pix[j+2]
	}
}
