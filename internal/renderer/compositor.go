package renderer

import (
	"image"
)

// ComposeFrame renders the frame at time t (seconds from the window
// start). It reads a and never modifies it, so concurrent calls are safe.
func ComposeFrame(t float64, a *Assets) *Frame {
	return ComposeIndex(FrameIndex(t, a.Config.FPS), a)
}

// ComposeIndex renders frame idx, the frame shown from idx/fps seconds.
func ComposeIndex(idx int, a *Assets) *Frame {
	canvas := getCanvas(a.Base.Rect)
	defer putCanvas(canvas)

	a.composeOnto(canvas, idx)

	f := NewFrame(idx, a.Config.Width, a.Config.Height)
	packRGB(f, canvas)
	return f
}

// ComposeImage is ComposeFrame returning a freshly allocated image, for
// snapshots and posters.
func ComposeImage(t float64, a *Assets) *image.RGBA {
	canvas := image.NewRGBA(a.Base.Rect)
	a.composeOnto(canvas, FrameIndex(t, a.Config.FPS))
	return canvas
}

// composeOnto overwrites canvas with the static layers then draws the bars
// for frame idx, if the waveform is enabled and the frame has a row.
func (a *Assets) composeOnto(canvas *image.RGBA, idx int) {
	copy(canvas.Pix, a.Base.Pix)

	c := a.Config
	if !c.Waveform.Enabled || idx < 0 || idx >= a.Amplitudes.Frames() {
		return
	}

	wave := a.Layout.Wave
	bars := DrawBars(a.Amplitudes.Row(idx), wave.Dx(), wave.Dy(), c.Waveform.SpacingRatio, a.BarColor)
	if bars == nil {
		return
	}

	shadow := barShadow(bars, c.Shadow.BlurRadius)
	paste(canvas, shadow, wave.Min.Add(image.Pt(c.Shadow.OffsetX, c.Shadow.OffsetY)))
	paste(canvas, bars, wave.Min)
}
