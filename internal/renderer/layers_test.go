package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/linuxmatters/jivereel/internal/config"
)

func TestBuildBackground(t *testing.T) {
	src := uniformImage(300, 100, color.NRGBA{R: 40, G: 80, B: 120, A: 128})
	solid := config.RGB{R: 1, G: 2, B: 3}

	testCases := []struct {
		name    string
		mode    config.BackgroundMode
		fit     config.FitMode
		src     image.Image
		wantNil bool
		want    config.RGB
	}{
		{name: "solid ignores source", mode: config.BackgroundSolid, src: src, want: solid},
		{name: "blur stretch", mode: config.BackgroundBlurImage, fit: config.FitStretch, src: src, want: config.RGB{R: 40, G: 80, B: 120}},
		{name: "blur crop", mode: config.BackgroundBlurImage, fit: config.FitCrop, src: src, want: config.RGB{R: 40, G: 80, B: 120}},
		{name: "blur fill", mode: config.BackgroundBlurImage, fit: config.FitFill, src: src, want: config.RGB{R: 40, G: 80, B: 120}},
		{name: "blur without source", mode: config.BackgroundBlurImage, fit: config.FitStretch, wantNil: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := config.Default()
			c.Width, c.Height = 90, 160
			c.Background, c.Fit = tc.mode, tc.fit
			c.BlurRadius = 4

			bg := BuildBackground(c, tc.src, solid)
			if tc.wantNil {
				if bg != nil {
					t.Fatal("expected nil background")
				}
				return
			}
			if bg.Rect.Dx() != 90 || bg.Rect.Dy() != 160 {
				t.Fatalf("size = %v, want 90x160", bg.Rect)
			}
			px := bg.NRGBAAt(45, 80)
			if !near(px.R, tc.want.R, 1) || !near(px.G, tc.want.G, 1) || !near(px.B, tc.want.B, 1) || px.A != 255 {
				t.Errorf("centre pixel = %v, want opaque %v", px, tc.want)
			}
		})
	}
}

func TestFitToCanvas_CropKeepsCentre(t *testing.T) {
	// Left third red, middle green, right third blue
	src := image.NewNRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.NRGBA{A: 255}
			switch {
			case x < 100:
				c.R = 255
			case x < 200:
				c.G = 255
			default:
				c.B = 255
			}
			src.SetNRGBA(x, y, c)
		}
	}

	for _, fit := range []config.FitMode{config.FitCrop, config.FitFill} {
		out := fitToCanvas(src, 100, 100, fit)
		if out.Rect.Dx() != 100 || out.Rect.Dy() != 100 {
			t.Fatalf("%s: size %v", fit, out.Rect)
		}
		if px := out.NRGBAAt(50, 50); px.G < 250 || px.R > 5 || px.B > 5 {
			t.Errorf("%s: centre = %v, want the green middle third", fit, px)
		}
	}

	stretched := fitToCanvas(src, 100, 100, config.FitStretch)
	if px := stretched.NRGBAAt(5, 50); px.R < 250 {
		t.Errorf("stretch: left edge = %v, want red", px)
	}
}

func TestForegroundSize(t *testing.T) {
	testCases := []struct {
		name         string
		canvasW      int
		pct          float64
		src          image.Rectangle
		wantW, wantH int
	}{
		{name: "square", canvasW: 1080, pct: 65, src: image.Rect(0, 0, 500, 500), wantW: 702, wantH: 702},
		{name: "landscape", canvasW: 1080, pct: 50, src: image.Rect(0, 0, 1920, 1080), wantW: 540, wantH: 303},
		{name: "portrait", canvasW: 200, pct: 65, src: image.Rect(0, 0, 100, 300), wantW: 130, wantH: 390},
		{name: "empty source", canvasW: 200, pct: 65, src: image.Rectangle{}, wantW: 0, wantH: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := config.Default()
			c.Width, c.ImageWidthPercent = tc.canvasW, tc.pct
			w, h := ForegroundSize(c, tc.src)
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("ForegroundSize() = %dx%d, want %dx%d", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestRoundedMask(t *testing.T) {
	mask := RoundedMask(40, 30, 10)

	for _, p := range []image.Point{{0, 0}, {39, 0}, {0, 29}, {39, 29}} {
		if a := mask.AlphaAt(p.X, p.Y).A; a != 0 {
			t.Errorf("corner %v alpha = %d, want 0", p, a)
		}
	}
	for _, p := range []image.Point{{20, 15}, {10, 0}, {0, 10}, {39, 15}, {20, 29}} {
		if a := mask.AlphaAt(p.X, p.Y).A; a != 255 {
			t.Errorf("edge/inner %v alpha = %d, want 255", p, a)
		}
	}

	// Mirror symmetry
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if mask.AlphaAt(x, y) != mask.AlphaAt(39-x, 29-y) {
				t.Fatalf("mask not symmetric at (%d,%d)", x, y)
			}
		}
	}

	flat := RoundedMask(8, 8, 0)
	for i, a := range flat.Pix {
		if a != 255 {
			t.Fatalf("radius 0 pixel %d alpha = %d", i, a)
		}
	}
}

func TestProcessForeground(t *testing.T) {
	c := config.Default()
	c.Width = 200
	c.CornerRadius = 12
	c.Shadow.BlurRadius = 0

	src := uniformImage(64, 32, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	fg, shadow := ProcessForeground(c, src, config.RGB{R: 5, G: 6, B: 7})

	if fg.Rect.Dx() != 130 || fg.Rect.Dy() != 65 {
		t.Fatalf("foreground size = %v, want 130x65", fg.Rect)
	}
	if !shadow.Rect.Eq(fg.Rect) {
		t.Fatalf("shadow size %v differs from foreground %v", shadow.Rect, fg.Rect)
	}
	if a := fg.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("rounded corner alpha = %d, want 0", a)
	}
	if px := fg.NRGBAAt(65, 32); px.A != 255 || !near(px.G, 200, 1) {
		t.Errorf("centre = %v", px)
	}

	// Without blur the silhouette is the shadow colour under the image alpha
	if px := shadow.NRGBAAt(65, 32); px != (color.NRGBA{R: 5, G: 6, B: 7, A: 255}) {
		t.Errorf("shadow centre = %v", px)
	}
	if a := shadow.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("shadow corner alpha = %d, want 0", a)
	}
}

func TestShadowColor(t *testing.T) {
	solid := config.RGB{R: 200, G: 100, B: 51}

	c := config.Default()
	c.Background = config.BackgroundBlurImage
	if got := ShadowColor(c, solid); got != config.Black {
		t.Errorf("blur mode shadow = %v, want black", got)
	}

	c.Background = config.BackgroundSolid
	c.Shadow.Darkness = 0.5
	if got := ShadowColor(c, solid); got != (config.RGB{R: 100, G: 50, B: 25}) {
		t.Errorf("solid mode shadow = %v", got)
	}

	c.Shadow.Darkness = 2.5
	if got := ShadowColor(c, solid); got != config.Black {
		t.Errorf("darkness above one gives %v, want black", got)
	}
}

// TestComputeLayout_Centring checks that auto placement centres the image
// horizontally and that the waveform only moves it vertically.
func TestComputeLayout_Centring(t *testing.T) {
	testCases := []struct {
		name        string
		w, h        int
		imgW, imgH  int
		wave        bool
		wantX       int
		wantY       int
		wantWaveTop int
	}{
		{name: "default short with waveform", w: 1080, h: 1920, imgW: 702, imgH: 702, wave: true, wantX: 189, wantY: 357, wantWaveTop: 1274},
		{name: "default short without waveform", w: 1080, h: 1920, imgW: 702, imgH: 702, wave: false, wantX: 189, wantY: 609, wantWaveTop: 1526},
		{name: "odd sizes", w: 201, h: 301, imgW: 130, imgH: 130, wave: false, wantX: 35, wantY: 85, wantWaveTop: 430},
		{name: "image wider than canvas", w: 100, h: 100, imgW: 151, imgH: 50, wave: false, wantX: -26, wantY: 25, wantWaveTop: 290},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := config.Default()
			c.Width, c.Height = tc.w, tc.h
			c.Waveform.Enabled = tc.wave

			l := ComputeLayout(c, tc.imgW, tc.imgH)
			if l.Image.Min.X != tc.wantX || l.Image.Min.Y != tc.wantY {
				t.Errorf("image at %v, want (%d,%d)", l.Image.Min, tc.wantX, tc.wantY)
			}
			if l.Wave.Min.Y != tc.wantWaveTop {
				t.Errorf("wave top = %d, want %d", l.Wave.Min.Y, tc.wantWaveTop)
			}

			centre := 2*l.Image.Min.X + tc.imgW
			if d := centre - tc.w; d < -1 || d > 1 {
				t.Errorf("horizontal centre off by %d/2 px", d)
			}
			if l.Wave.Min.X != l.Image.Min.X || l.Wave.Dx() != tc.imgW {
				t.Errorf("wave rect %v not aligned with image %v", l.Wave, l.Image)
			}
		})
	}
}

func TestComputeLayout_Explicit(t *testing.T) {
	c := config.Default()
	c.X, c.Y = 12, 34
	l := ComputeLayout(c, 100, 50)
	if l.Image != image.Rect(12, 34, 112, 84) {
		t.Errorf("image = %v", l.Image)
	}
	if l.Wave != image.Rect(12, 84+config.WaveSpacing, 112, 84+config.WaveSpacing+288) {
		t.Errorf("wave = %v", l.Wave)
	}
}
