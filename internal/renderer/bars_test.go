package renderer

import (
	"image"
	"testing"

	"github.com/linuxmatters/jivereel/internal/config"
)

func TestComputeBarGeometry(t *testing.T) {
	testCases := []struct {
		name        string
		width, bars int
		ratio       float64
		want        BarGeometry
	}{
		{name: "default short", width: 702, bars: 50, ratio: 0.2, want: BarGeometry{Width: 11, Spacing: 2, StartX: 27}},
		{name: "no spacing", width: 100, bars: 10, ratio: 0, want: BarGeometry{Width: 10, Spacing: 0, StartX: 0}},
		{name: "narrow canvas keeps 1px bars", width: 10, bars: 40, ratio: 0.2, want: BarGeometry{Width: 1, Spacing: 0, StartX: -15}},
		{name: "wide spacing", width: 300, bars: 3, ratio: 1, want: BarGeometry{Width: 50, Spacing: 50, StartX: 25}},
		{name: "sub-pixel slot with wide spacing", width: 40, bars: 50, ratio: 1.5, want: BarGeometry{Width: 1, Spacing: 0, StartX: -5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeBarGeometry(tc.width, tc.bars, tc.ratio)
			if got != tc.want {
				t.Errorf("ComputeBarGeometry() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDrawBars(t *testing.T) {
	col := config.RGB{R: 9, G: 8, B: 7}
	amps := []float64{1, 0.5, 0, 0.01, 0.25}
	bars := DrawBars(amps, 100, 40, 0, col)

	if bars.Rect != image.Rect(0, 0, 100, 40) {
		t.Fatalf("canvas = %v", bars.Rect)
	}

	// Bars are 20px wide with no gap; expected heights per bar
	wantHeights := []int{40, 20, 0, 0, 10}
	for i, wantH := range wantHeights {
		x := i*20 + 10
		height := 0
		for y := 39; y >= 0; y-- {
			px := bars.NRGBAAt(x, y)
			if px.A == 0 {
				break
			}
			if px.R != 9 || px.G != 8 || px.B != 7 || px.A != 255 {
				t.Fatalf("bar %d pixel %v", i, px)
			}
			height++
		}
		if height != wantH {
			t.Errorf("bar %d height = %d, want %d", i, height, wantH)
		}
		// Nothing above the bar
		if y := 39 - wantH; y >= 0 && bars.NRGBAAt(x, y).A != 0 {
			t.Errorf("bar %d painted above its height", i)
		}
	}
}

func TestDrawBars_GapsStayTransparent(t *testing.T) {
	bars := DrawBars([]float64{1, 1, 1}, 300, 10, 1, config.White)
	// Geometry: 50px bars, 50px gaps, starting at 25
	for _, x := range []int{0, 24, 75, 124, 175, 224, 275, 299} {
		if a := bars.NRGBAAt(x, 5).A; a != 0 {
			t.Errorf("x=%d alpha = %d, want transparent", x, a)
		}
	}
	for _, x := range []int{25, 74, 125, 225, 274} {
		if a := bars.NRGBAAt(x, 5).A; a != 255 {
			t.Errorf("x=%d alpha = %d, want bar", x, a)
		}
	}
}

func TestDrawBars_Empty(t *testing.T) {
	if DrawBars(nil, 100, 10, 0.2, config.White) != nil {
		t.Error("no amplitudes should give nil")
	}
	if DrawBars([]float64{1}, 0, 10, 0.2, config.White) != nil {
		t.Error("zero width should give nil")
	}
}

func TestBarShadow(t *testing.T) {
	bars := DrawBars([]float64{1}, 10, 10, 0, config.White)
	shadow := barShadow(bars, 0)
	px := shadow.NRGBAAt(5, 5)
	if px.R != 0 || px.G != 0 || px.B != 0 || px.A != config.BarShadowAlpha {
		t.Errorf("shadow pixel = %v, want black at alpha %d", px, config.BarShadowAlpha)
	}
}
