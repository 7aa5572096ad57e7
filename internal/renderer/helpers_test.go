package renderer

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/jivereel/internal/config"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeToneWAV writes a mono 16-bit sine at half scale.
func writeToneWAV(t *testing.T, seconds, freq float64) string {
	t.Helper()
	const sr = 8000

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, int(seconds*sr))
	for i := range data {
		data[i] = int(0.5 * 32767 * math.Sin(2*math.Pi*freq*float64(i)/sr))
	}
	enc := wav.NewEncoder(f, sr, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sr},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// smallConfig is a 200x200 solid-background render of a red square.
func smallConfig(t *testing.T) config.RenderConfig {
	t.Helper()
	c := config.Default()
	c.ImagePath = writePNG(t, "red.png", uniformImage(128, 128, color.NRGBA{R: 255, A: 255}))
	c.AudioPath = writeToneWAV(t, 5, 440)
	c.Start, c.End = 0, 2
	c.FPS = 10
	c.Width, c.Height = 200, 200
	c.Background = config.BackgroundSolid
	c.Waveform.Enabled = false
	return c
}

func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	var got []string
	WarnLog = func(format string, args ...interface{}) {
		got = append(got, format)
	}
	t.Cleanup(func() { WarnLog = nil })
	return &got
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}
