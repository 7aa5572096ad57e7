package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/linuxmatters/jivereel/internal/config"
	"github.com/linuxmatters/jivereel/internal/encoder"
	"github.com/linuxmatters/jivereel/internal/renderer"
)

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 4), 40, uint8(y * 4), 255})
		}
	}
	path := filepath.Join(dir, "cover.png")
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

func writeWAV(t *testing.T, dir string, seconds float64) string {
	t.Helper()
	const sr = 8000
	path := filepath.Join(dir, "track.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, int(seconds*sr))
	for i := range data {
		data[i] = int(12000 * math.Sin(2*math.Pi*330*float64(i)/sr))
	}
	enc := wav.NewEncoder(f, sr, 16, 1, 1)
	buf := &goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: sr}, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) config.RenderConfig {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.ImagePath = writePNG(t, dir)
	c.AudioPath = writeWAV(t, dir, 3)
	c.OutputPath = filepath.Join(dir, "out.mp4")
	c.Width, c.Height, c.FPS = 96, 160, 10
	c.Start, c.End = 0.5, 2
	c.BlurRadius = 4
	c.CornerRadius = 6
	c.Shadow.BlurRadius = 2
	c.Waveform.Bars = 8
	c.Waveform.Spacing = 10
	c.Waveform.Mode = config.AnalysisRMS
	return c
}

func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	var got []string
	old := WarnLog
	WarnLog = func(format string, args ...interface{}) {
		got = append(got, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() { WarnLog = old })
	return &got
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(encoder.FFmpegPath); err != nil {
		t.Skip("ffmpeg not on PATH")
	}
}

func leftovers(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".jivereel-*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestResolveAudioWindow(t *testing.T) {
	base := testConfig(t)

	testCases := []struct {
		name      string
		use       bool
		audioPath string
		wantEnd   float64
		warnings  int
	}{
		{"flag off", false, base.AudioPath, 2, 0},
		{"audio length", true, base.AudioPath, 3, 0},
		{"unreadable audio", true, filepath.Join(t.TempDir(), "missing.wav"), 2, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			warnings := captureWarnings(t)
			c := base
			c.UseAudioDuration = tc.use
			c.AudioPath = tc.audioPath

			got := ResolveAudioWindow(c)
			if math.Abs(got.End-tc.wantEnd) > 1e-3 {
				t.Errorf("End = %.4f, want %.4f", got.End, tc.wantEnd)
			}
			if got.Start != c.Start {
				t.Errorf("Start changed to %.3f", got.Start)
			}
			if len(*warnings) != tc.warnings {
				t.Errorf("warnings = %q, want %d", *warnings, tc.warnings)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Workers: 3}
	if o.workers() != 3 || o.batchSize() != 12 {
		t.Errorf("workers %d batch %d, want 3 and 12", o.workers(), o.batchSize())
	}
	o = Options{Workers: 2, BatchSize: 5}
	if o.batchSize() != 5 {
		t.Errorf("batch = %d, want 5", o.batchSize())
	}
	if (Options{}).workers() < 1 {
		t.Error("default workers must be positive")
	}
}

func TestRender_RejectsBeforeEncoding(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	noOutput := testConfig(t)
	noOutput.OutputPath = ""

	badFPS := testConfig(t)
	badFPS.FPS = 0

	testCases := []struct {
		name string
		ctx  context.Context
		cfg  config.RenderConfig
		want error
	}{
		{"cancelled context", cancelled, testConfig(t), context.Canceled},
		{"no output path", context.Background(), noOutput, config.ErrInvalidConfig},
		{"invalid fps", context.Background(), badFPS, config.ErrInvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Render(tc.ctx, tc.cfg, Options{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if res != nil {
				t.Error("expected nil result")
			}
			if tc.cfg.OutputPath != "" {
				if _, err := os.Stat(tc.cfg.OutputPath); !os.IsNotExist(err) {
					t.Error("output must not be created")
				}
			}
		})
	}
}

func TestBatchProgress(t *testing.T) {
	a, err := renderer.Precompute(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	frames := make([]*renderer.Frame, 4)
	for i := range frames {
		frames[i] = renderer.ComposeIndex(4+i, a)
	}

	p := batchProgress(a, frames, 4, 12, Options{PreviewEvery: 3}, filepath.Join(t.TempDir(), "none.mp4"), time.Now())
	if p.Frame != 8 || p.TotalFrames != 12 {
		t.Errorf("progress %d/%d, want 8/12", p.Frame, p.TotalFrames)
	}
	if p.Preview == nil || p.Preview.Index != 6 {
		t.Errorf("preview = %+v, want frame 6", p.Preview)
	}
	want := a.Amplitudes.Row(7)
	if len(p.Amplitudes) != len(want) {
		t.Fatalf("amplitudes len %d, want %d", len(p.Amplitudes), len(want))
	}
	for i := range want {
		if p.Amplitudes[i] != want[i] {
			t.Errorf("amplitude %d = %v, want %v", i, p.Amplitudes[i], want[i])
		}
	}
	p.Amplitudes[0] = -1
	if a.Amplitudes.Row(7)[0] == -1 {
		t.Error("progress must not alias the amplitude table")
	}
	if p.FileSize != 0 {
		t.Errorf("FileSize = %d for a missing file", p.FileSize)
	}

	p = batchProgress(a, frames, 4, a.Frames, Options{}, "", time.Now())
	if p.Preview != nil {
		t.Error("preview disabled but set")
	}
}

func TestRender_EndToEnd(t *testing.T) {
	requireFFmpeg(t)
	c := testConfig(t)
	dir := filepath.Dir(c.OutputPath)
	poster := filepath.Join(dir, "out.png")

	var updates []Progress
	precomputed := false
	res, err := Render(context.Background(), c, Options{
		Workers:      3,
		BatchSize:    4,
		PreviewEvery: 5,
		PosterPath:   poster,
		PosterTitle:  "End To End",
		Precomputed:  func(*renderer.Assets) { precomputed = true },
		Progress:     func(p Progress) { updates = append(updates, p) },
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !precomputed {
		t.Error("Precomputed callback not called")
	}
	if res.Frames != 15 {
		t.Errorf("Frames = %d, want 15", res.Frames)
	}
	if len(updates) != 4 {
		t.Fatalf("progress updates = %d, want 4", len(updates))
	}
	for i, u := range updates {
		want := min(4*(i+1), 15)
		if u.Frame != want || u.TotalFrames != 15 {
			t.Errorf("update %d = %d/%d, want %d/15", i, u.Frame, u.TotalFrames, want)
		}
	}
	if res.FileSize == 0 {
		t.Error("empty output")
	}
	if res.Output == nil {
		t.Fatal("output was not probed")
	}
	video, ok := res.Output.Video()
	if !ok || video.Width != 96 || video.Height != 160 {
		t.Errorf("video track = %+v", video)
	}
	if !res.Output.HasAudio() {
		t.Error("expected audio track")
	}
	if _, err := os.Stat(poster); err != nil {
		t.Errorf("poster not written: %v", err)
	}
	if res.PosterTime == 0 || res.TotalTime < res.ComposeTime {
		t.Errorf("implausible timings %+v", res)
	}
	if left := leftovers(t, dir); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestAudioFrames(t *testing.T) {
	testCases := []struct {
		name     string
		seconds  float64
		waveform bool
		want     int
		wantOK   bool
	}{
		{"audio covers the clip", 3, true, 15, true},
		{"audio ends early", 1.5, true, 10, true},
		{"audio ends early without waveform", 1.5, false, 10, true},
		{"audio ends before the clip", 0.4, true, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			captureWarnings(t)
			c := testConfig(t)
			c.AudioPath = writeWAV(t, t.TempDir(), tc.seconds)
			c.Waveform.Enabled = tc.waveform

			a, err := renderer.Precompute(c, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := audioFrames(a)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("audioFrames = %d, %v; want %d, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestRender_ShortAudio(t *testing.T) {
	requireFFmpeg(t)
	warnings := captureWarnings(t)
	c := testConfig(t)
	c.AudioPath = writeWAV(t, t.TempDir(), 1)
	c.Start, c.End = 0, 2
	dir := filepath.Dir(c.OutputPath)

	var last Progress
	res, err := Render(context.Background(), c, Options{
		Workers:   2,
		BatchSize: 4,
		Progress:  func(p Progress) { last = p },
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if res.Frames != 10 {
		t.Errorf("Frames = %d, want 10", res.Frames)
	}
	if last.Frame != 10 || last.TotalFrames != 10 {
		t.Errorf("last progress %d/%d, want 10/10", last.Frame, last.TotalFrames)
	}
	if res.Output == nil {
		t.Fatal("output was not probed")
	}
	if math.Abs(res.Output.Duration-1) > 0.15 {
		t.Errorf("duration = %.3fs, want about 1s", res.Output.Duration)
	}
	if !res.Output.HasAudio() {
		t.Error("expected audio track")
	}
	found := false
	for _, w := range *warnings {
		found = found || strings.Contains(w, "shortened")
	}
	if !found {
		t.Errorf("warnings = %q", *warnings)
	}
	if left := leftovers(t, dir); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestRender_MissingAudio(t *testing.T) {
	requireFFmpeg(t)
	warnings := captureWarnings(t)
	c := testConfig(t)
	c.AudioPath = filepath.Join(t.TempDir(), "gone.wav")

	res, err := Render(context.Background(), c, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Output != nil && res.Output.HasAudio() {
		t.Error("no audio track expected")
	}
	found := false
	for _, w := range *warnings {
		found = found || strings.Contains(w, "without sound")
	}
	if !found {
		t.Errorf("warnings = %q", *warnings)
	}
}

func TestRender_Cancelled(t *testing.T) {
	requireFFmpeg(t)
	c := testConfig(t)
	dir := filepath.Dir(c.OutputPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := Render(ctx, c, Options{
		Workers:   1,
		BatchSize: 2,
		Progress:  func(Progress) { cancel() },
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(c.OutputPath); !os.IsNotExist(err) {
		t.Error("cancelled render must not produce output")
	}
	if left := leftovers(t, dir); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}
