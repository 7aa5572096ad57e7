package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testProfiles = `
default_profile: shorts
shorts:
  display_name: "YouTube Shorts"
  input_output:
    use_audio_duration: false
    audio_start_time: "0:33"
    audio_end_time: "1:26"
    output_filename: "short.mp4"
  video:
    fps: 30
  background:
    mode: solid
    color: "#102030"
  waveform:
    analysis_mode: rms
    color_mode: custom
    color: "#FF8800"
    bar_count: 32
Square:
  display_name: "Square post"
  video:
    width: 1080
    height: 1080
  image:
    width_percentage: 50
    x_position: 100
  shadow:
    darkness_factor: 0.8
`

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing profiles: %v", err)
	}
	return path
}

func TestLoadProfiles(t *testing.T) {
	set, err := LoadProfiles(writeProfiles(t, testProfiles))
	if err != nil {
		t.Fatalf("LoadProfiles() error: %v", err)
	}

	if set.Default != "shorts" {
		t.Errorf("Default = %q, want shorts", set.Default)
	}
	names := set.Names()
	if len(names) != 2 || names[0] != "shorts" || names[1] != "square" {
		t.Errorf("Names() = %v, want [shorts square]", names)
	}

	p, err := set.Get("")
	if err != nil {
		t.Fatalf("Get(\"\") error: %v", err)
	}
	if p.DisplayName != "YouTube Shorts" {
		t.Errorf("DisplayName = %q", p.DisplayName)
	}

	if _, err := set.Get("SQUARE"); err != nil {
		t.Errorf("Get is not case-insensitive: %v", err)
	}
	if _, err := set.Get("missing"); err == nil {
		t.Error("Get(missing) expected error")
	}
}

func TestProfile_Apply(t *testing.T) {
	set, err := LoadProfiles(writeProfiles(t, testProfiles))
	if err != nil {
		t.Fatalf("LoadProfiles() error: %v", err)
	}

	shorts, _ := set.Get("shorts")
	c, err := shorts.Apply(Default())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if c.Start != 33 || c.End != 86 {
		t.Errorf("window = [%v, %v), want [33, 86)", c.Start, c.End)
	}
	if c.FPS != 30 {
		t.Errorf("FPS = %d, want 30", c.FPS)
	}
	if c.Width != Width || c.Height != Height {
		t.Errorf("unset canvas changed to %dx%d", c.Width, c.Height)
	}
	if c.Background != BackgroundSolid {
		t.Errorf("Background = %q", c.Background)
	}
	if c.BackgroundColor == nil || *c.BackgroundColor != (RGB{0x10, 0x20, 0x30}) {
		t.Errorf("BackgroundColor = %v", c.BackgroundColor)
	}
	if c.Waveform.Mode != AnalysisRMS || c.Waveform.Bars != 32 {
		t.Errorf("waveform = %+v", c.Waveform)
	}
	if c.Waveform.Color != (RGB{0xFF, 0x88, 0x00}) {
		t.Errorf("wave colour = %+v", c.Waveform.Color)
	}
	if c.Waveform.Smoothing != SmoothingFactor {
		t.Errorf("unset smoothing changed to %v", c.Waveform.Smoothing)
	}
	if c.OutputPath != "short.mp4" {
		t.Errorf("OutputPath = %q", c.OutputPath)
	}

	square, _ := set.Get("square")
	c, err = square.Apply(Default())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if c.Width != 1080 || c.Height != 1080 || c.X != 100 || c.Y != AutoPosition {
		t.Errorf("square canvas/position = %dx%d @ %d,%d", c.Width, c.Height, c.X, c.Y)
	}
	if c.Shadow.Darkness != 0.8 {
		t.Errorf("Darkness = %v", c.Shadow.Darkness)
	}
}

func TestProfile_ApplyBadColor(t *testing.T) {
	bad := "not-a-colour"
	p := Profile{Name: "bad", Waveform: WaveformPreset{Color: &bad}}
	if _, err := p.Apply(Default()); err == nil {
		t.Error("Apply() with invalid colour expected error")
	}
}

func TestLoadProfiles_Errors(t *testing.T) {
	if _, err := LoadProfiles(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
	if _, err := LoadProfiles(writeProfiles(t, "default_profile: none\n")); err == nil {
		t.Error("file without profiles: expected error")
	}
}

// TestDumpProfile_RoundTrip checks a dumped configuration loads back to the
// same values.
func TestDumpProfile_RoundTrip(t *testing.T) {
	want := Default()
	want.Start, want.End = 12.5, 42
	want.Background = BackgroundSolid
	bg := RGB{1, 2, 3}
	want.BackgroundColor = &bg
	want.Waveform.Bars = 24
	want.OutputPath = "out.mp4"

	var buf bytes.Buffer
	if err := DumpProfile(&buf, "mine", want); err != nil {
		t.Fatalf("DumpProfile() error: %v", err)
	}
	if !strings.Contains(buf.String(), "default_profile: mine") {
		t.Errorf("dump missing default_profile:\n%s", buf.String())
	}

	set, err := LoadProfiles(writeProfiles(t, buf.String()))
	if err != nil {
		t.Fatalf("LoadProfiles(dump) error: %v\n%s", err, buf.String())
	}
	p, err := set.Get("")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	got, err := p.Apply(Default())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if got.Start != want.Start || got.End != want.End {
		t.Errorf("window = [%v, %v), want [%v, %v)", got.Start, got.End, want.Start, want.End)
	}
	if got.BackgroundColor == nil || *got.BackgroundColor != bg {
		t.Errorf("BackgroundColor = %v, want %v", got.BackgroundColor, bg)
	}
	if got.Waveform != want.Waveform {
		t.Errorf("Waveform = %+v, want %+v", got.Waveform, want.Waveform)
	}
	if got.Shadow != want.Shadow || got.OutputPath != want.OutputPath {
		t.Errorf("shadow/output mismatch: %+v %q", got.Shadow, got.OutputPath)
	}
}
