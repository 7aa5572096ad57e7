package config

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Profile is a named preset from a profiles file. Nil fields leave the
// underlying configuration untouched.
type Profile struct {
	Name        string            `mapstructure:"-" yaml:"-"`
	DisplayName string            `mapstructure:"display_name" yaml:"display_name,omitempty"`
	InputOutput InputOutputPreset `mapstructure:"input_output" yaml:"input_output,omitempty"`
	Video       VideoPreset       `mapstructure:"video" yaml:"video,omitempty"`
	Background  BackgroundPreset  `mapstructure:"background" yaml:"background,omitempty"`
	Image       ImagePreset       `mapstructure:"image" yaml:"image,omitempty"`
	Shadow      ShadowPreset      `mapstructure:"shadow" yaml:"shadow,omitempty"`
	Waveform    WaveformPreset    `mapstructure:"waveform" yaml:"waveform,omitempty"`
}

type InputOutputPreset struct {
	UseAudioDuration *bool   `mapstructure:"use_audio_duration" yaml:"use_audio_duration,omitempty"`
	AudioStartTime   *string `mapstructure:"audio_start_time" yaml:"audio_start_time,omitempty"`
	AudioEndTime     *string `mapstructure:"audio_end_time" yaml:"audio_end_time,omitempty"`
	OutputFilename   *string `mapstructure:"output_filename" yaml:"output_filename,omitempty"`
}

type VideoPreset struct {
	FPS    *int `mapstructure:"fps" yaml:"fps,omitempty"`
	Width  *int `mapstructure:"width" yaml:"width,omitempty"`
	Height *int `mapstructure:"height" yaml:"height,omitempty"`
}

type BackgroundPreset struct {
	Mode       *string  `mapstructure:"mode" yaml:"mode,omitempty"`
	BlurRadius *float64 `mapstructure:"blur_radius" yaml:"blur_radius,omitempty"`
	ImageFit   *string  `mapstructure:"image_fit" yaml:"image_fit,omitempty"`
	Color      *string  `mapstructure:"color" yaml:"color,omitempty"`
}

type ImagePreset struct {
	WidthPercentage *float64 `mapstructure:"width_percentage" yaml:"width_percentage,omitempty"`
	CornerRadius    *int     `mapstructure:"corner_radius" yaml:"corner_radius,omitempty"`
	XPosition       *int     `mapstructure:"x_position" yaml:"x_position,omitempty"`
	YPosition       *int     `mapstructure:"y_position" yaml:"y_position,omitempty"`
}

type ShadowPreset struct {
	OffsetX        *int     `mapstructure:"offset_x" yaml:"offset_x,omitempty"`
	OffsetY        *int     `mapstructure:"offset_y" yaml:"offset_y,omitempty"`
	BlurRadius     *float64 `mapstructure:"blur_radius" yaml:"blur_radius,omitempty"`
	DarknessFactor *float64 `mapstructure:"darkness_factor" yaml:"darkness_factor,omitempty"`
}

type WaveformPreset struct {
	Enabled          *bool    `mapstructure:"enabled" yaml:"enabled,omitempty"`
	AnalysisMode     *string  `mapstructure:"analysis_mode" yaml:"analysis_mode,omitempty"`
	ColorMode        *string  `mapstructure:"color_mode" yaml:"color_mode,omitempty"`
	Color            *string  `mapstructure:"color" yaml:"color,omitempty"`
	HeightPercentage *float64 `mapstructure:"height_percentage" yaml:"height_percentage,omitempty"`
	BarCount         *int     `mapstructure:"bar_count" yaml:"bar_count,omitempty"`
	BarSpacingRatio  *float64 `mapstructure:"bar_spacing_ratio" yaml:"bar_spacing_ratio,omitempty"`
	SmoothingFactor  *float64 `mapstructure:"smoothing_factor" yaml:"smoothing_factor,omitempty"`
	SpacingFromImage *int     `mapstructure:"spacing_from_image" yaml:"spacing_from_image,omitempty"`
	MinDB            *float64 `mapstructure:"min_db" yaml:"min_db,omitempty"`
	MaxDB            *float64 `mapstructure:"max_db" yaml:"max_db,omitempty"`
}

// ProfileSet is the parsed content of a profiles file.
type ProfileSet struct {
	Default  string
	Profiles map[string]Profile
}

// LoadProfiles reads a YAML profiles file: a default_profile key plus one
// mapping per profile. Profile names are case-insensitive.
func LoadProfiles(path string) (*ProfileSet, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}

	set := &ProfileSet{
		Default:  strings.ToLower(v.GetString("default_profile")),
		Profiles: make(map[string]Profile),
	}

	for key, val := range v.AllSettings() {
		if _, ok := val.(map[string]interface{}); !ok {
			continue
		}
		var p Profile
		if err := v.Sub(key).Unmarshal(&p); err != nil {
			return nil, fmt.Errorf("parsing profile %q: %w", key, err)
		}
		p.Name = key
		set.Profiles[key] = p
	}

	if len(set.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles found in %s", path)
	}
	if set.Default != "" {
		if _, ok := set.Profiles[set.Default]; !ok {
			warnf("default_profile %q is not defined in %s", set.Default, path)
			set.Default = ""
		}
	}
	return set, nil
}

// Names returns the profile names in sorted order.
func (s *ProfileSet) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the named profile, or the default profile for "".
func (s *ProfileSet) Get(name string) (Profile, error) {
	name = strings.ToLower(name)
	if name == "" {
		name = s.Default
	}
	if name == "" {
		return Profile{}, fmt.Errorf("no profile requested and no default_profile set")
	}
	p, ok := s.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(s.Names(), ", "))
	}
	return p, nil
}

// Apply overlays the profile's set fields onto c.
func (p Profile) Apply(c RenderConfig) (RenderConfig, error) {
	inOut := p.InputOutput
	setBool(&c.UseAudioDuration, inOut.UseAudioDuration)
	if inOut.AudioStartTime != nil {
		c.Start = ParseTimecode(*inOut.AudioStartTime)
	}
	if inOut.AudioEndTime != nil {
		c.End = ParseTimecode(*inOut.AudioEndTime)
	}
	setString(&c.OutputPath, inOut.OutputFilename)

	setInt(&c.FPS, p.Video.FPS)
	setInt(&c.Width, p.Video.Width)
	setInt(&c.Height, p.Video.Height)

	bg := p.Background
	if bg.Mode != nil {
		c.Background = BackgroundMode(*bg.Mode)
	}
	setFloat(&c.BlurRadius, bg.BlurRadius)
	if bg.ImageFit != nil {
		c.Fit = FitMode(*bg.ImageFit)
	}
	if bg.Color != nil {
		if *bg.Color == "" {
			c.BackgroundColor = nil
		} else {
			rgb, err := RGBFromHex(*bg.Color)
			if err != nil {
				return c, fmt.Errorf("profile %q background.color: %w", p.Name, err)
			}
			c.BackgroundColor = &rgb
		}
	}

	img := p.Image
	setFloat(&c.ImageWidthPercent, img.WidthPercentage)
	setInt(&c.CornerRadius, img.CornerRadius)
	setInt(&c.X, img.XPosition)
	setInt(&c.Y, img.YPosition)

	sh := p.Shadow
	setInt(&c.Shadow.OffsetX, sh.OffsetX)
	setInt(&c.Shadow.OffsetY, sh.OffsetY)
	setFloat(&c.Shadow.BlurRadius, sh.BlurRadius)
	setFloat(&c.Shadow.Darkness, sh.DarknessFactor)

	wf := p.Waveform
	setBool(&c.Waveform.Enabled, wf.Enabled)
	if wf.AnalysisMode != nil {
		c.Waveform.Mode = AnalysisMode(*wf.AnalysisMode)
	}
	if wf.ColorMode != nil {
		c.Waveform.ColorMode = ColorMode(*wf.ColorMode)
	}
	if wf.Color != nil {
		rgb, err := RGBFromHex(*wf.Color)
		if err != nil {
			return c, fmt.Errorf("profile %q waveform.color: %w", p.Name, err)
		}
		c.Waveform.Color = rgb
	}
	setFloat(&c.Waveform.HeightPercent, wf.HeightPercentage)
	setInt(&c.Waveform.Bars, wf.BarCount)
	setFloat(&c.Waveform.SpacingRatio, wf.BarSpacingRatio)
	setFloat(&c.Waveform.Smoothing, wf.SmoothingFactor)
	setInt(&c.Waveform.Spacing, wf.SpacingFromImage)
	setFloat(&c.Waveform.MinDB, wf.MinDB)
	setFloat(&c.Waveform.MaxDB, wf.MaxDB)

	return c, nil
}

// ProfileFromConfig captures every field of c as a fully populated profile.
func ProfileFromConfig(name string, c RenderConfig) Profile {
	start := FormatTimecode(c.Start)
	end := FormatTimecode(c.End)
	bgColor := ""
	if c.BackgroundColor != nil {
		bgColor = c.BackgroundColor.Hex()
	}
	waveColor := c.Waveform.Color.Hex()
	mode := string(c.Background)
	fit := string(c.Fit)
	analysis := string(c.Waveform.Mode)
	colorMode := string(c.Waveform.ColorMode)

	return Profile{
		Name:        name,
		DisplayName: name,
		InputOutput: InputOutputPreset{
			UseAudioDuration: &c.UseAudioDuration,
			AudioStartTime:   &start,
			AudioEndTime:     &end,
			OutputFilename:   &c.OutputPath,
		},
		Video: VideoPreset{FPS: &c.FPS, Width: &c.Width, Height: &c.Height},
		Background: BackgroundPreset{
			Mode:       &mode,
			BlurRadius: &c.BlurRadius,
			ImageFit:   &fit,
			Color:      &bgColor,
		},
		Image: ImagePreset{
			WidthPercentage: &c.ImageWidthPercent,
			CornerRadius:    &c.CornerRadius,
			XPosition:       &c.X,
			YPosition:       &c.Y,
		},
		Shadow: ShadowPreset{
			OffsetX:        &c.Shadow.OffsetX,
			OffsetY:        &c.Shadow.OffsetY,
			BlurRadius:     &c.Shadow.BlurRadius,
			DarknessFactor: &c.Shadow.Darkness,
		},
		Waveform: WaveformPreset{
			Enabled:          &c.Waveform.Enabled,
			AnalysisMode:     &analysis,
			ColorMode:        &colorMode,
			Color:            &waveColor,
			HeightPercentage: &c.Waveform.HeightPercent,
			BarCount:         &c.Waveform.Bars,
			BarSpacingRatio:  &c.Waveform.SpacingRatio,
			SmoothingFactor:  &c.Waveform.Smoothing,
			SpacingFromImage: &c.Waveform.Spacing,
			MinDB:            &c.Waveform.MinDB,
			MaxDB:            &c.Waveform.MaxDB,
		},
	}
}

// DumpProfile writes c as a profiles document containing one profile that
// is also the default, so the output can be fed back through --profiles.
func DumpProfile(w io.Writer, name string, c RenderConfig) error {
	doc := map[string]interface{}{
		"default_profile": name,
		name:              ProfileFromConfig(name, c),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return enc.Close()
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
