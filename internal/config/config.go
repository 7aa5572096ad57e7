package config

// Video settings
const (
	Width  = 1080
	Height = 1920
	FPS    = 60
)

// Background settings
const (
	BlurRadius = 50.0
)

// Foreground image settings
const (
	ImageWidthPercent = 65.0
	CornerRadius      = 30
	AutoPosition      = -1 // Sentinel for auto-centre on either axis
)

// Shadow settings
const (
	ShadowOffsetX    = 10
	ShadowOffsetY    = 10
	ShadowBlurRadius = 15.0
	ShadowDarkness   = 0.5
)

// Waveform settings
const (
	NumBars             = 50
	BarSpacingRatio     = 0.2
	SmoothingFactor     = 0.35
	WaveHeightPercent   = 15.0
	WaveSpacing         = 215 // Vertical gap between image and waveform
	MinDB               = -80.0
	MaxDB               = 0.0
	BarShadowAlpha      = 180
	DefaultWaveColorHex = "#FFFFFF"
)

// Audio analysis settings
const (
	FFTSize         = 2048
	FallbackHop     = 512 // Hop length when sample_rate/fps rounds to zero
	MinRMSFrameSize = 1024
)

// Appearance - poster styling
const (
	// Brand yellow #F8B31D - used for poster title text
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29

	PosterMargin              = 60    // Margin in pixels from edges for poster text
	PosterMaxFontSize         = 150.0 // Search starts here and shrinks until the title fits
	PosterTextRotationDegrees = 3.0   // Clockwise tilt of the poster title
)

// Terminal preview size in cells
const (
	PreviewCols = 27
	PreviewRows = 24
)
