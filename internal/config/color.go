package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel colour without alpha.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ParseHexColor parses "RRGGBB" or "#RRGGBB" (case-insensitive).
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// RGBFromHex is ParseHexColor returning an RGB.
func RGBFromHex(s string) (RGB, error) {
	r, g, b, err := ParseHexColor(s)
	if err != nil {
		return RGB{}, err
	}
	return RGB{r, g, b}, nil
}

// Hex formats the colour as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Luminance returns the perceptual luminance 0.299R + 0.587G + 0.114B.
func (c RGB) Luminance() float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
