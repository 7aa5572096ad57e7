package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/linuxmatters/jivereel/internal/config"
	"github.com/linuxmatters/jivereel/internal/renderer"
)

// PreviewConfig holds configuration for the video preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns the preview size for a 9:16 frame. Terminal
// cells are roughly twice as tall as they are wide.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  config.PreviewCols,
		Height: config.PreviewRows,
	}
}

// DownsampleFrame box-filters a composed frame down to one colour per
// terminal cell.
func DownsampleFrame(frame *renderer.Frame, cfg PreviewConfig) [][]color.RGBA {
	if frame == nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	small := imaging.Resize(frame.RGBA(), cfg.Width, cfg.Height, imaging.Box)

	preview := make([][]color.RGBA, cfg.Height)
	for row := 0; row < cfg.Height; row++ {
		preview[row] = make([]color.RGBA, cfg.Width)
		for col := 0; col < cfg.Width; col++ {
			i := small.PixOffset(col, row)
			preview[row][col] = color.RGBA{R: small.Pix[i], G: small.Pix[i+1], B: small.Pix[i+2], A: 255}
		}
	}

	return preview
}

// RenderPreview converts an RGB preview grid to a string representation
// using ANSI 24-bit true color escape codes
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	// Format: \x1b[48;2;R;G;Bm for background color, space character as pixel, \x1b[0m to reset
	var result strings.Builder

	result.WriteString("  Video Preview:\n")
	result.WriteString("  ┌" + strings.Repeat("─", len(preview[0])) + "┐\n")

	for _, row := range preview {
		result.WriteString("  │")
		for _, pixel := range row {
			fmt.Fprintf(&result, "\x1b[48;2;%d;%d;%dm \x1b[0m", pixel.R, pixel.G, pixel.B)
		}
		result.WriteString("│\n")
	}

	result.WriteString("  └" + strings.Repeat("─", len(preview[0])) + "┘\n")

	return result.String()
}
